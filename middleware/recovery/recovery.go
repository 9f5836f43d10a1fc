// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package recovery

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

// Option configures the recovery filter.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	useRouter  bool
	handler    func(c *router.Context, v any) result.Result
	stackTrace bool
	stackSize  int
	stackAll   bool
}

func defaultConfig() *config {
	return &config{
		useRouter:  true,
		handler:    defaultHandler,
		stackTrace: true,
		stackSize:  4 << 10,
	}
}

// WithLogger logs panics to logger instead of the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
		cfg.useRouter = false
	}
}

// WithoutLogging disables panic logging.
func WithoutLogging() Option {
	return func(cfg *config) {
		cfg.logger = nil
		cfg.useRouter = false
	}
}

// WithHandler builds the response for a recovered panic value.
func WithHandler(handler func(c *router.Context, v any) result.Result) Option {
	return func(cfg *config) {
		cfg.handler = handler
	}
}

// WithStackTrace enables or disables stack capture. Default: true.
func WithStackTrace(enabled bool) Option {
	return func(cfg *config) {
		cfg.stackTrace = enabled
	}
}

// WithStackSize bounds the captured stack in bytes. Default: 4KB.
func WithStackSize(size int) Option {
	return func(cfg *config) {
		cfg.stackSize = size
	}
}

// WithStackAll captures the stacks of all goroutines.
func WithStackAll(enabled bool) Option {
	return func(cfg *config) {
		cfg.stackAll = enabled
	}
}

func defaultHandler(_ *router.Context, _ any) result.Result {
	return result.Problem(http.StatusInternalServerError, "", "")
}

// New returns a filter that recovers panics from inner stages.
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context, next router.Next) (res result.Result, err error) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			var stack []byte
			if cfg.stackTrace {
				stack = make([]byte, cfg.stackSize)
				stack = stack[:runtime.Stack(stack, cfg.stackAll)]
			}

			logger := cfg.logger
			if cfg.useRouter {
				logger = c.Logger()
			}
			if logger != nil {
				args := []any{"panic", v}
				if stack != nil {
					args = append(args, "stack", string(stack))
				}
				logger.ErrorContext(c.Context(), "panic recovered", args...)
			}

			markSpan(c, v, stack)

			res, err = cfg.handler(c, v), nil
		}()

		return next(c)
	}
}

func markSpan(c *router.Context, v any, stack []byte) {
	span := trace.SpanFromContext(c.Context())
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("exception.type", fmt.Sprintf("%T", v)),
		attribute.String("exception.message", fmt.Sprint(v)),
		attribute.Bool("exception.escaped", true),
	}
	if stack != nil {
		attrs = append(attrs, attribute.String("exception.stacktrace", string(stack)))
	}
	span.AddEvent("exception", trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, fmt.Sprint(v))
}
