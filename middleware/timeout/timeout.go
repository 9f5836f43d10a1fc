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

package timeout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rivaas.dev/endpoint/internal/pathfilter"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

// DefaultDuration is the timeout used when none is configured.
const DefaultDuration = 30 * time.Second

// Option configures the timeout filter.
type Option func(*config)

type config struct {
	duration  time.Duration
	logger    *slog.Logger
	useRouter bool
	handler   func(c *router.Context, d time.Duration) result.Result
	skip      *pathfilter.Filter
	suffixes  []string
	skipFunc  func(c *router.Context) bool
}

func defaultConfig() *config {
	return &config{
		duration:  DefaultDuration,
		useRouter: true,
		handler:   defaultHandler,
		skip:      pathfilter.New(),
	}
}

// WithDuration sets the timeout. Default: 30s.
func WithDuration(d time.Duration) Option {
	return func(cfg *config) {
		cfg.duration = d
	}
}

// WithLogger logs timeouts to logger instead of the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
		cfg.useRouter = false
	}
}

// WithoutLogging disables timeout logging.
func WithoutLogging() Option {
	return func(cfg *config) {
		cfg.logger = nil
		cfg.useRouter = false
	}
}

// WithHandler builds the response sent when the deadline expires.
func WithHandler(handler func(c *router.Context, d time.Duration) result.Result) Option {
	return func(cfg *config) {
		cfg.handler = handler
	}
}

// WithSkipPaths exempts exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.skip.AddPaths(paths...)
	}
}

// WithSkipPrefix exempts paths with any of the prefixes.
func WithSkipPrefix(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.skip.AddPrefixes(prefixes...)
	}
}

// WithSkipSuffix exempts paths with any of the suffixes.
func WithSkipSuffix(suffixes ...string) Option {
	return func(cfg *config) {
		cfg.suffixes = append(cfg.suffixes, suffixes...)
	}
}

// WithSkip exempts requests for which fn returns true.
func WithSkip(fn func(c *router.Context) bool) Option {
	return func(cfg *config) {
		cfg.skipFunc = fn
	}
}

func defaultHandler(_ *router.Context, d time.Duration) result.Result {
	return result.Problem(http.StatusGatewayTimeout, "",
		fmt.Sprintf("request did not complete within %s", d))
}

func (cfg *config) skipped(c *router.Context) bool {
	path := c.Request.URL.Path
	if cfg.skip.Match(path) {
		return true
	}
	for _, s := range cfg.suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}

	return cfg.skipFunc != nil && cfg.skipFunc(c)
}

// New returns a filter that enforces a deadline on inner stages. A
// non-positive duration disables it.
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context, next router.Next) (result.Result, error) {
		if cfg.duration <= 0 || cfg.skipped(c) {
			return next(c)
		}

		parent := c.Context()
		ctx, cancel := context.WithTimeout(parent, cfg.duration)
		defer cancel()
		c.SetContext(ctx)

		res, err := next(c)

		// Restore the parent so outer stages are not bound by the deadline.
		c.SetContext(parent)

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || parent.Err() != nil {
			return res, err
		}

		logger := cfg.logger
		if cfg.useRouter {
			logger = c.Logger()
		}
		if logger != nil {
			logger.WarnContext(parent, "request timed out", "timeout", cfg.duration)
		}

		return cfg.handler(c, cfg.duration), nil
	}
}
