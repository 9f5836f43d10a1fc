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

package bodylimit

import (
	"errors"
	"fmt"
	"net/http"

	"rivaas.dev/endpoint/internal/pathfilter"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

// DefaultLimit is the body limit when none is configured.
const DefaultLimit int64 = 2 << 20 // 2MB

// Option configures the body limit filter.
type Option func(*config)

type config struct {
	limit   int64
	skip    *pathfilter.Filter
	handler func(c *router.Context, limit int64) result.Result
}

func defaultConfig() *config {
	return &config{
		limit: DefaultLimit,
		skip:  pathfilter.New(),
	}
}

// WithLimit sets the maximum body size in bytes.
func WithLimit(bytes int64) Option {
	return func(cfg *config) {
		cfg.limit = bytes
	}
}

// WithSkipPaths exempts exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.skip.AddPaths(paths...)
	}
}

// WithErrorHandler replaces the default 413 problem.
func WithErrorHandler(fn func(c *router.Context, limit int64) result.Result) Option {
	return func(cfg *config) {
		cfg.handler = fn
	}
}

// New returns a body limit filter.
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context, next router.Next) (result.Result, error) {
		req := c.Request
		if req.Body == nil || req.Body == http.NoBody || cfg.skip.Match(req.URL.Path) {
			return next(c)
		}

		if req.ContentLength > cfg.limit {
			return cfg.reject(c), nil
		}

		req.Body = http.MaxBytesReader(c.ResponseWriter(), req.Body, cfg.limit)

		res, err := next(c)

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return cfg.reject(c), nil
		}

		return res, err
	}
}

func (cfg *config) reject(c *router.Context) result.Result {
	if cfg.handler != nil {
		return cfg.handler(c, cfg.limit)
	}

	return result.Problem(http.StatusRequestEntityTooLarge, "",
		fmt.Sprintf("request body exceeds %d bytes", cfg.limit))
}
