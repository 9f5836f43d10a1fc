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

package cors

import (
	"net/http"
	"strconv"
	"strings"

	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

type config struct {
	allowedOrigins   []string
	allowAllOrigins  bool
	allowedMethods   []string
	allowedHeaders   []string
	exposedHeaders   []string
	allowCredentials bool
	maxAge           int
	allowOriginFunc  func(origin string) bool
}

func defaultConfig() *config {
	return &config{
		allowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		allowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:         3600,
	}
}

// New returns a CORS filter.
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	methods := strings.Join(cfg.allowedMethods, ", ")
	allowHeaders := strings.Join(cfg.allowedHeaders, ", ")
	exposed := strings.Join(cfg.exposedHeaders, ", ")
	maxAge := ""
	if cfg.maxAge > 0 {
		maxAge = strconv.Itoa(cfg.maxAge)
	}

	return func(c *router.Context, next router.Next) (result.Result, error) {
		origin := c.Request.Header.Get("Origin")
		h := c.ResponseWriter().Header()
		h.Add("Vary", "Origin")

		if origin == "" {
			return next(c)
		}

		allowOrigin, ok := cfg.allow(origin)
		if !ok {
			return next(c)
		}

		h.Set("Access-Control-Allow-Origin", allowOrigin)
		if cfg.allowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions && c.Request.Header.Get("Access-Control-Request-Method") != "" {
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", methods)
			if allowHeaders != "" {
				h.Set("Access-Control-Allow-Headers", allowHeaders)
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}

			return result.NoContent(), nil
		}

		if exposed != "" {
			h.Set("Access-Control-Expose-Headers", exposed)
		}

		return next(c)
	}
}

// allow returns the Access-Control-Allow-Origin value for origin.
func (cfg *config) allow(origin string) (string, bool) {
	if cfg.allowAllOrigins {
		if cfg.allowCredentials {
			return origin, true
		}
		return "*", true
	}

	for _, o := range cfg.allowedOrigins {
		if strings.EqualFold(o, origin) {
			return origin, true
		}
	}

	if cfg.allowOriginFunc != nil && cfg.allowOriginFunc(origin) {
		return origin, true
	}

	return "", false
}
