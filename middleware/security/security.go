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

// Package security provides a filter that adds security headers to every
// response.
package security

import (
	"fmt"
	"net/http"
	"strings"

	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

// Option configures the security filter.
type Option func(*config)

type config struct {
	frameOptions          string
	contentTypeNosniff    bool
	hstsMaxAge            int
	hstsIncludeSubdomains bool
	hstsPreload           bool
	trustForwardedProto   bool
	contentSecurityPolicy string
	referrerPolicy        string
	permissionsPolicy     string
	crossOriginOpener     string
	customHeaders         map[string]string
}

func defaultConfig() *config {
	return &config{
		frameOptions:          "DENY",
		contentTypeNosniff:    true,
		hstsMaxAge:            31536000, // 1 year
		hstsIncludeSubdomains: true,
		contentSecurityPolicy: "default-src 'self'",
		referrerPolicy:        "strict-origin-when-cross-origin",
		crossOriginOpener:     "same-origin",
		customHeaders:         make(map[string]string),
	}
}

// WithFrameOptions sets X-Frame-Options. Empty omits the header.
// Default: DENY
func WithFrameOptions(value string) Option {
	return func(cfg *config) {
		cfg.frameOptions = value
	}
}

// WithContentTypeNosniff toggles X-Content-Type-Options: nosniff.
func WithContentTypeNosniff(enabled bool) Option {
	return func(cfg *config) {
		cfg.contentTypeNosniff = enabled
	}
}

// WithHSTS configures Strict-Transport-Security. A maxAge of zero disables
// it. The header is only sent on HTTPS requests.
func WithHSTS(maxAge int, includeSubdomains, preload bool) Option {
	return func(cfg *config) {
		cfg.hstsMaxAge = maxAge
		cfg.hstsIncludeSubdomains = includeSubdomains
		cfg.hstsPreload = preload
	}
}

// WithTrustForwardedProto treats X-Forwarded-Proto: https as HTTPS, for
// servers behind a TLS-terminating proxy.
func WithTrustForwardedProto() Option {
	return func(cfg *config) {
		cfg.trustForwardedProto = true
	}
}

// WithContentSecurityPolicy sets Content-Security-Policy.
//
// Example:
//
//	security.New(security.WithContentSecurityPolicy(
//	    "default-src 'self'; script-src 'self' https://cdn.example.com",
//	))
func WithContentSecurityPolicy(policy string) Option {
	return func(cfg *config) {
		cfg.contentSecurityPolicy = policy
	}
}

// WithReferrerPolicy sets Referrer-Policy.
func WithReferrerPolicy(policy string) Option {
	return func(cfg *config) {
		cfg.referrerPolicy = policy
	}
}

// WithPermissionsPolicy sets Permissions-Policy.
func WithPermissionsPolicy(policy string) Option {
	return func(cfg *config) {
		cfg.permissionsPolicy = policy
	}
}

// WithCrossOriginOpenerPolicy sets Cross-Origin-Opener-Policy.
// Default: same-origin
func WithCrossOriginOpenerPolicy(policy string) Option {
	return func(cfg *config) {
		cfg.crossOriginOpener = policy
	}
}

// WithCustomHeader adds a fixed header.
func WithCustomHeader(name, value string) Option {
	return func(cfg *config) {
		cfg.customHeaders[name] = value
	}
}

// New returns a filter that sets security headers. The headers are set
// before inner stages run, so error and not-found responses carry them
// too; a result may still override any of them.
//
//	r := router.MustNew()
//	r.Use(security.New())
//
// Defaults:
//   - X-Frame-Options: DENY
//   - X-Content-Type-Options: nosniff
//   - Strict-Transport-Security: max-age=31536000; includeSubDomains (HTTPS only)
//   - Content-Security-Policy: default-src 'self'
//   - Referrer-Policy: strict-origin-when-cross-origin
//   - Cross-Origin-Opener-Policy: same-origin
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	static := make(http.Header)
	set := func(name, value string) {
		if value != "" {
			static.Set(name, value)
		}
	}
	set("X-Frame-Options", cfg.frameOptions)
	if cfg.contentTypeNosniff {
		set("X-Content-Type-Options", "nosniff")
	}
	set("Content-Security-Policy", cfg.contentSecurityPolicy)
	set("Referrer-Policy", cfg.referrerPolicy)
	set("Permissions-Policy", cfg.permissionsPolicy)
	set("Cross-Origin-Opener-Policy", cfg.crossOriginOpener)
	for name, value := range cfg.customHeaders {
		set(name, value)
	}

	var hsts string
	if cfg.hstsMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.hstsMaxAge)
		if cfg.hstsIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.hstsPreload {
			hsts += "; preload"
		}
	}

	return func(c *router.Context, next router.Next) (result.Result, error) {
		h := c.ResponseWriter().Header()
		for name, values := range static {
			h[name] = values
		}

		if hsts != "" && cfg.secure(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		return next(c)
	}
}

func (cfg *config) secure(req *http.Request) bool {
	if req.TLS != nil {
		return true
	}

	return cfg.trustForwardedProto && strings.EqualFold(req.Header.Get("X-Forwarded-Proto"), "https")
}
