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

package router

import (
	"log/slog"
	"time"

	"rivaas.dev/endpoint/constraint"
	riverrors "rivaas.dev/endpoint/errors"
)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for faults, seal failures and
// request-scoped logging through Context.Logger.
// A nil logger keeps the default, which discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConstraints resolves route constraints against reg instead of the
// built-in registry. Use it to register custom constraints:
//
//	reg := constraint.NewRegistry()
//	_ = reg.Register("slug", func(constraint.Spec) (constraint.Constraint, error) {
//	    return constraint.Func("slug", isSlug), nil
//	})
//	r := router.MustNew(router.WithConstraints(reg))
//	r.GET("/posts/{slug:slug}", showPost)
func WithConstraints(reg *constraint.Registry) Option {
	return func(r *Router) {
		r.constraints = reg
	}
}

// WithCaseSensitive makes literal path segments match case-sensitively.
// Matching is case-insensitive by default.
func WithCaseSensitive(enabled bool) Option {
	return func(r *Router) {
		r.caseSensitive = enabled
	}
}

// WithAuthorizer sets the Authorizer consulted for routes that require
// authorization. Sealing fails if such a route exists and no Authorizer is
// configured.
func WithAuthorizer(a Authorizer) Option {
	return func(r *Router) {
		r.authorizer = a
	}
}

// WithServices sets the service resolver used by handlers created with Bind.
func WithServices(s Services) Option {
	return func(r *Router) {
		r.services = s
	}
}

// WithDiagnostics sets a diagnostic handler for the router.
//
// Example with OpenTelemetry:
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    span := trace.SpanFromContext(ctx)
//	    if span.IsRecording() {
//	        span.AddEvent(e.Message, trace.WithAttributes(
//	            attribute.String("diagnostic.kind", string(e.Kind)),
//	        ))
//	    }
//	})
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(r *Router) {
		r.diagnostics = handler
	}
}

// WithErrorFormatter sets how errors returned by filters and handlers are
// rendered. The default is an RFC 9457 problem details formatter.
func WithErrorFormatter(f riverrors.Formatter) Option {
	return func(r *Router) {
		r.formatter = f
		r.formatterSet = true
	}
}

// WithErrorDetails exposes the message of 5xx errors in problem details.
// Only enable it in development. It has no effect when a custom formatter
// is set with WithErrorFormatter.
func WithErrorDetails(enabled bool) Option {
	return func(r *Router) {
		r.exposeErrors = enabled
	}
}

// WithH2C enables HTTP/2 Cleartext support in Serve.
//
// ⚠️ SECURITY WARNING: Only use in development or behind a trusted load balancer.
// DO NOT enable on public-facing servers without TLS.
func WithH2C(enable bool) Option {
	return func(r *Router) {
		r.enableH2C = enable
	}
}

// WithServerTimeouts configures the timeouts of the server started by Serve.
//
// Defaults (if not set):
//
//	ReadHeaderTimeout: 5s
//	ReadTimeout:       15s
//	WriteTimeout:      30s
//	IdleTimeout:       60s
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(r *Router) {
		r.serverTimeouts = &serverTimeouts{
			readHeader: readHeader,
			read:       read,
			write:      write,
			idle:       idle,
		}
	}
}

// WithShutdownTimeout bounds how long Serve waits for in-flight requests
// after its context is canceled. Default: 30s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(r *Router) {
		r.shutdownTimeout = d
	}
}

type serverTimeouts struct {
	readHeader time.Duration
	read       time.Duration
	write      time.Duration
	idle       time.Duration
}

func defaultServerTimeouts() *serverTimeouts {
	return &serverTimeouts{
		readHeader: 5 * time.Second,
		read:       15 * time.Second,
		write:      30 * time.Second,
		idle:       60 * time.Second,
	}
}
