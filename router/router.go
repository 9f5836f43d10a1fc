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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"rivaas.dev/endpoint/constraint"
	riverrors "rivaas.dev/endpoint/errors"
	"rivaas.dev/endpoint/pattern"
)

// noopLogger is a singleton no-op logger used when no logger is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Router resolves requests against a table of routes and runs the matched
// route's filter chain.
//
// Routes are registered during startup. The table is sealed by Seal or by
// the first request; after that it is read-only and safe for concurrent use.
type Router struct {
	root *Group

	mu     sync.RWMutex
	table  *table
	seq    int
	sealed atomic.Bool

	sealOnce sync.Once
	sealErr  error

	// frozen at seal
	notFound         Next
	methodNotAllowed Next

	logger        *slog.Logger
	constraints   *constraint.Registry
	caseSensitive bool
	authorizer    Authorizer
	services      Services
	diagnostics   DiagnosticHandler
	formatter     riverrors.Formatter
	formatterSet  bool
	exposeErrors  bool

	enableH2C       bool
	serverTimeouts  *serverTimeouts
	shutdownTimeout time.Duration
	serverMu        sync.Mutex
	server          *http.Server
}

// New creates a router with optional configuration.
//
// Returns an error if the configuration is invalid. For a version that
// panics instead, use MustNew.
//
// Example:
//
//	r, err := router.New(
//	    router.WithLogger(logger),
//	    router.WithServerTimeouts(10*time.Second, 30*time.Second, 60*time.Second, 120*time.Second),
//	)
//	if err != nil {
//	    log.Fatalf("Invalid router configuration: %v", err)
//	}
//	r.GET("/users/{id:int}", getUser)
func New(opts ...Option) (*Router, error) {
	r := &Router{
		table:           newTable(),
		logger:          noopLogger,
		shutdownTimeout: 30 * time.Second,
	}
	r.root = &Group{router: r}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("router configuration validation failed: %w", err)
	}

	if !r.formatterSet {
		f := riverrors.NewRFC9457("")
		f.ExposeServerErrors = r.exposeErrors
		r.formatter = f
	}

	return r, nil
}

// MustNew is like New but panics if the configuration is invalid.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("router.MustNew: %v", err))
	}

	return r
}

// validate checks the router configuration for common errors.
// Routes are validated at registration time.
func (r *Router) validate() error {
	if r.formatterSet && r.formatter == nil {
		return ErrNilFormatter
	}

	if t := r.serverTimeouts; t != nil {
		for name, d := range map[string]time.Duration{
			"read header": t.readHeader,
			"read":        t.read,
			"write":       t.write,
			"idle":        t.idle,
		} {
			if d <= 0 {
				return fmt.Errorf("%w: %s timeout is %v", ErrServerTimeoutInvalid, name, d)
			}
		}
	}

	if r.shutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout is %v", ErrServerTimeoutInvalid, r.shutdownTimeout)
	}

	return nil
}

// Root returns the group every route belongs to. Filters added to it run
// first on every request, including requests no route matches.
func (r *Router) Root() *Group { return r.root }

// Use adds router-global filters. See Group.Use.
func (r *Router) Use(filters ...Filter) *Group { return r.root.Use(filters...) }

// Group creates a top-level route group. See Group.Group.
func (r *Router) Group(prefix string) *Group { return r.root.Group(prefix) }

// Handle registers a route on the root group. See Group.Handle.
func (r *Router) Handle(template string, h HandlerFunc, methods ...string) (*Route, error) {
	return r.root.Handle(template, h, methods...)
}

// GET registers a GET route on the root group.
func (r *Router) GET(template string, h HandlerFunc) *Route { return r.root.GET(template, h) }

// POST registers a POST route on the root group.
func (r *Router) POST(template string, h HandlerFunc) *Route { return r.root.POST(template, h) }

// PUT registers a PUT route on the root group.
func (r *Router) PUT(template string, h HandlerFunc) *Route { return r.root.PUT(template, h) }

// PATCH registers a PATCH route on the root group.
func (r *Router) PATCH(template string, h HandlerFunc) *Route { return r.root.PATCH(template, h) }

// DELETE registers a DELETE route on the root group.
func (r *Router) DELETE(template string, h HandlerFunc) *Route { return r.root.DELETE(template, h) }

// HEAD registers a HEAD route on the root group.
func (r *Router) HEAD(template string, h HandlerFunc) *Route { return r.root.HEAD(template, h) }

// OPTIONS registers an OPTIONS route on the root group.
func (r *Router) OPTIONS(template string, h HandlerFunc) *Route { return r.root.OPTIONS(template, h) }

// Any registers a route accepting every method on the root group.
func (r *Router) Any(template string, h HandlerFunc) *Route { return r.root.Any(template, h) }

// Sealed reports whether the route table has been sealed.
func (r *Router) Sealed() bool { return r.sealed.Load() }

// Seal freezes the route table. It resolves every route's effective name,
// metadata, authorization requirement and filter chain from its group
// chain, checks route names for uniqueness and checks that an Authorizer is
// configured when a route needs one.
//
// Seal runs once; later calls return the first result. ServeHTTP and Serve
// call it automatically. After Seal, registration returns ErrSealed and the
// fluent group and route setters panic with it.
func (r *Router) Seal() error {
	r.sealOnce.Do(func() {
		r.sealErr = r.seal()
		if r.sealErr != nil {
			r.logger.Error("route table seal failed", "error", r.sealErr)
			r.emit(DiagSealFailed, "route table seal failed", map[string]any{"error": r.sealErr.Error()})
		}
	})

	return r.sealErr
}

func (r *Router) seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.sealed.Store(true)

	var errs []error
	names := make(map[string]*Route)

	for _, rt := range r.table.routes {
		m := rt.computeMeta()

		if m.name != "" {
			if prev, dup := names[m.name]; dup {
				errs = append(errs, fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateName, m.name, prev.Template(), rt.Template()))
			} else {
				names[m.name] = rt
			}
		}

		if m.requireAuth && r.authorizer == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoAuthorizer, rt.Template()))
		}

		rt.meta = m
		rt.chain = r.buildRouteChain(rt, m)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	r.table.names = names
	r.notFound = chain(r.root.filters, notFoundStage)
	r.methodNotAllowed = chain(r.root.filters, methodNotAllowedStage)

	r.logger.Debug("route table sealed", "routes", len(r.table.routes))
	r.emit(DiagRouterSealed, "route table sealed", map[string]any{"routes": len(r.table.routes)})

	return nil
}

// Resolve finds the route for method and an escaped request path.
// It may be called before the table is sealed.
func (r *Router) Resolve(method, path string) Resolution {
	if !r.sealed.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	return r.table.resolve(method, path)
}

// Routes returns the registered routes ordered by template, then method.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	out := make([]*Route, len(r.table.routes))
	copy(out, r.table.routes)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Template() != out[j].Template() {
			return out[i].Template() < out[j].Template()
		}

		return fmt.Sprint(out[i].methods) < fmt.Sprint(out[j].methods)
	})

	return out
}

// Route returns the route registered under name.
func (r *Router) Route(name string) (*Route, bool) {
	if name == "" {
		return nil, false
	}

	if r.sealed.Load() {
		rt, ok := r.table.names[name]
		return rt, ok
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.table.routes {
		if rt.computeMeta().name == name {
			return rt, true
		}
	}

	return nil, false
}

// URLFor builds the path of the route registered under name.
//
// Example:
//
//	api.GET("/orders/{id:int}", getOrder).WithName("orders.get")
//	path, err := r.URLFor("orders.get", map[string]any{"id": 42}) // "/orders/42"
func (r *Router) URLFor(name string, values map[string]any) (string, error) {
	rt, ok := r.Route(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}

	return rt.pattern.Expand(values)
}

func (r *Router) compile(template string) (*pattern.Pattern, error) {
	opts := []pattern.Option{pattern.WithCaseSensitive(r.caseSensitive)}
	if r.constraints != nil {
		opts = append(opts, pattern.WithRegistry(r.constraints))
	}

	return pattern.Compile(template, opts...)
}

// mustBeOpen panics with ErrSealed once the table is sealed.
func (r *Router) mustBeOpen() {
	if r.sealed.Load() {
		panic(ErrSealed)
	}
}
