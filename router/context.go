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
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cast"

	"rivaas.dev/endpoint/logging"
	"rivaas.dev/endpoint/pattern"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/telemetry/semconv"
)

// Context is the per-request state shared by the filters and the handler of
// one request. It is created when a request arrives and discarded once the
// response is written; it must not be retained or used from other
// goroutines after the handler returns.
type Context struct {
	// Request is the request being served. Filters may replace it, for
	// example with Request.WithContext; use SetContext for that.
	Request *http.Request

	router   *Router
	writer   http.ResponseWriter
	route    *Route
	values   pattern.Values
	outcome  Outcome
	allowed  []string
	items    map[string]any
	inFlight result.Result
	logger   *slog.Logger
}

func newContext(r *Router, w http.ResponseWriter, req *http.Request, res Resolution) *Context {
	return &Context{
		Request: req,
		router:  r,
		writer:  w,
		route:   res.Route,
		values:  res.Values,
		outcome: res.Outcome,
		allowed: res.Allowed,
	}
}

// Context returns the request context. Long-running filters and handlers
// should observe its Done channel and return its error.
func (c *Context) Context() context.Context { return c.Request.Context() }

// SetContext replaces the request context.
func (c *Context) SetContext(ctx context.Context) {
	c.Request = c.Request.WithContext(ctx)
	c.logger = nil
}

// ResponseWriter returns the underlying writer. Writing to it directly
// bypasses the result model; it is meant for protocol upgrades. Headers set
// on it before the response is written are sent with every response,
// including rendered errors.
func (c *Context) ResponseWriter() http.ResponseWriter { return c.writer }

// Route returns the matched route, or nil when no route matched and the
// router-global filters run for a 404 or 405 response.
func (c *Context) Route() *Route { return c.route }

// RouteTemplate returns the matched route's template, or "" when no route
// matched.
func (c *Context) RouteTemplate() string {
	if c.route == nil {
		return ""
	}

	return c.route.Template()
}

// Outcome returns how the request was resolved.
func (c *Context) Outcome() Outcome { return c.outcome }

// Allowed returns the methods the path accepts when the outcome is
// MethodNotAllowed.
func (c *Context) Allowed() []string { return c.allowed }

// Param returns the raw text bound to a route parameter, or "" when the
// parameter is absent.
func (c *Context) Param(name string) string {
	return c.values[name].Raw
}

// Value returns the bound value of a route parameter, including its typed
// form and whether it was present in the path.
func (c *Context) Value(name string) (pattern.Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Values returns every bound route value.
func (c *Context) Values() pattern.Values { return c.values }

// ParamInt returns a route parameter as int64. Parameters constrained with
// int or long are returned as coerced; others are converted from their text.
func (c *Context) ParamInt(name string) (int64, error) {
	v, ok := c.values[name]
	if !ok || !v.Present {
		return 0, fmt.Errorf("route parameter %q is absent", name)
	}

	if n, ok := v.Typed.(int64); ok {
		return n, nil
	}

	return cast.ToInt64E(v.Raw)
}

// Query returns the first value of a query parameter.
func (c *Context) Query(name string) string {
	return c.Request.URL.Query().Get(name)
}

// Header returns a request header.
func (c *Context) Header(name string) string {
	return c.Request.Header.Get(name)
}

// Set stores a per-request value for later stages.
func (c *Context) Set(key string, value any) {
	if c.items == nil {
		c.items = make(map[string]any)
	}
	c.items[key] = value
}

// Get returns a value stored with Set.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.items[key]
	return v, ok
}

// SetResult sets the in-flight result. A stage that returns a nil result
// and a nil error yields the in-flight result instead.
func (c *Context) SetResult(res result.Result) { c.inFlight = res }

// Result returns the in-flight result: the last result set with SetResult
// or returned by an inner stage.
func (c *Context) Result() result.Result { return c.inFlight }

// BaseLogger returns the logger stored in the request context with
// logging.NewContext, or the router logger. Filters that enrich the
// request logger start from it.
func (c *Context) BaseLogger() *slog.Logger {
	return logging.FromContext(c.Context(), c.router.logger)
}

// Logger returns [Context.BaseLogger] with request attributes attached.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		c.logger = c.BaseLogger().With(
			semconv.HTTPMethod, c.Request.Method,
			semconv.HTTPTarget, c.Request.URL.Path,
			semconv.HTTPRoute, c.RouteTemplate(),
		)
	}

	return c.logger
}

// Services returns the router's service resolver, or nil.
func (c *Context) Services() Services { return c.router.services }
