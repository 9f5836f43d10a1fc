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
	"errors"
	"net/http"
	"runtime/debug"

	"rivaas.dev/endpoint/result"
)

// ServeHTTP implements http.Handler.
//
// For each request:
//  1. Seals the route table on first use
//  2. Resolves the escaped path and method to a route
//  3. Runs the route's chain: global filters, authorization, group filters,
//     endpoint filters, handler. Unmatched requests run the global filters
//     around a 404 or 405 problem.
//  4. Renders a returned error with the error formatter
//  5. Writes the result
//
// Panics in filters or handlers are recovered into a *HandlerFault and
// answered with a generic 500 problem. When the client has gone away
// (context.Canceled) nothing is written.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if err := r.Seal(); err != nil {
		r.writeError(w, req, &HandlerFault{Err: err})
		return
	}

	res := r.Resolve(req.Method, req.URL.EscapedPath())
	c := newContext(r, w, req, res)

	var next Next
	switch res.Outcome {
	case Matched:
		next = res.Route.chain
	case MethodNotAllowed:
		next = r.methodNotAllowed
	default:
		next = r.notFound
	}

	out, err := r.invoke(c, next)
	r.finish(c, out, err)
}

// invoke runs next behind a panic boundary.
func (r *Router) invoke(c *Context, next Next) (res result.Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			fault := &HandlerFault{
				Route: c.RouteTemplate(),
				Value: v,
				Stack: debug.Stack(),
			}
			if e, ok := v.(error); ok {
				fault.Err = e
			}

			c.Logger().ErrorContext(c.Context(), "handler panic recovered",
				"panic", v,
				"stack", string(fault.Stack),
			)
			res, err = nil, fault
		}
	}()

	return next(c)
}

func (r *Router) finish(c *Context, res result.Result, err error) {
	req := c.Request

	if err == nil && res == nil {
		res = c.inFlight
		if res == nil {
			res = &result.StatusResult{}
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) && req.Context().Err() != nil {
			c.Logger().DebugContext(c.Context(), "client went away", "error", err)
			return
		}

		res = r.render(c, err)
	}

	resp, err := result.ToResponse(req, res)
	if err != nil {
		// The result itself could not be converted, e.g. a missing file or
		// a body that does not encode.
		resp, err = result.ToResponse(req, r.render(c, err))
		if err != nil {
			c.Logger().ErrorContext(c.Context(), "render error response failed", "error", err)
			http.Error(c.writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	if werr := result.WriteResponse(c.writer, req, resp); werr != nil {
		c.Logger().DebugContext(c.Context(), "write response failed", "error", werr)
	}
}

// render formats err and logs it. Panics are logged by invoke.
func (r *Router) render(c *Context, err error) result.Result {
	formatted := r.formatter.Format(c.Request, err)

	var fault *HandlerFault
	switch {
	case errors.As(err, &fault) && fault.Value != nil:
	case formatted.Status >= http.StatusInternalServerError:
		c.Logger().ErrorContext(c.Context(), "request failed", "status", formatted.Status, "error", err)
	default:
		c.Logger().DebugContext(c.Context(), "request rejected", "status", formatted.Status, "error", err)
	}

	return result.FromError(formatted)
}

// writeError renders err directly, outside any chain.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	if werr := result.Write(w, req, result.FromError(r.formatter.Format(req, err))); werr != nil {
		r.logger.Error("write response failed", "error", werr)
	}
}
