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
	"fmt"
	"net/http"
	"strings"

	riverrors "rivaas.dev/endpoint/errors"
	"rivaas.dev/endpoint/result"
)

// HandlerFunc handles a matched request. Its return value is converted with
// result.From: return a result.Result to control the response fully, or any
// other value to send it as JSON. A non-nil error is rendered by the
// router's error formatter.
type HandlerFunc func(c *Context) (any, error)

// Next invokes the rest of the chain.
type Next func(c *Context) (result.Result, error)

// Filter intercepts a request around the inner stages.
//
// Code before next runs outer to inner; code after next runs inner to
// outer and sees the inner result. A filter that returns without calling
// next short-circuits every inner stage, including the handler.
//
// Example:
//
//	func Timing(c *router.Context, next router.Next) (result.Result, error) {
//	    start := time.Now()
//	    res, err := next(c)
//	    if res != nil {
//	        res.Header().Set("Server-Timing", fmt.Sprintf("app;dur=%d", time.Since(start).Milliseconds()))
//	    }
//	    return res, err
//	}
type Filter func(c *Context, next Next) (result.Result, error)

// StatusOf returns the status the router sends for the outcome of next:
// the formatter's status for err, the status of res, or the in-flight
// result's status when both are nil.
func StatusOf(c *Context, res result.Result, err error) int {
	switch {
	case err != nil:
		var status int
		if c.router != nil {
			status = c.router.formatter.Format(c.Request, err).Status
		}
		if status == 0 {
			status = riverrors.StatusOf(err)
		}

		return status
	case res != nil:
		return res.Status()
	case c.inFlight != nil:
		return c.inFlight.Status()
	default:
		return http.StatusOK
	}
}

// FilterFunc adapts a function that only runs before the inner stages.
// Returning a non-nil result or error short-circuits.
func FilterFunc(before func(c *Context) (result.Result, error)) Filter {
	return func(c *Context, next Next) (result.Result, error) {
		res, err := before(c)
		if res != nil || err != nil {
			return res, err
		}

		return next(c)
	}
}

// chain composes filters around a terminal stage, outermost first.
// A stage returning a nil result and nil error yields the in-flight result.
func chain(filters []Filter, terminal Next) Next {
	next := terminal
	for i := len(filters) - 1; i >= 0; i-- {
		f, inner := filters[i], next
		next = func(c *Context) (result.Result, error) {
			res, err := f(c, inner)
			if err != nil {
				return nil, err
			}
			if res == nil {
				res = c.inFlight
			}
			c.inFlight = res

			return res, nil
		}
	}

	return next
}

// handlerStage runs the handler and converts its return value.
func handlerStage(h HandlerFunc) Next {
	return func(c *Context) (result.Result, error) {
		v, err := h(c)
		if err != nil {
			return nil, err
		}

		var res result.Result
		if v == nil && c.inFlight != nil {
			res = c.inFlight
		} else {
			res = result.From(v)
		}
		c.inFlight = res

		return res, nil
	}
}

func notFoundStage(c *Context) (result.Result, error) {
	return result.NotFound(fmt.Sprintf("no route matches %s", c.Request.URL.Path)), nil
}

func methodNotAllowedStage(c *Context) (result.Result, error) {
	res := result.Problem(http.StatusMethodNotAllowed, "",
		fmt.Sprintf("%s is not allowed for %s", c.Request.Method, c.Request.URL.Path))
	res.Header().Set("Allow", strings.Join(c.allowed, ", "))

	return res, nil
}

// buildRouteChain lays out the stages of a route:
//
//	router-global filters, authorization, group filters outer to inner,
//	endpoint filters, handler.
func (r *Router) buildRouteChain(rt *Route, m *routeMeta) Next {
	filters := make([]Filter, 0, len(m.filters)+1)
	filters = append(filters, m.filters[:m.global]...)
	if m.requireAuth && r.authorizer != nil {
		filters = append(filters, authorizeFilter(r.authorizer, m.policies))
	}
	filters = append(filters, m.filters[m.global:]...)

	return chain(filters, handlerStage(rt.handler))
}
