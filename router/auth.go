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
	"net/http"

	"rivaas.dev/endpoint/result"
)

// Authorizer decides whether a request may reach a route that requires
// authorization. The router contains no authentication scheme of its own;
// see the auth package for JWT and Basic implementations.
//
// Authorize returns ErrUnauthenticated (401) when credentials are missing or
// invalid and ErrForbidden (403) when they do not satisfy the policies,
// possibly wrapped. Any other error is rendered by the error formatter. A
// non-nil context replaces the request context, typically to carry the
// authenticated principal.
type Authorizer interface {
	Authorize(req *http.Request, policies []string) (context.Context, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(req *http.Request, policies []string) (context.Context, error)

// Authorize calls f(req, policies).
func (f AuthorizerFunc) Authorize(req *http.Request, policies []string) (context.Context, error) {
	return f(req, policies)
}

func authorizeFilter(a Authorizer, policies []string) Filter {
	return func(c *Context, next Next) (result.Result, error) {
		ctx, err := a.Authorize(c.Request, policies)
		if err != nil {
			return nil, err
		}
		if ctx != nil {
			c.SetContext(ctx)
		}

		return next(c)
	}
}
