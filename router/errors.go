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
	"net/http"
	"strings"

	riverrors "rivaas.dev/endpoint/errors"
)

var (
	// ErrSealed indicates that the route table no longer accepts changes.
	ErrSealed = errors.New("route table is sealed")

	// ErrAmbiguousRoute indicates that two routes would match the same
	// requests with equal specificity. It is wrapped by [AmbiguousRouteError].
	ErrAmbiguousRoute = errors.New("ambiguous route")

	// ErrDuplicateName indicates that two routes share a name.
	ErrDuplicateName = errors.New("duplicate route name")

	// ErrNilHandler indicates that a route was registered without a handler.
	ErrNilHandler = errors.New("handler must not be nil")

	// ErrInvalidMethod indicates that a method is not a valid HTTP token.
	ErrInvalidMethod = errors.New("invalid HTTP method")

	// ErrNoAuthorizer indicates that a route requires authorization but the
	// router has no Authorizer.
	ErrNoAuthorizer = errors.New("route requires authorization but no authorizer is configured")

	// ErrRouteNotFound indicates that no route has the requested name.
	ErrRouteNotFound = errors.New("route not found")

	// ErrServiceUnavailable indicates that a bound handler parameter could not
	// be resolved from the configured Services.
	ErrServiceUnavailable = errors.New("service not available")

	// ErrServerTimeoutInvalid indicates that a server timeout is not positive.
	ErrServerTimeoutInvalid = errors.New("server timeout must be positive")

	// ErrNilFormatter indicates that WithErrorFormatter was given nil.
	ErrNilFormatter = errors.New("error formatter must not be nil")

	// ErrUnauthenticated is returned by an Authorizer when the request carries
	// no valid credentials. It renders as 401.
	ErrUnauthenticated = riverrors.WithStatus(errors.New("authentication required"), http.StatusUnauthorized)

	// ErrForbidden is returned by an Authorizer when the caller is known but
	// not allowed. It renders as 403.
	ErrForbidden = riverrors.WithStatus(errors.New("access denied"), http.StatusForbidden)
)

// AmbiguousRouteError reports a registration that would make request
// resolution ambiguous.
type AmbiguousRouteError struct {
	Methods  []string // Overlapping methods; empty means every method
	Template string   // Template being registered
	Existing string   // Template already in the table
}

func (e *AmbiguousRouteError) Error() string {
	methods := "*"
	if len(e.Methods) > 0 {
		methods = strings.Join(e.Methods, ",")
	}

	return fmt.Sprintf("%v: %s %s conflicts with %s", ErrAmbiguousRoute, methods, e.Template, e.Existing)
}

func (e *AmbiguousRouteError) Unwrap() error { return ErrAmbiguousRoute }

// HandlerFault is a failure inside the filter chain of one request: either a
// recovered panic or an error that could not be rendered.
// It always renders as 500.
type HandlerFault struct {
	Route string // Template of the matched route, empty when none matched
	Value any    // Recovered panic value; nil for returned errors
	Err   error  // Underlying error, if any
	Stack []byte // Stack at the point of the panic
}

func (f *HandlerFault) Error() string {
	switch {
	case f.Err != nil && f.Value == nil:
		return fmt.Sprintf("handler fault: %v", f.Err)
	case f.Route != "":
		return fmt.Sprintf("handler panic in %s: %v", f.Route, f.Value)
	default:
		return fmt.Sprintf("handler panic: %v", f.Value)
	}
}

func (f *HandlerFault) Unwrap() error { return f.Err }

// HTTPStatus implements errors.ErrorType.
func (f *HandlerFault) HTTPStatus() int { return http.StatusInternalServerError }
