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

// Package router provides the route table, route groups and the filter
// pipeline of the endpoint engine.
//
// # Registration
//
// Routes are registered during startup with a template (see package
// pattern), a handler and optional methods:
//
//	r := router.MustNew(router.WithLogger(logger))
//	r.Use(requestid.New(), recovery.New())
//
//	api := r.Group("/api").WithTags("api")
//	v1 := api.Group("/v1").RequireAuthorization()
//	v1.GET("/products/{id:int}", getProduct).WithName("products.get")
//	v1.GET("/health", health).AllowAnonymous()
//
// Registration fails with a *pattern.CompileError for invalid templates and
// with an *AmbiguousRouteError when a new route cannot be told apart from
// an existing one. The GET, POST, ... helpers panic on these errors; Handle
// returns them.
//
// # Resolution
//
// A request path is matched against every candidate route. Among routes
// accepting the method the most specific wins: literal segments outrank
// constrained parameters, which outrank plain parameters, then optional
// parameters, then catch-alls. A path that matches only routes for other
// methods yields 405 with an Allow header; no match yields 404.
//
// # Filters
//
// Every route runs a chain of filters around its handler, in this order:
// router-global filters, authorization, group filters from outer to inner
// group, endpoint filters, handler. Group filters, metadata and
// authorization requirements are read from the group chain until the router
// is sealed, so they apply to routes registered earlier. Seal freezes them.
//
// Handlers return (any, error). The value is converted with result.From;
// errors are rendered as RFC 9457 problem details.
package router
