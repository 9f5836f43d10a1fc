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

// Package auth provides router authorizers for bearer JWTs and HTTP Basic
// credentials.
//
// Both implement router.Authorizer. They authenticate the request, check
// the route's policies against the caller's roles and place the
// authenticated [Principal] in the request context:
//
//	jwtAuth := auth.MustNewJWT([]byte(os.Getenv("JWT_KEY")),
//	    auth.WithIssuer("https://id.example.com"),
//	)
//	r := router.MustNew(router.WithAuthorizer(jwtAuth))
//
//	admin := r.Group("/admin").RequireAuthorization("admin")
//	admin.GET("/stats", func(c *router.Context) (any, error) {
//	    p, _ := auth.FromContext(c.Context())
//	    return map[string]string{"caller": p.Subject}, nil
//	})
//
// A policy is satisfied when the principal holds a role of the same name,
// unless a custom check is registered with [WithPolicy]. A route's policies
// accumulate from its groups and all of them must be satisfied.
package auth
