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

// Package requestid provides a filter that assigns a unique ID to each
// request.
//
// The ID is taken from the request header when clients may supply one, or
// generated (UUID v7 by default, ULID optionally). It is stored in the
// request context, added to the request logger as req.id and echoed in the
// response header.
//
// # Basic Usage
//
//	r := router.MustNew()
//	r.Use(requestid.New())
//
//	r.GET("/orders", func(c *router.Context) (any, error) {
//	    c.Logger().Info("listing orders") // carries req.id
//	    return requestid.Get(c), nil
//	})
//
// # Generators
//
//	requestid.New(requestid.WithULID())
//	requestid.New(requestid.WithGenerator(func() string { return xid.New().String() }))
package requestid
