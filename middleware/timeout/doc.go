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

// Package timeout provides a filter that bounds how long inner stages may
// run.
//
// The filter sets a deadline on the request context and runs the inner
// stages with it. Handlers must observe the context (ctx.Done(), or pass it
// to database and HTTP clients) for the deadline to take effect. When the
// deadline expires the inner result is discarded and a 504 problem is
// returned instead.
//
// # Basic Usage
//
//	r := router.MustNew()
//	r.Use(timeout.New(timeout.WithDuration(5 * time.Second)))
//
// # Skipping Routes
//
//	r.Use(timeout.New(
//	    timeout.WithSkipPaths("/webhook"),
//	    timeout.WithSkipPrefix("/admin/"),
//	    timeout.WithSkipSuffix("/stream"),
//	))
//
// # Handler Implementation
//
//	func report(c *router.Context) (any, error) {
//	    rows, err := db.QueryContext(c.Context(), query)
//	    if err != nil {
//	        return nil, err // context.DeadlineExceeded once the timeout fires
//	    }
//	    ...
//	}
package timeout
