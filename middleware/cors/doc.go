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

// Package cors provides a Cross-Origin Resource Sharing filter.
//
// Register it with Router.Use so preflight requests are answered even for
// paths that have no OPTIONS route:
//
//	r := router.MustNew()
//	r.Use(cors.New(
//	    cors.WithAllowedOrigins("https://app.example.com"),
//	    cors.WithAllowCredentials(true),
//	))
//
// A preflight request (OPTIONS with Origin and
// Access-Control-Request-Method) from an allowed origin is answered with
// 204 and never reaches the route. Other requests from an allowed origin
// run normally and every response, errors included, carries the
// Access-Control-* headers. Requests from other origins run without CORS
// headers, so the browser blocks the response.
package cors
