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

// Package recovery provides a filter that turns panics in inner stages into
// a 500 problem response.
//
// The router already recovers panics at its outermost boundary. This filter
// adds what an application usually wants on top: a structured log record
// with a bounded stack trace, the panic recorded on the active
// OpenTelemetry span, and a customizable response.
//
// # Basic Usage
//
//	r := router.MustNew()
//	r.Use(recovery.New())
//
// Register it early so it covers every later filter.
//
// # Custom Response
//
//	r.Use(recovery.New(
//	    recovery.WithHandler(func(c *router.Context, v any) result.Result {
//	        return result.JSON(http.StatusInternalServerError, map[string]string{
//	            "error":      "internal error",
//	            "request_id": requestid.Get(c),
//	        })
//	    }),
//	))
//
// # OpenTelemetry Integration
//
// The span in the request context gets an exception event with
// exception.type, exception.message and exception.escaped, and its status
// is set to error.
package recovery
