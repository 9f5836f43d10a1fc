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

// Package errors renders handler errors as HTTP error bodies.
//
// Two formatters are provided:
//   - [RFC9457]: RFC 9457 Problem Details (application/problem+json), the
//     router default
//   - [Simple]: {"error": "..."} objects (application/json)
//
// Domain errors control the output through optional interfaces:
//
//   - [ErrorType]: declare the HTTP status code
//   - [ErrorDetails]: structured details; a map[string][]string becomes the
//     problem "errors" member
//   - [ErrorCode]: machine-readable code, used as the problem type
//
// [WithStatus] and [WithCode] attach a status or code to any error.
//
// Example:
//
//	func getOrder(c *router.Context) (any, error) {
//		order, err := store.Find(c.Param("id"))
//		if err != nil {
//			return nil, errors.WithStatus(err, http.StatusNotFound)
//		}
//		return order, nil
//	}
//
// Details of 5xx errors are replaced with a generic message unless the
// formatter's ExposeServerErrors field is set.
package errors
