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

// Package bodylimit provides a filter that limits the size of request
// bodies.
//
// # Basic Usage
//
//	r := router.MustNew()
//	r.Use(bodylimit.New(bodylimit.WithLimit(10 << 20))) // 10MB
//
// Requests whose Content-Length exceeds the limit are rejected with a 413
// problem before any inner stage runs. Other bodies are wrapped with
// [http.MaxBytesReader]; when an inner stage reads past the limit and
// returns the resulting [*http.MaxBytesError], the filter answers 413 as
// well.
//
// Limits can differ per group or route:
//
//	uploads := r.Group("/uploads").Use(bodylimit.New(bodylimit.WithLimit(50 << 20)))
package bodylimit
