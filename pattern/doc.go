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

// Package pattern compiles route templates and matches request paths
// against them.
//
// A compiled [Pattern] is a sequence of literal, parameter and catch-all
// segments. Matching yields [Values]: one entry per declared parameter. An
// optional parameter missing from the path is bound with Present == false,
// which is distinct from a present empty value (parameters never match an
// empty segment).
//
// Every pattern has a [Specificity], a per-segment rank sequence used to pick
// a winner when several patterns match one path:
//
//	literal > constrained parameter > parameter >
//	constrained optional > optional > catch-all
//
// Example:
//
//	p := pattern.MustCompile("/users/{id:int}")
//	values, ok := p.Match("/users/42")
//	// ok == true, values["id"].Typed == int64(42)
package pattern
