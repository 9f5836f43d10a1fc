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

// Package constraint implements route parameter constraints.
//
// A constraint is referenced from a route template by name, optionally with
// arguments:
//
//	/users/{id:int}
//	/users/{name:alpha:minlength(3)}
//	/orders/{code:regex(^[A-Z]{{2}}\d+$)}
//
// Constraints are resolved once, when the template is compiled. Unknown names
// and malformed arguments fail compilation. At request time a rejected value
// makes the route a non-match; it is never reported to the client.
//
// Constraints that understand a type also coerce the value: int yields int64,
// guid yields uuid.UUID, datetime yields time.Time.
package constraint
