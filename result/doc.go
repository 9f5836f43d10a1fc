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

// Package result defines the outcomes handlers and filters return.
//
// A [Result] is one of five variants: status only, status with body,
// redirect, file and RFC 9457 problem. [ToResponse] maps each variant to a
// status, headers and body; [Write] sends that to an http.ResponseWriter.
//
// Handlers usually build results with the constructors:
//
//	return result.Created("/orders/"+id, order), nil
//	return result.NotFound("order not found"), nil
//	return result.RedirectPermanent("/v2/orders"), nil
//
// or return a plain value, which [From] wraps as 200 JSON.
package result
