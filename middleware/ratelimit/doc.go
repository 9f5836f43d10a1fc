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

// Package ratelimit provides a token bucket rate limiting filter keyed per
// client.
//
// # Basic Usage
//
//	r := router.MustNew()
//	r.Use(ratelimit.New(
//	    ratelimit.WithRequestsPerSecond(100),
//	    ratelimit.WithBurst(20),
//	))
//
// Buckets are keyed by client IP unless [WithKeyFunc] says otherwise.
// Requests whose key is empty are not limited.
//
// # Rate Limit Headers
//
// Every response carries the draft IETF headers:
//
//   - RateLimit-Limit: the bucket size
//   - RateLimit-Remaining: tokens left after this request
//   - RateLimit-Reset: seconds until the bucket is full again
//
// A rejected request gets a 429 problem with Retry-After unless a custom
// handler is set with [WithHandler].
//
// Idle buckets are evicted after [WithLimiterTTL] (default 10 minutes).
package ratelimit
