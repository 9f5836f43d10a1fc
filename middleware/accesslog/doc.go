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

// Package accesslog provides a filter that writes one structured log record
// per request.
//
// # Basic Usage
//
//	r := router.MustNew(router.WithLogger(logger.Slog()))
//	r.Use(requestid.New(), accesslog.New())
//
// Without [WithLogger] the record goes to the request logger, so it
// carries the attributes earlier filters attached, such as req.id, and the
// trace and span IDs.
//
// # Log Fields
//
//   - method, path, route, status, duration_ms
//   - client_ip: the peer address, or the forwarded client address when the
//     peer is a trusted proxy
//   - user_agent, size (when known before writing), slow, outcome
//
// 5xx responses are logged at error level, slow requests at warn level and
// the rest at info level.
//
// # Reducing Volume
//
//	accesslog.New(
//	    accesslog.WithExcludePaths("/healthz"),
//	    accesslog.WithSampleRate(0.1), // errors and slow requests are always logged
//	    accesslog.WithSlowThreshold(500*time.Millisecond),
//	)
package accesslog
