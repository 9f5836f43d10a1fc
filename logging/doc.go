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

// Package logging builds the structured [slog.Logger] used by the router,
// the stock filters and the demo server.
//
// A Logger wraps one of three handlers (JSON, text or a colored console
// handler for development) and adds:
//
//   - service identity attributes on every record
//   - trace_id and span_id on records logged with a context that carries an
//     OpenTelemetry span
//   - redaction of common secret keys such as password or authorization
//   - optional sampling of records below error level
//
// Basic usage:
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithServiceName("orders"),
//	    logging.WithServiceVersion("v1.4.2"),
//	)
//	defer logger.Shutdown()
//
//	r := router.MustNew(router.WithLogger(logger.Slog()))
//
// The level can be changed at runtime with [Logger.SetLevel] unless a
// custom logger was supplied with [WithCustomLogger].
package logging
