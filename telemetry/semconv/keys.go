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

package semconv

// Service identity, attached once when a logger or provider is built.
const (
	ServiceName       = "service.name"
	ServiceVersion    = "service.version"
	ServiceNamespace  = "service.namespace"
	DeploymentEnviron = "deployment.environment"
)

// HTTP request and response attributes.
const (
	HTTPMethod = "http.method"

	// HTTPRoute is the route template, never the concrete path.
	HTTPRoute = "http.route"

	// HTTPTarget is the concrete request path.
	HTTPTarget     = "http.target"
	HTTPStatusCode = "http.status_code"
	HTTPScheme     = "http.scheme"
	HTTPUserAgent  = "user_agent.original"
)

// Routing outcome attributes.
const (
	// RouteName is the effective route name, when one is set.
	RouteName = "route.name"

	// RouteOutcome is "matched", "not_found" or "method_not_allowed".
	RouteOutcome = "route.outcome"
)

const (
	NetworkPeerIP   = "network.peer.ip"
	NetworkClientIP = "network.client.ip"
)

// Trace correlation keys in log records.
const (
	TraceID = "trace_id"
	SpanID  = "span_id"
)

const (
	RequestID = "req.id"

	// ErrorID is the identifier placed in problem responses.
	ErrorID = "error.id"

	// DurationMS is the request duration in milliseconds.
	DurationMS = "duration_ms"
)

// Unmatched is the HTTPRoute value used for requests no route matched, so
// that metrics never use raw paths as labels.
const Unmatched = "unmatched"
