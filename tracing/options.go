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

package tracing

import (
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Tracer].
type Option func(*Tracer)

// WithServiceName sets service.name on the trace resource.
func WithServiceName(name string) Option {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// WithServiceVersion sets service.version on the trace resource.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) {
		t.serviceVersion = version
	}
}

// WithSampleRate samples root spans with the given probability in [0, 1].
// Child spans follow their parent's decision. Default: 1.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) {
		t.sampleRate = rate
	}
}

// WithNoop records nothing.
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
		t.providerSetCount++
	}
}

// WithStdout prints spans to stdout.
func WithStdout() Option {
	return WithStdoutWriter(nil)
}

// WithStdoutWriter prints spans as JSON to w. A nil w means stdout.
func WithStdoutWriter(w io.Writer) Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.stdout = w
		t.providerSetCount++
	}
}

// WithOTLP exports spans over OTLP/gRPC to endpoint ("host:port").
func WithOTLP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
	}
}

// WithOTLPHTTP exports spans over OTLP/HTTP. An http:// endpoint
// disables TLS.
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
	}
}

// WithOTLPInsecure disables TLS for the OTLP/gRPC exporter.
func WithOTLPInsecure(insecure bool) Option {
	return func(t *Tracer) {
		t.otlpInsecure = insecure
	}
}

// WithTracerProvider uses a caller-owned tracer provider. The tracer never
// shuts it down.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.provider = CustomProvider
		t.tracerProvider = provider
		t.customTracerProvider = true
		t.providerSetCount++
	}
}

// WithGlobalTracerProvider registers the tracer provider with
// otel.SetTracerProvider and the propagator with otel.SetTextMapPropagator.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) {
		t.registerGlobal = true
	}
}

// WithPropagator replaces the default W3C trace context and baggage
// propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		t.propagator = p
	}
}

// WithEventHandler receives internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(t *Tracer) {
		t.eventHandler = handler
	}
}

// WithLogger logs internal operational events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) {
		t.eventHandler = DefaultEventHandler(logger)
	}
}
