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
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	otelsemconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const tracerName = "rivaas.dev/endpoint/tracing"

func (t *Tracer) initializeProvider() error {
	switch t.provider {
	case CustomProvider:
		if t.tracerProvider == nil {
			return fmt.Errorf("tracing: custom tracer provider is nil")
		}
		t.emitDebug("using custom tracer provider")
	case NoopProvider:
		t.install(sdktrace.NewTracerProvider(
			sdktrace.WithResource(t.resource()),
			sdktrace.WithSampler(sdktrace.NeverSample()),
		))
	case StdoutProvider:
		opts := []stdouttrace.Option{}
		if t.stdout != nil {
			opts = append(opts, stdouttrace.WithWriter(t.stdout))
		} else {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err := stdouttrace.New(opts...)
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		t.install(t.newSDKProvider(exporter))
	default:
		return fmt.Errorf("tracing: unsupported provider %q", t.provider)
	}

	t.finish()

	return nil
}

// initOTLP builds the OTLP exporters, which need a lifecycle context.
func (t *Tracer) initOTLP(ctx context.Context) error {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch t.provider {
	case OTLPProvider:
		opts := []otlptracegrpc.Option{}
		if t.otlpEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(t.otlpEndpoint))
		}
		if t.otlpInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	case OTLPHTTPProvider:
		opts := []otlptracehttp.Option{}
		if t.otlpEndpoint != "" {
			endpoint, insecure := splitEndpoint(t.otlpEndpoint)
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
			if insecure {
				opts = append(opts, otlptracehttp.WithInsecure())
			}
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s exporter: %w", t.provider, err)
	}

	t.install(t.newSDKProvider(exporter))
	t.finish()
	t.emitInfo("tracing initialized", "provider", t.provider, "endpoint", t.otlpEndpoint, "service", t.serviceName)

	return nil
}

func (t *Tracer) newSDKProvider(exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(t.resource()),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	)
}

func (t *Tracer) install(tp *sdktrace.TracerProvider) {
	t.sdkProvider = tp
	t.tracerProvider = tp
}

// finish creates the tracer and registers globals when asked to.
func (t *Tracer) finish() {
	t.tracer = t.tracerProvider.Tracer(tracerName)

	if t.registerGlobal {
		t.emitDebug("setting global OpenTelemetry tracer provider", "provider", t.provider)
		otel.SetTracerProvider(t.tracerProvider)
		otel.SetTextMapPropagator(t.propagator)
	}
}

func (t *Tracer) resource() *resource.Resource {
	return resource.NewWithAttributes(
		otelsemconv.SchemaURL,
		otelsemconv.ServiceName(t.serviceName),
		otelsemconv.ServiceVersion(t.serviceVersion),
	)
}

// splitEndpoint strips the scheme and path from an endpoint URL and
// reports whether the scheme was plain http.
func splitEndpoint(raw string) (hostport string, insecure bool) {
	hostport = raw
	if trimmed, ok := strings.CutPrefix(hostport, "http://"); ok {
		hostport, insecure = trimmed, true
	} else if trimmed, ok := strings.CutPrefix(hostport, "https://"); ok {
		hostport = trimmed
	}

	if idx := strings.Index(hostport, "/"); idx != -1 {
		hostport = hostport[:idx]
	}

	return hostport, insecure
}
