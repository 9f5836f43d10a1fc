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

// Package tracing provides OpenTelemetry distributed tracing for a router.
// It supports Noop, Stdout and OTLP (gRPC or HTTP) exporters.
//
// # Basic Usage
//
//	tracer, err := tracing.New(
//	    tracing.WithServiceName("orders"),
//	    tracing.WithServiceVersion("v1.4.0"),
//	    tracing.WithOTLP("collector:4317"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := tracer.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	r := router.MustNew()
//	r.Use(tracer.Filter(tracing.WithExcludePaths("/healthz")))
//
// # Spans
//
// The filter starts one server span per request, named after the method and
// the route template ("GET /orders/{id:int}"), continuing any trace carried
// in the request headers. The span is stored in the request context so
// loggers built with the logging package add trace_id and span_id to every
// record. Unmatched requests produce "GET unmatched" spans.
//
// Handlers add their own spans with the OpenTelemetry API:
//
//	ctx, span := tracer.Tracer().Start(c.Context(), "load-order")
//	defer span.End()
//
// # Global State
//
// By default, this package does NOT set the global OpenTelemetry tracer
// provider. Use [WithGlobalTracerProvider] if you want global registration.
package tracing
