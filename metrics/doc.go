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

// Package metrics records request metrics for a router with OpenTelemetry.
// It supports Prometheus, OTLP and stdout exporters.
//
// # Basic Usage
//
//	recorder := metrics.MustNew(
//	    metrics.WithPrometheus(),
//	    metrics.WithServiceName("orders"),
//	)
//	defer recorder.Shutdown(context.Background())
//
//	r := router.MustNew()
//	r.Use(recorder.Filter(metrics.WithExcludePaths("/healthz")))
//
//	handler, _ := recorder.Handler()
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", handler)
//	mux.Handle("/", r)
//
// # Labels
//
// Requests are labeled with the route template, never the concrete path,
// so a route such as /orders/{id:int} is a single series. Requests no route
// matched are labeled "unmatched" together with their routing outcome
// (not_found or method_not_allowed).
//
// # Global State
//
// By default, this package does NOT set the global OpenTelemetry meter
// provider. Use [WithGlobalMeterProvider] if you want global registration.
//
// # Custom Metrics
//
// Custom counters, histograms and gauges are created on first use and are
// limited (default 1000) to prevent unbounded metric creation:
//
//	if err := recorder.IncrementCounter(ctx, "orders_placed_total",
//	    attribute.String("channel", "web")); err != nil {
//	    logger.Warn("metrics error", "error", err)
//	}
package metrics
