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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"rivaas.dev/endpoint/telemetry/semconv"
)

// Default histogram buckets.
var (
	// DefaultDurationBuckets are histogram boundaries for request duration in seconds.
	DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// DefaultSizeBuckets are histogram boundaries for response size in bytes.
	DefaultSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
)

// Errors returned by [New] and [Recorder.Handler].
var (
	ErrConflictingProviders = errors.New("metrics: only one of WithPrometheus, WithOTLP, WithStdout or WithMeterProvider can be used")
	ErrEmptyServiceName     = errors.New("metrics: service name cannot be empty")
	ErrNoHandler            = errors.New("metrics: handler only available with the Prometheus provider")
)

const meterName = "rivaas.dev/endpoint/metrics"

// EventType represents the severity of an internal operational event.
type EventType int

const (
	// EventError indicates an error event (e.g., failed to export metrics).
	EventError EventType = iota
	// EventWarning indicates a warning event.
	EventWarning
	// EventInfo indicates an informational event.
	EventInfo
	// EventDebug indicates a debug event.
	EventDebug
)

// Event is an internal operational event of the metrics package.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events.
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler that logs events to logger.
// If logger is nil, events are discarded.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}

	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

// Provider names a metrics exporter.
type Provider string

const (
	// PrometheusProvider exposes metrics through [Recorder.Handler].
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes metrics to an OTLP collector over HTTP.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints metrics to stdout.
	StdoutProvider Provider = "stdout"
	// CustomProvider is a meter provider supplied with [WithMeterProvider].
	CustomProvider Provider = "custom"
)

// Recorder owns the meter provider and the request instruments.
// All methods are safe for concurrent use.
type Recorder struct {
	provider            Provider
	providerSetCount    int
	meterProvider       metric.MeterProvider
	customMeterProvider bool
	registerGlobal      bool
	meter               metric.Meter

	otlpEndpoint   string
	exportInterval time.Duration

	prometheusRegistry *promclient.Registry
	prometheusHandler  http.Handler

	serviceName        string
	serviceVersion     string
	serviceNameAttr    attribute.KeyValue
	serviceVersionAttr attribute.KeyValue

	durationBuckets []float64
	sizeBuckets     []float64
	eventHandler    EventHandler

	requestDuration      metric.Float64Histogram
	requestCount         metric.Int64Counter
	activeRequests       metric.Int64UpDownCounter
	responseSize         metric.Int64Histogram
	errorCount           metric.Int64Counter
	customMetricFailures metric.Int64Counter

	customMu          sync.RWMutex
	customCounters    map[string]metric.Int64Counter
	customHistograms  map[string]metric.Float64Histogram
	customGauges      map[string]metric.Float64Gauge
	customMetricCount int
	maxCustomMetrics  int

	shutdownOnce   sync.Once
	isShuttingDown atomic.Bool
	shutdownErr    error
}

// New creates a [Recorder]. Without a provider option the Prometheus
// provider is used.
//
// Example:
//
//	recorder, err := metrics.New(
//	    metrics.WithOTLP("http://collector:4318"),
//	    metrics.WithServiceName("orders"),
//	    metrics.WithServiceVersion("v1.4.0"),
//	)
func New(opts ...Option) (*Recorder, error) {
	r := newDefaultRecorder()
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, err
	}

	r.serviceNameAttr = attribute.String(semconv.ServiceName, r.serviceName)
	r.serviceVersionAttr = attribute.String(semconv.ServiceVersion, r.serviceVersion)

	if err := r.initializeProvider(); err != nil {
		return nil, err
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize metrics: %v", err))
	}

	return r
}

func newDefaultRecorder() *Recorder {
	return &Recorder{
		provider:         PrometheusProvider,
		serviceName:      "rivaas-service",
		serviceVersion:   "v1.0.0",
		exportInterval:   30 * time.Second,
		durationBuckets:  DefaultDurationBuckets,
		sizeBuckets:      DefaultSizeBuckets,
		maxCustomMetrics: 1000,
		customCounters:   make(map[string]metric.Int64Counter),
		customHistograms: make(map[string]metric.Float64Histogram),
		customGauges:     make(map[string]metric.Float64Gauge),
	}
}

func (r *Recorder) validate() error {
	if r.providerSetCount > 1 {
		return ErrConflictingProviders
	}
	if r.serviceName == "" {
		return ErrEmptyServiceName
	}
	if r.maxCustomMetrics < 1 {
		return fmt.Errorf("metrics: max custom metrics must be at least 1, got %d", r.maxCustomMetrics)
	}
	if r.exportInterval < time.Second {
		r.emitWarning("export interval is very low, may cause high CPU usage", "interval", r.exportInterval)
	}
	if r.provider == OTLPProvider && r.otlpEndpoint == "" {
		r.emitWarning("OTLP endpoint not specified, using default", "default", "http://localhost:4318")
		r.otlpEndpoint = "http://localhost:4318"
	}

	return nil
}

// Handler returns the Prometheus scrape handler. It returns [ErrNoHandler]
// for every other provider.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.provider != PrometheusProvider || r.prometheusHandler == nil {
		return nil, fmt.Errorf("%w, current provider: %s", ErrNoHandler, r.provider)
	}

	return r.prometheusHandler, nil
}

// Provider returns the configured provider.
func (r *Recorder) Provider() Provider { return r.provider }

// ServiceName returns the service name attached to every request metric.
func (r *Recorder) ServiceName() string { return r.serviceName }

// ServiceVersion returns the service version attached to every request metric.
func (r *Recorder) ServiceVersion() string { return r.serviceVersion }

// Shutdown flushes pending metrics and shuts the meter provider down.
// A provider supplied with [WithMeterProvider] is left to its owner.
// Only the first call does any work; later calls return its error.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.shutdownOnce.Do(func() {
		r.isShuttingDown.Store(true)

		if r.customMeterProvider {
			r.emitDebug("skipping shutdown of custom meter provider")
			return
		}

		mp, ok := r.meterProvider.(*sdkmetric.MeterProvider)
		if !ok {
			return
		}
		if err := mp.ForceFlush(ctx); err != nil {
			r.emitWarning("metrics flush failed", "error", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			r.shutdownErr = fmt.Errorf("meter provider shutdown: %w", err)
		}
	})

	return r.shutdownErr
}

// ForceFlush exports pending metric data without shutting down. It is a
// no-op for the pull-based Prometheus provider.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r.isShuttingDown.Load() {
		return nil
	}

	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics force flush: %w", err)
		}
	}

	return nil
}

func (r *Recorder) emitWarning(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventWarning, Message: msg, Args: args})
	}
}

func (r *Recorder) emitDebug(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
	}
}
