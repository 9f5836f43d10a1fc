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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Default identity of the traced service.
const (
	DefaultServiceName    = "rivaas-service"
	DefaultServiceVersion = "1.0.0"
)

// Provider names a trace exporter.
type Provider string

const (
	// NoopProvider records nothing. It is the default.
	NoopProvider Provider = "noop"
	// StdoutProvider prints spans to stdout.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports spans over OTLP/gRPC.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider exports spans over OTLP/HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
	// CustomProvider is a tracer provider supplied with [WithTracerProvider].
	CustomProvider Provider = "custom"
)

// Errors returned by [New].
var (
	ErrConflictingProviders = errors.New("tracing: only one provider option can be used")
	ErrInvalidSampleRate    = errors.New("tracing: sample rate must be between 0 and 1")
	ErrEmptyServiceName     = errors.New("tracing: service name cannot be empty")
)

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event of the tracing package.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events.
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler that logs events to logger.
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

// Tracer owns a tracer provider and the request tracing configuration.
type Tracer struct {
	provider         Provider
	providerSetCount int

	tracerProvider       trace.TracerProvider
	sdkProvider          *sdktrace.TracerProvider
	customTracerProvider bool
	registerGlobal       bool
	tracer               trace.Tracer
	propagator           propagation.TextMapPropagator

	serviceName    string
	serviceVersion string
	sampleRate     float64
	otlpEndpoint   string
	otlpInsecure   bool
	stdout         io.Writer
	eventHandler   EventHandler

	startOnce sync.Once
	startErr  error

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a [Tracer]. OTLP providers connect in [Tracer.Start]; until
// then spans are not recorded.
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		provider:       NoopProvider,
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultServiceVersion,
		sampleRate:     1.0,
		propagator:     propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
		tracer:         noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	if t.deferred() {
		return t, nil
	}

	if err := t.initializeProvider(); err != nil {
		return nil, err
	}

	return t, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize tracing: %v", err))
	}

	return t
}

func (t *Tracer) validate() error {
	if t.providerSetCount > 1 {
		return ErrConflictingProviders
	}
	if t.serviceName == "" {
		return ErrEmptyServiceName
	}
	if t.sampleRate < 0 || t.sampleRate > 1 {
		return fmt.Errorf("%w, got %v", ErrInvalidSampleRate, t.sampleRate)
	}

	return nil
}

func (t *Tracer) deferred() bool {
	return t.provider == OTLPProvider || t.provider == OTLPHTTPProvider
}

// Start connects deferred providers. It is a no-op for the others and is
// safe to call more than once.
func (t *Tracer) Start(ctx context.Context) error {
	if !t.deferred() {
		return nil
	}

	t.startOnce.Do(func() {
		t.startErr = t.initOTLP(ctx)
	})

	return t.startErr
}

// Shutdown flushes pending spans and shuts the tracer provider down.
// A provider supplied with [WithTracerProvider] is left to its owner.
func (t *Tracer) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		if t.customTracerProvider || t.sdkProvider == nil {
			return
		}
		if err := t.sdkProvider.ForceFlush(ctx); err != nil {
			t.emitWarning("trace flush failed", "error", err)
		}
		if err := t.sdkProvider.Shutdown(ctx); err != nil {
			t.shutdownErr = fmt.Errorf("tracer provider shutdown: %w", err)
		}
	})

	return t.shutdownErr
}

// Tracer returns the OpenTelemetry tracer for handler spans.
func (t *Tracer) Tracer() trace.Tracer { return t.tracer }

// Propagator returns the propagator used to continue incoming traces.
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// Provider returns the configured provider.
func (t *Tracer) Provider() Provider { return t.provider }

// ServiceName returns the service name on the trace resource.
func (t *Tracer) ServiceName() string { return t.serviceName }

// ServiceVersion returns the service version on the trace resource.
func (t *Tracer) ServiceVersion() string { return t.serviceVersion }

// TraceID returns the trace ID of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}

	return sc.TraceID().String()
}

// SpanID returns the span ID of the span in ctx, or "".
func SpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}

	return sc.SpanID().String()
}

func (t *Tracer) emitWarning(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventWarning, Message: msg, Args: args})
	}
}

func (t *Tracer) emitInfo(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventInfo, Message: msg, Args: args})
	}
}

func (t *Tracer) emitDebug(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
	}
}
