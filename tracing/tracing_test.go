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

//go:build !integration

package tracing

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	riverrors "rivaas.dev/endpoint/errors"
	"rivaas.dev/endpoint/router"
	"rivaas.dev/endpoint/telemetry/semconv"
)

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func attrs(s tracetest.SpanStub) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(s.Attributes))
	for _, kv := range s.Attributes {
		out[kv.Key] = kv.Value
	}

	return out
}

func onlySpan(t *testing.T, exp *tracetest.InMemoryExporter) tracetest.SpanStub {
	t.Helper()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)

	return spans[0]
}

func TestFilter_ServerSpan(t *testing.T) {
	t.Parallel()

	tracer, exp := TestingTracer(t)
	r := router.MustNew()
	r.Use(tracer.Filter())

	var handlerTraceID string
	r.GET("/orders/{id:int}", func(c *router.Context) (any, error) {
		handlerTraceID = TraceID(c.Context())
		return "ok", nil
	}).WithName("orders.get")

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	req.Header.Set("User-Agent", "curl/8.5.0")
	require.Equal(t, http.StatusOK, serve(r, req).Code)

	span := onlySpan(t, exp)
	assert.Equal(t, "GET /orders/{id:int}", span.Name)
	assert.Equal(t, trace.SpanKindServer, span.SpanKind)
	assert.Equal(t, codes.Ok, span.Status.Code)
	assert.Equal(t, span.SpanContext.TraceID().String(), handlerTraceID)

	a := attrs(span)
	assert.Equal(t, "/orders/{id:int}", a[semconv.HTTPRoute].AsString())
	assert.Equal(t, "/orders/42", a[semconv.HTTPTarget].AsString())
	assert.Equal(t, "orders.get", a[semconv.RouteName].AsString())
	assert.Equal(t, "matched", a[semconv.RouteOutcome].AsString())
	assert.Equal(t, "42", a[attrPrefixParam+"id"].AsString())
	assert.Equal(t, "curl/8.5.0", a[semconv.HTTPUserAgent].AsString())
	assert.Equal(t, int64(http.StatusOK), a[semconv.HTTPStatusCode].AsInt64())
}

func TestFilter_ContinuesIncomingTrace(t *testing.T) {
	t.Parallel()

	tracer, exp := TestingTracer(t)
	r := router.MustNew()
	r.Use(tracer.Filter())
	r.GET("/", func(c *router.Context) (any, error) { return nil, nil })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	serve(r, req)

	span := onlySpan(t, exp)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", span.Parent.SpanID().String())
	assert.True(t, span.Parent.IsRemote())
}

func TestFilter_ErrorsAndUnmatched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		method   string
		path     string
		wantName string
		want     int
	}{
		{"handler error", http.MethodPost, "/orders", "POST /orders", http.StatusConflict},
		{"not found", http.MethodGet, "/missing", "GET unmatched", http.StatusNotFound},
		{"method not allowed", http.MethodDelete, "/orders", "DELETE unmatched", http.StatusMethodNotAllowed},
		{"panic", http.MethodGet, "/panic", "GET /panic", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tracer, exp := TestingTracer(t)
			r := router.MustNew()
			r.Use(tracer.Filter())
			r.POST("/orders", func(c *router.Context) (any, error) {
				return nil, riverrors.WithStatus(errors.New("duplicate order"), http.StatusConflict)
			})
			r.GET("/panic", func(c *router.Context) (any, error) { panic("boom") })

			w := serve(r, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.want, w.Code)

			span := onlySpan(t, exp)
			assert.Equal(t, tt.wantName, span.Name)
			assert.Equal(t, codes.Error, span.Status.Code)
			assert.Equal(t, int64(tt.want), attrs(span)[semconv.HTTPStatusCode].AsInt64())
		})
	}
}

func TestFilter_RecordsErrorEvent(t *testing.T) {
	t.Parallel()

	tracer, exp := TestingTracer(t)
	r := router.MustNew()
	r.Use(tracer.Filter())
	r.GET("/", func(c *router.Context) (any, error) { return nil, errors.New("database unavailable") })

	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	span := onlySpan(t, exp)
	require.NotEmpty(t, span.Events)
	assert.Equal(t, "exception", span.Events[0].Name)
}

func TestFilter_Options(t *testing.T) {
	t.Parallel()

	var started, finished int
	tracer, exp := TestingTracer(t)
	r := router.MustNew()
	r.Use(tracer.Filter(
		WithExcludePaths("/healthz"),
		WithExcludePrefixes("/debug/"),
		WithExcludePatterns(`^/internal/`),
		WithHeaders("X-Tenant", "Cookie"),
		WithExcludeParams("token"),
		WithSpanStartHook(func(ctx context.Context, span trace.Span, c *router.Context) {
			started++
			span.SetAttributes(attribute.String("tenant.plan", "gold"))
		}),
		WithSpanFinishHook(func(span trace.Span, status int) { finished++ }),
	))
	handler := func(c *router.Context) (any, error) { return nil, nil }
	r.GET("/healthz", handler)
	r.GET("/debug/vars", handler)
	r.GET("/internal/jobs", handler)
	r.GET("/reset/{user}/{token}", handler)

	for _, p := range []string{"/healthz", "/debug/vars", "/internal/jobs"} {
		serve(r, httptest.NewRequest(http.MethodGet, p, nil))
	}
	assert.Empty(t, exp.GetSpans())

	req := httptest.NewRequest(http.MethodGet, "/reset/ada/s3cr3t", nil)
	req.Header.Set("X-Tenant", "acme")
	req.Header.Set("Cookie", "session=1")
	serve(r, req)

	a := attrs(onlySpan(t, exp))
	assert.Equal(t, "ada", a[attrPrefixParam+"user"].AsString())
	assert.NotContains(t, a, attribute.Key(attrPrefixParam+"token"))
	assert.Equal(t, "acme", a[attrPrefixHeader+"x-tenant"].AsString())
	assert.NotContains(t, a, attribute.Key(attrPrefixHeader+"cookie"))
	assert.Equal(t, "gold", a["tenant.plan"].AsString())
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)
}

func TestFilter_ParamSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []FilterOption
		want []string
	}{
		{"all by default", nil, []string{"user", "id"}},
		{"disabled", []FilterOption{WithDisableParams()}, nil},
		{"allow list", []FilterOption{WithRecordParams("id")}, []string{"id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tracer, exp := TestingTracer(t)
			r := router.MustNew()
			r.Use(tracer.Filter(tt.opts...))
			r.GET("/users/{user}/orders/{id}", func(c *router.Context) (any, error) { return nil, nil })
			serve(r, httptest.NewRequest(http.MethodGet, "/users/ada/orders/7", nil))

			a := attrs(onlySpan(t, exp))
			for _, p := range []string{"user", "id"} {
				_, has := a[attribute.Key(attrPrefixParam+p)]
				assert.Equal(t, contains(tt.want, p), has, p)
			}
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(WithStdout(), WithNoop())
	require.ErrorIs(t, err, ErrConflictingProviders)

	_, err = New(WithSampleRate(1.5))
	require.ErrorIs(t, err, ErrInvalidSampleRate)

	_, err = New(WithServiceName(""))
	require.ErrorIs(t, err, ErrEmptyServiceName)

	assert.Panics(t, func() { MustNew(WithSampleRate(-1)) })
}

func TestNoopProvider(t *testing.T) {
	t.Parallel()

	tracer := MustNew()
	assert.Equal(t, NoopProvider, tracer.Provider())

	_, span := tracer.Tracer().Start(context.Background(), "work")
	assert.False(t, span.IsRecording())
	span.End()

	require.NoError(t, tracer.Start(context.Background()))
	require.NoError(t, tracer.Shutdown(context.Background()))
}

func TestStdoutProvider(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tracer := MustNew(WithStdoutWriter(&buf), WithServiceName("orders"))
	r := router.MustNew()
	r.Use(tracer.Filter())
	r.GET("/x", func(c *router.Context) (any, error) { return nil, nil })
	serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.NoError(t, tracer.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "GET /x")
	assert.Contains(t, buf.String(), "orders")
}

func TestOTLPHTTP_DeferredStart(t *testing.T) {
	t.Parallel()

	tracer, err := New(WithOTLPHTTP("http://127.0.0.1:4318"))
	require.NoError(t, err)
	assert.Equal(t, OTLPHTTPProvider, tracer.Provider())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tracer.Start(ctx))
	require.NoError(t, tracer.Start(ctx), "start is idempotent")
	assert.NotNil(t, tracer.sdkProvider)

	require.NoError(t, tracer.Shutdown(ctx))
}

func TestTraceAndSpanID_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, TraceID(context.Background()))
	assert.Empty(t, SpanID(context.Background()))
}

func TestSplitEndpoint(t *testing.T) {
	t.Parallel()

	hostport, insecure := splitEndpoint("http://localhost:4318/v1/traces")
	assert.Equal(t, "localhost:4318", hostport)
	assert.True(t, insecure)

	hostport, insecure = splitEndpoint("https://collector.example.com")
	assert.Equal(t, "collector.example.com", hostport)
	assert.False(t, insecure)
}
