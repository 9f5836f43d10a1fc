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
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/endpoint/internal/pathfilter"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
	"rivaas.dev/endpoint/telemetry/semconv"
)

const (
	attrPrefixParam  = "http.request.param."
	attrPrefixHeader = "http.request.header."
)

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
	"www-authenticate":    true,
}

// SpanStartHook runs after the request span starts.
type SpanStartHook func(ctx context.Context, span trace.Span, c *router.Context)

// SpanFinishHook runs before the request span ends.
type SpanFinishHook func(span trace.Span, statusCode int)

// FilterOption configures [Tracer.Filter].
type FilterOption func(*filterConfig)

type filterConfig struct {
	exclude       *pathfilter.Filter
	patterns      []string
	headers       []string
	headerAttrs   []string
	recordParams  bool
	onlyParams    map[string]bool
	excludeParams map[string]bool
	onStart       SpanStartHook
	onFinish      SpanFinishHook
}

// WithExcludePaths skips tracing for the given exact paths.
func WithExcludePaths(paths ...string) FilterOption {
	return func(c *filterConfig) {
		c.exclude.AddPaths(paths...)
	}
}

// WithExcludePrefixes skips tracing for paths with any of the prefixes.
func WithExcludePrefixes(prefixes ...string) FilterOption {
	return func(c *filterConfig) {
		c.exclude.AddPrefixes(prefixes...)
	}
}

// WithExcludePatterns skips tracing for paths matching any regex pattern.
// Invalid patterns are reported as warning events and ignored.
func WithExcludePatterns(patterns ...string) FilterOption {
	return func(c *filterConfig) {
		c.patterns = append(c.patterns, patterns...)
	}
}

// WithHeaders records request headers as span attributes. Credential
// headers are never recorded.
func WithHeaders(headers ...string) FilterOption {
	return func(c *filterConfig) {
		for _, h := range headers {
			low := strings.ToLower(h)
			if sensitiveHeaders[low] {
				continue
			}
			c.headers = append(c.headers, h)
			c.headerAttrs = append(c.headerAttrs, attrPrefixHeader+low)
		}
	}
}

// WithDisableParams stops recording route parameters. By default every
// present parameter is recorded as http.request.param.<name>.
func WithDisableParams() FilterOption {
	return func(c *filterConfig) {
		c.recordParams = false
	}
}

// WithRecordParams records only the named route parameters.
func WithRecordParams(params ...string) FilterOption {
	return func(c *filterConfig) {
		c.onlyParams = make(map[string]bool, len(params))
		for _, p := range params {
			c.onlyParams[p] = true
		}
	}
}

// WithExcludeParams never records the named route parameters.
func WithExcludeParams(params ...string) FilterOption {
	return func(c *filterConfig) {
		if c.excludeParams == nil {
			c.excludeParams = make(map[string]bool, len(params))
		}
		for _, p := range params {
			c.excludeParams[p] = true
		}
	}
}

// WithSpanStartHook runs hook after each request span starts.
func WithSpanStartHook(hook SpanStartHook) FilterOption {
	return func(c *filterConfig) {
		c.onStart = hook
	}
}

// WithSpanFinishHook runs hook before each request span ends.
func WithSpanFinishHook(hook SpanFinishHook) FilterOption {
	return func(c *filterConfig) {
		c.onFinish = hook
	}
}

func (c *filterConfig) shouldRecordParam(name string) bool {
	if !c.recordParams || c.excludeParams[name] {
		return false
	}

	return c.onlyParams == nil || c.onlyParams[name]
}

// Filter returns a router filter that starts a server span for each
// request. Install it with Router.Use so unmatched requests are traced too.
//
// The span continues the trace in the incoming headers and replaces the
// request context, so inner filters, the handler and their loggers see it.
// Statuses of 400 and above mark the span as failed; a returned error is
// recorded on the span.
func (t *Tracer) Filter(opts ...FilterOption) router.Filter {
	cfg := &filterConfig{exclude: pathfilter.New(), recordParams: true}
	for _, opt := range opts {
		opt(cfg)
	}
	for _, p := range cfg.patterns {
		if err := cfg.exclude.AddPatterns(p); err != nil {
			t.emitWarning("ignoring invalid exclude pattern", "error", err)
		}
	}

	return func(c *router.Context, next router.Next) (res result.Result, err error) {
		req := c.Request
		if cfg.exclude.Match(req.URL.Path) {
			return next(c)
		}

		route := c.RouteTemplate()
		if route == "" {
			route = semconv.Unmatched
		}

		ctx := t.propagator.Extract(c.Context(), propagation.HeaderCarrier(req.Header))
		ctx, span := t.tracer.Start(ctx, req.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(t.requestAttributes(c, cfg, route)...),
		)
		c.SetContext(ctx)

		if cfg.onStart != nil {
			cfg.onStart(ctx, span, c)
		}

		defer func() {
			if v := recover(); v != nil {
				span.RecordError(fmt.Errorf("panic: %v", v), trace.WithStackTrace(true))
				t.end(span, cfg, http.StatusInternalServerError)
				panic(v)
			}

			status := router.StatusOf(c, res, err)
			if err != nil {
				span.RecordError(err)
			}
			t.end(span, cfg, status)
		}()

		return next(c)
	}
}

func (t *Tracer) requestAttributes(c *router.Context, cfg *filterConfig, route string) []attribute.KeyValue {
	req := c.Request

	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}

	attrs := []attribute.KeyValue{
		attribute.String(semconv.HTTPMethod, req.Method),
		attribute.String(semconv.HTTPRoute, route),
		attribute.String(semconv.HTTPTarget, req.URL.Path),
		attribute.String(semconv.HTTPScheme, scheme),
		attribute.String(semconv.RouteOutcome, c.Outcome().String()),
	}
	if ua := req.UserAgent(); ua != "" {
		attrs = append(attrs, attribute.String(semconv.HTTPUserAgent, ua))
	}
	if rt := c.Route(); rt != nil && rt.Name() != "" {
		attrs = append(attrs, attribute.String(semconv.RouteName, rt.Name()))
	}

	for name, v := range c.Values() {
		if v.Present && cfg.shouldRecordParam(name) {
			attrs = append(attrs, attribute.String(attrPrefixParam+name, v.Raw))
		}
	}

	for i, h := range cfg.headers {
		if v := req.Header.Get(h); v != "" {
			attrs = append(attrs, attribute.String(cfg.headerAttrs[i], v))
		}
	}

	return attrs
}

func (t *Tracer) end(span trace.Span, cfg *filterConfig, status int) {
	span.SetAttributes(attribute.Int(semconv.HTTPStatusCode, status))
	if status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if cfg.onFinish != nil {
		cfg.onFinish(span, status)
	}
	span.End()
}

