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
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"rivaas.dev/endpoint/internal/pathfilter"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
	"rivaas.dev/endpoint/telemetry/semconv"
)

// sensitiveHeaders are never recorded as metric attributes.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
	"www-authenticate":    true,
}

// FilterOption configures [Recorder.Filter].
type FilterOption func(*filterConfig)

type filterConfig struct {
	exclude     *pathfilter.Filter
	patterns    []string
	headers     []string
	headerAttrs []string
}

// WithExcludePaths skips metrics for the given exact paths.
func WithExcludePaths(paths ...string) FilterOption {
	return func(c *filterConfig) {
		c.exclude.AddPaths(paths...)
	}
}

// WithExcludePrefixes skips metrics for paths with any of the prefixes.
func WithExcludePrefixes(prefixes ...string) FilterOption {
	return func(c *filterConfig) {
		c.exclude.AddPrefixes(prefixes...)
	}
}

// WithExcludePatterns skips metrics for paths matching any regex pattern.
// Invalid patterns are reported as warning events and ignored.
func WithExcludePatterns(patterns ...string) FilterOption {
	return func(c *filterConfig) {
		c.patterns = append(c.patterns, patterns...)
	}
}

// WithHeaders records request headers as http.request.header.<name>
// attributes. Credential-bearing headers such as Authorization and Cookie
// are dropped.
func WithHeaders(headers ...string) FilterOption {
	return func(c *filterConfig) {
		for _, h := range headers {
			low := strings.ToLower(h)
			if sensitiveHeaders[low] {
				continue
			}
			c.headers = append(c.headers, h)
			c.headerAttrs = append(c.headerAttrs, "http.request.header."+low)
		}
	}
}

// Filter returns a router filter that records request count, duration,
// in-flight requests, errors and response size. Install it with Router.Use
// so it also observes unmatched requests.
//
// Requests are labeled with the route template, or "unmatched" together
// with their routing outcome.
func (r *Recorder) Filter(opts ...FilterOption) router.Filter {
	cfg := &filterConfig{exclude: pathfilter.New()}
	for _, opt := range opts {
		opt(cfg)
	}
	for _, p := range cfg.patterns {
		if err := cfg.exclude.AddPatterns(p); err != nil {
			r.emitWarning("ignoring invalid exclude pattern", "error", err)
		}
	}

	return func(c *router.Context, next router.Next) (res result.Result, err error) {
		if cfg.exclude.Match(c.Request.URL.Path) {
			return next(c)
		}

		ctx := c.Context()
		start := time.Now()
		active := metric.WithAttributes(r.serviceNameAttr, r.serviceVersionAttr,
			attribute.String(semconv.HTTPMethod, c.Request.Method))
		r.activeRequests.Add(ctx, 1, active)

		defer func() {
			r.activeRequests.Add(ctx, -1, active)

			status := http.StatusInternalServerError
			v := recover()
			if v == nil {
				status = router.StatusOf(c, res, err)
			}
			r.record(c, cfg, status, time.Since(start), res)

			if v != nil {
				panic(v)
			}
		}()

		return next(c)
	}
}

func (r *Recorder) record(c *router.Context, cfg *filterConfig, status int, elapsed time.Duration, res result.Result) {
	ctx := c.Context()

	route := c.RouteTemplate()
	if route == "" {
		route = semconv.Unmatched
	}

	attrs := make([]attribute.KeyValue, 0, 7+len(cfg.headers))
	attrs = append(attrs,
		r.serviceNameAttr,
		r.serviceVersionAttr,
		attribute.String(semconv.HTTPMethod, c.Request.Method),
		attribute.String(semconv.HTTPRoute, route),
		attribute.String(semconv.RouteOutcome, c.Outcome().String()),
		attribute.Int(semconv.HTTPStatusCode, status),
		attribute.String("http.status_class", statusClass(status)),
	)
	for i, h := range cfg.headers {
		if v := c.Request.Header.Get(h); v != "" {
			attrs = append(attrs, attribute.String(cfg.headerAttrs[i], v))
		}
	}
	set := metric.WithAttributes(attrs...)

	r.requestDuration.Record(ctx, elapsed.Seconds(), set)
	r.requestCount.Add(ctx, 1, set)
	if status >= http.StatusBadRequest {
		r.errorCount.Add(ctx, 1, set)
	}
	if size := responseSize(res); size > 0 {
		r.responseSize.Record(ctx, size, set)
	}
}

// responseSize is the body size when it is known before the body is written.
func responseSize(res result.Result) int64 {
	body, ok := res.(*result.BodyResult)
	if !ok {
		return 0
	}

	switch v := body.Value.(type) {
	case []byte:
		return int64(len(v))
	case string:
		return int64(len(v))
	default:
		return 0
	}
}

func statusClass(statusCode int) string {
	switch statusCode / 100 {
	case 1:
		return "1xx"
	case 2:
		return "2xx"
	case 3:
		return "3xx"
	case 4:
		return "4xx"
	case 5:
		return "5xx"
	default:
		return "unknown"
	}
}
