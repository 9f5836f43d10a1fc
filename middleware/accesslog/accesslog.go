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

package accesslog

import (
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"rivaas.dev/endpoint/internal/pathfilter"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
	"rivaas.dev/endpoint/telemetry/semconv"
)

// Option configures the accesslog filter.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	exclude       *pathfilter.Filter
	slowThreshold time.Duration
	errorsOnly    bool
	sampleRate    float64
	requestID     func(c *router.Context) string
	proxies       []netip.Prefix
	attrs         []slog.Attr
}

func defaultConfig() *config {
	return &config{
		exclude:    pathfilter.New(),
		sampleRate: 1,
	}
}

// WithLogger writes records to logger instead of the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithExcludePaths skips exact paths.
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.exclude.AddPaths(paths...)
	}
}

// WithExcludePrefixes skips paths with any of the prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.exclude.AddPrefixes(prefixes...)
	}
}

// WithSlowThreshold logs requests that take at least d at warn level with
// slow=true. They bypass sampling.
func WithSlowThreshold(d time.Duration) Option {
	return func(cfg *config) {
		cfg.slowThreshold = d
	}
}

// WithErrorsOnly logs only 4xx and 5xx responses and slow requests.
func WithErrorsOnly() Option {
	return func(cfg *config) {
		cfg.errorsOnly = true
	}
}

// WithSampleRate logs successful requests with probability rate in [0, 1].
// Default: 1.
func WithSampleRate(rate float64) Option {
	return func(cfg *config) {
		cfg.sampleRate = min(max(rate, 0), 1)
	}
}

// WithRequestIDFunc adds a request_id field computed by fn, for loggers
// that do not already carry one.
func WithRequestIDFunc(fn func(c *router.Context) string) Option {
	return func(cfg *config) {
		cfg.requestID = fn
	}
}

// WithTrustedProxies trusts X-Forwarded-For and X-Real-IP from peers in
// the given CIDRs. Invalid CIDRs are ignored.
func WithTrustedProxies(cidrs ...string) Option {
	return func(cfg *config) {
		for _, s := range cidrs {
			if p, err := netip.ParsePrefix(s); err == nil {
				cfg.proxies = append(cfg.proxies, p)
			}
		}
	}
}

// WithAttrs adds fixed attributes to every record.
func WithAttrs(attrs ...slog.Attr) Option {
	return func(cfg *config) {
		cfg.attrs = append(cfg.attrs, attrs...)
	}
}

// New returns an access logging filter. Register it with Router.Use so
// unmatched requests are logged too.
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context, next router.Next) (result.Result, error) {
		if cfg.exclude.Match(c.Request.URL.Path) {
			return next(c)
		}

		// Captured before inner stages replace the request.
		req := c.Request
		start := time.Now()

		res, err := next(c)

		elapsed := time.Since(start)
		status := router.StatusOf(c, res, err)
		slow := cfg.slowThreshold > 0 && elapsed >= cfg.slowThreshold
		failed := status >= http.StatusBadRequest

		if !slow && !failed {
			if cfg.errorsOnly || (cfg.sampleRate < 1 && rand.Float64() >= cfg.sampleRate) {
				return res, err
			}
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case slow:
			level = slog.LevelWarn
		}

		route := c.RouteTemplate()
		if route == "" {
			route = semconv.Unmatched
		}

		attrs := make([]slog.Attr, 0, 12+len(cfg.attrs))
		attrs = append(attrs,
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.String("route", route),
			slog.String("outcome", c.Outcome().String()),
			slog.Int("status", status),
			slog.Float64(semconv.DurationMS, float64(elapsed.Microseconds())/1000),
			slog.String("client_ip", cfg.clientIP(req)),
			slog.String("user_agent", req.UserAgent()),
		)
		if size, ok := bodySize(res); ok {
			attrs = append(attrs, slog.Int64("size", size))
		}
		if slow {
			attrs = append(attrs, slog.Bool("slow", true))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		if cfg.requestID != nil {
			attrs = append(attrs, slog.String("request_id", cfg.requestID(c)))
		}
		attrs = append(attrs, cfg.attrs...)

		logger := cfg.logger
		if logger == nil {
			logger = c.BaseLogger()
		}
		logger.LogAttrs(c.Context(), level, "http request", attrs...)

		return res, err
	}
}

func bodySize(res result.Result) (int64, bool) {
	body, ok := res.(*result.BodyResult)
	if !ok {
		return 0, false
	}

	switch v := body.Value.(type) {
	case []byte:
		return int64(len(v)), true
	case string:
		return int64(len(v)), true
	default:
		return 0, false
	}
}

// clientIP returns the peer address, or the forwarded client address when
// the peer is a trusted proxy.
func (cfg *config) clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}

	if len(cfg.proxies) == 0 {
		return host
	}

	peer, err := netip.ParseAddr(host)
	if err != nil || !cfg.trusted(peer) {
		return host
	}

	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		// Walk right to left past trusted hops.
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			addr, err := netip.ParseAddr(hop)
			if err != nil {
				return host
			}
			if !cfg.trusted(addr) || i == 0 {
				return hop
			}
		}
	}

	if real := strings.TrimSpace(req.Header.Get("X-Real-IP")); real != "" {
		if _, err := netip.ParseAddr(real); err == nil {
			return real
		}
	}

	return host
}

func (cfg *config) trusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range cfg.proxies {
		if p.Contains(addr) {
			return true
		}
	}

	return false
}
