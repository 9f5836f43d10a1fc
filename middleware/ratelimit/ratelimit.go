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

package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"rivaas.dev/endpoint/internal/pathfilter"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

// KeyFunc returns the bucket key for a request.
type KeyFunc func(c *router.Context) string

// Option configures the rate limit filter.
type Option func(*config)

type config struct {
	rps             float64
	burst           int
	keyFunc         KeyFunc
	skip            *pathfilter.Filter
	handler         func(c *router.Context, retryAfter time.Duration) result.Result
	logger          *slog.Logger
	ttl             time.Duration
	cleanupInterval time.Duration
	headers         bool
	now             func() time.Time
}

func defaultConfig() *config {
	return &config{
		rps:             100,
		keyFunc:         ClientIP,
		skip:            pathfilter.New(),
		ttl:             10 * time.Minute,
		cleanupInterval: time.Minute,
		headers:         true,
		now:             time.Now,
	}
}

// WithRequestsPerSecond sets the refill rate. Default: 100.
func WithRequestsPerSecond(rps float64) Option {
	return func(cfg *config) {
		cfg.rps = rps
	}
}

// WithBurst sets the bucket size. Default: the refill rate rounded up.
func WithBurst(burst int) Option {
	return func(cfg *config) {
		cfg.burst = burst
	}
}

// WithKeyFunc sets how requests are grouped into buckets.
func WithKeyFunc(fn KeyFunc) Option {
	return func(cfg *config) {
		cfg.keyFunc = fn
	}
}

// WithSkipPaths exempts exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.skip.AddPaths(paths...)
	}
}

// WithHandler replaces the default 429 problem.
func WithHandler(fn func(c *router.Context, retryAfter time.Duration) result.Result) Option {
	return func(cfg *config) {
		cfg.handler = fn
	}
}

// WithLogger logs rejected requests at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithLimiterTTL evicts buckets idle for longer than ttl.
func WithLimiterTTL(ttl time.Duration) Option {
	return func(cfg *config) {
		cfg.ttl = ttl
	}
}

// WithCleanupInterval sets how often idle buckets are swept.
func WithCleanupInterval(d time.Duration) Option {
	return func(cfg *config) {
		cfg.cleanupInterval = d
	}
}

// WithoutHeaders suppresses the RateLimit-* headers. Retry-After is still
// sent on rejection.
func WithoutHeaders() Option {
	return func(cfg *config) {
		cfg.headers = false
	}
}

// ClientIP keys buckets by the peer address.
func ClientIP(c *router.Context) string {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return host
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiters struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// reserve takes a token for key, reporting whether it was available, the
// tokens left and the wait until the next token.
func (l *limiters) reserve(cfg *config, key string, now time.Time) (bool, int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= cfg.cleanupInterval {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > cfg.ttl {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(cfg.rps), cfg.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, time.Duration(math.MaxInt64)
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}

	return true, max(int(v.limiter.TokensAt(now)), 0), 0
}

// New returns a rate limiting filter.
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.burst <= 0 {
		cfg.burst = max(int(math.Ceil(cfg.rps)), 1)
	}

	l := &limiters{visitors: make(map[string]*visitor)}

	return func(c *router.Context, next router.Next) (result.Result, error) {
		if cfg.skip.Match(c.Request.URL.Path) {
			return next(c)
		}

		key := cfg.keyFunc(c)
		if key == "" {
			return next(c)
		}

		now := cfg.now()
		allowed, remaining, wait := l.reserve(cfg, key, now)

		h := c.ResponseWriter().Header()
		if cfg.headers {
			h.Set("RateLimit-Limit", strconv.Itoa(cfg.burst))
			h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(resetSeconds(cfg, remaining)))
		}

		if allowed {
			return next(c)
		}

		retry := max(int(math.Ceil(wait.Seconds())), 1)
		h.Set("Retry-After", strconv.Itoa(retry))

		if cfg.logger != nil {
			cfg.logger.DebugContext(c.Context(), "rate limit exceeded",
				slog.String("key", key),
				slog.String("path", c.Request.URL.Path),
				slog.Int("retry_after", retry),
			)
		}

		if cfg.handler != nil {
			return cfg.handler(c, wait), nil
		}

		return result.Problem(http.StatusTooManyRequests, "",
			"rate limit exceeded, retry in "+strconv.Itoa(retry)+"s"), nil
	}
}

// resetSeconds is the time until a bucket holding remaining tokens is full.
func resetSeconds(cfg *config, remaining int) int {
	if cfg.rps <= 0 {
		return 0
	}
	missing := float64(cfg.burst - remaining)

	return int(math.Ceil(missing / cfg.rps))
}
