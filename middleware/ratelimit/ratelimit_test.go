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

package ratelimit

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	riverrors "rivaas.dev/endpoint/errors"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func withClock(c *clock) Option {
	return func(cfg *config) {
		cfg.now = c.Now
	}
}

func newRouter(opts ...Option) *router.Router {
	r := router.MustNew()
	r.Use(New(opts...))
	r.GET("/test", func(c *router.Context) (any, error) { return "ok", nil })
	r.GET("/health", func(c *router.Context) (any, error) { return "up", nil })

	return r
}

func get(r http.Handler, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestNew_Burst(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	r := newRouter(WithRequestsPerSecond(1), WithBurst(3), withClock(clk))

	for i, want := range []string{"2", "1", "0"} {
		w := get(r, "/test", "192.0.2.1:1000")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("RateLimit-Limit"))
		assert.Equal(t, want, w.Header().Get("RateLimit-Remaining"))
	}

	w := get(r, "/test", "192.0.2.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, riverrors.ProblemContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
	assert.Equal(t, "3", w.Header().Get("RateLimit-Reset"))

	clk.Advance(time.Second)
	assert.Equal(t, http.StatusOK, get(r, "/test", "192.0.2.1:1000").Code, "one token refilled")
}

func TestNew_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	r := newRouter(WithRequestsPerSecond(0.01), WithBurst(1), withClock(clk))

	assert.Equal(t, http.StatusOK, get(r, "/test", "192.0.2.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/test", "192.0.2.1:2").Code, "port is not part of the key")
	assert.Equal(t, http.StatusOK, get(r, "/test", "192.0.2.2:1").Code)
}

func TestNew_KeyFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		codes []int
	}{
		{name: "keyed", key: "user-1", codes: []int{200, 429}},
		{name: "empty key is not limited", key: "", codes: []int{200, 200, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clk := &clock{now: time.Unix(1_700_000_000, 0)}
			r := newRouter(
				WithRequestsPerSecond(0.01),
				WithBurst(1),
				withClock(clk),
				WithKeyFunc(func(*router.Context) string { return tt.key }),
			)

			for i, want := range tt.codes {
				assert.Equal(t, want, get(r, "/test", "192.0.2.1:1").Code, "request %d", i+1)
			}
		})
	}
}

func TestNew_SkipPathsAndHeaders(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	r := newRouter(WithRequestsPerSecond(0.01), WithBurst(1), withClock(clk),
		WithSkipPaths("/health"), WithoutHeaders())

	for range 3 {
		w := get(r, "/health", "192.0.2.1:1")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := get(r, "/test", "192.0.2.1:1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("RateLimit-Limit"))

	w = get(r, "/test", "192.0.2.1:1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestNew_CustomHandler(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	var waited time.Duration
	r := newRouter(WithRequestsPerSecond(0.5), WithBurst(1), withClock(clk),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithHandler(func(c *router.Context, retryAfter time.Duration) result.Result {
			waited = retryAfter
			return result.Text(http.StatusServiceUnavailable, "slow down")
		}))

	get(r, "/test", "192.0.2.1:1")
	w := get(r, "/test", "192.0.2.1:1")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "slow down", w.Body.String())
	assert.Equal(t, 2*time.Second, waited)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestNew_IdleBucketsEvicted(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	r := newRouter(WithRequestsPerSecond(0.001), WithBurst(1), withClock(clk),
		WithLimiterTTL(time.Minute), WithCleanupInterval(time.Second))

	assert.Equal(t, http.StatusOK, get(r, "/test", "192.0.2.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/test", "192.0.2.1:1").Code)

	// 0.12 tokens refill in two minutes; only eviction gives a full bucket.
	clk.Advance(2 * time.Minute)
	assert.Equal(t, http.StatusOK, get(r, "/test", "192.0.2.1:1").Code)
}

func TestNew_Concurrent(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	r := newRouter(WithRequestsPerSecond(0.01), WithBurst(10), withClock(clk))

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if get(r, "/test", "192.0.2.1:1").Code == http.StatusOK {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), allowed.Load())
}

func TestNew_DefaultBurst(t *testing.T) {
	t.Parallel()

	w := get(newRouter(WithRequestsPerSecond(2.5)), "/test", "192.0.2.1:1")
	assert.Equal(t, "3", w.Header().Get("RateLimit-Limit"))
}
