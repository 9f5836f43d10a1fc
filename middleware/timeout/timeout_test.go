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

package timeout

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

// slow waits for the deadline and reports it, as a well-behaved handler does.
func slow(c *router.Context) (any, error) {
	select {
	case <-c.Context().Done():
		return nil, c.Context().Err()
	case <-time.After(2 * time.Second):
		return "finished", nil
	}
}

func TestTimeout_Expires(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithDuration(20*time.Millisecond), WithoutLogging()))
	r.GET("/slow", slow)
	r.GET("/fast", func(c *router.Context) (any, error) { return "fast", nil })

	w := serve(r, "/slow")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "20ms")

	w = serve(r, "/fast")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fast", w.Body.String())
}

func TestTimeout_HandlerIgnoringErrorStillTimesOut(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithDuration(10*time.Millisecond), WithoutLogging()))
	r.GET("/late", func(c *router.Context) (any, error) {
		<-c.Context().Done()
		return "too late", nil
	})

	assert.Equal(t, http.StatusGatewayTimeout, serve(r, "/late").Code)
}

func TestTimeout_Skips(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(
		WithDuration(time.Nanosecond),
		WithoutLogging(),
		WithSkipPaths("/webhook"),
		WithSkipPrefix("/admin/"),
		WithSkipSuffix("/stream"),
		WithSkip(func(c *router.Context) bool { return c.Request.Method == http.MethodOptions }),
	))

	var deadlines []bool
	handler := func(c *router.Context) (any, error) {
		_, has := c.Context().Deadline()
		deadlines = append(deadlines, has)
		return nil, nil
	}
	for _, p := range []string{"/webhook", "/admin/jobs", "/events/stream"} {
		r.GET(p, handler)
	}

	for _, p := range []string{"/webhook", "/admin/jobs", "/events/stream"} {
		assert.Equal(t, http.StatusOK, serve(r, p).Code, p)
	}
	assert.Equal(t, []bool{false, false, false}, deadlines)
}

func TestTimeout_CustomHandlerAndLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := router.MustNew()
	r.Use(New(
		WithDuration(10*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithHandler(func(c *router.Context, d time.Duration) result.Result {
			return result.JSON(http.StatusServiceUnavailable, map[string]string{"timeout": d.String()})
		}),
	))
	r.GET("/slow", slow)

	w := serve(r, "/slow")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"timeout":"10ms"}`, w.Body.String())
	assert.Contains(t, buf.String(), "request timed out")
}

func TestTimeout_ClientGoneIsNotATimeout(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithDuration(time.Hour), WithoutLogging()))
	r.GET("/slow", slow)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/slow", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// The router writes nothing for a client that went away.
	assert.Empty(t, w.Body.String())
}

func TestTimeout_Disabled(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithDuration(0)))
	r.GET("/", func(c *router.Context) (any, error) {
		_, has := c.Context().Deadline()
		return has, nil
	})

	assert.Equal(t, "false", serve(r, "/").Body.String())
}
