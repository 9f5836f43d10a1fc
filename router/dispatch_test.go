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

package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	riverrors "rivaas.dev/endpoint/errors"
	"rivaas.dev/endpoint/result"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	assert.Equal(t, riverrors.ProblemContentType, w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}

func TestServeHTTP_PanicIsIsolated(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	r := MustNew(WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
	r.GET("/boom", func(c *Context) (any, error) {
		panic("kaboom")
	})
	r.GET("/fine", ok)

	w := do(t, r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeProblem(t, w)
	assert.NotContains(t, body["detail"], "kaboom", "panic values are not exposed")
	assert.Contains(t, logs.String(), "handler panic recovered")
	assert.Contains(t, logs.String(), "kaboom")

	w = do(t, r, http.MethodGet, "/fine")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestServeHTTP_PanicInFilter(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Use(func(c *Context, next Next) (result.Result, error) {
		panic(errors.New("filter exploded"))
	})
	r.GET("/x", ok)

	w := do(t, r, http.MethodGet, "/x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServeHTTP_ErrorRendering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       []Option
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "typed status",
			err:        riverrors.WithStatus(errors.New("order 7 is gone"), http.StatusGone),
			wantStatus: http.StatusGone,
			wantDetail: "order 7 is gone",
		},
		{
			name:       "plain error is masked",
			err:        errors.New("db password is hunter2"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "An unexpected error occurred while processing the request.",
		},
		{
			name:       "plain error exposed in development",
			opts:       []Option{WithErrorDetails(true)},
			err:        errors.New("db unreachable"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "db unreachable",
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := MustNew(tt.opts...)
			r.GET("/e", func(c *Context) (any, error) { return nil, tt.err })

			w := do(t, r, http.MethodGet, "/e")
			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, "/e", body["instance"])
			assert.NotEmpty(t, body["error_id"])
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["detail"])
			}
		})
	}
}

func TestServeHTTP_CustomFormatter(t *testing.T) {
	t.Parallel()

	r := MustNew(WithErrorFormatter(riverrors.NewSimple()))
	r.GET("/e", func(c *Context) (any, error) {
		return nil, riverrors.WithStatus(errors.New("bad input"), http.StatusBadRequest)
	})

	w := do(t, r, http.MethodGet, "/e")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"bad input"}`, w.Body.String())
}

func TestServeHTTP_ClientGone(t *testing.T) {
	t.Parallel()

	reached := make(chan struct{}, 1)
	r := MustNew()
	r.GET("/slow", func(c *Context) (any, error) {
		reached <- struct{}{}
		<-c.Context().Done()
		return nil, c.Context().Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil).WithContext(ctx))

	<-reached
	assert.False(t, w.Flushed)
	assert.Empty(t, w.Header().Get("Content-Type"), "nothing is written for a departed client")
	assert.Zero(t, w.Body.Len())
}

func TestServeHTTP_DeadlineElapsed(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("/slow", func(c *Context) (any, error) {
		<-c.Context().Done()
		return nil, c.Context().Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil).WithContext(ctx))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestServeHTTP_NotFoundProblem(t *testing.T) {
	t.Parallel()

	r := MustNew()
	w := do(t, r, http.MethodGet, "/nowhere")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, "Not Found", body["title"])
	assert.Equal(t, "/nowhere", body["instance"])
}

func TestServeHTTP_HeadHasNoBody(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("/doc", func(c *Context) (any, error) { return map[string]string{"a": "b"}, nil })

	w := do(t, r, http.MethodHead, "/doc")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Zero(t, w.Body.Len())
}

func TestServeHTTP_UnrenderableResult(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("/file", func(c *Context) (any, error) {
		return result.FileAt(filepath.Join(t.TempDir(), "missing.csv")), nil
	})
	r.GET("/chan", func(c *Context) (any, error) {
		return map[string]any{"c": make(chan int)}, nil
	})

	w := do(t, r, http.MethodGet, "/file")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/chan")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServeHTTP_SealFailureAnswers500(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("/a", ok).WithName("dup")
	r.GET("/b", ok).WithName("dup")

	w := do(t, r, http.MethodGet, "/a")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.ErrorIs(t, r.Seal(), ErrDuplicateName)
}

func TestServeHTTP_ConcurrentRequests(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("/users/{id:int}", func(c *Context) (any, error) {
		id, err := c.ParamInt("id")
		return map[string]int64{"id": id}, err
	})

	done := make(chan struct{})
	for i := range 16 {
		go func() {
			defer func() { done <- struct{}{} }()
			req := httptest.NewRequest(http.MethodGet, "/users/"+string(rune('1'+i%9)), nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	for range 16 {
		<-done
	}
}
