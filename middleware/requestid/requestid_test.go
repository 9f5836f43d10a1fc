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

package requestid

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/endpoint/router"
)

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestNew_GeneratesUUIDv7(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New())
	r.GET("/", func(c *router.Context) (any, error) { return Get(c), nil })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(DefaultHeader)
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Equal(t, id, w.Body.String(), "handler sees the same ID")
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []Option
		header   string
		clientID string
		check    func(t *testing.T, id string)
	}{
		{
			name:     "client ID kept",
			clientID: "client-abc",
			check:    func(t *testing.T, id string) { assert.Equal(t, "client-abc", id) },
		},
		{
			name:     "client ID ignored",
			opts:     []Option{WithAllowClientID(false)},
			clientID: "client-abc",
			check:    func(t *testing.T, id string) { assert.NotEqual(t, "client-abc", id) },
		},
		{
			name:     "oversized client ID replaced",
			clientID: strings.Repeat("x", maxClientIDLength+1),
			check:    func(t *testing.T, id string) { assert.Len(t, id, 36) },
		},
		{
			name:     "client ID with spaces replaced",
			clientID: "a b",
			check:    func(t *testing.T, id string) { assert.NotEqual(t, "a b", id) },
		},
		{
			name: "ulid",
			opts: []Option{WithULID()},
			check: func(t *testing.T, id string) {
				_, err := ulid.ParseStrict(id)
				assert.NoError(t, err)
			},
		},
		{
			name:   "custom header and generator",
			opts:   []Option{WithHeader("X-Correlation-ID"), WithGenerator(func() string { return "fixed" })},
			header: "X-Correlation-ID",
			check:  func(t *testing.T, id string) { assert.Equal(t, "fixed", id) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			header := tt.header
			if header == "" {
				header = DefaultHeader
			}

			r := router.MustNew()
			r.Use(New(tt.opts...))
			r.GET("/", func(c *router.Context) (any, error) { return nil, nil })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.clientID != "" {
				req.Header.Set(header, tt.clientID)
			}
			tt.check(t, serve(r, req).Header().Get(header))
		})
	}
}

func TestNew_ErrorAndUnmatchedResponsesCarryID(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithGenerator(func() string { return "req-1" })))
	r.GET("/fail", func(c *router.Context) (any, error) { return nil, errors.New("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(DefaultHeader))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(DefaultHeader))
}

func TestNew_LoggerCarriesID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := router.MustNew(router.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	r.Use(New(WithGenerator(func() string { return "req-42" })))
	r.GET("/", func(c *router.Context) (any, error) {
		c.Logger().Info("handling")
		return nil, nil
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "req.id=req-42")
	assert.Contains(t, buf.String(), "msg=handling")
}

func TestFromContext_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
