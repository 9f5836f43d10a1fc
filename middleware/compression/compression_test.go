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

package compression

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

var large = strings.Repeat("compressible payload ", 200)

func newRouter(opts ...Option) *router.Router {
	r := router.MustNew()
	r.Use(New(opts...))
	r.GET("/text", func(c *router.Context) (any, error) { return large, nil })
	r.GET("/small", func(c *router.Context) (any, error) { return "tiny", nil })
	r.GET("/json", func(c *router.Context) (any, error) {
		return map[string]string{"data": large}, nil
	})
	r.GET("/png", func(c *router.Context) (any, error) {
		return result.Bytes(http.StatusOK, "image/png", []byte(large)), nil
	})
	r.GET("/stream", func(c *router.Context) (any, error) {
		return result.Stream(strings.NewReader(large), "text/plain"), nil
	})
	r.GET("/problem", func(c *router.Context) (any, error) {
		return result.Problem(http.StatusBadRequest, "", large), nil
	})
	r.GET("/encoded", func(c *router.Context) (any, error) {
		res := result.Text(http.StatusOK, large)
		res.Header().Set("Content-Encoding", "identity")
		return res, nil
	})
	r.GET("/fail", func(c *router.Context) (any, error) { return nil, errors.New("boom") })
	r.GET("/assets/app.js", func(c *router.Context) (any, error) {
		return result.Bytes(http.StatusOK, "application/javascript", []byte(large)), nil
	})

	return r
}

func get(r http.Handler, path, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, enc string, body []byte) string {
	t.Helper()

	var rd io.Reader
	switch enc {
	case "br":
		rd = brotli.NewReader(bytes.NewReader(body))
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		require.NoError(t, err)
		rd = zr
	case "deflate":
		rd = flate.NewReader(bytes.NewReader(body))
	default:
		return string(body)
	}

	out, err := io.ReadAll(rd)
	require.NoError(t, err)

	return string(out)
}

func TestNew_Negotiation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   []Option
		accept string
		want   string
	}{
		{name: "brotli preferred on tie", accept: "gzip, deflate, br", want: "br"},
		{name: "gzip only", accept: "gzip", want: "gzip"},
		{name: "deflate only", accept: "deflate", want: "deflate"},
		{name: "q-values", accept: "br;q=0.5, gzip;q=0.9", want: "gzip"},
		{name: "q zero refuses", accept: "br;q=0, gzip;q=0", want: ""},
		{name: "wildcard", accept: "*", want: "br"},
		{name: "wildcard with refusal", accept: "*, br;q=0", want: "gzip"},
		{name: "brotli disabled", opts: []Option{WithBrotliDisabled()}, accept: "br, gzip", want: "gzip"},
		{name: "gzip disabled", opts: []Option{WithGzipDisabled(), WithDeflateDisabled()}, accept: "gzip, deflate", want: ""},
		{name: "unknown encoding", accept: "zstd", want: ""},
		{name: "no header", accept: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := get(newRouter(tt.opts...), "/text", tt.accept)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Content-Encoding"))
			assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
			assert.Equal(t, large, decode(t, tt.want, w.Body.Bytes()))
			if tt.want != "" {
				assert.Less(t, w.Body.Len(), len(large))
				assert.Equal(t, strconv.Itoa(w.Body.Len()), w.Header().Get("Content-Length"))
				assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestNew_Eligibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       []Option
		path       string
		compressed bool
	}{
		{name: "json", path: "/json", compressed: true},
		{name: "problem", path: "/problem", compressed: true},
		{name: "below min size", path: "/small"},
		{name: "min size lowered", opts: []Option{WithMinSize(1)}, path: "/small", compressed: true},
		{name: "binary type", path: "/png"},
		{name: "stream", path: "/stream"},
		{name: "already encoded", path: "/encoded"},
		{name: "handler error", path: "/fail"},
		{name: "excluded path", opts: []Option{WithExcludePaths("/json")}, path: "/json"},
		{name: "excluded extension", opts: []Option{WithExcludeExtensions(".js")}, path: "/assets/app.js"},
		{name: "javascript", path: "/assets/app.js", compressed: true},
		{name: "excluded content type", opts: []Option{WithExcludeContentTypes("application/json")}, path: "/json"},
		{name: "custom content types", opts: []Option{WithContentTypes("image/*")}, path: "/png", compressed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := get(newRouter(tt.opts...), tt.path, "gzip")

			if tt.compressed {
				assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
				assert.NotEmpty(t, decode(t, "gzip", w.Body.Bytes()))
			} else {
				assert.NotEqual(t, "gzip", w.Header().Get("Content-Encoding"))
			}
		})
	}
}

func TestNew_ProblemKeepsStatusAndType(t *testing.T) {
	t.Parallel()

	w := get(newRouter(WithGzipLevel(gzip.BestSpeed)), "/problem", "gzip")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, decode(t, "gzip", w.Body.Bytes()), `"status":400`)
}

func TestNew_Head(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodHead, "/text", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Empty(t, w.Body.String())
}

func TestNew_BrotliLevels(t *testing.T) {
	t.Parallel()

	for _, level := range []int{-3, 0, 11, 20} {
		w := get(newRouter(WithBrotliLevel(level)), "/text", "br")
		assert.Equal(t, large, decode(t, "br", w.Body.Bytes()), "level %d", level)
	}
}
