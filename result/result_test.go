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

package result

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	riverrors "rivaas.dev/endpoint/errors"
)

func readBody(t *testing.T, resp *Response) string {
	t.Helper()

	if resp.Body == nil {
		return ""
	}

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Close())

	return string(data)
}

func TestToResponse_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		result      Result
		wantStatus  int
		wantType    string
		wantBody    string
		wantHeaders map[string]string
	}{
		{
			name:       "status only",
			result:     NoContent(),
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "json body",
			result:     OK(map[string]int{"id": 42}),
			wantStatus: http.StatusOK,
			wantType:   "application/json; charset=utf-8",
			wantBody:   `{"id":42}`,
		},
		{
			name:       "text body",
			result:     Text(http.StatusTeapot, "short"),
			wantStatus: http.StatusTeapot,
			wantType:   "text/plain; charset=utf-8",
			wantBody:   "short",
		},
		{
			name:        "created",
			result:      Created("/orders/1", map[string]string{"id": "1"}),
			wantStatus:  http.StatusCreated,
			wantType:    "application/json; charset=utf-8",
			wantBody:    `{"id":"1"}`,
			wantHeaders: map[string]string{"Location": "/orders/1"},
		},
		{
			name:        "temporary redirect",
			result:      Redirect("/login"),
			wantStatus:  http.StatusFound,
			wantHeaders: map[string]string{"Location": "/login"},
		},
		{
			name:        "permanent redirect",
			result:      RedirectPermanent("/v2"),
			wantStatus:  http.StatusMovedPermanently,
			wantHeaders: map[string]string{"Location": "/v2"},
		},
		{
			name:       "method preserving redirect",
			result:     RedirectPreserve("/upload", false),
			wantStatus: http.StatusTemporaryRedirect,
		},
		{
			name:       "permanent method preserving redirect",
			result:     RedirectPreserve("/upload", true),
			wantStatus: http.StatusPermanentRedirect,
		},
		{
			name:       "stream",
			result:     Stream(strings.NewReader("a,b\n"), "text/csv"),
			wantStatus: http.StatusOK,
			wantType:   "text/csv",
			wantBody:   "a,b\n",
		},
		{
			name:       "bytes",
			result:     Bytes(http.StatusOK, "image/png", []byte{0x89, 'P'}),
			wantStatus: http.StatusOK,
			wantType:   "image/png",
			wantBody:   "\x89P",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := ToResponse(nil, tt.result)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantType, resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.wantBody, readBody(t, resp))
			for k, v := range tt.wantHeaders {
				assert.Equal(t, v, resp.Header.Get(k), k)
			}
		})
	}
}

func TestToResponse_Problem(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	res := ValidationProblem(map[string][]string{"email": {"is required"}})

	resp, err := ToResponse(req, res)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, riverrors.ProblemContentType, resp.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	assert.Equal(t, "about:blank", body["type"])
	assert.Equal(t, "One or more validation errors occurred.", body["title"])
	assert.InDelta(t, 400, body["status"], 0)
	assert.Equal(t, "/users", body["instance"])
	assert.Equal(t, map[string]any{"email": []any{"is required"}}, body["errors"])
}

func TestToResponse_ProblemDefaults(t *testing.T) {
	t.Parallel()

	resp, err := ToResponse(nil, &ProblemResult{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.JSONEq(t, `{"type":"about:blank","title":"Internal Server Error","status":500}`, readBody(t, resp))
}

func TestToResponse_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0o600))

	resp, err := ToResponse(nil, FileAt(path))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Header.Get("Content-Type"), "json")
	assert.Equal(t, "11", resp.Header.Get("Content-Length"))
	assert.NotEmpty(t, resp.Header.Get("Last-Modified"))
	assert.Empty(t, resp.Header.Get("Content-Disposition"))
	assert.JSONEq(t, `{"ok":true}`, readBody(t, resp))

	resp, err = ToResponse(nil, FileAt(path, "monthly report.json"))
	require.NoError(t, err)
	assert.Equal(t, `attachment; filename="monthly report.json"`, resp.Header.Get("Content-Disposition"))
	require.NoError(t, resp.Close())
}

func TestToResponse_FileMissing(t *testing.T) {
	t.Parallel()

	_, err := ToResponse(nil, FileAt(filepath.Join(t.TempDir(), "nope.txt")))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, riverrors.StatusOf(err))

	_, err = ToResponse(nil, FileAt(t.TempDir()))
	require.Error(t, err, "directories are not served")
	assert.Equal(t, http.StatusNotFound, riverrors.StatusOf(err))
}

func TestToResponse_EncodeError(t *testing.T) {
	t.Parallel()

	_, err := ToResponse(nil, OK(map[string]any{"ch": make(chan int)}))
	require.Error(t, err)

	_, err = ToResponse(nil, nil)
	require.Error(t, err)
}

func TestToResponse_YAML(t *testing.T) {
	t.Parallel()

	resp, err := ToResponse(nil, YAML(http.StatusOK, map[string]any{"name": "widget", "qty": 3}))
	require.NoError(t, err)
	assert.Equal(t, YAMLContentType, resp.Header.Get("Content-Type"))

	body := readBody(t, resp)
	assert.Contains(t, body, "name: widget\n")
	assert.Contains(t, body, "qty: 3\n")
}

func TestLocalRedirect(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"/", "/home", "/a/b?c=d"} {
		r, err := LocalRedirect(ok)
		require.NoError(t, err, ok)
		assert.Equal(t, http.StatusFound, r.Status())
	}

	for _, bad := range []string{"https://evil.example", "//evil.example", "/\\evil.example", "relative", ""} {
		_, err := LocalRedirect(bad)
		require.Error(t, err, bad)
	}
}

type teapot struct {
	Brewing bool `json:"brewing"`
}

func (teapot) StatusCode() int { return http.StatusTeapot }

func TestFrom(t *testing.T) {
	t.Parallel()

	existing := NoContent()
	assert.Same(t, existing, From(existing))

	tests := []struct {
		name       string
		value      any
		wantStatus int
		wantBody   string
	}{
		{"nil", nil, http.StatusOK, ""},
		{"string", "hello", http.StatusOK, "hello"},
		{"bytes", []byte("raw"), http.StatusOK, "raw"},
		{"reader", strings.NewReader("streamed"), http.StatusOK, "streamed"},
		{"struct", struct {
			Name string `json:"name"`
		}{"widget"}, http.StatusOK, `{"name":"widget"}`},
		{"status coder", teapot{Brewing: true}, http.StatusTeapot, `{"brewing":true}`},
		{"problem", riverrors.NewProblem(http.StatusGone, "", "moved on"), http.StatusGone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := ToResponse(nil, From(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.Status)

			body := readBody(t, resp)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	problem := FromError(riverrors.NewRFC9457("").Format(req, riverrors.WithStatus(fmt.Errorf("gone"), http.StatusGone)))
	require.IsType(t, &ProblemResult{}, problem)
	assert.Equal(t, http.StatusGone, problem.Status())

	simple := FromError(riverrors.Response{
		Status:      http.StatusBadRequest,
		ContentType: "application/json",
		Body:        map[string]string{"error": "bad"},
		Headers:     http.Header{"X-Trace": {"abc"}},
	})
	assert.Equal(t, http.StatusBadRequest, simple.Status())
	assert.Equal(t, "abc", simple.Header().Get("X-Trace"))
}

func TestWrite(t *testing.T) {
	t.Parallel()

	res := JSON(http.StatusAccepted, map[string]string{"state": "queued"})
	res.Header().Set("X-Job", "7")

	rec := httptest.NewRecorder()
	require.NoError(t, Write(rec, httptest.NewRequest(http.MethodPost, "/jobs", nil), res))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "7", rec.Header().Get("X-Job"))
	assert.JSONEq(t, `{"state":"queued"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, Write(rec, httptest.NewRequest(http.MethodHead, "/jobs", nil), res))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String(), "HEAD responses have no body")
}
