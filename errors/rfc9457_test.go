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

package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codedError struct {
	message string
	code    string
}

func (e *codedError) Error() string { return e.message }
func (e *codedError) Code() string  { return e.code }

type fieldError struct {
	fields map[string][]string
}

func (e *fieldError) Error() string  { return "validation failed" }
func (e *fieldError) HTTPStatus() int { return http.StatusBadRequest }
func (e *fieldError) Details() any    { return e.fields }

type opaqueDetails struct{}

func (e *opaqueDetails) Error() string { return "opaque" }
func (e *opaqueDetails) Details() any  { return []int{1, 2} }

func TestRFC9457_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		formatter  *RFC9457
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{
			name:       "plain error hides detail",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        fmt.Errorf("db password wrong"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "about:blank",
			wantDetail: genericServerDetail,
		},
		{
			name:       "exposed server error",
			formatter:  &RFC9457{ExposeServerErrors: true},
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "about:blank",
			wantDetail: "boom",
		},
		{
			name:       "status from WithStatus",
			formatter:  NewRFC9457(""),
			err:        WithStatus(fmt.Errorf("order 7 not found"), http.StatusNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   "about:blank",
			wantDetail: "order 7 not found",
		},
		{
			name:       "code builds type",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        WithStatus(&codedError{message: "bad", code: "invalid_input"}, http.StatusBadRequest),
			wantStatus: http.StatusBadRequest,
			wantType:   "https://api.example.com/problems/invalid_input",
			wantDetail: "bad",
		},
		{
			name:       "code without base URL",
			formatter:  NewRFC9457(""),
			err:        WithStatus(WithCode(fmt.Errorf("x"), "x_code"), http.StatusConflict),
			wantStatus: http.StatusConflict,
			wantType:   "x_code",
			wantDetail: "x",
		},
		{
			name:       "deadline maps to 504",
			formatter:  NewRFC9457(""),
			err:        fmt.Errorf("query: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   "about:blank",
			wantDetail: genericServerDetail,
		},
		{
			name: "custom resolvers",
			formatter: &RFC9457{
				TypeResolver:   func(error) string { return "urn:problem:teapot" },
				StatusResolver: func(error) int { return http.StatusTeapot },
			},
			err:        fmt.Errorf("short and stout"),
			wantStatus: http.StatusTeapot,
			wantType:   "urn:problem:teapot",
			wantDetail: "short and stout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/orders/7", nil)
			resp := tt.formatter.Format(req, tt.err)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, ProblemContentType, resp.ContentType)

			body, ok := resp.Body.(ProblemDetail)
			require.True(t, ok, "Body is not ProblemDetail, got %T", resp.Body)
			assert.Equal(t, tt.wantType, body.Type)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, http.StatusText(tt.wantStatus), body.Title)
			assert.Equal(t, tt.wantDetail, body.Detail)
			assert.Equal(t, "/orders/7", body.Instance)

			id, _ := body.Extensions["error_id"].(string)
			assert.True(t, strings.HasPrefix(id, "err-"), "error_id %q", id)
		})
	}
}

func TestRFC9457_ErrorID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	disabled := &RFC9457{DisableErrorID: true}
	body := disabled.Format(req, fmt.Errorf("x")).Body.(ProblemDetail)
	assert.NotContains(t, body.Extensions, "error_id")

	custom := &RFC9457{ErrorIDGenerator: func() string { return "custom-id-123" }}
	body = custom.Format(req, fmt.Errorf("x")).Body.(ProblemDetail)
	assert.Equal(t, "custom-id-123", body.Extensions["error_id"])
}

func TestRFC9457_Details(t *testing.T) {
	t.Parallel()

	f := &RFC9457{DisableErrorID: true}
	req := httptest.NewRequest(http.MethodPost, "/users", nil)

	resp := f.Format(req, &fieldError{fields: map[string][]string{"email": {"is required"}}})
	body := resp.Body.(ProblemDetail)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, map[string][]string{"email": {"is required"}}, body.Errors)
	assert.NotContains(t, body.Extensions, "details")

	body = f.Format(req, &opaqueDetails{}).Body.(ProblemDetail)
	assert.Nil(t, body.Errors)
	assert.Equal(t, []int{1, 2}, body.Extensions["details"])
}

func TestProblemDetail_MarshalJSON(t *testing.T) {
	t.Parallel()

	p := NewProblem(http.StatusBadRequest, "", "Validation failed")
	p.Instance = "/api/users"
	p.Errors = map[string][]string{"name": {"too short"}}
	p = p.With("error_id", "err-123").With("type", "overwritten").With("errors", "overwritten")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "about:blank", got["type"], "reserved members are not overwritten")
	assert.Equal(t, "Bad Request", got["title"])
	assert.InDelta(t, 400, got["status"], 0)
	assert.Equal(t, "Validation failed", got["detail"])
	assert.Equal(t, "/api/users", got["instance"])
	assert.Equal(t, "err-123", got["error_id"])
	assert.Equal(t, map[string]any{"name": []any{"too short"}}, got["errors"])
}

func TestProblemDetail_MarshalJSON_OmitsEmpty(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ProblemDetail{Title: "Gone", Status: http.StatusGone})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"about:blank","title":"Gone","status":410}`, string(data))
}

func TestProblemDetail_WithDoesNotMutate(t *testing.T) {
	t.Parallel()

	base := NewProblem(http.StatusConflict, "Conflict", "")
	a := base.With("k", 1)
	b := a.With("k", 2)

	assert.Nil(t, base.Extensions)
	assert.Equal(t, 1, a.Extensions["k"])
	assert.Equal(t, 2, b.Extensions["k"])
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("x")))
	assert.Equal(t, http.StatusGatewayTimeout, StatusOf(context.DeadlineExceeded))
	assert.Equal(t, http.StatusRequestTimeout, StatusOf(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.Equal(t, http.StatusNotFound, StatusOf(WithStatus(context.Canceled, http.StatusNotFound)), "explicit status wins")
	assert.Equal(t, http.StatusNoContent, StatusOf(WithStatus(nil, http.StatusNoContent)))
	assert.Equal(t, "No Content", WithStatus(nil, http.StatusNoContent).Error())
}
