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

package errors

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ProblemContentType is the media type of RFC 9457 bodies.
const ProblemContentType = "application/problem+json; charset=utf-8"

// genericServerDetail replaces the detail of 5xx problems unless the
// formatter is told to expose it.
const genericServerDetail = "An unexpected error occurred while processing the request."

// RFC9457 formats errors as RFC 9457 Problem Details.
type RFC9457 struct {
	// BaseURL is prepended to error codes to create problem type URIs.
	BaseURL string

	// TypeResolver maps errors to problem type URIs.
	// If nil, [ErrorCode] is used, then "about:blank".
	TypeResolver func(err error) string

	// StatusResolver determines the HTTP status.
	// If nil, [StatusOf] is used.
	StatusResolver func(err error) int

	// ErrorIDGenerator generates IDs for the "error_id" extension.
	ErrorIDGenerator func() string

	// DisableErrorID disables the "error_id" extension.
	DisableErrorID bool

	// ExposeServerErrors keeps err.Error() as the detail of 5xx problems.
	// By default the detail is replaced with a generic message.
	ExposeServerErrors bool
}

// ProblemDetail is an RFC 9457 problem detail object.
//
// Example:
//
//	p := errors.ProblemDetail{
//		Type:   "about:blank",
//		Title:  "Bad Request",
//		Status: 400,
//		Errors: map[string][]string{"name": {"is required"}},
//	}
type ProblemDetail struct {
	Type       string              `json:"type"`
	Title      string              `json:"title"`
	Status     int                 `json:"status"`
	Detail     string              `json:"detail,omitempty"`
	Instance   string              `json:"instance,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Extensions map[string]any      `json:"-"` // Marshaled inline
}

// NewProblem returns a problem with the given status. An empty title
// defaults to the status text.
func NewProblem(status int, title, detail string) ProblemDetail {
	if title == "" {
		title = http.StatusText(status)
	}

	return ProblemDetail{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// With returns a copy of p with an extension member set.
func (p ProblemDetail) With(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext

	return p
}

// MarshalJSON inlines extension members. Extensions never overwrite the
// standard members.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 6+len(p.Extensions))
	for k, v := range p.Extensions {
		m[k] = v
	}

	m["type"] = p.Type
	if p.Type == "" {
		m["type"] = "about:blank"
	}
	m["title"] = p.Title
	m["status"] = p.Status

	for _, k := range []string{"detail", "instance", "errors"} {
		delete(m, k)
	}
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	if len(p.Errors) > 0 {
		m["errors"] = p.Errors
	}

	return json.Marshal(m)
}

// Format converts an error into a Problem Details response.
// Errors implementing [ErrorDetails] contribute an "errors" member when the
// details are a map[string][]string, and a "details" extension otherwise.
func (f *RFC9457) Format(req *http.Request, err error) Response {
	status := f.determineStatus(err)

	p := NewProblem(status, "", err.Error())
	p.Type = f.determineType(err)
	if req != nil && req.URL != nil {
		p.Instance = req.URL.Path
	}
	if status >= http.StatusInternalServerError && !f.ExposeServerErrors {
		p.Detail = genericServerDetail
	}

	if !f.DisableErrorID {
		id := ""
		if f.ErrorIDGenerator != nil {
			id = f.ErrorIDGenerator()
		} else {
			id = generateErrorID()
		}
		p = p.With("error_id", id)
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		if fields, ok := detailed.Details().(map[string][]string); ok {
			p.Errors = fields
		} else {
			p = p.With("details", detailed.Details())
		}
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		p = p.With("code", coded.Code())
	}

	return Response{
		Status:      status,
		ContentType: ProblemContentType,
		Body:        p,
	}
}

func (f *RFC9457) determineStatus(err error) int {
	if f.StatusResolver != nil {
		return f.StatusResolver(err)
	}

	return StatusOf(err)
}

func (f *RFC9457) determineType(err error) string {
	if f.TypeResolver != nil {
		return f.TypeResolver(err)
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		if f.BaseURL != "" {
			return f.BaseURL + "/" + coded.Code()
		}

		return coded.Code()
	}

	return "about:blank"
}

// generateErrorID returns "err-" followed by 16 random bytes in hex,
// or a timestamp when the random source fails.
func generateErrorID() string {
	b := make([]byte, 16) //nolint:makezero // crypto/rand.Read requires pre-allocated buffer
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("err-%d", time.Now().UnixNano())
	}

	return "err-" + hex.EncodeToString(b)
}
