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

package result

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	riverrors "rivaas.dev/endpoint/errors"
)

// YAMLContentType is the content type [YAML] results carry.
const YAMLContentType = "application/x-yaml; charset=utf-8"

// OK returns 200 with v as the body. A nil v yields an empty 200.
func OK(v any) Result {
	if v == nil {
		return &StatusResult{Code: http.StatusOK}
	}

	return &BodyResult{Code: http.StatusOK, Value: v}
}

// Created returns 201 with a Location header and v as the body.
func Created(location string, v any) Result {
	var r Result
	if v == nil {
		r = &StatusResult{Code: http.StatusCreated}
	} else {
		r = &BodyResult{Code: http.StatusCreated, Value: v}
	}
	if location != "" {
		r.Header().Set("Location", location)
	}

	return r
}

// Accepted returns 202 with an optional Location header.
func Accepted(location string) Result {
	r := &StatusResult{Code: http.StatusAccepted}
	if location != "" {
		r.Header().Set("Location", location)
	}

	return r
}

// NoContent returns 204.
func NoContent() Result { return &StatusResult{Code: http.StatusNoContent} }

// StatusCode returns a bodiless result with the given status.
func StatusCode(code int) Result { return &StatusResult{Code: code} }

// JSON returns code with v encoded as JSON.
func JSON(code int, v any) Result {
	return &BodyResult{Code: code, Value: v, ContentType: "application/json; charset=utf-8"}
}

// YAML returns code with v encoded as YAML.
func YAML(code int, v any) Result {
	return &BodyResult{Code: code, Value: v, ContentType: YAMLContentType}
}

// Text returns code with a text/plain body.
func Text(code int, s string) Result {
	return &BodyResult{Code: code, Value: s, ContentType: "text/plain; charset=utf-8"}
}

// Bytes returns code with raw bytes and the given content type.
func Bytes(code int, contentType string, b []byte) Result {
	return &BodyResult{Code: code, Value: b, ContentType: contentType}
}

// Stream returns 200 with the body copied from r.
// r is closed after writing when it implements io.Closer.
func Stream(r io.Reader, contentType string) Result {
	return &FileResult{Reader: r, ContentType: contentType}
}

// FileAt sends the file at path. downloadName, when given, turns the
// response into an attachment.
func FileAt(path string, downloadName ...string) Result {
	r := &FileResult{Path: path}
	if len(downloadName) > 0 {
		r.DownloadName = downloadName[0]
	}

	return r
}

// Redirect returns a temporary (302) redirect.
func Redirect(location string) Result { return &RedirectResult{URL: location} }

// RedirectPermanent returns a permanent (301) redirect.
func RedirectPermanent(location string) Result {
	return &RedirectResult{URL: location, Permanent: true}
}

// RedirectPreserve returns a 307 (or 308 when permanent) redirect that
// keeps the request method and body.
func RedirectPreserve(location string, permanent bool) Result {
	return &RedirectResult{URL: location, Permanent: permanent, PreserveMethod: true}
}

// LocalRedirect is like [Redirect] but only accepts application-relative
// URLs ("/path", not "//host" or "https://host"). It returns an error for
// anything else.
func LocalRedirect(location string) (Result, error) {
	if !isLocalURL(location) {
		return nil, riverrors.WithStatus(fmt.Errorf("redirect target %q is not a local URL", location), http.StatusInternalServerError)
	}

	return &RedirectResult{URL: location}, nil
}

func isLocalURL(s string) bool {
	if !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/\\") {
		return false
	}

	u, err := url.Parse(s)

	return err == nil && u.Scheme == "" && u.Host == ""
}

// Problem returns an RFC 9457 problem. An empty title defaults to the
// status text.
func Problem(status int, title, detail string) *ProblemResult {
	return &ProblemResult{Problem: riverrors.NewProblem(status, title, detail)}
}

// ProblemFrom wraps an existing problem detail.
func ProblemFrom(p riverrors.ProblemDetail) *ProblemResult {
	return &ProblemResult{Problem: p}
}

// ValidationProblem returns a 400 problem carrying field errors.
//
// Example:
//
//	return result.ValidationProblem(map[string][]string{
//	    "email": {"is required"},
//	}), nil
func ValidationProblem(fieldErrors map[string][]string) *ProblemResult {
	p := riverrors.NewProblem(http.StatusBadRequest, "One or more validation errors occurred.", "")
	p.Errors = fieldErrors

	return &ProblemResult{Problem: p}
}

// BadRequest returns a 400 problem with the given detail.
func BadRequest(detail string) Result { return Problem(http.StatusBadRequest, "", detail) }

// NotFound returns a 404 problem with the given detail.
func NotFound(detail string) Result { return Problem(http.StatusNotFound, "", detail) }

// Conflict returns a 409 problem with the given detail.
func Conflict(detail string) Result { return Problem(http.StatusConflict, "", detail) }

// Unauthorized returns a 401 problem.
func Unauthorized() Result { return Problem(http.StatusUnauthorized, "", "") }

// Forbidden returns a 403 problem.
func Forbidden() Result { return Problem(http.StatusForbidden, "", "") }

// FromError converts a formatted error response into a result.
func FromError(resp riverrors.Response) Result {
	var r Result
	if p, ok := resp.Body.(riverrors.ProblemDetail); ok {
		r = &ProblemResult{Problem: p}
	} else {
		r = &BodyResult{Code: resp.Status, Value: resp.Body, ContentType: resp.ContentType}
	}

	for k, vs := range resp.Headers {
		for _, v := range vs {
			r.Header().Add(k, v)
		}
	}

	return r
}
