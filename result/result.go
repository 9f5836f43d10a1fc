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
	"io"
	"net/http"

	riverrors "rivaas.dev/endpoint/errors"
)

// Result is the outcome of a handler or filter. The set of implementations
// is closed: [*StatusResult], [*BodyResult], [*RedirectResult],
// [*FileResult] and [*ProblemResult].
type Result interface {
	// Status returns the HTTP status code the result is written with.
	Status() int

	// Header returns the extra headers written with the result.
	// The map is created on first use and may be modified by filters.
	Header() http.Header

	result()
}

type headers struct {
	header http.Header
}

func (h *headers) Header() http.Header {
	if h.header == nil {
		h.header = make(http.Header)
	}

	return h.header
}

// StatusResult is a status code with no body.
type StatusResult struct {
	headers
	Code int
}

// Status implements [Result]. A zero code means 200.
func (r *StatusResult) Status() int {
	if r.Code == 0 {
		return http.StatusOK
	}

	return r.Code
}

func (*StatusResult) result() {}

// BodyResult is a status code with a body.
//
// Value is written as-is when it is a []byte, string or io.Reader, and
// JSON-encoded otherwise. ContentType defaults to text/plain for strings,
// application/octet-stream for bytes and readers and application/json for
// everything else.
type BodyResult struct {
	headers
	Code        int
	Value       any
	ContentType string
}

// Status implements [Result]. A zero code means 200.
func (r *BodyResult) Status() int {
	if r.Code == 0 {
		return http.StatusOK
	}

	return r.Code
}

func (*BodyResult) result() {}

// RedirectResult redirects the client to URL.
//
//	Permanent  PreserveMethod  Status
//	false      false           302 Found
//	true       false           301 Moved Permanently
//	false      true            307 Temporary Redirect
//	true       true            308 Permanent Redirect
type RedirectResult struct {
	headers
	URL            string
	Permanent      bool
	PreserveMethod bool
}

// Status implements [Result].
func (r *RedirectResult) Status() int {
	switch {
	case r.Permanent && r.PreserveMethod:
		return http.StatusPermanentRedirect
	case r.Permanent:
		return http.StatusMovedPermanently
	case r.PreserveMethod:
		return http.StatusTemporaryRedirect
	default:
		return http.StatusFound
	}
}

func (*RedirectResult) result() {}

// FileResult sends a file from disk (Path) or from a stream (Reader).
// Exactly one of Path and Reader is set.
type FileResult struct {
	headers
	Path         string
	Reader       io.Reader
	ContentType  string // Derived from the file extension when empty
	DownloadName string // Sets Content-Disposition: attachment when non-empty
}

// Status implements [Result].
func (r *FileResult) Status() int { return http.StatusOK }

func (*FileResult) result() {}

// ProblemResult is an RFC 9457 problem details response.
type ProblemResult struct {
	headers
	Problem riverrors.ProblemDetail
}

// Status implements [Result]. A zero problem status means 500.
func (r *ProblemResult) Status() int {
	if r.Problem.Status == 0 {
		return http.StatusInternalServerError
	}

	return r.Problem.Status
}

func (*ProblemResult) result() {}
