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

// StatusCoder lets plain handler values pick their status code when they
// are converted with [From].
type StatusCoder interface {
	StatusCode() int
}

// From converts a handler's return value into a [Result].
//
//	Result                -> itself
//	nil                   -> 200, empty body
//	string                -> 200 text/plain
//	[]byte                -> 200 application/octet-stream
//	io.Reader             -> 200 streamed
//	errors.ProblemDetail  -> problem
//	StatusCoder           -> its status, JSON body
//	anything else         -> 200 JSON
func From(v any) Result {
	switch val := v.(type) {
	case Result:
		return val
	case nil:
		return &StatusResult{Code: http.StatusOK}
	case string:
		return Text(http.StatusOK, val)
	case []byte:
		return Bytes(http.StatusOK, "application/octet-stream", val)
	case io.Reader:
		return Stream(val, "")
	case riverrors.ProblemDetail:
		return ProblemFrom(val)
	case *riverrors.ProblemDetail:
		if val == nil {
			return &StatusResult{Code: http.StatusOK}
		}
		return ProblemFrom(*val)
	case StatusCoder:
		return JSON(val.StatusCode(), val)
	default:
		return JSON(http.StatusOK, val)
	}
}
