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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	riverrors "rivaas.dev/endpoint/errors"
)

// Response is the wire form of a [Result].
type Response struct {
	Status int
	Header http.Header
	Body   io.Reader // nil when there is no body
}

// Close releases the body when it holds a resource such as an open file.
func (r *Response) Close() error {
	if c, ok := r.Body.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// ToResponse maps a result to its status, headers and body.
// req may be nil; it is only used to fill in the problem instance.
// The caller must Close the response.
func ToResponse(req *http.Request, res Result) (*Response, error) {
	if res == nil {
		return nil, errors.New("result: nil result")
	}

	resp := &Response{Status: res.Status(), Header: res.Header().Clone()}

	switch r := res.(type) {
	case *StatusResult:

	case *BodyResult:
		body, contentType, err := encodeBody(r.Value, r.ContentType)
		if err != nil {
			return nil, err
		}
		resp.Body = body
		if resp.Header.Get("Content-Type") == "" {
			resp.Header.Set("Content-Type", contentType)
		}
		if b, ok := body.(*bytes.Reader); ok {
			resp.Header.Set("Content-Length", strconv.Itoa(b.Len()))
		}

	case *RedirectResult:
		resp.Header.Set("Location", r.URL)

	case *FileResult:
		if err := openFile(r, resp); err != nil {
			return nil, err
		}

	case *ProblemResult:
		p := r.Problem
		p.Status = r.Status()
		if p.Title == "" {
			p.Title = http.StatusText(p.Status)
		}
		if p.Instance == "" && req != nil && req.URL != nil {
			p.Instance = req.URL.Path
		}
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("result: encode problem: %w", err)
		}
		resp.Body = bytes.NewReader(data)
		resp.Header.Set("Content-Type", riverrors.ProblemContentType)
		resp.Header.Set("Content-Length", strconv.Itoa(len(data)))

	default:
		return nil, fmt.Errorf("result: unsupported result type %T", res)
	}

	return resp, nil
}

func encodeBody(v any, contentType string) (io.Reader, string, error) {
	switch body := v.(type) {
	case nil:
		return bytes.NewReader(nil), orDefault(contentType, "text/plain; charset=utf-8"), nil
	case []byte:
		return bytes.NewReader(body), orDefault(contentType, "application/octet-stream"), nil
	case string:
		return bytes.NewReader([]byte(body)), orDefault(contentType, "text/plain; charset=utf-8"), nil
	case io.Reader:
		return body, orDefault(contentType, "application/octet-stream"), nil
	default:
		if isYAML(contentType) {
			data, err := yaml.Marshal(body)
			if err != nil {
				return nil, "", fmt.Errorf("result: encode %T as yaml: %w", v, err)
			}

			return bytes.NewReader(data), contentType, nil
		}

		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("result: encode %T: %w", v, err)
		}

		return bytes.NewReader(data), orDefault(contentType, "application/json; charset=utf-8"), nil
	}
}

func isYAML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mt == "application/x-yaml" || mt == "application/yaml" || mt == "text/yaml"
}

func openFile(r *FileResult, resp *Response) error {
	contentType := r.ContentType

	if r.Reader != nil {
		resp.Body = r.Reader
	} else {
		f, err := os.Open(r.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return riverrors.WithStatus(fmt.Errorf("file %s not found", filepath.Base(r.Path)), http.StatusNotFound)
			}

			return fmt.Errorf("result: open file: %w", err)
		}

		st, err := f.Stat()
		if err != nil || st.IsDir() {
			_ = f.Close()
			return riverrors.WithStatus(fmt.Errorf("file %s not found", filepath.Base(r.Path)), http.StatusNotFound)
		}

		resp.Body = f
		resp.Header.Set("Content-Length", strconv.FormatInt(st.Size(), 10))
		resp.Header.Set("Last-Modified", st.ModTime().UTC().Format(http.TimeFormat))
		if contentType == "" {
			contentType = ContentTypeFor(r.Path)
		}
	}

	if contentType == "" && r.DownloadName != "" {
		contentType = ContentTypeFor(r.DownloadName)
	}
	resp.Header.Set("Content-Type", orDefault(contentType, "application/octet-stream"))

	if r.DownloadName != "" {
		resp.Header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": r.DownloadName}))
	}

	return nil
}

// ContentTypeFor returns the media type registered for the extension of
// name, or "" when unknown.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}

	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}

	switch ext {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".yaml", ".yml":
		return "application/yaml"
	}

	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}

// Write writes res to w. Bodies are omitted for HEAD requests and for
// statuses that do not allow one.
func Write(w http.ResponseWriter, req *http.Request, res Result) error {
	resp, err := ToResponse(req, res)
	if err != nil {
		return err
	}

	return WriteResponse(w, req, resp)
}

// WriteResponse writes a response built by [ToResponse] and closes it.
func WriteResponse(w http.ResponseWriter, req *http.Request, resp *Response) error {
	defer resp.Close()

	h := w.Header()
	for k, vs := range resp.Header {
		h[k] = vs
	}

	w.WriteHeader(resp.Status)

	if resp.Body == nil || !bodyAllowed(req, resp.Status) {
		return nil
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("result: write body: %w", err)
	}

	return nil
}

func bodyAllowed(req *http.Request, status int) bool {
	if req != nil && req.Method == http.MethodHead {
		return false
	}

	switch {
	case status >= 100 && status < 200, status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}

	return true
}
