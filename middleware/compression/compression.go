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

package compression

import (
	"bytes"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"

	"rivaas.dev/endpoint/internal/pathfilter"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

const (
	encBrotli  = "br"
	encGzip    = "gzip"
	encDeflate = "deflate"
)

type config struct {
	gzipLevel           int
	brotliLevel         int
	enableGzip          bool
	enableBrotli        bool
	enableDeflate       bool
	minSize             int
	exclude             *pathfilter.Filter
	excludeExtensions   map[string]struct{}
	excludeContentTypes map[string]struct{}
	contentTypes        []string
	logger              *slog.Logger
}

func defaultConfig() *config {
	return &config{
		gzipLevel:           gzip.DefaultCompression,
		brotliLevel:         4,
		enableGzip:          true,
		enableBrotli:        true,
		enableDeflate:       true,
		minSize:             1024,
		exclude:             pathfilter.New(),
		excludeExtensions:   make(map[string]struct{}),
		excludeContentTypes: make(map[string]struct{}),
		contentTypes: []string{
			"text/*",
			"application/json",
			"application/javascript",
			"application/xml",
			"application/xhtml+xml",
			"image/svg+xml",
		},
	}
}

type compressor struct {
	cfg         *config
	gzipPool    sync.Pool
	deflatePool sync.Pool
}

// New returns a compression filter.
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	cp := &compressor{cfg: cfg}
	cp.gzipPool.New = func() any {
		// Level is clamped to a valid range, so the error is always nil.
		w, _ := gzip.NewWriterLevel(io.Discard, cfg.gzipLevel)
		return w
	}
	cp.deflatePool.New = func() any {
		w, _ := flate.NewWriter(io.Discard, flate.DefaultCompression)
		return w
	}

	return func(c *router.Context, next router.Next) (result.Result, error) {
		res, err := next(c)
		if err != nil || res == nil {
			return res, err
		}

		if !compressible(res) || cfg.skipPath(c.Request.URL.Path) || c.Request.Method == http.MethodHead {
			return res, nil
		}

		res.Header().Add("Vary", "Accept-Encoding")

		enc := cfg.negotiate(c.Request.Header.Get("Accept-Encoding"))
		if enc == "" {
			return res, nil
		}

		out, cerr := cp.compress(c, res, enc)
		if cerr != nil {
			if cfg.logger != nil {
				cfg.logger.ErrorContext(c.Context(), "compression failed",
					slog.String("encoding", enc), slog.Any("error", cerr))
			}
			return res, nil
		}
		if out == nil {
			return res, nil
		}

		return out, nil
	}
}

// compressible reports whether res holds an in-memory body.
func compressible(res result.Result) bool {
	switch r := res.(type) {
	case *result.BodyResult:
		_, stream := r.Value.(io.Reader)
		return !stream && r.Value != nil
	case *result.ProblemResult:
		return true
	default:
		return false
	}
}

// compress returns res re-encoded with enc, or nil when the body is too
// small, already encoded or of an excluded type.
func (cp *compressor) compress(c *router.Context, res result.Result, enc string) (result.Result, error) {
	resp, err := result.ToResponse(c.Request, res)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if resp.Header.Get("Content-Encoding") != "" || resp.Body == nil {
		return nil, nil
	}

	contentType := resp.Header.Get("Content-Type")
	if !cp.cfg.compressibleType(contentType) {
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) < cp.cfg.minSize {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := cp.encode(&buf, enc, raw); err != nil {
		return nil, err
	}

	out := &result.BodyResult{Code: resp.Status, Value: buf.Bytes(), ContentType: contentType}
	h := out.Header()
	for k, vs := range resp.Header {
		h[k] = vs
	}
	h.Set("Content-Encoding", enc)
	h.Del("Content-Length")

	return out, nil
}

func (cp *compressor) encode(dst *bytes.Buffer, enc string, raw []byte) error {
	switch enc {
	case encBrotli:
		w := brotli.NewWriterLevel(dst, cp.cfg.brotliLevel)
		if _, err := w.Write(raw); err != nil {
			return err
		}
		return w.Close()

	case encGzip:
		w := cp.gzipPool.Get().(*gzip.Writer)
		defer cp.gzipPool.Put(w)
		w.Reset(dst)
		if _, err := w.Write(raw); err != nil {
			return err
		}
		return w.Close()

	default:
		w := cp.deflatePool.Get().(*flate.Writer)
		defer cp.deflatePool.Put(w)
		w.Reset(dst)
		if _, err := w.Write(raw); err != nil {
			return err
		}
		return w.Close()
	}
}

func (cfg *config) skipPath(p string) bool {
	if cfg.exclude.Match(p) {
		return true
	}
	_, ok := cfg.excludeExtensions[path.Ext(p)]

	return ok
}

func (cfg *config) compressibleType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if _, ok := cfg.excludeContentTypes[mt]; ok {
		return false
	}

	for _, ct := range cfg.contentTypes {
		if prefix, ok := strings.CutSuffix(ct, "/*"); ok {
			if strings.HasPrefix(mt, prefix+"/") {
				return true
			}
			continue
		}
		if ct == mt {
			return true
		}
	}

	return strings.HasSuffix(mt, "+json") || strings.HasSuffix(mt, "+xml")
}

// negotiate picks an encoding from an Accept-Encoding header.
func (cfg *config) negotiate(header string) string {
	if header == "" {
		return ""
	}

	q := map[string]float64{}
	wildcard := -1.0
	for part := range strings.SplitSeq(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		weight := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			weight = f
		}
		if name == "*" {
			wildcard = weight
			continue
		}
		q[name] = weight
	}

	best, bestQ := "", 0.0
	for _, enc := range []string{encBrotli, encGzip, encDeflate} {
		if !cfg.enabled(enc) {
			continue
		}
		w, ok := q[enc]
		if !ok {
			w = max(wildcard, 0)
		}
		if w > bestQ {
			best, bestQ = enc, w
		}
	}

	return best
}

func (cfg *config) enabled(enc string) bool {
	switch enc {
	case encBrotli:
		return cfg.enableBrotli
	case encGzip:
		return cfg.enableGzip
	default:
		return cfg.enableDeflate
	}
}
