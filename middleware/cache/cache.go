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

package cache

import (
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"rivaas.dev/endpoint/internal/pathfilter"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

// Header is the response header reporting the cache outcome.
const Header = "X-Cache"

// Option configures the cache filter.
type Option func(*config)

type config struct {
	store    Store
	ttl      time.Duration
	keyFunc  func(c *router.Context) string
	vary     []string
	statuses []int
	skip     *pathfilter.Filter
	logger   *slog.Logger
	now      func() time.Time
}

func defaultConfig() *config {
	return &config{
		ttl:      time.Minute,
		statuses: []int{http.StatusOK},
		skip:     pathfilter.New(),
		now:      time.Now,
	}
}

// WithStore sets where entries are kept. Default: a [MemoryStore] with
// 10000 entries.
func WithStore(store Store) Option {
	return func(cfg *config) {
		cfg.store = store
	}
}

// WithTTL sets how long entries live. Default: 1 minute.
func WithTTL(ttl time.Duration) Option {
	return func(cfg *config) {
		cfg.ttl = ttl
	}
}

// WithKeyFunc replaces the default key, the request path plus raw query.
func WithKeyFunc(fn func(c *router.Context) string) Option {
	return func(cfg *config) {
		cfg.keyFunc = fn
	}
}

// WithVaryHeaders adds request header values to the key.
func WithVaryHeaders(headers ...string) Option {
	return func(cfg *config) {
		cfg.vary = append(cfg.vary, headers...)
	}
}

// WithStatuses sets the cacheable status codes. Default: 200.
func WithStatuses(codes ...int) Option {
	return func(cfg *config) {
		cfg.statuses = codes
	}
}

// WithSkipPaths bypasses the cache for exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.skip.AddPaths(paths...)
	}
}

// WithLogger logs store failures. The request is served uncached when the
// store fails.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// New returns a response cache filter.
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = NewMemoryStore(10000)
	}

	return func(c *router.Context, next router.Next) (result.Result, error) {
		req := c.Request
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			return next(c)
		}
		if cfg.skip.Match(req.URL.Path) {
			return next(c)
		}

		key := cfg.key(c)
		ctx := c.Context()

		if !directive(req.Header.Get("Cache-Control"), "no-cache") {
			entry, ok, err := cfg.store.Get(ctx, key)
			if err != nil {
				cfg.warn(c, "cache lookup failed", key, err)
			}
			if ok {
				return hit(entry, cfg.now()), nil
			}
		}

		res, err := next(c)
		if err != nil || res == nil {
			return res, err
		}

		entry, ok, cerr := cfg.capture(c, res)
		if cerr != nil {
			cfg.warn(c, "cache capture failed", key, cerr)
			return res, nil
		}
		if !ok {
			res.Header().Set(Header, "BYPASS")
			return res, nil
		}

		if err := cfg.store.Set(ctx, key, entry, cfg.ttl); err != nil {
			cfg.warn(c, "cache store failed", key, err)
		}

		out := fromEntry(entry)
		out.Header().Set(Header, "MISS")

		return out, nil
	}
}

func (cfg *config) key(c *router.Context) string {
	var b strings.Builder
	if cfg.keyFunc != nil {
		b.WriteString(cfg.keyFunc(c))
	} else {
		b.WriteString(c.Request.URL.Path)
		if q := c.Request.URL.RawQuery; q != "" {
			b.WriteByte('?')
			b.WriteString(q)
		}
	}

	for _, h := range cfg.vary {
		b.WriteByte('|')
		b.WriteString(strings.ToLower(h))
		b.WriteByte('=')
		b.WriteString(c.Request.Header.Get(h))
	}

	return b.String()
}

// capture renders res into an entry, reporting false when it must not be
// cached.
func (cfg *config) capture(c *router.Context, res result.Result) (Entry, bool, error) {
	switch r := res.(type) {
	case *result.BodyResult:
		if _, stream := r.Value.(io.Reader); stream {
			return Entry{}, false, nil
		}
	case *result.StatusResult, *result.ProblemResult:
	default:
		return Entry{}, false, nil
	}

	if !slices.Contains(cfg.statuses, res.Status()) {
		return Entry{}, false, nil
	}

	h := res.Header()
	if h.Get("Set-Cookie") != "" {
		return Entry{}, false, nil
	}
	if cc := h.Get("Cache-Control"); directive(cc, "no-store") || directive(cc, "private") {
		return Entry{}, false, nil
	}

	resp, err := result.ToResponse(c.Request, res)
	if err != nil {
		return Entry{}, false, err
	}
	defer resp.Close()

	var body []byte
	if resp.Body != nil {
		if body, err = io.ReadAll(resp.Body); err != nil {
			return Entry{}, false, err
		}
	}

	return Entry{Status: resp.Status, Header: resp.Header, Body: body, StoredAt: cfg.now()}, true, nil
}

func hit(e Entry, now time.Time) result.Result {
	out := fromEntry(e)
	out.Header().Set(Header, "HIT")
	out.Header().Set("Age", strconv.Itoa(max(int(now.Sub(e.StoredAt).Seconds()), 0)))

	return out
}

func fromEntry(e Entry) *result.BodyResult {
	out := &result.BodyResult{
		Code:        e.Status,
		Value:       e.Body,
		ContentType: e.Header.Get("Content-Type"),
	}
	h := out.Header()
	for k, vs := range e.Header {
		h[k] = slices.Clone(vs)
	}

	return out
}

func (cfg *config) warn(c *router.Context, msg, key string, err error) {
	if cfg.logger == nil {
		return
	}
	cfg.logger.WarnContext(c.Context(), msg, slog.String("key", key), slog.Any("error", err))
}

// directive reports whether a Cache-Control value contains name.
func directive(header, name string) bool {
	for part := range strings.SplitSeq(header, ",") {
		d, _, _ := strings.Cut(strings.TrimSpace(part), "=")
		if strings.EqualFold(d, name) {
			return true
		}
	}

	return false
}
