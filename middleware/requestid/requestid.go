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

package requestid

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"rivaas.dev/endpoint/logging"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
	"rivaas.dev/endpoint/telemetry/semconv"
)

// DefaultHeader is the header read and written by default.
const DefaultHeader = "X-Request-ID"

// maxClientIDLength bounds client-supplied IDs; longer ones are replaced.
const maxClientIDLength = 128

type contextKey struct{}

// Option configures the requestid filter.
type Option func(*config)

type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
}

func defaultConfig() *config {
	return &config{
		headerName:    DefaultHeader,
		generator:     generateUUIDv7,
		allowClientID: true,
	}
}

// WithHeader sets the header name. Default: X-Request-ID.
func WithHeader(name string) Option {
	return func(cfg *config) {
		cfg.headerName = name
	}
}

// WithGenerator sets the ID generator.
func WithGenerator(fn func() string) Option {
	return func(cfg *config) {
		cfg.generator = fn
	}
}

// WithULID generates 26-character ULIDs instead of UUID v7.
func WithULID() Option {
	return WithGenerator(generateULID)
}

// WithAllowClientID controls whether an ID in the request header is kept.
// Default: true.
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) {
		cfg.allowClientID = allow
	}
}

// generateUUIDv7 returns a time-ordered UUID (RFC 9562).
func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

func generateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// New returns a filter that assigns a request ID. Register it before the
// filters that log, so their records carry the ID.
func New(opts ...Option) router.Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context, next router.Next) (result.Result, error) {
		var id string
		if cfg.allowClientID {
			id = c.Request.Header.Get(cfg.headerName)
			if len(id) > maxClientIDLength || !printable(id) {
				id = ""
			}
		}
		if id == "" {
			id = cfg.generator()
		}

		ctx := context.WithValue(c.Context(), contextKey{}, id)
		ctx = logging.NewContext(ctx, c.BaseLogger().With(semconv.RequestID, id))
		c.SetContext(ctx)

		// Set on the writer so error responses rendered by the router carry
		// it as well.
		c.ResponseWriter().Header().Set(cfg.headerName, id)

		return next(c)
	}
}

// Get returns the request ID of c, or "".
func Get(c *router.Context) string {
	return FromContext(c.Context())
}

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}

	return true
}
