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

import "log/slog"

// Option configures the compression filter.
type Option func(*config)

// WithGzipLevel sets the gzip level, from 1 (fastest) to 9 (best), or -1
// for the library default.
//
// Example:
//
//	compression.New(compression.WithGzipLevel(gzip.BestCompression))
func WithGzipLevel(level int) Option {
	return func(cfg *config) {
		cfg.gzipLevel = max(-1, min(level, 9))
	}
}

// WithBrotliLevel sets the Brotli level, from 0 to 11.
// For dynamic content use 4-5. Higher levels are CPU-expensive.
// Default: 4
func WithBrotliLevel(level int) Option {
	return func(cfg *config) {
		cfg.brotliLevel = max(0, min(level, 11))
	}
}

// WithBrotliDisabled disables Brotli.
func WithBrotliDisabled() Option {
	return func(cfg *config) {
		cfg.enableBrotli = false
	}
}

// WithGzipDisabled disables gzip.
func WithGzipDisabled() Option {
	return func(cfg *config) {
		cfg.enableGzip = false
	}
}

// WithDeflateDisabled disables deflate.
func WithDeflateDisabled() Option {
	return func(cfg *config) {
		cfg.enableDeflate = false
	}
}

// WithMinSize sets the smallest body, in bytes, worth compressing.
// Default: 1024
func WithMinSize(size int) Option {
	return func(cfg *config) {
		cfg.minSize = size
	}
}

// WithExcludePaths sets request paths whose responses are never compressed.
//
// Example:
//
//	compression.New(compression.WithExcludePaths("/metrics"))
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.exclude.AddPaths(paths...)
	}
}

// WithExcludeExtensions skips request paths ending in one of the extensions.
//
// Example:
//
//	compression.New(compression.WithExcludeExtensions(".png", ".zip"))
func WithExcludeExtensions(extensions ...string) Option {
	return func(cfg *config) {
		for _, ext := range extensions {
			cfg.excludeExtensions[ext] = struct{}{}
		}
	}
}

// WithExcludeContentTypes skips media types that would otherwise be
// compressed.
func WithExcludeContentTypes(contentTypes ...string) Option {
	return func(cfg *config) {
		for _, ct := range contentTypes {
			cfg.excludeContentTypes[ct] = struct{}{}
		}
	}
}

// WithContentTypes replaces the compressible media types. A trailing
// "/*" matches a whole type, as in "text/*".
func WithContentTypes(contentTypes ...string) Option {
	return func(cfg *config) {
		cfg.contentTypes = contentTypes
	}
}

// WithLogger logs compression failures. Without it failures are silent
// and the uncompressed result is sent.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
