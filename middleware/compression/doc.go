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

// Package compression provides a filter that compresses response bodies.
//
// The filter post-processes the result returned by inner stages, so it
// sees the whole body and can honor a minimum size. Only in-memory bodies
// are compressed: body results whose value is not a stream, and problem
// results. Files and streams pass through untouched.
//
// # Basic Usage
//
//	r := router.MustNew()
//	r.Use(compression.New())
//
// # Algorithms
//
//   - br: Brotli (github.com/andybalholm/brotli), level 4 by default
//   - gzip: github.com/klauspost/compress/gzip
//   - deflate: github.com/klauspost/compress/flate
//
// The encoding with the highest q-value in Accept-Encoding wins. Ties go to
// br, then gzip, then deflate.
//
// # Content Type Filtering
//
// By default text/*, JSON, XML and JavaScript types are compressed,
// including +json and +xml suffixes such as application/problem+json.
package compression
