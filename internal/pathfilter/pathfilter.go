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

// Package pathfilter matches request paths against exclusion rules shared by
// the observability filters.
package pathfilter

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter holds exact paths, prefixes and regex patterns. The zero value
// and a nil *Filter match nothing. A Filter must not be modified once it is
// used concurrently.
type Filter struct {
	paths    map[string]struct{}
	prefixes []string
	patterns []*regexp.Regexp
}

// New creates an empty filter.
func New() *Filter {
	return &Filter{paths: make(map[string]struct{})}
}

// AddPaths adds exact paths.
func (f *Filter) AddPaths(paths ...string) {
	if f.paths == nil {
		f.paths = make(map[string]struct{}, len(paths))
	}
	for _, p := range paths {
		f.paths[p] = struct{}{}
	}
}

// AddPrefixes adds path prefixes.
func (f *Filter) AddPrefixes(prefixes ...string) {
	f.prefixes = append(f.prefixes, prefixes...)
}

// AddPatterns compiles and adds regex patterns. The first invalid pattern
// is reported and nothing after it is added.
func (f *Filter) AddPatterns(patterns ...string) error {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid path pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}

	return nil
}

// Match reports whether path is excluded.
func (f *Filter) Match(path string) bool {
	if f == nil {
		return false
	}

	if _, ok := f.paths[path]; ok {
		return true
	}

	for _, prefix := range f.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	for _, re := range f.patterns {
		if re.MatchString(path) {
			return true
		}
	}

	return false
}

// Empty reports whether the filter has no rules.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.paths) == 0 && len(f.prefixes) == 0 && len(f.patterns) == 0)
}
