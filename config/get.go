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

package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Get returns the value at a dotted, case-insensitive key, or nil.
func (c *Config) Get(key string) any {
	if c == nil || key == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	key = strings.ToLower(key)
	if v, ok := c.values[key]; ok {
		return v
	}

	var current any = c.values
	for part := range strings.SplitSeq(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = m[part]; !ok {
			return nil
		}
	}

	return current
}

// Has reports whether key is set.
func (c *Config) Has(key string) bool { return c.Get(key) != nil }

// String returns the value at key converted to a string, or "".
func (c *Config) String(key string) string { return cast.ToString(c.Get(key)) }

// Int returns the value at key converted to an int, or 0.
func (c *Config) Int(key string) int { return cast.ToInt(c.Get(key)) }

// Bool returns the value at key converted to a bool, or false.
func (c *Config) Bool(key string) bool { return cast.ToBool(c.Get(key)) }

// Duration returns the value at key converted to a duration, or 0.
func (c *Config) Duration(key string) time.Duration { return cast.ToDuration(c.Get(key)) }

// StringSlice returns the value at key as a slice. A string is split on
// commas.
func (c *Config) StringSlice(key string) []string {
	v := c.Get(key)
	if s, ok := v.(string); ok {
		var out []string
		for p := range strings.SplitSeq(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	return cast.ToStringSlice(v)
}

// StringOr returns the value at key, or def when unset or not convertible.
func (c *Config) StringOr(key, def string) string {
	v, err := cast.ToStringE(c.Get(key))
	if err != nil || !c.Has(key) {
		return def
	}

	return v
}

// IntOr returns the value at key, or def when unset or not convertible.
func (c *Config) IntOr(key string, def int) int {
	v, err := cast.ToIntE(c.Get(key))
	if err != nil || !c.Has(key) {
		return def
	}

	return v
}

// BoolOr returns the value at key, or def when unset or not convertible.
func (c *Config) BoolOr(key string, def bool) bool {
	v, err := cast.ToBoolE(c.Get(key))
	if err != nil || !c.Has(key) {
		return def
	}

	return v
}

// DurationOr returns the value at key, or def when unset or not
// convertible.
func (c *Config) DurationOr(key string, def time.Duration) time.Duration {
	v, err := cast.ToDurationE(c.Get(key))
	if err != nil || !c.Has(key) {
		return def
	}

	return v
}
