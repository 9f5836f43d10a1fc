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

package pattern

import (
	"fmt"
	"net/url"
	"strings"

	"rivaas.dev/endpoint/constraint"
)

// Value is a bound route value.
type Value struct {
	Raw       string // Decoded segment text
	Typed     any    // Constraint-coerced value, or Raw when unconstrained
	Present   bool   // False when an optional parameter or catch-all was omitted
	Defaulted bool   // True when the template default was used
}

// String returns the raw text, or "" when the value is absent.
func (v Value) String() string { return v.Raw }

// Values maps parameter names to bound values.
type Values map[string]Value

// Get returns the value bound to name.
func (v Values) Get(name string) (Value, bool) {
	val, ok := v[name]
	return val, ok
}

// SplitPath splits an escaped request path into its segments.
// The leading slash and a single trailing slash are ignored, so "/" and ""
// yield no segments.
func SplitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return nil
	}

	return strings.Split(path, "/")
}

// Match matches an escaped request path (as returned by
// url.URL.EscapedPath) against the pattern.
//
// Literal segments compare according to the case policy. Parameter segments
// are percent-decoded, must be non-empty and must pass every constraint; a
// rejection makes the whole pattern a non-match.
func (p *Pattern) Match(path string) (Values, bool) {
	return p.MatchSegments(SplitPath(path))
}

// MatchSegments is like [Pattern.Match] for a path already split with
// [SplitPath]. Callers matching many patterns against one path split once.
func (p *Pattern) MatchSegments(parts []string) (Values, bool) {
	if len(parts) > len(p.segments) && !p.endsWithCatchAll() {
		return nil, false
	}

	var values Values
	if len(p.names) > 0 {
		values = make(Values, len(p.names))
	}

	for i, seg := range p.segments {
		if i >= len(parts) {
			switch {
			case seg.HasDefault:
				values[seg.Name] = Value{Raw: seg.Default, Typed: seg.defaultValue, Present: true, Defaulted: true}
			case seg.Optional, seg.Kind == KindCatchAll:
				values[seg.Name] = Value{}
			default:
				return nil, false
			}
			continue
		}

		switch seg.Kind {
		case KindLiteral:
			text, err := url.PathUnescape(parts[i])
			if err != nil || !p.literalEqual(seg.Literal, text) {
				return nil, false
			}

		case KindParam:
			raw, err := url.PathUnescape(parts[i])
			if err != nil || raw == "" {
				return nil, false
			}

			typed, ok := constraint.Chain(raw, seg.constraints)
			if !ok {
				return nil, false
			}
			values[seg.Name] = Value{Raw: raw, Typed: typed, Present: true}

		case KindCatchAll:
			rest := make([]string, 0, len(parts)-i)
			for _, part := range parts[i:] {
				decoded, err := url.PathUnescape(part)
				if err != nil {
					return nil, false
				}
				rest = append(rest, decoded)
			}

			raw := strings.Join(rest, "/")
			if raw == "" {
				values[seg.Name] = Value{}
				return values, true
			}

			typed, ok := constraint.Chain(raw, seg.constraints)
			if !ok {
				return nil, false
			}
			values[seg.Name] = Value{Raw: raw, Typed: typed, Present: true}

			return values, true
		}
	}

	return values, true
}

func (p *Pattern) endsWithCatchAll() bool {
	return len(p.segments) > 0 && p.segments[len(p.segments)-1].Kind == KindCatchAll
}

func (p *Pattern) literalEqual(literal, text string) bool {
	if p.caseSensitive {
		return literal == text
	}

	return strings.EqualFold(literal, text)
}

// Expand builds a path from the pattern by substituting values.
// Values are converted with fmt.Sprint semantics, checked against the
// parameter's constraints and path-escaped. Omittable trailing parameters
// without a value end the path.
func (p *Pattern) Expand(values map[string]any) (string, error) {
	var b strings.Builder

	for _, seg := range p.segments {
		if seg.Kind == KindLiteral {
			b.WriteByte('/')
			b.WriteString(url.PathEscape(seg.Literal))
			continue
		}

		v, ok := values[seg.Name]
		if !ok || v == nil {
			if seg.omittable() {
				break
			}
			return "", &CompileError{Template: p.raw, Segment: seg.String(), Err: fmt.Errorf("%w: %s", ErrMissingValue, seg.Name)}
		}

		text := fmt.Sprint(v)
		if _, ok := constraint.Chain(text, seg.constraints); !ok || text == "" {
			return "", &CompileError{Template: p.raw, Segment: seg.String(), Err: fmt.Errorf("%w: %q rejected for %s", ErrInvalidTemplate, text, seg.Name)}
		}

		b.WriteByte('/')
		if seg.Kind == KindCatchAll && seg.KeepSlashes {
			parts := strings.Split(text, "/")
			for i := range parts {
				parts[i] = url.PathEscape(parts[i])
			}
			b.WriteString(strings.Join(parts, "/"))
		} else {
			b.WriteString(url.PathEscape(text))
		}
	}

	if b.Len() == 0 {
		return "/", nil
	}

	return b.String(), nil
}
