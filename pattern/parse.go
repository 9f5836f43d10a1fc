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
	"strings"
)

// rawSegment is one template segment after brace scanning.
// For parameters, text holds the unescaped content between the braces.
type rawSegment struct {
	text    string
	source  string
	isParam bool
}

// scanTemplate splits a template on '/' outside of parameter braces.
// Inside a parameter "{{" and "}}" stand for literal braces; the same escapes
// are accepted in literal segments.
func scanTemplate(tpl string) ([]rawSegment, error) {
	var (
		segs     []rawSegment
		buf      strings.Builder
		start    int
		inParam  bool
		params   int
		literals int
	)

	flush := func(end int) error {
		source := tpl[start:end]
		switch {
		case params == 0:
			segs = append(segs, rawSegment{text: buf.String(), source: source})
		case params == 1 && literals == 0:
			segs = append(segs, rawSegment{text: buf.String(), source: source, isParam: true})
		default:
			return fmt.Errorf("%w: segment %q mixes parameters with literal text", ErrInvalidTemplate, source)
		}
		buf.Reset()
		params, literals = 0, 0

		return nil
	}

	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		next := byte(0)
		if i+1 < len(tpl) {
			next = tpl[i+1]
		}

		switch {
		case inParam && (c == '{' || c == '}') && next == c:
			buf.WriteByte(c)
			i++
		case inParam && c == '}':
			inParam = false
		case inParam && c == '{':
			return nil, fmt.Errorf("%w: unexpected '{' inside parameter near %q", ErrInvalidTemplate, tpl[start:])
		case inParam:
			buf.WriteByte(c)
		case (c == '{' || c == '}') && next == c:
			buf.WriteByte(c)
			literals++
			i++
		case c == '{':
			if params > 0 || literals > 0 {
				return nil, fmt.Errorf("%w: segment near %q mixes parameters with literal text", ErrInvalidTemplate, tpl[start:])
			}
			inParam = true
			params++
		case c == '}':
			return nil, fmt.Errorf("%w: unmatched '}' near %q", ErrInvalidTemplate, tpl[start:])
		case c == '/':
			if err := flush(i); err != nil {
				return nil, err
			}
			start = i + 1
		default:
			if params > 0 {
				return nil, fmt.Errorf("%w: segment near %q mixes parameters with literal text", ErrInvalidTemplate, tpl[start:])
			}
			buf.WriteByte(c)
			literals++
		}
	}

	if inParam {
		return nil, fmt.Errorf("%w: unterminated parameter near %q", ErrInvalidTemplate, tpl[start:])
	}

	if err := flush(len(tpl)); err != nil {
		return nil, err
	}

	return segs, nil
}

// paramParts is the parsed form of a parameter body such as
// "*path", "id:int:min(1)", "page:int=1" or "query?".
type paramParts struct {
	name        string
	constraints []string
	def         string
	hasDefault  bool
	optional    bool
	catchAll    bool
	keepSlashes bool
}

func parseParam(body string) (paramParts, error) {
	var p paramParts

	switch {
	case strings.HasPrefix(body, "**"):
		p.catchAll, p.keepSlashes = true, true
		body = body[2:]
	case strings.HasPrefix(body, "*"):
		p.catchAll = true
		body = body[1:]
	}

	// Default value: everything after the first top-level '='.
	if idx := topLevelIndex(body, '='); idx >= 0 {
		p.def = body[idx+1:]
		p.hasDefault = true
		body = body[:idx]
	}

	if strings.HasSuffix(body, "?") && topLevelIndex(body, '?') == len(body)-1 {
		p.optional = true
		body = body[:len(body)-1]
	}

	parts := splitTopLevel(body, ':')
	p.name = parts[0]
	if !validParamName(p.name) {
		return p, fmt.Errorf("%w: invalid parameter name %q", ErrInvalidTemplate, p.name)
	}

	for _, c := range parts[1:] {
		if strings.TrimSpace(c) == "" {
			return p, fmt.Errorf("%w: empty constraint on parameter %q", ErrInvalidTemplate, p.name)
		}
		p.constraints = append(p.constraints, c)
	}

	switch {
	case p.optional && p.hasDefault:
		return p, fmt.Errorf("%w: parameter %q cannot be optional and have a default", ErrInvalidTemplate, p.name)
	case p.catchAll && (p.optional || p.hasDefault):
		return p, fmt.Errorf("%w: catch-all parameter %q is implicitly optional", ErrInvalidTemplate, p.name)
	}

	return p, nil
}

// topLevelIndex returns the index of the first c that is not inside
// parentheses, or -1. Backslash escapes the following byte inside parentheses.
func topLevelIndex(s string, c byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if depth > 0 {
				i++
			}
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case c:
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	for {
		idx := topLevelIndex(s, sep)
		if idx < 0 {
			return append(out, s)
		}
		out = append(out, s[:idx])
		s = s[idx+1:]
	}
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}

	return true
}
