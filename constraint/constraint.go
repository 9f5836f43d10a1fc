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

package constraint

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned (wrapped) while resolving constraints.
var (
	ErrUnknown       = errors.New("unknown constraint")
	ErrInvalidArgs   = errors.New("invalid constraint arguments")
	ErrInvalidSyntax = errors.New("invalid constraint syntax")
	ErrDuplicate     = errors.New("constraint already registered")
)

// Constraint validates a captured route value and optionally coerces it to a
// typed value. Implementations must be pure: no side effects and safe for
// concurrent use, since one compiled constraint serves every request.
type Constraint interface {
	// Name returns the constraint name as written in templates (e.g. "int").
	Name() string

	// Evaluate checks raw and returns the coerced value.
	// A constraint that does not coerce returns raw unchanged.
	// ok is false when the value is rejected.
	Evaluate(raw string) (value any, ok bool)
}

// Spec is a parsed constraint reference such as "min(3)" or "range(1,10)".
type Spec struct {
	Name string   // Lower-cased constraint name
	Args []string // Comma-separated arguments, trimmed
	Raw  string   // Unsplit text between the parentheses
}

// String renders the spec back to its template form.
func (s Spec) String() string {
	if s.Raw == "" && len(s.Args) == 0 {
		return s.Name
	}

	return s.Name + "(" + s.Raw + ")"
}

// ParseSpec parses a single constraint reference.
//
// Accepted forms:
//
//	int
//	min(3)
//	range(1, 10)
//	regex(^[a-z]{2}$)
func ParseSpec(text string) (Spec, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Spec{}, fmt.Errorf("%w: empty constraint", ErrInvalidSyntax)
	}

	open := strings.IndexByte(text, '(')
	if open < 0 {
		if !validName(text) {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSyntax, text)
		}

		return Spec{Name: strings.ToLower(text)}, nil
	}

	if !strings.HasSuffix(text, ")") {
		return Spec{}, fmt.Errorf("%w: %q is missing a closing parenthesis", ErrInvalidSyntax, text)
	}

	name := text[:open]
	if !validName(name) {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSyntax, text)
	}

	raw := text[open+1 : len(text)-1]
	spec := Spec{Name: strings.ToLower(name), Raw: raw}
	if strings.TrimSpace(raw) != "" {
		for _, a := range strings.Split(raw, ",") {
			spec.Args = append(spec.Args, strings.TrimSpace(a))
		}
	}

	return spec, nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '-':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}

// Func adapts a plain function into a [Constraint].
//
// Example:
//
//	even := constraint.Func("even", func(raw string) (any, bool) {
//	    n, err := strconv.Atoi(raw)
//	    return n, err == nil && n%2 == 0
//	})
func Func(name string, fn func(raw string) (any, bool)) Constraint {
	return funcConstraint{name: name, fn: fn}
}

type funcConstraint struct {
	name string
	fn   func(string) (any, bool)
}

func (f funcConstraint) Name() string { return f.name }

func (f funcConstraint) Evaluate(raw string) (any, bool) { return f.fn(raw) }

// Chain evaluates constraints in declared order. The first rejection stops
// evaluation. The returned value is the one produced by the last constraint
// that changed the representation away from the raw string, so
// "{id:int:min(1)}" yields an int64.
func Chain(raw string, cs []Constraint) (any, bool) {
	var value any = raw
	for _, c := range cs {
		v, ok := c.Evaluate(raw)
		if !ok {
			return nil, false
		}

		if s, isString := v.(string); !isString || s != raw {
			value = v
		}
	}

	return value, true
}
