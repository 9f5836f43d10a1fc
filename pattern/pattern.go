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

	"rivaas.dev/endpoint/constraint"
)

// Kind identifies the type of a [Segment].
type Kind uint8

const (
	KindLiteral Kind = iota
	KindParam
	KindCatchAll
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindParam:
		return "param"
	case KindCatchAll:
		return "catch-all"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Segment is one compiled path segment.
type Segment struct {
	Kind        Kind
	Literal     string            // KindLiteral only
	Name        string            // Parameter name
	Optional    bool              // {name?}
	Default     string            // {name=default}
	HasDefault  bool              // Default was given
	KeepSlashes bool              // {**name}: slashes are not escaped by Expand
	Specs       []constraint.Spec // Constraint references in declared order

	constraints  []constraint.Constraint
	defaultValue any
}

// Constrained reports whether the segment carries constraints.
func (s Segment) Constrained() bool { return len(s.Specs) > 0 }

// omittable reports whether the segment may be missing from a path.
func (s Segment) omittable() bool {
	return s.Kind == KindCatchAll || s.Optional || s.HasDefault
}

// String renders the segment in template syntax.
func (s Segment) String() string {
	if s.Kind == KindLiteral {
		r := strings.NewReplacer("{", "{{", "}", "}}")
		return r.Replace(s.Literal)
	}

	var b strings.Builder
	b.WriteByte('{')
	if s.Kind == KindCatchAll {
		b.WriteByte('*')
		if s.KeepSlashes {
			b.WriteByte('*')
		}
	}
	b.WriteString(s.Name)
	for _, spec := range s.Specs {
		b.WriteByte(':')
		b.WriteString(strings.NewReplacer("{", "{{", "}", "}}").Replace(spec.String()))
	}
	if s.Optional {
		b.WriteByte('?')
	}
	if s.HasDefault {
		b.WriteByte('=')
		b.WriteString(s.Default)
	}
	b.WriteByte('}')

	return b.String()
}

// Pattern is a compiled route template. A Pattern is immutable and safe for
// concurrent use.
type Pattern struct {
	raw           string
	segments      []Segment
	names         []string
	specificity   Specificity
	caseSensitive bool
}

type options struct {
	registry      *constraint.Registry
	caseSensitive bool
}

// Option configures [Compile].
type Option func(*options)

// WithRegistry resolves constraints against reg instead of the built-in set.
func WithRegistry(reg *constraint.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithCaseSensitive makes literal segments match case-sensitively.
// Literal matching is case-insensitive by default.
func WithCaseSensitive(enabled bool) Option {
	return func(o *options) {
		o.caseSensitive = enabled
	}
}

var builtinRegistry = constraint.NewRegistry()

// Compile parses a route template.
//
// Template syntax:
//
//	/users                  literal
//	/users/{id}             parameter
//	/users/{id:int:min(1)}  constrained parameter
//	/search/{query?}        optional parameter (trailing only)
//	/pages/{page:int=1}     parameter with default
//	/files/{*path}          catch-all (last segment only)
//
// Compile returns a [*CompileError] for malformed templates, duplicate
// parameter names, unknown constraints, invalid constraint arguments and
// misplaced catch-all or optional parameters.
func Compile(template string, opts ...Option) (*Pattern, error) {
	o := options{registry: builtinRegistry}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pattern{raw: template, caseSensitive: o.caseSensitive}
	fail := func(segment string, err error) (*Pattern, error) {
		return nil, &CompileError{Template: template, Segment: segment, Err: err}
	}

	trimmed := strings.TrimSpace(template)
	trimmed = strings.TrimPrefix(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		p.specificity = Specificity{}
		return p, nil
	}

	raws, err := scanTemplate(trimmed)
	if err != nil {
		return fail("", err)
	}

	seen := make(map[string]struct{}, len(raws))
	for i, rs := range raws {
		if !rs.isParam {
			if rs.text == "" {
				return fail(rs.source, fmt.Errorf("%w: empty segment", ErrInvalidTemplate))
			}
			p.segments = append(p.segments, Segment{Kind: KindLiteral, Literal: rs.text})
			continue
		}

		pp, err := parseParam(rs.text)
		if err != nil {
			return fail(rs.source, err)
		}

		key := strings.ToLower(pp.name)
		if _, dup := seen[key]; dup {
			return fail(rs.source, fmt.Errorf("%w: %s", ErrDuplicateParameter, pp.name))
		}
		seen[key] = struct{}{}

		if pp.catchAll && i != len(raws)-1 {
			return fail(rs.source, ErrCatchAllPosition)
		}

		seg := Segment{
			Kind:        KindParam,
			Name:        pp.name,
			Optional:    pp.optional,
			Default:     pp.def,
			HasDefault:  pp.hasDefault,
			KeepSlashes: pp.keepSlashes,
		}
		if pp.catchAll {
			seg.Kind = KindCatchAll
		}

		for _, text := range pp.constraints {
			c, spec, err := o.registry.Parse(text)
			if err != nil {
				return fail(rs.source, err)
			}
			seg.Specs = append(seg.Specs, spec)
			seg.constraints = append(seg.constraints, c)
		}

		if seg.HasDefault {
			v, ok := constraint.Chain(seg.Default, seg.constraints)
			if !ok || seg.Default == "" {
				return fail(rs.source, fmt.Errorf("%w: %q", ErrInvalidDefault, seg.Default))
			}
			seg.defaultValue = v
		}

		p.segments = append(p.segments, seg)
		p.names = append(p.names, seg.Name)
	}

	// Once a segment may be omitted, every later one must be omittable too.
	for i := 1; i < len(p.segments); i++ {
		if p.segments[i-1].omittable() && !p.segments[i].omittable() {
			return fail(raws[i].source, ErrOptionalPosition)
		}
	}

	p.specificity = computeSpecificity(p.segments)

	return p, nil
}

// MustCompile is like [Compile] but panics on error.
func MustCompile(template string, opts ...Option) *Pattern {
	p, err := Compile(template, opts...)
	if err != nil {
		panic(err)
	}

	return p
}

// Join concatenates a group prefix and a template with exactly one '/'
// between them.
func Join(prefix, template string) string {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	template = strings.TrimPrefix(strings.TrimSpace(template), "/")

	switch {
	case prefix == "" && template == "":
		return "/"
	case template == "":
		if !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
		return prefix
	case !strings.HasPrefix(prefix, "/"):
		prefix = "/" + prefix
	}

	if prefix == "/" {
		return "/" + template
	}

	return prefix + "/" + template
}

// Raw returns the template exactly as passed to [Compile].
func (p *Pattern) Raw() string { return p.raw }

// Template returns the normalized template.
func (p *Pattern) Template() string {
	if len(p.segments) == 0 {
		return "/"
	}

	parts := make([]string, len(p.segments))
	for i, s := range p.segments {
		parts[i] = s.String()
	}

	return "/" + strings.Join(parts, "/")
}

// String implements fmt.Stringer.
func (p *Pattern) String() string { return p.Template() }

// Segments returns a copy of the compiled segments.
func (p *Pattern) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)

	return out
}

// Names returns the parameter names in declaration order.
func (p *Pattern) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)

	return out
}

// CaseSensitive reports whether literals match case-sensitively.
func (p *Pattern) CaseSensitive() bool { return p.caseSensitive }

// IsStatic reports whether the pattern has only literal segments.
func (p *Pattern) IsStatic() bool { return len(p.names) == 0 }

// StaticKey returns the lookup key of a static pattern: the normalized path,
// lower-cased unless the pattern is case-sensitive. It returns "" for
// patterns with parameters.
func (p *Pattern) StaticKey() string {
	if !p.IsStatic() {
		return ""
	}

	return p.fold(p.Template())
}

// FirstLiteral returns the (folded) first segment when it is a literal.
func (p *Pattern) FirstLiteral() (string, bool) {
	if len(p.segments) == 0 || p.segments[0].Kind != KindLiteral {
		return "", false
	}

	return p.fold(p.segments[0].Literal), true
}

// Equivalent reports whether p and q rank equally and agree on every literal
// segment. Two equivalent patterns can match the same path with no way to
// prefer one over the other.
//
// Patterns whose required parameters at one position carry disjoint built-in
// type constraints are not equivalent: "/users/{id:int}" and
// "/users/{name:alpha}" never match the same path. Overlapping constraints
// such as int and range(1,5) still make the patterns equivalent.
func (p *Pattern) Equivalent(q *Pattern) bool {
	if p.specificity.Compare(q.specificity) != 0 {
		return false
	}

	for i := range p.segments {
		a, b := p.segments[i], q.segments[i]
		if a.Kind != KindLiteral {
			if disjointSegments(a, b) {
				return false
			}
			continue
		}

		if p.caseSensitive && q.caseSensitive {
			if a.Literal != b.Literal {
				return false
			}
		} else if !strings.EqualFold(a.Literal, b.Literal) {
			return false
		}
	}

	return true
}

// disjointSegments reports whether two parameter segments that must both be
// present can never accept the same value.
func disjointSegments(a, b Segment) bool {
	if a.omittable() || b.omittable() {
		return false
	}

	for _, sa := range a.Specs {
		for _, sb := range b.Specs {
			if constraint.Disjoint(sa, sb) {
				return true
			}
		}
	}

	return false
}

func (p *Pattern) fold(s string) string {
	if p.caseSensitive {
		return s
	}

	return strings.ToLower(s)
}
