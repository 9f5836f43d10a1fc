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

package router

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"rivaas.dev/endpoint/pattern"
)

// Outcome is the kind of a [Resolution].
type Outcome uint8

const (
	// NotFound means no route matches the path.
	NotFound Outcome = iota
	// Matched means a route matches both path and method.
	Matched
	// MethodNotAllowed means routes match the path but none accepts the method.
	MethodNotAllowed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case MethodNotAllowed:
		return "method_not_allowed"
	default:
		return "not_found"
	}
}

// Resolution is the result of resolving a (method, path) pair.
type Resolution struct {
	Outcome Outcome
	Route   *Route         // Set when Matched
	Values  pattern.Values // Bound values when Matched
	Allowed []string       // Methods accepted for the path when MethodNotAllowed
}

// table holds every route. Candidates are narrowed with two indexes:
// all-literal templates by their folded path, and the rest by their folded
// first literal segment. Templates starting with a parameter are always
// candidates.
type table struct {
	routes  []*Route
	static  map[string][]*Route
	byFirst map[string][]*Route
	dynamic []*Route
	names   map[string]*Route // set by Seal
}

func newTable() *table {
	return &table{
		static:  make(map[string][]*Route),
		byFirst: make(map[string][]*Route),
	}
}

// add inserts rt, failing with *AmbiguousRouteError if an existing route
// accepts an overlapping method and cannot be told apart by specificity.
func (t *table) add(rt *Route) error {
	for _, existing := range t.routes {
		overlap, ok := overlappingMethods(existing.methods, rt.methods)
		if !ok || !existing.pattern.Equivalent(rt.pattern) {
			continue
		}

		return &AmbiguousRouteError{
			Methods:  overlap,
			Template: rt.Template(),
			Existing: existing.Template(),
		}
	}

	t.routes = append(t.routes, rt)

	switch key, first, static := indexKeys(rt.pattern); {
	case static:
		t.static[key] = append(t.static[key], rt)
	case first != "":
		t.byFirst[first] = append(t.byFirst[first], rt)
	default:
		t.dynamic = append(t.dynamic, rt)
	}

	return nil
}

// indexKeys returns the static key of an all-literal pattern, or the
// lower-cased first literal of any other pattern.
func indexKeys(p *pattern.Pattern) (key, first string, static bool) {
	segs := p.Segments()
	if p.IsStatic() {
		literals := make([]string, len(segs))
		for i, s := range segs {
			literals[i] = s.Literal
		}

		return strings.ToLower("/" + strings.Join(literals, "/")), "", true
	}

	if len(segs) > 0 && segs[0].Kind == pattern.KindLiteral {
		return "", strings.ToLower(segs[0].Literal), false
	}

	return "", "", false
}

// resolve implements the resolution algorithm: every route whose pattern
// matches the path is considered, so a path match with no method match is
// reported as MethodNotAllowed rather than NotFound. Among routes accepting
// the method the highest specificity wins. A HEAD request falls back to GET
// routes when no route accepts HEAD.
func (t *table) resolve(method, path string) Resolution {
	parts := pattern.SplitPath(path)

	var (
		best, bestGet     *Route
		bestVals, getVals pattern.Values
		allowed           []string
		anyMatch          bool
	)

	for _, rt := range t.candidates(parts) {
		values, ok := rt.pattern.MatchSegments(parts)
		if !ok {
			continue
		}
		anyMatch = true

		switch {
		case rt.accepts(method):
			if best == nil || better(rt, best) {
				best, bestVals = rt, values
			}
		case method == http.MethodHead && rt.accepts(http.MethodGet):
			if bestGet == nil || better(rt, bestGet) {
				bestGet, getVals = rt, values
			}
		default:
			allowed = append(allowed, rt.methods...)
		}
	}

	switch {
	case best != nil:
		return Resolution{Outcome: Matched, Route: best, Values: bestVals}
	case bestGet != nil:
		return Resolution{Outcome: Matched, Route: bestGet, Values: getVals}
	case anyMatch:
		return Resolution{Outcome: MethodNotAllowed, Allowed: allowList(allowed)}
	default:
		return Resolution{Outcome: NotFound}
	}
}

// better reports whether a outranks b. Equal specificity cannot occur for
// two routes matching one path and method, because registration rejects
// equivalent patterns; registration order breaks the tie anyway.
func better(a, b *Route) bool {
	if c := a.pattern.Specificity().Compare(b.pattern.Specificity()); c != 0 {
		return c > 0
	}

	return a.seq < b.seq
}

func (t *table) candidates(parts []string) []*Route {
	var out []*Route

	if key, ok := staticKey(parts); ok {
		out = append(out, t.static[key]...)
	}

	if len(parts) > 0 {
		if first, err := url.PathUnescape(parts[0]); err == nil {
			out = append(out, t.byFirst[strings.ToLower(first)]...)
		}
	}

	return append(out, t.dynamic...)
}

func staticKey(parts []string) (string, bool) {
	if len(parts) == 0 {
		return "/", true
	}

	decoded := make([]string, len(parts))
	for i, p := range parts {
		d, err := url.PathUnescape(p)
		if err != nil {
			return "", false
		}
		decoded[i] = d
	}

	return strings.ToLower("/" + strings.Join(decoded, "/")), true
}

// overlappingMethods returns the methods both sets accept. A nil set accepts
// every method; when both are nil the overlap is nil with ok true.
func overlappingMethods(a, b []string) ([]string, bool) {
	switch {
	case a == nil && b == nil:
		return nil, true
	case a == nil:
		return slices.Clone(b), true
	case b == nil:
		return slices.Clone(a), true
	}

	var out []string
	for _, m := range a {
		if slices.Contains(b, m) {
			out = append(out, m)
		}
	}

	return out, len(out) > 0
}

// allowList sorts and deduplicates methods, adding HEAD when GET is allowed.
func allowList(methods []string) []string {
	if slices.Contains(methods, http.MethodGet) {
		methods = append(methods, http.MethodHead)
	}

	slices.Sort(methods)

	return slices.Compact(methods)
}
