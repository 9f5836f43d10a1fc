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
	"fmt"
	"net/http"
	"sort"
	"strings"

	"rivaas.dev/endpoint/pattern"
)

// Group is a route prefix with filters and metadata shared by every route
// registered under it.
//
// A group does not own its routes. Routes and nested groups keep a
// reference to their parent, and their effective prefix, filters and
// metadata are read through that chain until the router is sealed. A filter
// added to a group therefore applies to routes registered before the call.
//
// Example:
//
//	api := r.Group("/api").Use(auditFilter)
//	v1 := api.Group("/v1").RequireAuthorization("orders:read")
//	v1.GET("/orders/{id:int}", getOrder) // matches /api/v1/orders/42
type Group struct {
	router      *Router
	parent      *Group
	prefix      string
	filters     []Filter
	policies    []string
	requireAuth bool
	tags        []string
	metadata    map[string]any
	namePrefix  string
}

// Group creates a nested group. Its prefix is appended to this group's
// prefix. Panics with ErrSealed after the router is sealed.
func (g *Group) Group(prefix string) *Group {
	g.router.mu.Lock()
	defer g.router.mu.Unlock()
	g.router.mustBeOpen()

	return &Group{router: g.router, parent: g, prefix: prefix}
}

// Prefix returns the full template prefix of the group.
func (g *Group) Prefix() string {
	if g.parent == nil {
		return pattern.Join("", g.prefix)
	}

	return pattern.Join(g.parent.Prefix(), g.prefix)
}

// Use appends filters to the group. They run after the filters of every
// enclosing group and before the filters of nested groups and routes.
func (g *Group) Use(filters ...Filter) *Group {
	g.router.mu.Lock()
	defer g.router.mu.Unlock()
	g.router.mustBeOpen()

	g.filters = append(g.filters, filters...)

	return g
}

// RequireAuthorization requires every route in the group to pass the
// router's Authorizer with the given policies. Routes can opt out with
// Route.AllowAnonymous.
func (g *Group) RequireAuthorization(policies ...string) *Group {
	g.router.mu.Lock()
	defer g.router.mu.Unlock()
	g.router.mustBeOpen()

	g.requireAuth = true
	g.policies = append(g.policies, policies...)

	return g
}

// WithMetadata attaches a metadata entry to every route in the group.
// Inner groups and routes override entries with the same key.
func (g *Group) WithMetadata(key string, value any) *Group {
	g.router.mu.Lock()
	defer g.router.mu.Unlock()
	g.router.mustBeOpen()

	if g.metadata == nil {
		g.metadata = make(map[string]any)
	}
	g.metadata[key] = value

	return g
}

// WithTags adds tags to every route in the group.
func (g *Group) WithTags(tags ...string) *Group {
	g.router.mu.Lock()
	defer g.router.mu.Unlock()
	g.router.mustBeOpen()

	g.tags = append(g.tags, tags...)

	return g
}

// WithName sets a prefix for the names of routes in the group.
//
//	users := r.Group("/users").WithName("users.")
//	users.GET("/{id}", getUser).WithName("get") // "users.get"
func (g *Group) WithName(prefix string) *Group {
	g.router.mu.Lock()
	defer g.router.mu.Unlock()
	g.router.mustBeOpen()

	g.namePrefix = prefix

	return g
}

// Handle registers h for the template under this group.
// With no methods the route accepts every method.
//
// The effective template is the group prefix chain joined with template and
// compiled as a whole, so a parameter name repeated between a prefix and a
// route is rejected.
//
// Handle returns a *pattern.CompileError for invalid templates, an
// *AmbiguousRouteError when an existing route accepts an overlapping method
// and is indistinguishable by specificity and literals, and ErrSealed after
// the router is sealed.
func (g *Group) Handle(template string, h HandlerFunc, methods ...string) (*Route, error) {
	r := g.router
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilHandler, template)
	}

	ms, err := normalizeMethods(methods)
	if err != nil {
		return nil, err
	}

	full := pattern.Join(g.Prefix(), template)
	p, err := r.compile(full)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return nil, fmt.Errorf("%w: cannot register %s", ErrSealed, full)
	}

	rt := &Route{
		router:  r,
		group:   g,
		pattern: p,
		methods: ms,
		handler: h,
		seq:     r.seq,
	}

	if err := r.table.add(rt); err != nil {
		return nil, err
	}
	r.seq++

	r.emit(DiagRouteRegistered, "route registered", map[string]any{
		"template": p.Template(),
		"methods":  rt.Methods(),
	})
	if n := len(p.Names()); n > highParamCount {
		r.emit(DiagHighParamCount, "route has many parameters", map[string]any{
			"template": p.Template(),
			"count":    n,
		})
	}

	return rt, nil
}

// mustHandle panics on registration errors, mirroring MustNew.
func (g *Group) mustHandle(template string, h HandlerFunc, methods ...string) *Route {
	rt, err := g.Handle(template, h, methods...)
	if err != nil {
		panic(err)
	}

	return rt
}

// GET registers a GET route. It panics on registration errors; use Handle to
// receive them as errors.
func (g *Group) GET(template string, h HandlerFunc) *Route {
	return g.mustHandle(template, h, http.MethodGet)
}

// POST registers a POST route.
func (g *Group) POST(template string, h HandlerFunc) *Route {
	return g.mustHandle(template, h, http.MethodPost)
}

// PUT registers a PUT route.
func (g *Group) PUT(template string, h HandlerFunc) *Route {
	return g.mustHandle(template, h, http.MethodPut)
}

// PATCH registers a PATCH route.
func (g *Group) PATCH(template string, h HandlerFunc) *Route {
	return g.mustHandle(template, h, http.MethodPatch)
}

// DELETE registers a DELETE route.
func (g *Group) DELETE(template string, h HandlerFunc) *Route {
	return g.mustHandle(template, h, http.MethodDelete)
}

// HEAD registers a HEAD route.
func (g *Group) HEAD(template string, h HandlerFunc) *Route {
	return g.mustHandle(template, h, http.MethodHead)
}

// OPTIONS registers an OPTIONS route.
func (g *Group) OPTIONS(template string, h HandlerFunc) *Route {
	return g.mustHandle(template, h, http.MethodOptions)
}

// Any registers a route that accepts every method.
func (g *Group) Any(template string, h HandlerFunc) *Route {
	return g.mustHandle(template, h)
}

// lineage returns the group chain from the root down to g.
func (g *Group) lineage() []*Group {
	var chain []*Group
	for cur := g; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain
}

func normalizeMethods(methods []string) ([]string, error) {
	if len(methods) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(methods))
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if !validMethod(m) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, m)
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)

	return out, nil
}

// validMethod reports whether m is a non-empty RFC 9110 token.
func validMethod(m string) bool {
	if m == "" {
		return false
	}

	for i := 0; i < len(m); i++ {
		c := m[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}

	return true
}
