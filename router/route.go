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
	"maps"
	"slices"

	"rivaas.dev/endpoint/pattern"
)

// Route is a registered route: methods, compiled pattern, handler, its own
// filters and metadata.
//
// The fluent setters return the route itself and panic with ErrSealed
// once the router is sealed.
type Route struct {
	router  *Router
	group   *Group
	pattern *pattern.Pattern
	methods []string // sorted; nil accepts every method
	handler HandlerFunc
	seq     int

	filters     []Filter
	name        string
	tags        []string
	metadata    map[string]any
	policies    []string
	requireAuth bool
	anonymous   bool

	// set by Seal
	meta  *routeMeta
	chain Next
}

// routeMeta is the effective configuration of a route after merging its
// group chain.
type routeMeta struct {
	name        string
	tags        []string
	metadata    map[string]any
	policies    []string
	requireAuth bool
	filters     []Filter // group filters outer to inner, then route filters
	global      int      // number of leading filters from the root group
}

// WithName names the route for URLFor and lookups. The group name prefix
// chain is prepended. Names must be unique; Seal reports duplicates.
func (rt *Route) WithName(name string) *Route {
	rt.mutate(func() { rt.name = name })
	return rt
}

// WithTags adds tags to the route.
func (rt *Route) WithTags(tags ...string) *Route {
	rt.mutate(func() { rt.tags = append(rt.tags, tags...) })
	return rt
}

// WithMetadata attaches a metadata entry to the route.
func (rt *Route) WithMetadata(key string, value any) *Route {
	rt.mutate(func() {
		if rt.metadata == nil {
			rt.metadata = make(map[string]any)
		}
		rt.metadata[key] = value
	})

	return rt
}

// Use appends endpoint filters. They run after every group filter, closest
// to the handler.
func (rt *Route) Use(filters ...Filter) *Route {
	rt.mutate(func() { rt.filters = append(rt.filters, filters...) })
	return rt
}

// RequireAuthorization requires the route to pass the router's Authorizer
// with the given policies, in addition to policies from its groups.
func (rt *Route) RequireAuthorization(policies ...string) *Route {
	rt.mutate(func() {
		rt.requireAuth = true
		rt.policies = append(rt.policies, policies...)
	})

	return rt
}

// AllowAnonymous exempts the route from authorization required by its
// groups.
func (rt *Route) AllowAnonymous() *Route {
	rt.mutate(func() { rt.anonymous = true })
	return rt
}

func (rt *Route) mutate(fn func()) {
	rt.router.mu.Lock()
	defer rt.router.mu.Unlock()
	rt.router.mustBeOpen()

	fn()
}

// Pattern returns the compiled pattern of the full template.
func (rt *Route) Pattern() *pattern.Pattern { return rt.pattern }

// Template returns the normalized full template, e.g. "/api/users/{id:int}".
func (rt *Route) Template() string { return rt.pattern.Template() }

// Methods returns the accepted methods, or nil when every method is accepted.
func (rt *Route) Methods() []string { return slices.Clone(rt.methods) }

// Name returns the effective name, including group name prefixes.
func (rt *Route) Name() string { return rt.effective().name }

// Tags returns the effective tags, group tags first.
func (rt *Route) Tags() []string { return slices.Clone(rt.effective().tags) }

// Metadata returns the effective metadata entry for key.
func (rt *Route) Metadata(key string) (any, bool) {
	v, ok := rt.effective().metadata[key]
	return v, ok
}

// Policies returns the effective authorization policies, outer group first.
func (rt *Route) Policies() []string { return slices.Clone(rt.effective().policies) }

// RequiresAuthorization reports whether requests must pass the Authorizer.
func (rt *Route) RequiresAuthorization() bool { return rt.effective().requireAuth }

// accepts reports whether the route was registered for method.
func (rt *Route) accepts(method string) bool {
	if rt.methods == nil {
		return true
	}

	_, found := slices.BinarySearch(rt.methods, method)

	return found
}

// effective returns the frozen configuration after Seal and a fresh view of
// the group chain before.
func (rt *Route) effective() *routeMeta {
	if rt.router.sealed.Load() && rt.meta != nil {
		return rt.meta
	}

	rt.router.mu.RLock()
	defer rt.router.mu.RUnlock()

	return rt.computeMeta()
}

// computeMeta merges the group chain, outer to inner, with the route's own
// settings. Callers hold the router lock.
func (rt *Route) computeMeta() *routeMeta {
	m := &routeMeta{}
	seenTag := make(map[string]struct{})
	addTags := func(tags []string) {
		for _, t := range tags {
			if _, dup := seenTag[t]; dup {
				continue
			}
			seenTag[t] = struct{}{}
			m.tags = append(m.tags, t)
		}
	}

	namePrefix := ""
	for i, g := range rt.group.lineage() {
		namePrefix += g.namePrefix
		addTags(g.tags)
		if len(g.metadata) > 0 {
			if m.metadata == nil {
				m.metadata = make(map[string]any)
			}
			maps.Copy(m.metadata, g.metadata)
		}
		if g.requireAuth {
			m.requireAuth = true
		}
		m.policies = append(m.policies, g.policies...)
		m.filters = append(m.filters, g.filters...)
		if i == 0 {
			m.global = len(g.filters)
		}
	}

	if rt.name != "" {
		m.name = namePrefix + rt.name
	}
	addTags(rt.tags)
	if len(rt.metadata) > 0 {
		if m.metadata == nil {
			m.metadata = make(map[string]any)
		}
		maps.Copy(m.metadata, rt.metadata)
	}
	if rt.requireAuth {
		m.requireAuth = true
	}
	m.policies = append(m.policies, rt.policies...)
	m.filters = append(m.filters, rt.filters...)

	if rt.anonymous {
		m.requireAuth = false
		m.policies = nil
	}

	return m
}
