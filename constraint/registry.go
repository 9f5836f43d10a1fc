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
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Factory builds a [Constraint] from its parsed arguments.
// It returns an error wrapping [ErrInvalidArgs] when the arguments are not
// valid for the constraint; that error surfaces at route registration.
type Factory func(spec Spec) (Constraint, error)

// Registry maps constraint names to factories.
// A Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry pre-populated with the built-in constraints:
// int, long, bool, decimal, double, float, guid, uuid, datetime, alpha,
// required, length, minlength, maxlength, min, max, range and regex.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory, 20)}
	registerBuiltins(r)

	return r
}

// Register adds a custom constraint factory under name (case-insensitive).
// Built-in names cannot be replaced.
//
// Example:
//
//	reg := constraint.NewRegistry()
//	_ = reg.Register("slug", func(spec constraint.Spec) (constraint.Constraint, error) {
//	    return constraint.Func("slug", func(raw string) (any, bool) {
//	        return raw, slugRE.MatchString(raw)
//	    }), nil
//	})
func (r *Registry) Register(name string, f Factory) error {
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSyntax, name)
	}

	if f == nil {
		return fmt.Errorf("constraint %q: nil factory", name)
	}

	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	r.factories[key] = f

	return nil
}

// Resolve builds the constraint described by spec.
func (r *Registry) Resolve(spec Spec) (Constraint, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(spec.Name)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, spec.Name)
	}

	return f(spec)
}

// Parse parses text with [ParseSpec] and resolves it.
func (r *Registry) Parse(text string) (Constraint, Spec, error) {
	spec, err := ParseSpec(text)
	if err != nil {
		return nil, Spec{}, err
	}

	c, err := r.Resolve(spec)
	if err != nil {
		return nil, spec, err
	}

	return c, spec, nil
}

// Names returns the registered constraint names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)

	return names
}
