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

package auth

import (
	"context"
	"fmt"
	"slices"

	"rivaas.dev/endpoint/router"
)

// Principal is an authenticated caller.
type Principal struct {
	Subject string
	Roles   []string
	Claims  map[string]any // Token claims; nil for Basic credentials
}

// HasRole reports whether p holds role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

type principalKey struct{}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal placed in ctx by an authorizer.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// PolicyFunc decides whether a principal satisfies a named policy.
type PolicyFunc func(p Principal) bool

// policies evaluates named policies for both authorizers.
type policies map[string]PolicyFunc

func (ps policies) check(p Principal, required []string) error {
	for _, name := range required {
		allowed := p.HasRole(name)
		if fn, ok := ps[name]; ok {
			allowed = fn(p)
		}
		if !allowed {
			return fmt.Errorf("%w: policy %q not satisfied", router.ErrForbidden, name)
		}
	}

	return nil
}
