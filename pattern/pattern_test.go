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

//go:build !integration

package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/endpoint/constraint"
)

func TestCompile_Segments(t *testing.T) {
	t.Parallel()

	p, err := Compile("/api/{version:regex(^v\\d+$)}/users/{id:int:min(1)}/{tab?}")
	require.NoError(t, err)

	segs := p.Segments()
	require.Len(t, segs, 5)
	assert.Equal(t, KindLiteral, segs[0].Kind)
	assert.Equal(t, "api", segs[0].Literal)
	assert.Equal(t, KindParam, segs[1].Kind)
	assert.Equal(t, "version", segs[1].Name)
	require.Len(t, segs[1].Specs, 1)
	assert.Equal(t, "regex", segs[1].Specs[0].Name)
	assert.Equal(t, []string{"int", "min"}, []string{segs[3].Specs[0].Name, segs[3].Specs[1].Name})
	assert.True(t, segs[4].Optional)
	assert.Equal(t, []string{"version", "id", "tab"}, p.Names())
}

func TestCompile_Normalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		template string
		want     string
	}{
		{"", "/"},
		{"/", "/"},
		{"users", "/users"},
		{"/users/", "/users"},
		{"/users/{id:int}", "/users/{id:int}"},
		{"/files/{**path}", "/files/{**path}"},
		{"/pages/{page:int=1}", "/pages/{page:int=1}"},
		{"/codes/{code:regex(^\\d{{3}}$)}", "/codes/{code:regex(^\\d{{3}}$)}"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			t.Parallel()

			p, err := Compile(tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Template())
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		wantErr  error
	}{
		{"duplicate parameter", "/a/{id}/b/{id}", ErrDuplicateParameter},
		{"duplicate parameter case-insensitive", "/a/{id}/b/{ID}", ErrDuplicateParameter},
		{"unknown constraint", "/a/{id:zipcode}", constraint.ErrUnknown},
		{"malformed constraint args", "/a/{id:min(x)}", constraint.ErrInvalidArgs},
		{"missing constraint paren", "/a/{id:min(3}", constraint.ErrInvalidSyntax},
		{"catch-all not last", "/a/{*rest}/b", ErrCatchAllPosition},
		{"optional catch-all", "/a/{*rest?}", ErrInvalidTemplate},
		{"required after optional", "/a/{x?}/{y}", ErrOptionalPosition},
		{"literal after optional", "/a/{x?}/b", ErrOptionalPosition},
		{"optional with default", "/a/{x?=1}", ErrInvalidTemplate},
		{"default rejected", "/a/{x:int=abc}", ErrInvalidDefault},
		{"unterminated parameter", "/a/{id", ErrInvalidTemplate},
		{"stray close brace", "/a/id}", ErrInvalidTemplate},
		{"mixed segment", "/a/file.{ext}", ErrInvalidTemplate},
		{"two params in segment", "/a/{x}{y}", ErrInvalidTemplate},
		{"empty name", "/a/{}", ErrInvalidTemplate},
		{"bad name", "/a/{user-id}", ErrInvalidTemplate},
		{"empty constraint", "/a/{id:}", ErrInvalidTemplate},
		{"empty segment", "/a//b", ErrInvalidTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Compile(tt.template)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.template, ce.Template)
		})
	}
}

func TestCompile_CustomRegistry(t *testing.T) {
	t.Parallel()

	reg := constraint.NewRegistry()
	require.NoError(t, reg.Register("even", func(constraint.Spec) (constraint.Constraint, error) {
		return constraint.Func("even", func(raw string) (any, bool) {
			return raw, len(raw) > 0 && (raw[len(raw)-1]-'0')%2 == 0
		}), nil
	}))

	_, err := Compile("/n/{n:even}")
	require.ErrorIs(t, err, constraint.ErrUnknown, "the default registry does not know custom constraints")

	p, err := Compile("/n/{n:even}", WithRegistry(reg))
	require.NoError(t, err)

	_, ok := p.Match("/n/4")
	assert.True(t, ok)
	_, ok = p.Match("/n/5")
	assert.False(t, ok)
}

func TestJoin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, template, want string
	}{
		{"", "", "/"},
		{"/", "/", "/"},
		{"/api", "/v1", "/api/v1"},
		{"/api/", "v1", "/api/v1"},
		{"api", "", "/api"},
		{"", "/users", "/users"},
		{"/", "users", "/users"},
		{"/users/{id}", "/orders", "/users/{id}/orders"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Join(tt.prefix, tt.template), "Join(%q, %q)", tt.prefix, tt.template)
	}
}

func TestPattern_StaticKeyAndFirstLiteral(t *testing.T) {
	t.Parallel()

	p := MustCompile("/API/Users")
	assert.True(t, p.IsStatic())
	assert.Equal(t, "/api/users", p.StaticKey())

	first, ok := p.FirstLiteral()
	assert.True(t, ok)
	assert.Equal(t, "api", first)

	cs := MustCompile("/API/Users", WithCaseSensitive(true))
	assert.Equal(t, "/API/Users", cs.StaticKey())

	dyn := MustCompile("/{tenant}/users")
	assert.False(t, dyn.IsStatic())
	assert.Empty(t, dyn.StaticKey())
	_, ok = dyn.FirstLiteral()
	assert.False(t, ok)
}

func TestMustCompile_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustCompile("/a/{*x}/b") })
}
