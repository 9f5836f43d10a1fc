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

package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisjoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"int", "alpha", true},
		{"alpha", "long", true},
		{"range(1,5)", "alpha", true},
		{"int", "bool", true},
		{"int", "guid", true},
		{"float", "alpha", true},
		{"bool", "uuid", true},
		{"int", "float", false},
		{"int", "range(1,5)", false},
		{"alpha", "bool", false},
		{"alpha", "guid", false},
		{"float", "guid", false},
		{"int", "regex(^[a-z]+$)", false},
		{"int", "minlength(2)", false},
		{"datetime", "alpha", false},
	}

	for _, tt := range tests {
		a, err := ParseSpec(tt.a)
		require.NoError(t, err)
		b, err := ParseSpec(tt.b)
		require.NoError(t, err)

		assert.Equal(t, tt.want, Disjoint(a, b), "%s / %s", tt.a, tt.b)
	}
}

// Property: no sample value satisfies two constraints reported disjoint.
func TestDisjoint_NoSharedValues(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	names := []string{"int", "long", "range(1,5)", "decimal", "float", "bool", "guid", "alpha"}
	samples := []string{
		"0", "3", "-7", "1e3", "3.14", "inf", "NaN", "true", "FALSE", "abc", "deadbeef",
		"6ba7b810-9dad-11d1-80b4-00c04fd430c8", "6ba7b8109dad11d180b400c04fd430c8",
		"12345678901234567890123456789012", "abcdefabcdefabcdefabcdefabcdefab",
	}

	for _, na := range names {
		for _, nb := range names {
			ca, sa, err := reg.Parse(na)
			require.NoError(t, err)
			cb, sb, err := reg.Parse(nb)
			require.NoError(t, err)

			if !Disjoint(sa, sb) {
				continue
			}

			for _, raw := range samples {
				_, okA := ca.Evaluate(raw)
				_, okB := cb.Evaluate(raw)
				assert.False(t, okA && okB, "%q satisfies both %s and %s", raw, na, nb)
			}
		}
	}
}
