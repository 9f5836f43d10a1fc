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

package pathfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	f := New()
	f.AddPaths("/healthz", "/metrics")
	f.AddPrefixes("/debug/")
	require.NoError(t, f.AddPatterns(`^/v[0-9]+/internal/`))

	tests := []struct {
		path string
		want bool
	}{
		{"/healthz", true},
		{"/healthz/live", false},
		{"/debug/pprof", true},
		{"/v2/internal/jobs", true},
		{"/v2/orders", false},
		{"/", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, f.Match(tt.path))
		})
	}
}

func TestFilter_ZeroAndNil(t *testing.T) {
	t.Parallel()

	var nilFilter *Filter
	assert.False(t, nilFilter.Match("/x"))
	assert.True(t, nilFilter.Empty())

	var zero Filter
	assert.True(t, zero.Empty())
	zero.AddPaths("/x")
	assert.True(t, zero.Match("/x"))
	assert.False(t, zero.Empty())
}

func TestFilter_InvalidPattern(t *testing.T) {
	t.Parallel()

	f := New()
	err := f.AddPatterns(`^/ok`, `([`, `^/never`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "([")
	assert.True(t, f.Match("/ok"))
	assert.False(t, f.Match("/never"))
}
