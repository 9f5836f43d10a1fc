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

package semconv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		constant string
		want     string
	}{
		{"ServiceName", ServiceName, "service.name"},
		{"DeploymentEnviron", DeploymentEnviron, "deployment.environment"},
		{"HTTPRoute", HTTPRoute, "http.route"},
		{"HTTPStatusCode", HTTPStatusCode, "http.status_code"},
		{"RouteOutcome", RouteOutcome, "route.outcome"},
		{"TraceID", TraceID, "trace_id"},
		{"RequestID", RequestID, "req.id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.constant)
		})
	}
}

func TestKeys_Unique(t *testing.T) {
	t.Parallel()

	all := []string{
		ServiceName, ServiceVersion, ServiceNamespace, DeploymentEnviron,
		HTTPMethod, HTTPRoute, HTTPTarget, HTTPStatusCode, HTTPScheme, HTTPUserAgent,
		RouteName, RouteOutcome, NetworkPeerIP, NetworkClientIP,
		TraceID, SpanID, RequestID, ErrorID, DurationMS,
	}

	seen := make(map[string]bool, len(all))
	for _, k := range all {
		assert.False(t, seen[k], "duplicate key %q", k)
		assert.Equal(t, k, strings.TrimSpace(k))
		seen[k] = true
	}
}
