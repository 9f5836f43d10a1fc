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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"rivaas.dev/endpoint/config/codec"
)

type serverSettings struct {
	Addr            string        `config:"addr" default:":8080"`
	H2C             bool          `config:"h2c" default:"true"`
	ReadTimeout     time.Duration `config:"read_timeout" default:"15s"`
	ShutdownTimeout time.Duration `config:"shutdown_timeout" default:"30s"`
}

type settings struct {
	Server      serverSettings `config:"server"`
	CORSOrigins []string       `config:"cors_origins" default:"https://a.example"`
	RateLimit   float64        `config:"rate_limit" default:"50"`
}

func (s *settings) Validate() error {
	if s.RateLimit <= 0 {
		return errors.New("rate_limit must be positive")
	}

	return nil
}

type ConfigSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ConfigSuite) write(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

func (s *ConfigSuite) TestLayering() {
	base := s.write("base.yaml", "server:\n  addr: \":8080\"\n  read_timeout: 10s\nrate_limit: 20\n")
	override := s.write("override.toml", "[Server]\nAddr = \":9090\"\n")

	cfg, err := New(
		WithFile(base),
		WithFile(override),
		WithContent([]byte(`{"server":{"h2c":false}}`), codec.TypeJSON),
	)
	s.Require().NoError(err)
	s.Require().NoError(cfg.Load(context.Background()))

	s.Equal(":9090", cfg.String("server.addr"), "later sources override, keys are case-insensitive")
	s.Equal(":9090", cfg.String("SERVER.ADDR"))
	s.Equal(10*time.Second, cfg.Duration("server.read_timeout"))
	s.Equal(20, cfg.Int("rate_limit"))
	s.False(cfg.BoolOr("server.h2c", true))
	s.True(cfg.Has("server"))
	s.Nil(cfg.Get("server.addr.port"))
	s.Equal("fallback", cfg.StringOr("missing", "fallback"))
	s.Equal(3, cfg.IntOr("server.addr", 3), "unconvertible values fall back")
	s.Equal(time.Minute, cfg.DurationOr("missing", time.Minute))
}

func (s *ConfigSuite) TestBindingWithDefaults() {
	var got settings
	cfg := MustNew(
		WithContent([]byte("server:\n  h2c: false\ncors_origins: https://x.example,https://y.example\n"), codec.TypeYAML),
		WithBinding(&got),
	)
	s.Require().NoError(cfg.Load(context.Background()))

	s.Equal(":8080", got.Server.Addr)
	s.False(got.Server.H2C, "an explicit false beats the default")
	s.Equal(15*time.Second, got.Server.ReadTimeout)
	s.Equal(30*time.Second, got.Server.ShutdownTimeout)
	s.Equal([]string{"https://x.example", "https://y.example"}, got.CORSOrigins)
	s.InDelta(50.0, got.RateLimit, 0)

	var again settings
	s.Require().NoError(cfg.Unmarshal(&again))
	s.Equal(got, again)
}

func (s *ConfigSuite) TestFailedLoadKeepsState() {
	var got settings
	content := &switchSource{values: map[string]any{"rate_limit": 10}}
	cfg := MustNew(WithSource(content), WithBinding(&got))
	s.Require().NoError(cfg.Load(context.Background()))
	s.InDelta(10.0, got.RateLimit, 0)

	content.values = map[string]any{"rate_limit": -1}
	err := cfg.Load(context.Background())
	s.Require().Error(err)

	var cfgErr *Error
	s.Require().ErrorAs(err, &cfgErr)
	s.Equal("validate", cfgErr.Operation)
	s.InDelta(10.0, got.RateLimit, 0, "binding is untouched")
	s.Equal(10, cfg.Int("rate_limit"), "values are untouched")
}

func (s *ConfigSuite) TestJSONSchema() {
	schema := []byte(`{
		"type": "object",
		"properties": {
			"server": {
				"type": "object",
				"properties": {"addr": {"type": "string", "pattern": "^[^:]*:[0-9]+$"}},
				"required": ["addr"]
			}
		},
		"required": ["server"]
	}`)

	ok := MustNew(WithContent([]byte(`{"server":{"addr":":8080"}}`), codec.TypeJSON), WithJSONSchema(schema))
	s.Require().NoError(ok.Load(context.Background()))

	bad := MustNew(WithContent([]byte(`{"server":{}}`), codec.TypeJSON), WithJSONSchema(schema))
	err := bad.Load(context.Background())
	var cfgErr *Error
	s.Require().ErrorAs(err, &cfgErr)
	s.Equal("json-schema", cfgErr.Source)
}

func (s *ConfigSuite) TestValidator() {
	cfg := MustNew(
		WithContent([]byte("a: 1"), codec.TypeYAML),
		WithValidator(func(m map[string]any) error {
			if _, ok := m["b"]; !ok {
				return errors.New("b is required")
			}
			return nil
		}),
	)
	s.Require().ErrorContains(cfg.Load(context.Background()), "b is required")
}

func (s *ConfigSuite) TestMissingFile() {
	cfg := MustNew(WithFile(filepath.Join(s.dir, "nope.yaml")))
	err := cfg.Load(context.Background())
	s.Require().ErrorIs(err, os.ErrNotExist)
}

type switchSource struct {
	values map[string]any
}

func (s *switchSource) Load(context.Context) (map[string]any, error) { return s.values, nil }

func TestNew_OptionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Option
	}{
		{"unknown extension", WithFile("endpoint.ini")},
		{"unknown format", WithContent(nil, "ini")},
		{"nil source", WithSource(nil)},
		{"non-pointer binding", WithBinding(settings{})},
		{"nil binding", WithBinding(nil)},
		{"empty tag", WithTag("")},
		{"bad schema", WithJSONSchema([]byte("{"))},
		{"nil validator", WithValidator(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.opt)
			require.Error(t, err)
			assert.Panics(t, func() { MustNew(tt.opt) })
		})
	}
}

func TestEnvSource(t *testing.T) {
	t.Setenv("ENDPOINT_TEST_SERVER__ADDR", ":7070")
	t.Setenv("ENDPOINT_TEST_CORS_ORIGINS", "https://a.example,https://b.example")

	var got settings
	cfg := MustNew(WithEnv("ENDPOINT_TEST_"), WithBinding(&got))
	require.NoError(t, cfg.Load(context.Background()))

	assert.Equal(t, ":7070", got.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.StringSlice("cors_origins"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, got.CORSOrigins)
}

func TestConsul_SkippedWithoutAddress(t *testing.T) {
	t.Setenv("CONSUL_HTTP_ADDR", "")

	cfg, err := New(WithConsul("endpoint/config.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.sources)
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := MustNew(WithContent([]byte("{}"), codec.TypeJSON))
	require.ErrorIs(t, cfg.Load(ctx), context.Canceled)
}
