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

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rivaas.dev/endpoint/config"
	"rivaas.dev/endpoint/config/codec"
)

// settings is the service configuration. Values come from the built-in
// defaults, then the optional config file, then Consul, then ENDPOINT_*
// environment variables (ENDPOINT_SERVER__ADDR sets server.addr).
type settings struct {
	Service struct {
		Name        string `config:"name" default:"endpointd"`
		Version     string `config:"version" default:"dev"`
		Environment string `config:"environment" default:"development"`
	} `config:"service"`

	Server struct {
		Addr            string        `config:"addr" default:":8080"`
		H2C             bool          `config:"h2c"`
		ShutdownTimeout time.Duration `config:"shutdown_timeout" default:"15s"`
		RequestTimeout  time.Duration `config:"request_timeout" default:"10s"`
		BodyLimit       int64         `config:"body_limit" default:"1048576"`
	} `config:"server"`

	Log struct {
		Level  string `config:"level" default:"info"`
		Format string `config:"format" default:"json"`
	} `config:"log"`

	Metrics struct {
		Addr string `config:"addr" default:":9090"`
	} `config:"metrics"`

	Tracing struct {
		Exporter   string  `config:"exporter" default:"noop"`
		Endpoint   string  `config:"endpoint"`
		SampleRate float64 `config:"sample_rate" default:"1"`
	} `config:"tracing"`

	Auth struct {
		JWTKey string `config:"jwt_key"`
		Issuer string `config:"issuer"`
	} `config:"auth"`

	RateLimit struct {
		RPS   float64 `config:"rps" default:"50"`
		Burst int     `config:"burst" default:"100"`
	} `config:"rate_limit"`

	Cache struct {
		RedisAddr string        `config:"redis_addr"`
		TTL       time.Duration `config:"ttl" default:"30s"`
	} `config:"cache"`

	CORS struct {
		Origins []string `config:"origins"`
	} `config:"cors"`
}

// Validate implements config.Validator.
func (s *settings) Validate() error {
	var errs []error
	if s.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if s.Tracing.SampleRate < 0 || s.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_rate %v is outside [0, 1]", s.Tracing.SampleRate))
	}
	switch s.Tracing.Exporter {
	case "noop", "stdout", "otlp", "otlp-http":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q is not one of noop, stdout, otlp, otlp-http", s.Tracing.Exporter))
	}
	if s.RateLimit.RPS <= 0 {
		errs = append(errs, errors.New("rate_limit.rps must be positive"))
	}

	return errors.Join(errs...)
}

// loadSettings reads the configuration. file may be empty.
func loadSettings(ctx context.Context, file string) (*settings, error) {
	var s settings

	opts := []config.Option{config.WithBinding(&s)}
	if file != "" {
		opts = append(opts, config.WithFile(file))
	}
	opts = append(opts,
		config.WithConsulAs("endpointd/config.yaml", codec.TypeYAML),
		config.WithEnv("ENDPOINT_"),
	)

	cfg, err := config.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}
	if err := cfg.Load(ctx); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	return &s, nil
}
