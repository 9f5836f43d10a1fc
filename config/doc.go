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

// Package config loads layered configuration for an endpoint server.
//
// Sources are read in the order they are given and merged with
// dario.cat/mergo, later sources overriding earlier ones. Keys are
// case-insensitive and addressed with dots ("server.read_timeout").
//
//	var settings Settings
//	cfg := config.MustNew(
//	    config.WithFile("endpoint.yaml"),      // format from the extension
//	    config.WithConsul("endpoint/config.yaml"), // skipped without CONSUL_HTTP_ADDR
//	    config.WithEnv("ENDPOINT_"),           // ENDPOINT_SERVER__ADDR -> server.addr
//	    config.WithBinding(&settings),
//	)
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//
// Binding uses go-viper/mapstructure with the "config" struct tag. Fields
// may declare a "default" tag, applied before the loaded values so an
// explicit false or zero in a source still wins. A bound type that
// implements [Validator] is validated on every Load, and the whole value
// map may also be checked against a JSON Schema with [WithJSONSchema].
//
// Load either succeeds completely or leaves the previous values and the
// bound struct untouched.
package config
