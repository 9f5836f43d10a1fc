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

// Package codec converts configuration documents between bytes and
// map[string]any.
//
// Built-in codecs are registered under [TypeJSON], [TypeYAML], [TypeTOML]
// and [TypeEnvVar]. Scalar casters ([TypeCasterString], [TypeCasterInt],
// [TypeCasterBool], [TypeCasterDuration]) decode a single value, which is
// how a Consul key holding one setting is read.
//
// Register custom codecs with [RegisterEncoder] and [RegisterDecoder]:
//
//	codec.RegisterDecoder(codec.Type("ini"), iniCodec{})
package codec
