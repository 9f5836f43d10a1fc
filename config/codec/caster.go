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

package codec

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

const (
	TypeCasterString   Type = "caster-string"
	TypeCasterInt      Type = "caster-int"
	TypeCasterBool     Type = "caster-bool"
	TypeCasterDuration Type = "caster-duration"
)

func init() {
	RegisterDecoder(TypeCasterString, Caster{to: func(v any) (any, error) { return cast.ToStringE(v) }})
	RegisterDecoder(TypeCasterInt, Caster{to: func(v any) (any, error) { return cast.ToIntE(v) }})
	RegisterDecoder(TypeCasterBool, Caster{to: func(v any) (any, error) { return cast.ToBoolE(v) }})
	RegisterDecoder(TypeCasterDuration, Caster{to: func(v any) (any, error) { return cast.ToDurationE(v) }})
}

// Caster decodes a single scalar value with spf13/cast.
type Caster struct {
	to func(any) (any, error)
}

// Decode stores the converted value in v, which must be a *any.
func (c Caster) Decode(data []byte, v any) error {
	ptr, ok := v.(*any)
	if !ok {
		return fmt.Errorf("Caster.Decode: expected *any, got %T", v)
	}

	val, err := c.to(strings.TrimSpace(string(data)))
	if err != nil {
		return err
	}
	*ptr = val

	return nil
}
