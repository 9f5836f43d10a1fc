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

package pattern

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by [CompileError].
var (
	ErrInvalidTemplate    = errors.New("invalid route template")
	ErrDuplicateParameter = errors.New("duplicate route parameter")
	ErrCatchAllPosition   = errors.New("catch-all parameter must be the last segment")
	ErrOptionalPosition   = errors.New("only optional parameters may follow an optional parameter")
	ErrInvalidDefault     = errors.New("default value rejected by its constraints")
	ErrMissingValue       = errors.New("missing value for route parameter")
)

// CompileError reports why a route template could not be compiled.
// It unwraps to one of the sentinel errors above, or to a constraint error
// (constraint.ErrUnknown, constraint.ErrInvalidArgs, constraint.ErrInvalidSyntax).
type CompileError struct {
	Template string // Template as given
	Segment  string // Offending segment, empty when the whole template is at fault
	Err      error
}

func (e *CompileError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("route template %q: %v", e.Template, e.Err)
	}

	return fmt.Sprintf("route template %q: segment %q: %v", e.Template, e.Segment, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }
