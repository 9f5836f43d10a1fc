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

package constraint

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// registerBuiltins installs every built-in constraint into r.
func registerBuiltins(r *Registry) {
	r.factories["int"] = noArgs("int", parseInt)
	r.factories["long"] = noArgs("long", parseInt)
	r.factories["bool"] = noArgs("bool", parseBool)
	r.factories["decimal"] = noArgs("decimal", parseFloat)
	r.factories["double"] = noArgs("double", parseFloat)
	r.factories["float"] = noArgs("float", parseFloat)
	r.factories["guid"] = noArgs("guid", parseUUID)
	r.factories["uuid"] = noArgs("uuid", parseUUID)
	r.factories["datetime"] = noArgs("datetime", parseDateTime)
	r.factories["alpha"] = noArgs("alpha", isAlpha)
	r.factories["required"] = noArgs("required", func(raw string) (any, bool) { return raw, raw != "" })
	r.factories["length"] = lengthFactory
	r.factories["minlength"] = boundFactory("minlength", func(n int64, raw string) bool {
		return int64(utf8.RuneCountInString(raw)) >= n
	}, false)
	r.factories["maxlength"] = boundFactory("maxlength", func(n int64, raw string) bool {
		return int64(utf8.RuneCountInString(raw)) <= n
	}, false)
	r.factories["min"] = boundFactory("min", func(n int64, raw string) bool {
		v, err := strconv.ParseInt(raw, 10, 64)
		return err == nil && v >= n
	}, true)
	r.factories["max"] = boundFactory("max", func(n int64, raw string) bool {
		v, err := strconv.ParseInt(raw, 10, 64)
		return err == nil && v <= n
	}, true)
	r.factories["range"] = rangeFactory
	r.factories["regex"] = regexFactory
}

func noArgs(name string, fn func(string) (any, bool)) Factory {
	return func(spec Spec) (Constraint, error) {
		if len(spec.Args) != 0 {
			return nil, fmt.Errorf("%w: %s takes no arguments, got %q", ErrInvalidArgs, name, spec.Raw)
		}

		return Func(name, fn), nil
	}
}

func parseInt(raw string) (any, bool) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}

	return v, true
}

func parseBool(raw string) (any, bool) {
	switch {
	case strings.EqualFold(raw, "true"):
		return true, true
	case strings.EqualFold(raw, "false"):
		return false, true
	}

	return nil, false
}

func parseFloat(raw string) (any, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}

	return v, true
}

func parseUUID(raw string) (any, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}

	return id, true
}

func parseDateTime(raw string) (any, bool) {
	// cast treats bare integers as unix timestamps; route values such as "42"
	// are not dates.
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return nil, false
	}

	t, err := cast.ToTimeE(raw)
	if err != nil {
		return nil, false
	}

	return t, true
}

func isAlpha(raw string) (any, bool) {
	if raw == "" {
		return nil, false
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return nil, false
		}
	}

	return raw, true
}

func parseBound(name, arg string, allowNegative bool) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s(%s) needs an integer", ErrInvalidArgs, name, arg)
	}

	if n < 0 && !allowNegative {
		return 0, fmt.Errorf("%w: %s(%s) must not be negative", ErrInvalidArgs, name, arg)
	}

	return n, nil
}

// boundFactory builds single-integer-argument constraints. Numeric bounds
// (min, max) coerce to int64; length bounds leave the string untouched.
func boundFactory(name string, check func(n int64, raw string) bool, numeric bool) Factory {
	return func(spec Spec) (Constraint, error) {
		if len(spec.Args) != 1 {
			return nil, fmt.Errorf("%w: %s takes exactly one argument, got %q", ErrInvalidArgs, name, spec.Raw)
		}

		n, err := parseBound(name, spec.Args[0], numeric)
		if err != nil {
			return nil, err
		}

		return Func(name, func(raw string) (any, bool) {
			if !check(n, raw) {
				return nil, false
			}

			if numeric {
				v, _ := strconv.ParseInt(raw, 10, 64)
				return v, true
			}

			return raw, true
		}), nil
	}
}

// lengthFactory handles length(n) and length(min,max).
func lengthFactory(spec Spec) (Constraint, error) {
	var lo, hi int64
	var err error

	switch len(spec.Args) {
	case 1:
		if lo, err = parseBound("length", spec.Args[0], false); err != nil {
			return nil, err
		}
		hi = lo
	case 2:
		if lo, err = parseBound("length", spec.Args[0], false); err != nil {
			return nil, err
		}
		if hi, err = parseBound("length", spec.Args[1], false); err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, fmt.Errorf("%w: length(%s) has min greater than max", ErrInvalidArgs, spec.Raw)
		}
	default:
		return nil, fmt.Errorf("%w: length takes one or two arguments, got %q", ErrInvalidArgs, spec.Raw)
	}

	return Func("length", func(raw string) (any, bool) {
		n := int64(utf8.RuneCountInString(raw))
		return raw, n >= lo && n <= hi
	}), nil
}

func rangeFactory(spec Spec) (Constraint, error) {
	if len(spec.Args) != 2 {
		return nil, fmt.Errorf("%w: range takes two arguments, got %q", ErrInvalidArgs, spec.Raw)
	}

	lo, err := parseBound("range", spec.Args[0], true)
	if err != nil {
		return nil, err
	}

	hi, err := parseBound("range", spec.Args[1], true)
	if err != nil {
		return nil, err
	}

	if lo > hi {
		return nil, fmt.Errorf("%w: range(%s) has min greater than max", ErrInvalidArgs, spec.Raw)
	}

	return Func("range", func(raw string) (any, bool) {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < lo || v > hi {
			return nil, false
		}

		return v, true
	}), nil
}

// regexFactory compiles the whole argument text (commas included) and anchors
// it, so regex(\d{3}) only accepts exactly three digits.
func regexFactory(spec Spec) (Constraint, error) {
	if spec.Raw == "" {
		return nil, fmt.Errorf("%w: regex needs a pattern", ErrInvalidArgs)
	}

	re, err := regexp.Compile("^(?:" + spec.Raw + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: regex(%s): %w", ErrInvalidArgs, spec.Raw, err)
	}

	return Func("regex", func(raw string) (any, bool) {
		return raw, re.MatchString(raw)
	}), nil
}
