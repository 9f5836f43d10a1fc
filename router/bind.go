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

package router

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"rivaas.dev/endpoint/result"
)

// Services resolves handler dependencies for Bind.
type Services interface {
	// Resolve returns a value assignable to t, or false when none is known.
	Resolve(t reflect.Type) (any, bool)
}

// ServiceMap is a Services backed by a map from type to value.
//
//	services := router.ServiceMap{}
//	router.Provide[OrderStore](services, store)
//	r := router.MustNew(router.WithServices(services))
type ServiceMap map[reflect.Type]any

// Resolve implements Services.
func (m ServiceMap) Resolve(t reflect.Type) (any, bool) {
	v, ok := m[t]
	return v, ok
}

// Provide registers v under the type T, which may be an interface.
func Provide[T any](m ServiceMap, v T) {
	m[reflect.TypeFor[T]()] = v
}

// Binding sources recognized in struct tags.
const (
	sourcePath   = "path"
	sourceQuery  = "query"
	sourceHeader = "header"
)

var bindingSources = []string{sourcePath, sourceQuery, sourceHeader}

var (
	contextPtrType  = reflect.TypeFor[*Context]()
	stdContextType  = reflect.TypeFor[context.Context]()
	requestPtrType  = reflect.TypeFor[*http.Request]()
	errorType       = reflect.TypeFor[error]()
	timeType        = reflect.TypeFor[time.Time]()
	durationType    = reflect.TypeFor[time.Duration]()
	textUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// structValidator validates bound structs. Field names in errors are the
// binding names from the path, query or header tag.
var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, src := range bindingSources {
			if name := fld.Tag.Get(src); name != "" && name != "-" {
				return name
			}
		}

		return fld.Name
	})

	return v
})

type argKind uint8

const (
	argContext argKind = iota
	argStdContext
	argRequest
	argStruct
	argService
)

type fieldBinding struct {
	index  []int
	source string
	name   string
}

type argPlan struct {
	kind   argKind
	typ    reflect.Type
	ptr    bool // struct passed by pointer
	fields []fieldBinding
}

// Bind adapts fn into a HandlerFunc. The binding plan is computed once, so
// Bind panics on unsupported signatures at registration time.
//
// Parameters may be, in any order:
//
//	*router.Context, context.Context, *http.Request
//	a struct or *struct with path, query or header tags
//	any other type, resolved through the router's Services
//
// Bound structs are converted with spf13/cast and then validated with
// go-playground/validator using validate tags. Conversion or validation
// failures answer 400 with a validation problem.
//
// fn may return nothing, a value, an error, or a value and an error.
//
// Example:
//
//	type getOrder struct {
//	    ID     int64  `path:"id"`
//	    Expand string `query:"expand" validate:"omitempty,oneof=items customer"`
//	}
//
//	api.GET("/orders/{id:int}", router.Bind(func(ctx context.Context, in getOrder, store OrderStore) (*Order, error) {
//	    return store.Find(ctx, in.ID, in.Expand)
//	}))
func Bind(fn any) HandlerFunc {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		panic(fmt.Sprintf("router.Bind: expected a function, got %T", fn))
	}

	ft := fv.Type()
	if ft.IsVariadic() {
		panic(fmt.Sprintf("router.Bind: variadic functions are not supported: %s", ft))
	}

	plans := make([]argPlan, ft.NumIn())
	for i := range plans {
		plans[i] = planArg(ft.In(i))
	}

	collect := planReturns(ft)

	return func(c *Context) (any, error) {
		args := make([]reflect.Value, len(plans))
		for i := range plans {
			v, problem, err := plans[i].bind(c)
			if err != nil {
				return nil, err
			}
			if problem != nil {
				return problem, nil
			}
			args[i] = v
		}

		return collect(fv.Call(args))
	}
}

func planArg(t reflect.Type) argPlan {
	switch t {
	case contextPtrType:
		return argPlan{kind: argContext, typ: t}
	case stdContextType:
		return argPlan{kind: argStdContext, typ: t}
	case requestPtrType:
		return argPlan{kind: argRequest, typ: t}
	}

	st, ptr := t, false
	if st.Kind() == reflect.Pointer {
		st, ptr = st.Elem(), true
	}

	if st.Kind() == reflect.Struct {
		if fields := bindingFields(st, nil); len(fields) > 0 {
			return argPlan{kind: argStruct, typ: st, ptr: ptr, fields: fields}
		}
	}

	return argPlan{kind: argService, typ: t}
}

// bindingFields collects tagged exported fields, descending into embedded
// structs.
func bindingFields(t reflect.Type, parent []int) []fieldBinding {
	var out []fieldBinding

	for i := range t.NumField() {
		f := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			out = append(out, bindingFields(f.Type, index)...)
			continue
		}
		if !f.IsExported() {
			continue
		}

		for _, src := range bindingSources {
			name := f.Tag.Get(src)
			if name == "" || name == "-" {
				continue
			}
			if !convertible(f.Type) {
				panic(fmt.Sprintf("router.Bind: field %s.%s has unsupported type %s", t.Name(), f.Name, f.Type))
			}
			out = append(out, fieldBinding{index: index, source: src, name: name})

			break
		}
	}

	return out
}

func planReturns(ft reflect.Type) func([]reflect.Value) (any, error) {
	switch ft.NumOut() {
	case 0:
		return func([]reflect.Value) (any, error) { return nil, nil }

	case 1:
		if ft.Out(0) == errorType {
			return func(out []reflect.Value) (any, error) {
				return nil, asError(out[0])
			}
		}

		return func(out []reflect.Value) (any, error) {
			return out[0].Interface(), nil
		}

	case 2:
		if ft.Out(1) != errorType {
			panic(fmt.Sprintf("router.Bind: second return value must be error: %s", ft))
		}

		return func(out []reflect.Value) (any, error) {
			if err := asError(out[1]); err != nil {
				return nil, err
			}

			return out[0].Interface(), nil
		}

	default:
		panic(fmt.Sprintf("router.Bind: too many return values: %s", ft))
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}

	return v.Interface().(error)
}

// bind produces the argument, a validation problem, or an error.
func (p *argPlan) bind(c *Context) (reflect.Value, result.Result, error) {
	switch p.kind {
	case argContext:
		return reflect.ValueOf(c), nil, nil

	case argStdContext:
		return reflect.ValueOf(c.Context()), nil, nil

	case argRequest:
		return reflect.ValueOf(c.Request), nil, nil

	case argStruct:
		return p.bindStruct(c)

	default:
		if c.router.services == nil {
			return reflect.Value{}, nil, fmt.Errorf("%w: %s (no services configured)", ErrServiceUnavailable, p.typ)
		}

		svc, ok := c.router.services.Resolve(p.typ)
		if !ok || svc == nil {
			return reflect.Value{}, nil, fmt.Errorf("%w: %s", ErrServiceUnavailable, p.typ)
		}

		v := reflect.ValueOf(svc)
		if !v.Type().AssignableTo(p.typ) {
			return reflect.Value{}, nil, fmt.Errorf("%w: %s resolved to %s", ErrServiceUnavailable, p.typ, v.Type())
		}

		return v, nil, nil
	}
}

func (p *argPlan) bindStruct(c *Context) (reflect.Value, result.Result, error) {
	ptr := reflect.New(p.typ)
	target := ptr.Elem()

	var query map[string][]string
	fieldErrs := make(map[string][]string)

	for _, fb := range p.fields {
		field := target.FieldByIndex(fb.index)

		var raws []string
		switch fb.source {
		case sourcePath:
			v, ok := c.values[fb.name]
			if !ok || !v.Present {
				continue
			}
			if v.Typed != nil {
				if tv := reflect.ValueOf(v.Typed); tv.Type().AssignableTo(field.Type()) {
					field.Set(tv)
					continue
				}
			}
			raws = []string{v.Raw}

		case sourceQuery:
			if query == nil {
				query = c.Request.URL.Query()
			}
			raws = query[fb.name]

		case sourceHeader:
			raws = c.Request.Header.Values(fb.name)
		}

		if len(raws) == 0 {
			continue
		}

		if err := setField(field, raws); err != nil {
			fieldErrs[fb.name] = append(fieldErrs[fb.name], fmt.Sprintf("must be a valid %s", describeType(field.Type())))
		}
	}

	if len(fieldErrs) > 0 {
		return reflect.Value{}, result.ValidationProblem(fieldErrs), nil
	}

	if err := structValidator().Struct(ptr.Interface()); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return reflect.Value{}, nil, fmt.Errorf("validate %s: %w", p.typ, err)
		}

		for _, fe := range verrs {
			fieldErrs[fe.Field()] = append(fieldErrs[fe.Field()], validationMessage(fe))
		}

		return reflect.Value{}, result.ValidationProblem(fieldErrs), nil
	}

	if p.ptr {
		return ptr, nil, nil
	}

	return target, nil, nil
}

func convertible(t reflect.Type) bool {
	if t == timeType || t == durationType || reflect.PointerTo(t).Implements(textUnmarshaler) {
		return true
	}

	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice, reflect.Pointer:
		return t.Elem().Kind() != reflect.Slice && convertible(t.Elem())
	default:
		return false
	}
}

// setField converts raws into field. Slices take every value; other kinds
// take the first.
func setField(field reflect.Value, raws []string) error {
	t := field.Type()

	switch {
	case t == timeType:
		v, err := cast.ToTimeE(raws[0])
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(v))

		return nil

	case t == durationType:
		v, err := cast.ToDurationE(raws[0])
		if err != nil {
			return err
		}
		field.SetInt(int64(v))

		return nil

	case reflect.PointerTo(t).Implements(textUnmarshaler):
		return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raws[0]))
	}

	switch t.Kind() {
	case reflect.String:
		field.SetString(raws[0])

	case reflect.Bool:
		v, err := cast.ToBoolE(raws[0])
		if err != nil {
			return err
		}
		field.SetBool(v)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := cast.ToInt64E(strings.TrimSpace(raws[0]))
		if err != nil {
			return err
		}
		if field.OverflowInt(v) {
			return fmt.Errorf("%d overflows %s", v, t)
		}
		field.SetInt(v)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := cast.ToUint64E(strings.TrimSpace(raws[0]))
		if err != nil {
			return err
		}
		if field.OverflowUint(v) {
			return fmt.Errorf("%d overflows %s", v, t)
		}
		field.SetUint(v)

	case reflect.Float32, reflect.Float64:
		v, err := cast.ToFloat64E(strings.TrimSpace(raws[0]))
		if err != nil {
			return err
		}
		if field.OverflowFloat(v) {
			return fmt.Errorf("%g overflows %s", v, t)
		}
		field.SetFloat(v)

	case reflect.Pointer:
		elem := reflect.New(t.Elem())
		if err := setField(elem.Elem(), raws); err != nil {
			return err
		}
		field.Set(elem)

	case reflect.Slice:
		values := splitValues(raws)
		out := reflect.MakeSlice(t, len(values), len(values))
		for i, raw := range values {
			if err := setField(out.Index(i), []string{raw}); err != nil {
				return err
			}
		}
		field.Set(out)

	default:
		return fmt.Errorf("unsupported type %s", t)
	}

	return nil
}

// splitValues accepts both repeated keys and comma-separated lists.
func splitValues(raws []string) []string {
	var out []string
	for _, raw := range raws {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

func describeType(t reflect.Type) string {
	switch {
	case t == timeType:
		return "date and time"
	case t == durationType:
		return "duration"
	}

	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Pointer:
		return describeType(t.Elem())
	case reflect.Slice:
		return "list of " + describeType(t.Elem()) + " values"
	default:
		return "value"
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed validation (%s)", fe.Tag())
	}
}
