package coalesce

import (
	"context"
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// OperationsOf builds one Operation per call-shaped member of client.
//
// A member qualifies when it is an exported method, or an exported non-nil
// func-typed struct field, with the shape
//
//	func(ctx context.Context, args...) (R, error)
//
// Methods and fields promoted from embedded structs are included. Members of
// any other shape, and non-function fields, are skipped. A method wins over a
// field of the same name.
//
// Every call returns new Operation values; build the set once and reuse it,
// since channels are keyed by operation identity.
//
// Parameters:
//   - client: Value or pointer exposing the calls (methods on pointer receivers
//     need a pointer)
//
// Returns:
//   - map[string]*Operation: Operations keyed by member name (empty, never nil)
//
// Example:
//
//	ops := coalesce.OperationsOf(apiClient)
//	sub, _ := mgr.Subscribe(ops["GetUser"], []any{42}, coalesce.Options{Interval: 10 * time.Second})
func OperationsOf(client any) map[string]*Operation {
	ops := make(map[string]*Operation)
	if client == nil {
		return ops
	}

	v := reflect.ValueOf(client)
	typeName := v.Type().Name()
	if v.Kind() == reflect.Pointer {
		typeName = v.Type().Elem().Name()
	}

	qualified := func(member string) string {
		if typeName == "" {
			return member
		}

		return typeName + "." + member
	}

	// Func-valued fields first, so methods overwrite them on a name clash.
	if s := reflect.Indirect(v); s.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(s.Type()) {
			if !f.IsExported() || f.Type.Kind() != reflect.Func {
				continue
			}

			fv, err := s.FieldByIndexErr(f.Index)
			if err != nil || fv.IsNil() || !isCallShape(fv.Type()) {
				continue
			}

			ops[f.Name] = NewOperation(qualified(f.Name), reflectAction(fv))
		}
	}

	for i := range v.NumMethod() {
		m := v.Type().Method(i)
		fn := v.Method(i)
		if !isCallShape(fn.Type()) {
			continue
		}

		ops[m.Name] = NewOperation(qualified(m.Name), reflectAction(fn))
	}

	return ops
}

// isCallShape reports whether t is func(context.Context, ...) (R, error), not variadic.
func isCallShape(t reflect.Type) bool {
	return t.Kind() == reflect.Func &&
		!t.IsVariadic() &&
		t.NumIn() >= 1 && t.In(0) == contextType &&
		t.NumOut() == 2 && t.Out(1) == errorType
}

func reflectAction(fn reflect.Value) Action {
	ft := fn.Type()

	return func(ctx context.Context, args ...any) (any, error) {
		if err := checkArgCount(args, ft.NumIn()-1); err != nil {
			return nil, err
		}

		in := make([]reflect.Value, ft.NumIn())
		in[0] = reflect.Zero(contextType)
		if ctx != nil {
			in[0] = reflect.ValueOf(ctx)
		}
		for i, arg := range args {
			want := ft.In(i + 1)
			if arg == nil {
				in[i+1] = reflect.Zero(want)
				continue
			}

			av := reflect.ValueOf(arg)
			if !av.Type().AssignableTo(want) {
				return nil, fmt.Errorf("%w: argument %d is %T, want %s", ErrArgumentMismatch, i, arg, want)
			}
			in[i+1] = av
		}

		out := fn.Call(in)

		var err error
		if e := out[1].Interface(); e != nil {
			err = e.(error) //nolint:forcetypeassert // out[1] has type error
		}

		return out[0].Interface(), err
	}
}
