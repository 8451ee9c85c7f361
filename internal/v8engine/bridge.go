//go:build v8

package v8engine

import (
	"fmt"
	"reflect"

	v8 "github.com/tommie/v8go"
)

// jsToGoArg converts a single JS value to the Go type a registered
// function's parameter expects. Grounded on the teacher's
// internal/v8engine/runtime.go jsToGoArg, unchanged in approach: numeric
// kinds read through v8.Value's typed accessors, strings through String(),
// anything else falls back to the zero value of the target type rather
// than panicking (spec §7 CantConvert is raised one level up, by the
// generic record path in the root package's bridge.go, not here).
func jsToGoArg(val *v8.Value, targetType reflect.Type) reflect.Value {
	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(val.String()).Convert(targetType)
	case reflect.Bool:
		return reflect.ValueOf(val.Boolean())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(val.Int32()).Convert(targetType)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(val.Uint32()).Convert(targetType)
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(val.Number()).Convert(targetType)
	default:
		return reflect.Zero(targetType)
	}
}

// goToJSValue converts a reflect.Value of a scalar kind to a *v8.Value.
func goToJSValue(iso *v8.Isolate, val reflect.Value) *v8.Value {
	v, _ := goAnyToJSValue(iso, nil, val.Interface())
	return v
}

// goAnyToJSValue converts an arbitrary Go value to a *v8.Value. ctx may be
// nil when constructing a value that does not need context-scoped
// allocation (primitives); object construction requires ctx.
func goAnyToJSValue(iso *v8.Isolate, ctx *v8.Context, value any) (*v8.Value, error) {
	switch v := value.(type) {
	case nil:
		return v8.Null(iso), nil
	case string:
		return v8.NewValue(iso, v)
	case bool:
		return v8.NewValue(iso, v)
	case int:
		return v8.NewValue(iso, int32(v))
	case int32:
		return v8.NewValue(iso, v)
	case int64:
		return v8.NewValue(iso, v)
	case float64:
		return v8.NewValue(iso, v)
	case []byte:
		ab := v8.NewArrayBuffer(iso, v)
		return ab.Value(), nil
	default:
		return nil, fmt.Errorf("goAnyToJSValue: unsupported type %T", value)
	}
}
