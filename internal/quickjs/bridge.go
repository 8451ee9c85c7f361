package quickjs

import (
	"fmt"
	"reflect"

	"modernc.org/quickjs"
)

// jsToGoArg mirrors internal/v8engine/bridge.go's conversion table, adapted
// to modernc.org/quickjs's Value accessor names.
func jsToGoArg(val quickjs.Value, targetType reflect.Type) reflect.Value {
	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(val.ToString()).Convert(targetType)
	case reflect.Bool:
		return reflect.ValueOf(val.ToBool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(int64(val.ToFloat64())).Convert(targetType)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(uint64(val.ToFloat64())).Convert(targetType)
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(val.ToFloat64()).Convert(targetType)
	default:
		return reflect.Zero(targetType)
	}
}

func (e *Engine) goAnyToJSValue(value any) (quickjs.Value, error) {
	switch v := value.(type) {
	case nil:
		return e.ctx.Null(), nil
	case string:
		return e.ctx.NewString(v), nil
	case bool:
		return e.ctx.NewBool(v), nil
	case int:
		return e.ctx.NewFloat64(float64(v)), nil
	case int32:
		return e.ctx.NewFloat64(float64(v)), nil
	case int64:
		return e.ctx.NewFloat64(float64(v)), nil
	case float64:
		return e.ctx.NewFloat64(v), nil
	default:
		return e.ctx.Undefined(), fmt.Errorf("goAnyToJSValue: unsupported type %T", value)
	}
}
