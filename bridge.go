package deskrt

import (
	"fmt"
	"reflect"
	"strings"
)

// Bridge performs the engine-agnostic half of the Value Bridge (spec
// §4.6): generic record reflection, enum string-sum conversion, optional
// handling, and weak-handle validation. The scalar/buffer conversions
// that must speak the concrete engine's value type live in
// internal/v8engine/bridge.go and internal/quickjs/bridge.go; this package
// only ever deals in Go `any`, converted to/from engine values by the
// core.Engine itself (RegisterFunc/CallGlobalFunction).
type Bridge struct {
	handles *WeakHandleTable
	// scratch is the single reusable buffer backing string conversions
	// that need a byte-level view. Its lifetime is bounded by the current
	// bridge call per spec §4.6 ("valid only until the next bridge call")
	// — callers must copy out of it before returning to script.
	scratch []byte
}

func NewBridge(handles *WeakHandleTable) *Bridge {
	return &Bridge{handles: handles}
}

// scratchFor resets and returns the shared scratch buffer sized for n
// bytes. Every bridge entry point that touches scratch calls this first,
// invalidating whatever the previous call left there.
func (b *Bridge) scratchFor(n int) []byte {
	if cap(b.scratch) < n {
		b.scratch = make([]byte, n)
	} else {
		b.scratch = b.scratch[:n]
	}
	return b.scratch
}

// ToRecord reflectively enumerates v's exported fields into a
// map[string]any, the generic-record shape of spec §4.6 ("generic records
// (reflectively enumerated field-by-field)"). Used for any struct type
// that doesn't have a pre-registered class/object template.
func (b *Bridge) ToRecord(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, CantConvert{From: fmt.Sprintf("%T", v), To: "record"}
	}
	out := make(map[string]any, rv.NumField())
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		out[fieldName(f)] = rv.Field(i).Interface()
	}
	return out, nil
}

func fieldName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("js"); ok && tag != "" {
		return tag
	}
	return f.Name
}

// FromRecord is the inverse of ToRecord: it populates a struct of the
// target type from a map[string]any. Per spec §4.6, "struct conversions
// allocate all-optional records with default values when every field is
// optional; otherwise each field is individually converted" — allOptional
// callers pass a target that is already zero-valued and simply skip
// missing keys; non-optional missing keys are a CantConvert.
func (b *Bridge) FromRecord(fields map[string]any, target any, optional map[string]bool) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return CantConvert{From: "record", To: fmt.Sprintf("%T", target)}
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := fieldName(f)
		val, present := fields[name]
		if !present {
			if optional == nil || optional[name] {
				continue
			}
			return CantConvert{From: "record", To: name}
		}
		fv := reflect.ValueOf(val)
		if !fv.Type().AssignableTo(f.Type) {
			if fv.Type().ConvertibleTo(f.Type) {
				fv = fv.Convert(f.Type)
			} else {
				return CantConvert{From: fmt.Sprintf("%T", val), To: f.Type.String()}
			}
		}
		rv.Field(i).Set(fv)
	}
	return nil
}

// StringSumEnum converts a string to one of members (case-insensitive),
// falling back to def when provided and name doesn't match (spec §4.6:
// "enum conversions support both case-insensitive string-sum lookup and
// integer conversion with an optional Default fallback").
func StringSumEnum(name string, members []string, def string) (string, error) {
	for _, m := range members {
		if strings.EqualFold(m, name) {
			return m, nil
		}
	}
	if def != "" {
		return def, nil
	}
	return "", CantConvert{From: name, To: "enum"}
}

// IntEnum converts an integer to a member index, clamping via Default
// when out of range and a default is supplied.
func IntEnum(value, count, def int) (int, error) {
	if value >= 0 && value < count {
		return value, nil
	}
	if def >= 0 && def < count {
		return def, nil
	}
	return 0, CantConvert{From: fmt.Sprintf("%d", value), To: "enum"}
}

// ResolveHandle validates a weak handle id and returns its native pointer,
// or HandleExpired if the slot's tag is Null (spec §4.6: "weak-handle
// conversions validate the tag and return HandleExpired when the slot is
// Null").
func (b *Bridge) ResolveHandle(id int32) (any, error) {
	return b.handles.Get(id)
}

// BytesToScratch copies data into the shared scratch buffer and returns
// it. The returned slice is only valid until the next bridge call that
// touches scratch — see the field doc comment.
func (b *Bridge) BytesToScratch(data []byte) []byte {
	buf := b.scratchFor(len(data))
	copy(buf, data)
	return buf
}
