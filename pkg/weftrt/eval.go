// Package weftrt is the runtime support library generated render functions
// link against.
package weftrt

import (
	"reflect"
	"strings"
)

// Eval resolves a dotted expression path against a model value. The leading
// "model" segment refers to the model itself; subsequent segments traverse
// exported struct fields and string-keyed map entries. Unresolvable paths
// yield the empty string, matching template semantics for missing data.
func Eval(model any, expr string) any {
	segments := strings.Split(expr, ".")
	if len(segments) > 0 && segments[0] == "model" {
		segments = segments[1:]
	}

	value := reflect.ValueOf(model)
	for _, segment := range segments {
		value = deref(value)
		if !value.IsValid() {
			return ""
		}

		switch value.Kind() {
		case reflect.Struct:
			value = value.FieldByName(segment)
		case reflect.Map:
			if value.Type().Key().Kind() != reflect.String {
				return ""
			}
			value = value.MapIndex(reflect.ValueOf(segment))
		default:
			return ""
		}
	}

	value = deref(value)
	if !value.IsValid() {
		return ""
	}
	return value.Interface()
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
