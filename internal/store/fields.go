package store

import (
	"fmt"
	"reflect"
	"strings"
)

// fieldEquals compares the field of rec whose bson name is field against
// value. Embedded structs are searched the same way the bson codec inlines
// them.
func fieldEquals(rec any, field string, value any) (bool, error) {
	v := reflect.Indirect(reflect.ValueOf(rec))
	fv, ok := lookupField(v, field)
	if !ok {
		return false, fmt.Errorf("store: unknown field %q", field)
	}

	want := reflect.ValueOf(value)
	if !want.IsValid() {
		return fv.IsZero(), nil
	}
	if want.Type() != fv.Type() {
		sameKind := want.Kind() == fv.Kind()
		if !sameKind && !(isNumber(want.Kind()) && isNumber(fv.Kind())) {
			return false, nil
		}
		want = want.Convert(fv.Type())
	}
	return reflect.DeepEqual(fv.Interface(), want.Interface()), nil
}

func lookupField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if fv, ok := lookupField(v.Field(i), name); ok {
				return fv, true
			}
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("bson"), ",")
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
