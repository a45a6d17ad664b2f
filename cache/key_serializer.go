package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer implements KeySerializer using reflection.
// Call arguments in this module are plain values, slices, maps and argument
// structs, so the output only has to be deterministic for those shapes.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey joins the function name and every serialized argument with KeySeparator.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(reflect.ValueOf(arg)))
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem())

	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return fmt.Sprintf("slice[%d]:{%s}", rv.Len(), s.serializeElems(rv))

	case reflect.Array:
		return fmt.Sprintf("array[%d]:{%s}", rv.Len(), s.serializeElems(rv))

	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)

	case reflect.Struct:
		return s.serializeStruct(rv)

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%s:%x", rv.Kind(), rv.Pointer())

	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", rv.Interface())
	}

	return s.jsonFallback(rv)
}

func (s *defaultKeySerializer) serializeElems(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.serializeValue(rv.Index(i))
	}
	return strings.Join(parts, ",")
}

// serializeMap sorts entries by their serialized key so map iteration order never leaks into keys.
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.serializeValue(iter.Key())+"="+s.serializeValue(iter.Value()))
	}
	sort.Strings(pairs)

	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

// serializeStruct renders exported fields as name:value, unexported fields are skipped.
func (s *defaultKeySerializer) serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.serializeValue(rv.Field(i)))
	}

	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

func (s *defaultKeySerializer) jsonFallback(rv reflect.Value) string {
	if !rv.CanInterface() {
		return "fallback:" + rv.Type().String()
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return "fallback:" + rv.Type().String()
	}
	return "json:" + string(data)
}
