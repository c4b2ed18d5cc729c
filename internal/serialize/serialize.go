// Package serialize converts typed resource declarations into CloudFormation
// property maps.
package serialize

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// Properties serializes a resource declaration to CloudFormation properties.
// It handles:
// - JSON tag names (PascalCase, matching the CloudFormation schema)
// - Omitting nil/zero values of omitempty fields
// - Embedded structs, whose fields are promoted
// - Nested structs and slices
// - json.Marshaler values (intrinsic functions, AttrRef)
// - Tag lists, which are sorted by key
func Properties(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, nil
	}

	result := make(map[string]any)
	if err := collectFields(val, result); err != nil {
		return nil, err
	}
	return result, nil
}

func collectFields(val reflect.Value, result map[string]any) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		// Promote embedded struct fields like encoding/json does
		if field.Anonymous && fieldVal.Kind() == reflect.Struct && field.Tag.Get("json") == "" {
			if err := collectFields(fieldVal, result); err != nil {
				return err
			}
			continue
		}

		if !field.IsExported() {
			continue
		}

		name, omitEmpty := fieldName(field)
		if name == "-" {
			continue
		}

		if omitEmpty && isZeroValue(fieldVal) {
			continue
		}

		serialized, err := serializeValue(fieldVal)
		if err != nil {
			return err
		}

		if serialized == nil && omitEmpty {
			continue
		}
		if name == "Tags" || name == "HostedZoneTags" {
			sortTags(serialized)
		}
		result[name] = serialized
	}
	return nil
}

// fieldName returns the JSON field name for a struct field and whether it
// carries omitempty.
func fieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, true
	}

	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = field.Name
	}
	omitEmpty := false
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

// isZeroValue returns true if the value is the zero value for its type.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if v.CanInterface() {
			if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
				return zeroer.IsZero()
			}
		}
		return false
	default:
		return false
	}
}

// serializeValue converts a reflect.Value to a JSON-compatible value.
func serializeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil, nil
	}

	// Checked before dereferencing so pointer-receiver marshalers are seen.
	if v.CanInterface() {
		if marshaler, ok := v.Interface().(json.Marshaler); ok {
			return roundTrip(marshaler)
		}
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		return serializeValue(v.Elem())
	}

	switch v.Kind() {
	case reflect.Struct:
		return Properties(v.Interface())

	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := serializeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = elem
		}
		return result, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			val, err := serializeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			result[iter.Key().String()] = val
		}
		return result, nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		return roundTrip(v.Interface())
	}
}

// Value converts a single property value, such as an intrinsic function or
// an attribute reference, into generic JSON values.
func Value(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return roundTrip(v)
}

// roundTrip marshals v and decodes it back into generic JSON values.
func roundTrip(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// sortTags orders a serialized tag list by its Key entries.
func sortTags(v any) {
	tags, ok := v.([]any)
	if !ok {
		return
	}
	key := func(i int) string {
		m, _ := tags[i].(map[string]any)
		s, _ := m["Key"].(string)
		return s
	}
	sort.SliceStable(tags, func(i, j int) bool { return key(i) < key(j) })
}
