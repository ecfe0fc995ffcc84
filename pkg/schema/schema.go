// Package schema derives the wire schema for a resource type from its Go
// struct definition. The schema is computed once when a handler is
// registered and never changes for the life of the process.
package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Version is the schema version tag carried in every derived schema.
const Version = 1

// Wire type tags. Protocol v1 collapses all numeric kinds into "number" and
// has no optional-property representation: every property is required.
const (
	TypeString = "string"
	TypeNumber = "number"
	TypeBool   = "boolean"
	TypeList   = "list"
	TypeMap    = "map"
	TypeAny    = "any"
)

// Property describes one attribute of a resource type.
type Property struct {
	// Name is the wire name of the attribute, following the payload codec's
	// key rules (cbor tag, then json tag, then the Go field name).
	Name string `json:"name" yaml:"name"`

	// Type is the wire type tag, or the name of a nested structured type.
	Type string `json:"type" yaml:"type"`

	// Required is always true in protocol v1.
	Required bool `json:"required" yaml:"required"`

	// Computed marks attributes assigned by the resource backend rather
	// than supplied by the caller.
	Computed bool `json:"computed" yaml:"computed"`
}

// Schema is the ordered property set of one resource type.
type Schema struct {
	// Version is the schema version tag.
	Version int `json:"version" yaml:"version"`

	// Properties lists the attributes in struct declaration order.
	Properties []Property `json:"properties" yaml:"properties"`
}

// Derive builds the schema for a resource struct type. Only a non-struct
// type is an error: that means the handler was registered with a type the
// protocol cannot describe, which is a configuration fault the provider
// must not start with. Individual property types that have no wire
// representation fall back to "any" so schema derivation itself never
// fails a provider's boot.
func Derive(t reflect.Type) (Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Schema{}, fmt.Errorf("resource type %s is not a struct", t)
	}

	s := Schema{Version: Version}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, skip := fieldName(field)
		if skip {
			continue
		}
		s.Properties = append(s.Properties, Property{
			Name:     name,
			Type:     typeTag(field.Type),
			Required: true,
			Computed: isComputed(field),
		})
	}
	return s, nil
}

// fieldName resolves the wire name of a struct field, honoring cbor and
// json tags the same way the payload codec does.
func fieldName(field reflect.StructField) (name string, skip bool) {
	for _, key := range []string{"cbor", "json"} {
		tag, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		value, _, _ := strings.Cut(tag, ",")
		if value == "-" {
			return "", true
		}
		if value != "" {
			return value, false
		}
	}
	return field.Name, false
}

// isComputed reports whether the field carries the computed marker in its
// kite struct tag.
func isComputed(field reflect.StructField) bool {
	for _, opt := range strings.Split(field.Tag.Get("kite"), ",") {
		if strings.TrimSpace(opt) == "computed" {
			return true
		}
	}
	return false
}

// typeTag maps a Go type onto the closed set of wire type tags. Named
// struct types surface under their own name so nested schemas stay
// addressable; anything unrecognized degrades to "any".
func typeTag(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Bool:
		return TypeBool
	case reflect.Slice, reflect.Array:
		return TypeList
	case reflect.Map:
		return TypeMap
	case reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return TypeMap
	default:
		return TypeAny
	}
}
