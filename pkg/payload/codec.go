// Package payload encodes resource state for transport between the Kite
// engine and a provider. State travels as a single self-describing CBOR
// blob; an empty blob is the canonical "absent" value in both directions,
// so a resource that does not exist round-trips as zero bytes rather than
// as an empty map.
package payload

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the shared canonical encoder. Canonical map-key ordering keeps
// encodings of equal values byte-identical, which the engine relies on for
// state comparison.
var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("payload: building CBOR encode mode: %v", err))
	}
	return em
}()

// EncodeError reports a failure to serialize a value of a specific resource
// type. The dispatcher converts it into an error diagnostic rather than a
// transport fault.
type EncodeError struct {
	// Type is the Go type name of the value that failed to encode.
	Type string

	// Err is the underlying serialization error.
	Err error
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s payload: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports a failure to deserialize a payload blob into a value
// of a specific resource type.
type DecodeError struct {
	// Type is the Go type name of the decode target.
	Type string

	// Err is the underlying deserialization error.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding payload into %s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// Encode serializes v into a payload blob. A nil value (untyped nil or a
// typed nil pointer) encodes to an empty blob, the absence sentinel.
func Encode(v any) ([]byte, error) {
	if isNil(v) {
		return nil, nil
	}
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, &EncodeError{Type: typeName(v), Err: err}
	}
	return data, nil
}

// Decode deserializes a payload blob into target, which must be a non-nil
// pointer. It returns false without touching target when the blob is empty:
// absence decodes to absence, never to a zero value.
func Decode(data []byte, target any) (bool, error) {
	if len(data) == 0 {
		return false, nil
	}
	if err := cbor.Unmarshal(data, target); err != nil {
		return false, &DecodeError{Type: typeName(target), Err: err}
	}
	return true, nil
}

// isNil reports whether v is untyped nil or a nil pointer, map, or slice.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// typeName returns a readable name for v's type, unwrapping one level of
// pointer so decode targets report the element type.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
