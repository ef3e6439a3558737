package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is an opaque JSON tree. The zero Value is JSON null.
//
// The underlying representation is one of map[string]any, []any, string,
// json.Number, bool or nil, exactly as produced by a json.Decoder with
// UseNumber enabled.
type Value struct {
	v any
}

var ErrEmptyPayload = errors.New("payload is empty")

// Parse decodes a single JSON document. Numbers are kept as json.Number so
// long numeric identifiers (phone numbers sent as numbers) are not rounded.
func Parse(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, ErrEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errors.New("payload contains trailing data")
	}
	return Value{v: v}, nil
}

// From wraps an already decoded Go value. Numbers of any Go numeric type are
// accepted; they are reported as KindNumber.
func From(v any) Value {
	return Value{v: v}
}

func (v Value) Kind() Kind {
	switch v.v.(type) {
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	case string:
		return KindString
	case json.Number, float64, float32, int, int64, int32, uint, uint64, uint32:
		return KindNumber
	case bool:
		return KindBool
	default:
		return KindNull
	}
}

func (v Value) IsNull() bool {
	return v.Kind() == KindNull
}

// IsEmpty reports whether the value carries no data: null, an empty object,
// an empty array or a blank string.
func (v Value) IsEmpty() bool {
	switch t := v.v.(type) {
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case string:
		return strings.TrimSpace(t) == ""
	case nil:
		return true
	}
	return v.Kind() == KindNull
}

// Interface returns the underlying Go value.
func (v Value) Interface() any {
	return v.v
}

// Field returns the member of an object value.
func (v Value) Field(key string) (Value, bool) {
	obj, ok := v.v.(map[string]any)
	if !ok {
		return Value{}, false
	}
	child, ok := obj[key]
	if !ok {
		return Value{}, false
	}
	return Value{v: child}, true
}

// Keys returns the sorted member names of an object value.
func (v Value) Keys() []string {
	obj, ok := v.v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
