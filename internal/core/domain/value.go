package domain

import (
	"bytes"
	"strconv"
)

type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "null"
	}
}

// Field is one member of an object, kept in document order so scans and
// re-encoding are deterministic.
type Field struct {
	Key   string
	Value Value
}

// Value is a tagged variant over structured request input (parsed body,
// query string, path parameters). Only the member matching Kind is set, except
// numbers which may also keep their literal in Str.
type Value struct {
	Str    string
	Fields []Field
	Items  []Value
	Num    float64
	Kind   ValueKind
	Bool   bool
}

func Null() Value { return Value{Kind: KindNull} }
func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func Array(items ...Value) Value { return Value{Kind: KindArray, Items: items} }

// NumberLiteral keeps the source text so re-encoding does not lose precision
func NumberLiteral(raw string, n float64) Value {
	return Value{Kind: KindNumber, Num: n, Str: raw}
}

func Object(fields ...Field) Value {
	return Value{Kind: KindObject, Fields: fields}
}

func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	for _, f := range v.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// IsEmpty reports whether the value carries nothing worth scanning
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindObject:
		return len(v.Fields) == 0
	case KindArray:
		return len(v.Items) == 0
	}
	return false
}

// Walk visits every string leaf depth first in document order. fn receives a
// dotted path (body.user.tags[1]) and the leaf; returning false stops the walk
// and Walk reports false.
func (v Value) Walk(fn func(path, s string) bool) bool {
	return v.walk("", fn)
}

func (v Value) walk(path string, fn func(path, s string) bool) bool {
	switch v.Kind {
	case KindString:
		return fn(path, v.Str)
	case KindObject:
		for _, f := range v.Fields {
			if !f.Value.walk(joinPath(path, f.Key), fn) {
				return false
			}
		}
	case KindArray:
		for i, item := range v.Items {
			if !item.walk(path+"["+strconv.Itoa(i)+"]", fn) {
				return false
			}
		}
	}
	return true
}

// MapStrings returns a copy of the tree with fn applied to every string leaf.
func (v Value) MapStrings(fn func(string) string) Value {
	switch v.Kind {
	case KindString:
		return String(fn(v.Str))
	case KindObject:
		fields := make([]Field, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = Field{Key: f.Key, Value: f.Value.MapStrings(fn)}
		}
		return Object(fields...)
	case KindArray:
		items := make([]Value, len(v.Items))
		for i, item := range v.Items {
			items[i] = item.MapStrings(fn)
		}
		return Array(items...)
	}
	return v
}

// MarshalJSON encodes the tree with object members in their original order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.Kind {
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case KindNumber:
		if v.Str != "" {
			buf.WriteString(v.Str)
			return nil
		}
		b, err := json.Marshal(v.Num)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindObject:
		buf.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		buf.WriteString("null")
	}
	return nil
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
