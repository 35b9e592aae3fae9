// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package compare

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// Null is the JSON null, also used for absent values.
	Null Kind = iota
	// Bool is true or false.
	Bool
	// Number is any JSON number. The literal text is kept.
	Number
	// String is a JSON string.
	String
	// Sequence is a JSON array.
	Sequence
	// Mapping is a JSON object.
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a semi-structured value read off the wire. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents, or the literal text of a number
	seq  []Value
	keys []string // mapping keys in document order
	m    map[string]Value
}

// MakeNull returns the Null value.
func MakeNull() Value { return Value{} }

// MakeBool wraps a bool.
func MakeBool(b bool) Value { return Value{kind: Bool, b: b} }

// MakeString wraps a string.
func MakeString(s string) Value { return Value{kind: String, s: s} }

// MakeNumber wraps the literal text of a number. It is not validated here;
// Parse only produces well-formed literals.
func MakeNumber(literal string) Value { return Value{kind: Number, s: literal} }

// MakeUint wraps an unsigned integer.
func MakeUint(u uint64) Value { return MakeNumber(strconv.FormatUint(u, 10)) }

// MakeSequence wraps a list of values.
func MakeSequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: Sequence, seq: items}
}

// Field is one key/value pair of a mapping.
type Field struct {
	Key   string
	Value Value
}

// MakeMapping builds a mapping, keeping the order of fields. A repeated key
// keeps the last value and its first position.
func MakeMapping(fields ...Field) Value {
	v := Value{kind: Mapping, m: make(map[string]Value, len(fields))}
	for _, f := range fields {
		if _, ok := v.m[f.Key]; !ok {
			v.keys = append(v.keys, f.Key)
		}
		v.m[f.Key] = f.Value
	}
	return v
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == Null }

// Bool returns the boolean held by v and whether v is a Bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == Bool }

// Str returns the string held by v and whether v is a String.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// NumberLiteral returns the literal text of a Number.
func (v Value) NumberLiteral() (string, bool) {
	if v.kind != Number {
		return "", false
	}
	return v.s, true
}

// Rat returns the exact numeric value of a Number.
func (v Value) Rat() (*big.Rat, bool) {
	if v.kind != Number {
		return nil, false
	}
	return new(big.Rat).SetString(v.s)
}

// Uint returns a Number as an unsigned integer if it is one.
func (v Value) Uint() (uint64, bool) {
	r, ok := v.Rat()
	if !ok || !r.IsInt() || r.Sign() < 0 {
		return 0, false
	}
	n := r.Num()
	if !n.IsUint64() {
		return 0, false
	}
	return n.Uint64(), true
}

// Items returns the elements of a Sequence.
func (v Value) Items() ([]Value, bool) { return v.seq, v.kind == Sequence }

// Keys returns the keys of a Mapping in document order.
func (v Value) Keys() []string { return v.keys }

// Get looks up key in a Mapping. Absent keys and non-mappings yield Null, false.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Mapping {
		return Value{}, false
	}
	f, ok := v.m[key]
	return f, ok
}

// Len is the number of elements of a Sequence or Mapping, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case Sequence:
		return len(v.seq)
	case Mapping:
		return len(v.keys)
	}
	return 0
}

// IsEmpty reports whether v is falsy: null, false, zero, a blank string, or
// an empty sequence or mapping.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case Null:
		return true
	case Bool:
		return !v.b
	case Number:
		r, ok := v.Rat()
		return ok && r.Sign() == 0
	case String:
		return v.s == ""
	case Sequence, Mapping:
		return v.Len() == 0
	}
	return false
}

// String renders v as compact JSON-like text for log messages.
func (v Value) String() string {
	var sb strings.Builder
	v.render(&sb)
	return sb.String()
}

func (v Value) render(sb *strings.Builder) {
	switch v.kind {
	case Null:
		sb.WriteString("null")
	case Bool:
		sb.WriteString(strconv.FormatBool(v.b))
	case Number:
		sb.WriteString(v.s)
	case String:
		sb.WriteString(strconv.Quote(v.s))
	case Sequence:
		sb.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.render(sb)
		}
		sb.WriteByte(']')
	case Mapping:
		sb.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			v.m[k].render(sb)
		}
		sb.WriteByte('}')
	}
}

// Parse decodes a JSON document into a Value.
func Parse(data []byte) (Value, error) {
	var p fastjson.Parser
	jv, err := p.ParseBytes(data)
	if err != nil {
		return Value{}, fmt.Errorf("compare: parse: %w", err)
	}
	return fromJSON(jv)
}

func fromJSON(jv *fastjson.Value) (Value, error) {
	switch jv.Type() {
	case fastjson.TypeNull:
		return MakeNull(), nil
	case fastjson.TypeTrue:
		return MakeBool(true), nil
	case fastjson.TypeFalse:
		return MakeBool(false), nil
	case fastjson.TypeNumber:
		// String() on a number yields its literal text
		return MakeNumber(jv.String()), nil
	case fastjson.TypeString:
		sb, err := jv.StringBytes()
		if err != nil {
			return Value{}, err
		}
		return MakeString(string(sb)), nil
	case fastjson.TypeArray:
		arr, err := jv.Array()
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, len(arr))
		for _, item := range arr {
			v, err := fromJSON(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return MakeSequence(items...), nil
	case fastjson.TypeObject:
		obj, err := jv.Object()
		if err != nil {
			return Value{}, err
		}
		fields := make([]Field, 0, obj.Len())
		var visitErr error
		obj.Visit(func(key []byte, item *fastjson.Value) {
			if visitErr != nil {
				return
			}
			v, err := fromJSON(item)
			if err != nil {
				visitErr = err
				return
			}
			fields = append(fields, Field{Key: string(key), Value: v})
		})
		if visitErr != nil {
			return Value{}, visitErr
		}
		return MakeMapping(fields...), nil
	}
	return Value{}, fmt.Errorf("compare: unexpected json type %s", jv.Type())
}
