// Package pdfobj implements a tolerant, byte-level PDF object parser.
//
// It rebuilds a PDF's indirect-object table from a single linear scan of the
// file, falling back to a cross-reference stream only to pick up objects the
// scan missed; a classical xref table is read only for the trailer that
// follows it. The result is a sum-typed Value
// and a Table mapping (object number, generation) pairs to resolved values.
package pdfobj

import "fmt"

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindName
	KindString
	KindArray
	KindDict
	KindStream
	KindRef
)

// Ref identifies an indirect object by number and generation.
type Ref struct {
	Num uint32
	Gen uint16
}

// Value is a PDF object: a tagged union over the eight object types a PDF
// body can contain plus the indirect reference that points at one.
type Value struct {
	kind Kind

	boolean bool
	number  float32
	name    string
	str     []byte
	arr     []Value
	dict    map[string]Value
	ref     Ref

	// Stream holds the dict above plus the raw (still filter-encoded) bytes.
	streamData []byte
}

// Null is the zero Value and also the sentinel returned for missing keys,
// out-of-range indices, and unresolved references.
var Null = Value{kind: KindNull}

func Bool(b bool) Value    { return Value{kind: KindBool, boolean: b} }
func Number(n float32) Value { return Value{kind: KindNumber, number: n} }
func Name(n string) Value  { return Value{kind: KindName, name: n} }
func String(b []byte) Value { return Value{kind: KindString, str: b} }
func Array(a []Value) Value { return Value{kind: KindArray, arr: a} }
func Dict(d map[string]Value) Value { return Value{kind: KindDict, dict: d} }
func Reference(num uint32, gen uint16) Value {
	return Value{kind: KindRef, ref: Ref{Num: num, Gen: gen}}
}
func Stream(dict map[string]Value, data []byte) Value {
	return Value{kind: KindStream, dict: dict, streamData: data}
}

func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) Bool() bool  { return v.boolean }

// Float64 returns the numeric value, or 0 for non-numbers.
func (v Value) Float64() float64 { return float64(v.number) }

// Int returns the numeric value truncated to int, or 0 for non-numbers.
func (v Value) Int() int { return int(v.number) }

func (v Value) Name() string { return v.name }

// RawString returns the raw bytes of a String value.
func (v Value) RawString() []byte { return v.str }

// Text returns a String or Name value as a Go string; other kinds yield "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return string(v.str)
	case KindName:
		return v.name
	default:
		return ""
	}
}

func (v Value) Array() []Value { return v.arr }
func (v Value) Len() int       { return len(v.arr) }

func (v Value) Index(i int) Value {
	if i < 0 || i >= len(v.arr) {
		return Null
	}
	return v.arr[i]
}

// Dict returns the underlying map for Dictionary and Stream kinds.
func (v Value) Dict() map[string]Value { return v.dict }

// Key looks up a dictionary (or stream-dictionary) entry by name.
// A miss, or a receiver that isn't a dict/stream, yields Null.
func (v Value) Key(name string) Value {
	if v.dict == nil {
		return Null
	}
	if val, ok := v.dict[name]; ok {
		return val
	}
	return Null
}

// Keys lists the dictionary's entry names in no particular order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.dict))
	for k := range v.dict {
		keys = append(keys, k)
	}
	return keys
}

// StreamData returns the raw, still filter-encoded stream bytes.
func (v Value) StreamData() []byte { return v.streamData }

func (v Value) Ref() Ref { return v.ref }

func (r Ref) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }
