// Package jsontree provides a generic, weakly-typed JSON value with
// option-style accessors for walking deeply nested positional structures.
//
// The upstream service this module talks to returns trees where arrays mix
// strings, numbers, and nested arrays positionally rather than by field
// name, and where the shape shifts between service revisions. Binding such
// a response to typed structs up front fails on the first divergence, so
// this package parses once into a tagged variant value and lets callers
// probe it: every accessor reports whether the probe matched instead of
// failing, and a probe into a missing or mismatched node yields a value of
// kind Missing that absorbs further probes.
package jsontree

import (
	"encoding/json"
	"fmt"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	Missing Kind = iota // absent node, or a probe that did not match
	Null
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "invalid"
}

// Value is one node of a parsed JSON tree.
// The zero Value has kind Missing.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

// Parse decodes raw JSON bytes into a Value tree.
func Parse(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("parsing json tree: %w", err)
	}
	return fromAny(raw), nil
}

func fromAny(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{kind: Null}
	case bool:
		return Value{kind: Bool, b: v}
	case float64:
		return Value{kind: Number, n: v}
	case string:
		return Value{kind: String, s: v}
	case []any:
		arr := make([]Value, len(v))
		for i, el := range v {
			arr[i] = fromAny(el)
		}
		return Value{kind: Array, arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(v))
		for k, el := range v {
			obj[k] = fromAny(el)
		}
		return Value{kind: Object, obj: obj}
	}
	return Value{}
}

// Kind returns the variant tag of the node.
func (v Value) Kind() Kind { return v.kind }

// Exists reports whether the node is present in the tree (any kind but Missing).
func (v Value) Exists() bool { return v.kind != Missing }

// Len returns the number of elements for arrays, 0 for everything else.
func (v Value) Len() int {
	if v.kind != Array {
		return 0
	}
	return len(v.arr)
}

// Index returns the i-th element of an array node. Probing a non-array, or
// an index out of range, yields a Missing value.
func (v Value) Index(i int) Value {
	if v.kind != Array || i < 0 || i >= len(v.arr) {
		return Value{}
	}
	return v.arr[i]
}

// At walks a path of array indices, degrading to Missing as soon as any
// step does not match.
func (v Value) At(path ...int) Value {
	cur := v
	for _, i := range path {
		cur = cur.Index(i)
	}
	return cur
}

// Key returns the named member of an object node, or Missing.
func (v Value) Key(name string) Value {
	if v.kind != Object {
		return Value{}
	}
	val, ok := v.obj[name]
	if !ok {
		return Value{}
	}
	return val
}

// Str returns the string payload. ok is false unless the node is a String.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// Num returns the numeric payload. ok is false unless the node is a Number.
func (v Value) Num() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	return v.n, true
}

// CoerceStr returns a string view of a String or Number node. Numbers are
// formatted minimally, mirroring how some service revisions emit numeric
// text cells.
func (v Value) CoerceStr() (string, bool) {
	switch v.kind {
	case String:
		return v.s, true
	case Number:
		return trimFloat(v.n), true
	}
	return "", false
}

// CoerceNum returns a numeric view of a Number node or of a String node
// that parses as a number.
func (v Value) CoerceNum() (float64, bool) {
	switch v.kind {
	case Number:
		return v.n, true
	case String:
		var f float64
		if _, err := fmt.Sscanf(v.s, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Floats flattens an array node of numbers into a slice. Non-numeric
// elements are skipped; dropped counts how many were.
func (v Value) Floats() (nums []float64, dropped int) {
	if v.kind != Array {
		return nil, 0
	}
	nums = make([]float64, 0, len(v.arr))
	for _, el := range v.arr {
		if f, ok := el.Num(); ok {
			nums = append(nums, f)
		} else {
			dropped++
		}
	}
	return nums, dropped
}

// Snapshot renders a bounded textual prefix of the tree for diagnostics.
// Output is truncated to at most limit bytes.
func (v Value) Snapshot(limit int) string {
	s := v.render()
	if limit > 0 && len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

func (v Value) render() string {
	switch v.kind {
	case Missing:
		return "<missing>"
	case Null:
		return "null"
	case Bool:
		return fmt.Sprintf("%t", v.b)
	case Number:
		return trimFloat(v.n)
	case String:
		return fmt.Sprintf("%q", v.s)
	case Array:
		out := "["
		for i, el := range v.arr {
			if i > 0 {
				out += ","
			}
			out += el.render()
		}
		return out + "]"
	case Object:
		return fmt.Sprintf("{...%d keys}", len(v.obj))
	}
	return ""
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}
