// value.go: the runtime value model.
//
// Value is a tagged union over every variant the language recognizes. The
// tag determines which Go type Data holds:
//
//	VTNil          nil
//	VTBool         bool
//	VTInt          int64
//	VTFloat        float64
//	VTStr          string
//	VTSymbol       string (distinct tag: symbols resolve through the environment)
//	VTList         List   (handle into the runtime's list pool)
//	VTVector       *Vector
//	VTMap          Map    (handle into the runtime's map pool)
//	VTNumberArray  *NumberArray
//	VTFunc         PrimitiveFn
//	VTObject       *Object
//
// Values are cheap to copy: composites are held by handle or pointer.
// Equality and hashing follow the contracts in valueEqual / hashValue;
// hashing is total, and equal values hash equal for every variant a program
// can compare.
package orb

import (
	"hash/fnv"
	"math"
)

type ValueTag int

const (
	VTNil ValueTag = iota
	VTBool
	VTInt
	VTFloat
	VTStr
	VTSymbol
	VTList
	VTVector
	VTMap
	VTNumberArray
	VTFunc
	VTObject
)

func (t ValueTag) String() string {
	switch t {
	case VTNil:
		return "nil"
	case VTBool:
		return "boolean"
	case VTInt:
		return "int"
	case VTFloat:
		return "float"
	case VTStr:
		return "string"
	case VTSymbol:
		return "symbol"
	case VTList:
		return "list"
	case VTVector:
		return "vector"
	case VTMap:
		return "map"
	case VTNumberArray:
		return "number-array"
	case VTFunc:
		return "function"
	case VTObject:
		return "object"
	default:
		return "unknown"
	}
}

type Value struct {
	Tag  ValueTag
	Data any
}

// Nil is the unique empty value.
var Nil = Value{Tag: VTNil}

// List is defined in terms of the generic pool; see listpool.go.
type List = list[Value]

// Vector is an ordered sequence. New versions copy on construction; the
// element storage of a published vector is never mutated.
type Vector struct {
	elems []Value
}

func (v *Vector) Len() int       { return len(v.elems) }
func (v *Vector) At(i int) Value { return v.elems[i] }
func (v *Vector) Elems() []Value { return v.elems }

// NumberArray is a homogeneous numeric sequence: exactly one of Ints or
// Floats is populated.
type NumberArray struct {
	Ints   []int64
	Floats []float64
}

func (a *NumberArray) Len() int {
	if a.Ints != nil {
		return len(a.Ints)
	}
	return len(a.Floats)
}

func (a *NumberArray) At(i int) Value {
	if a.Ints != nil {
		return Int(a.Ints[i])
	}
	return Float(a.Floats[i])
}

// PrimitiveFn is the primitive-procedure signature: built-ins are called
// with the runtime, the evaluated argument vector, and the call-site
// environment.
type PrimitiveFn func(rt *Runtime, args []Value, env *Env) (Value, error)

// --- factories ------------------------------------------------------------

func Bool(b bool) Value      { return Value{Tag: VTBool, Data: b} }
func Int(n int64) Value      { return Value{Tag: VTInt, Data: n} }
func Float(f float64) Value  { return Value{Tag: VTFloat, Data: f} }
func Str(s string) Value     { return Value{Tag: VTStr, Data: s} }
func Sym(s string) Value     { return Value{Tag: VTSymbol, Data: s} }
func ListVal(l List) Value   { return Value{Tag: VTList, Data: l} }
func MapVal(m Map) Value     { return Value{Tag: VTMap, Data: m} }
func Fn(f PrimitiveFn) Value { return Value{Tag: VTFunc, Data: f} }
func Obj(o *Object) Value    { return Value{Tag: VTObject, Data: o} }

func Vec(elems ...Value) Value {
	return Value{Tag: VTVector, Data: &Vector{elems: elems}}
}

func VecFromSlice(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{Tag: VTVector, Data: &Vector{elems: cp}}
}

// VecConsFront builds a new vector with v in front of vec.
func VecConsFront(v Value, vec *Vector) Value {
	out := make([]Value, 0, len(vec.elems)+1)
	out = append(out, v)
	out = append(out, vec.elems...)
	return Value{Tag: VTVector, Data: &Vector{elems: out}}
}

// VecConsBack builds a new vector with v appended to vec.
func VecConsBack(vec *Vector, v Value) Value {
	out := make([]Value, 0, len(vec.elems)+1)
	out = append(out, vec.elems...)
	out = append(out, v)
	return Value{Tag: VTVector, Data: &Vector{elems: out}}
}

func NumArrInts(xs []int64) Value {
	cp := make([]int64, len(xs))
	copy(cp, xs)
	return Value{Tag: VTNumberArray, Data: &NumberArray{Ints: cp}}
}

func NumArrFloats(xs []float64) Value {
	cp := make([]float64, len(xs))
	copy(cp, xs)
	return Value{Tag: VTNumberArray, Data: &NumberArray{Floats: cp}}
}

// --- predicates used across the evaluator ---------------------------------

func (v Value) IsNil() bool { return v.Tag == VTNil }

// truthy: nil and false are falsy, everything else is truthy.
func truthy(v Value) bool {
	if v.Tag == VTNil {
		return false
	}
	if v.Tag == VTBool {
		return v.Data.(bool)
	}
	return true
}

func (v Value) asList() (List, bool) {
	if v.Tag != VTList {
		return List{}, false
	}
	return v.Data.(List), true
}

func (v Value) asMap() (Map, bool) {
	if v.Tag != VTMap {
		return Map{}, false
	}
	return v.Data.(Map), true
}

func (v Value) symName() (string, bool) {
	if v.Tag != VTSymbol {
		return "", false
	}
	return v.Data.(string), true
}

func isNumber(v Value) bool { return v.Tag == VTInt || v.Tag == VTFloat }

func numAsFloat(v Value) float64 {
	if v.Tag == VTInt {
		return float64(v.Data.(int64))
	}
	return v.Data.(float64)
}

// --- equality --------------------------------------------------------------

// valueEqual implements the value equality contract: same tag required,
// numbers equal only when sub-tag and stored value agree, composites
// elementwise, maps by key coverage both ways. Objects compare by handle
// identity; functions only by nothing (always unequal unless same variant
// and pointer-free — two function values are never equal).
func valueEqual(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNil:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTInt:
		return a.Data.(int64) == b.Data.(int64)
	case VTFloat:
		return a.Data.(float64) == b.Data.(float64)
	case VTStr, VTSymbol:
		return a.Data.(string) == b.Data.(string)
	case VTList:
		return listEquals(a.Data.(List), b.Data.(List), valueEqual)
	case VTVector:
		av, bv := a.Data.(*Vector), b.Data.(*Vector)
		if len(av.elems) != len(bv.elems) {
			return false
		}
		for i := range av.elems {
			if !valueEqual(av.elems[i], bv.elems[i]) {
				return false
			}
		}
		return true
	case VTMap:
		return a.Data.(Map).equalsMap(b.Data.(Map))
	case VTNumberArray:
		an, bn := a.Data.(*NumberArray), b.Data.(*NumberArray)
		if an.Len() != bn.Len() {
			return false
		}
		for i := 0; i < an.Len(); i++ {
			if !valueEqual(an.At(i), bn.At(i)) {
				return false
			}
		}
		return true
	case VTObject:
		return a.Data.(*Object) == b.Data.(*Object)
	default:
		return false
	}
}

// --- hashing ---------------------------------------------------------------

// hashValue folds a value to 32 bits. Total for every variant; equal values
// hash equal. Function and Object hashes are degenerate (tag-only and
// id-string respectively) per contract: neither belongs in a map key.
func hashValue(v Value) uint32 {
	h := fnv.New32a()
	h.Write([]byte{byte(v.Tag)})
	switch v.Tag {
	case VTNil:
	case VTBool:
		if v.Data.(bool) {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case VTInt:
		writeU64(h, uint64(v.Data.(int64)))
	case VTFloat:
		f := v.Data.(float64)
		if f == 0 {
			f = 0 // -0.0 equals 0.0, so both hash as +0.0
		}
		writeU64(h, math.Float64bits(f))
	case VTStr, VTSymbol:
		h.Write([]byte(v.Data.(string)))
	case VTList:
		l := v.Data.(List)
		for n := l.head; n != nil; n = n.next {
			writeU32(h, hashValue(n.data))
		}
	case VTVector:
		for _, e := range v.Data.(*Vector).elems {
			writeU32(h, hashValue(e))
		}
	case VTMap:
		// Commutative fold: iteration order must not affect the hash.
		var acc uint32
		v.Data.(Map).each(func(k, val Value) bool {
			acc += hashValue(k) ^ hashValue(val)
			return true
		})
		writeU32(h, acc)
	case VTNumberArray:
		na := v.Data.(*NumberArray)
		for i := 0; i < na.Len(); i++ {
			writeU32(h, hashValue(na.At(i)))
		}
	case VTObject:
		h.Write([]byte(v.Data.(*Object).ID()))
	case VTFunc:
		// tag only
	}
	return h.Sum32()
}

func writeU64(h interface{ Write([]byte) (int, error) }, x uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(x >> (8 * uint(i)))
	}
	h.Write(buf[:])
}

func writeU32(h interface{ Write([]byte) (int, error) }, x uint32) {
	var buf [4]byte
	for i := 0; i < 4; i++ {
		buf[i] = byte(x >> (8 * uint(i)))
	}
	h.Write(buf[:])
}

// Release drops the root refcount the runtime took for a handle returned to
// an embedder. Safe on any value; non-composites are no-ops.
func (v Value) Release() {
	switch v.Tag {
	case VTList:
		l := v.Data.(List)
		if l.pool != nil {
			l.pool.release(l.head)
		}
	case VTMap:
		m := v.Data.(Map)
		if m.pool != nil {
			m.pool.release(m.root)
		}
	}
}
