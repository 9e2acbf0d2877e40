// Package types provides the runtime representation of Lotus values: the
// value kinds themselves, the heap objects and their intrusive allocation
// list, the chunk of bytecode owned by every function, the open-addressed
// hashtable keyed by interned strings, and the mark-and-sweep garbage
// collector that reclaims all of it.
package types

import "strconv"

// Value is the interface implemented by any value manipulated by the
// machine. The concrete kinds are NilType, Bool, Float and the heap object
// kinds (see Obj). Code that needs per-kind behavior switches exhaustively
// on the concrete type.
type Value interface {
	// String returns the canonical textual form of the value, as produced
	// by the print statement.
	String() string

	// Type returns a short string describing the value's type.
	Type() string
}

// NilType is the type of the single nil value.
type NilType struct{}

// Nil is the nil value.
var Nil = NilType{}

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }

// Bool is a boolean value.
type Bool bool

//nolint:revive
const (
	True  Bool = true
	False Bool = false
)

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Type() string { return "bool" }

// Float is a number value, a 64-bit IEEE-754 double.
type Float float64

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) Type() string   { return "number" }

// Truth returns the truthiness of v: nil, false and the number 0 are
// falsey, every other value is truthy.
func Truth(v Value) bool {
	switch v := v.(type) {
	case NilType:
		return false
	case Bool:
		return bool(v)
	case Float:
		return v != 0
	default:
		return true
	}
}

// Equal reports whether x and y are equal. Values of different kinds are
// never equal, numbers compare by float equality (NaN is not equal to
// itself), and objects compare by identity, which is sound for strings
// because they are interned.
func Equal(x, y Value) bool {
	switch x := x.(type) {
	case NilType:
		_, ok := y.(NilType)
		return ok
	case Bool:
		yb, ok := y.(Bool)
		return ok && x == yb
	case Float:
		yf, ok := y.(Float)
		return ok && x == yf
	case Obj:
		yo, ok := y.(Obj)
		return ok && x == yo
	default:
		return false
	}
}
