// Package value defines the runtime value model shared by the compiler and
// the machine: the tagged Value interface, its heap object variants (String,
// Function, Table), and the Chunk that a compiled Function carries.
package value

import "fmt"

// Type identifies the dynamic type tag of a Value, mirroring the Que_Type
// enum of the reference implementation.
type Type int8

const (
	NIL Type = iota
	CHAR
	BOOL
	INT
	FLOAT
	STRING
	TABLE
	FUNCTION
	CFUNCTION
)

func (t Type) String() string {
	switch t {
	case NIL:
		return "nil"
	case CHAR:
		return "char"
	case BOOL:
		return "bool"
	case INT:
		return "int"
	case FLOAT:
		return "float"
	case STRING:
		return "string"
	case TABLE:
		return "table"
	case FUNCTION:
		return "function"
	case CFUNCTION:
		return "cfunction"
	default:
		return "unknown"
	}
}

// Value is the interface implemented by every value the machine and compiler
// manipulate. Non-reference values (Nil, Bool, Int, Float, Char) are plain Go
// types with value semantics; reference values (*String, *Table, *Function,
// *CFunction) are heap objects passed by pointer, matching the spec's
// "payload is a reference; reference payloads do not deep-copy" rule.
type Value interface {
	// Type returns the dynamic type tag of the value.
	Type() Type
	// String returns the value's displayable form, used by io.print and
	// diagnostic messages.
	String() string
}

// Nil is the sole value of the NIL type.
type Nil struct{}

func (Nil) Type() Type     { return NIL }
func (Nil) String() string { return "nil" }

// Char wraps a single byte, per spec's byte-sized character payload.
type Char byte

func (Char) Type() Type       { return CHAR }
func (c Char) String() string { return string([]byte{byte(c)}) }

// Bool wraps a boolean.
type Bool bool

func (Bool) Type() Type { return BOOL }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int wraps a fixed 64-bit signed integer. The reference's Que_Int is a
// platform `long int`; this port fixes it at 64 bits so results are portable
// (see DESIGN.md).
type Int int64

func (Int) Type() Type       { return INT }
func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }

// Float wraps a 64-bit IEEE-754 float.
type Float float64

func (Float) Type() Type       { return FLOAT }
func (f Float) String() string { return fmt.Sprintf("%g", float64(f)) }

// Truth reports the truthiness of v per spec §4.3: NIL is false, BOOL is its
// own value, INT/FLOAT are true iff nonzero, everything else is true.
func Truth(v Value) bool {
	switch x := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	default:
		return true
	}
}

// IsArithmetic reports whether v is an INT or FLOAT, the two types the
// arithmetic and comparison opcodes promote between (the bitwise opcodes
// accept INT only).
func IsArithmetic(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	default:
		return false
	}
}
