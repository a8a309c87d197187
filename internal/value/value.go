// Package value implements the typed values exchanged with a configuration
// store: booleans, signed and unsigned integers, and strings.
package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidText is returned when text cannot be parsed as the requested kind.
var ErrInvalidText = errors.New("invalid value text")

// uintTag is the type annotation gsettings prints in front of unsigned values.
const uintTag = "uint32 "

// deriveSuffix is appended to strings by Derive.
const deriveSuffix = "x"

// Value is a tagged union. Only the payload field matching kind is meaningful.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	s    string
}

func OfBool(b bool) Value     { return Value{kind: Bool, b: b} }
func OfInt(i int64) Value     { return Value{kind: Int, i: i} }
func OfUint(u uint64) Value   { return Value{kind: Uint, u: u} }
func OfString(s string) Value { return Value{kind: String, s: s} }

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsValid() bool     { return v.kind != Invalid }
func (v Value) BoolVal() bool     { return v.b }
func (v Value) IntVal() int64     { return v.i }
func (v Value) UintVal() uint64   { return v.u }
func (v Value) StringVal() string { return v.s }

// Equal reports whether a and b have the same kind and payload.
// Values of different kinds are never equal, and invalid values equal nothing.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Bool:
		return a.b == b.b
	case Int:
		return a.i == b.i
	case Uint:
		return a.u == b.u
	case String:
		return a.s == b.s
	default:
		return false
	}
}

// Equal is the method form of the package-level Equal.
func (v Value) Equal(other Value) bool {
	return Equal(v, other)
}

// FromText parses text as a value of kind k. Unsigned text may carry the
// "uint32 " type tag emitted by gsettings.
func FromText(k Kind, text string) (Value, error) {
	switch k {
	case Bool:
		switch text {
		case "true":
			return OfBool(true), nil
		case "false":
			return OfBool(false), nil
		}
		return Value{}, fmt.Errorf("%w: %q is not a boolean", ErrInvalidText, text)
	case Int:
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a signed integer: %v", ErrInvalidText, text, err)
		}
		return OfInt(i), nil
	case Uint:
		digits := strings.TrimSpace(strings.TrimPrefix(text, uintTag))
		digits = strings.TrimPrefix(digits, "+")
		u, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an unsigned integer: %v", ErrInvalidText, text, err)
		}
		return OfUint(u), nil
	case String:
		return OfString(text), nil
	default:
		return Value{}, fmt.Errorf("%w: cannot parse kind %s", ErrInvalidText, k)
	}
}

// Text returns the canonical text form of v. Booleans render as the literals
// true and false.
func (v Value) Text() string {
	switch v.kind {
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Uint:
		return strconv.FormatUint(v.u, 10)
	case String:
		return v.s
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.kind == String {
		return strconv.Quote(v.s)
	}
	if v.kind == Invalid {
		return "<invalid>"
	}
	return v.Text()
}

// Derive returns a value of the same kind that is guaranteed to differ from v.
// Integers move toward zero by one, or up by one from zero.
func Derive(v Value) Value {
	switch v.kind {
	case Bool:
		return OfBool(!v.b)
	case Int:
		if v.i > 0 {
			return OfInt(v.i - 1)
		}
		return OfInt(v.i + 1)
	case Uint:
		if v.u > 0 {
			return OfUint(v.u - 1)
		}
		return OfUint(v.u + 1)
	case String:
		return OfString(v.s + deriveSuffix)
	default:
		return v
	}
}
