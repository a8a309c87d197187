package value

import (
	"fmt"
	"strings"
)

// Kind is the discriminant of a Value.
type Kind int

const (
	Invalid Kind = iota
	Bool
	Int
	Uint
	String
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "boolean"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case String:
		return "string"
	default:
		return "invalid"
	}
}

// GVariantType returns the single-character GVariant type string for k.
func (k Kind) GVariantType() string {
	switch k {
	case Bool:
		return "b"
	case Int:
		return "i"
	case Uint:
		return "u"
	case String:
		return "s"
	default:
		return ""
	}
}

// ParseKind accepts the names printed by Kind.String as well as GVariant type strings.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boolean", "bool", "b":
		return Bool, nil
	case "int", "i":
		return Int, nil
	case "uint", "u":
		return Uint, nil
	case "string", "s":
		return String, nil
	}
	return Invalid, fmt.Errorf("unknown kind %q", s)
}

// UnmarshalText lets a Kind be read directly from YAML or flags.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
