package ast

import "kiln/internal/token"

// Type is a builtin kiln script type. The language has no user-defined types.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeVoid
	TypeInt
	TypeFloat
	TypeBool
	TypeString
	// TypeDynamic marks values resolved at run time.
	TypeDynamic
)

func (t Type) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeDynamic:
		return "dynamic"
	default:
		return "<invalid>"
	}
}

// IsNumeric reports whether arithmetic is defined for t.
func (t Type) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// TypeFromToken maps a type keyword onto Type.
func TypeFromToken(k token.Kind) (Type, bool) {
	switch k {
	case token.KwInt:
		return TypeInt, true
	case token.KwFloat:
		return TypeFloat, true
	case token.KwBool:
		return TypeBool, true
	case token.KwString:
		return TypeString, true
	case token.KwVoid:
		return TypeVoid, true
	default:
		return TypeInvalid, false
	}
}
