// Package vm executes lowered kiln script: closures produced by codegen
// over a table of globals and named functions.
package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"kiln/internal/ast"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	// VKInvalid represents an invalid value.
	VKInvalid ValueKind = iota
	// VKNothing is the result of a void call.
	VKNothing
	VKInt
	VKFloat
	VKBool
	VKString
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case VKNothing:
		return "void"
	case VKInt:
		return "int"
	case VKFloat:
		return "float"
	case VKBool:
		return "bool"
	case VKString:
		return "string"
	default:
		return "invalid"
	}
}

// KindOf maps a static type onto the runtime kind it produces.
func KindOf(t ast.Type) ValueKind {
	switch t {
	case ast.TypeVoid:
		return VKNothing
	case ast.TypeInt:
		return VKInt
	case ast.TypeFloat:
		return VKFloat
	case ast.TypeBool:
		return VKBool
	case ast.TypeString:
		return VKString
	default:
		return VKInvalid
	}
}

// Value is a runtime value.
type Value struct {
	Kind ValueKind
	I    int64
	F    float64
	B    bool
	S    string
}

func IntValue(v int64) Value     { return Value{Kind: VKInt, I: v} }
func FloatValue(v float64) Value { return Value{Kind: VKFloat, F: v} }
func BoolValue(v bool) Value     { return Value{Kind: VKBool, B: v} }
func StringValue(v string) Value { return Value{Kind: VKString, S: v} }
func Nothing() Value             { return Value{Kind: VKNothing} }

// Zero returns the zero value of kind k.
func Zero(k ValueKind) Value {
	return Value{Kind: k}
}

// Display renders v the way print shows it.
func (v Value) Display() string {
	switch v.Kind {
	case VKInt:
		return strconv.FormatInt(v.I, 10)
	case VKFloat:
		return formatFloat(v.F)
	case VKBool:
		return strconv.FormatBool(v.B)
	case VKString:
		return v.S
	case VKNothing:
		return "void"
	default:
		return "<invalid>"
	}
}

// Repr renders v as the REPL echoes it: (int) 5, (string) "hi".
func (v Value) Repr() string {
	body := v.Display()
	if v.Kind == VKString {
		body = strconv.Quote(v.S)
	}
	return fmt.Sprintf("(%s) %s", v.Kind, body)
}

func (v Value) String() string {
	return v.Repr()
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// целые числа всё равно показываем как float
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
