package vm

import (
	"math"
	"strings"

	"kiln/internal/ast"
	"kiln/internal/source"
)

// Binary applies an arithmetic or comparison operator. Operands of mixed
// numeric kinds are widened to float, which only happens for run-time lookups.
func (vm *VM) Binary(span source.Span, op ast.ExprBinaryOp, l, r Value) (Value, error) {
	switch {
	case l.Kind == VKInt && r.Kind == VKInt:
		return vm.intBinary(span, op, l.I, r.I)
	case isNumeric(l) && isNumeric(r):
		return vm.floatBinary(span, op, asFloat(l), asFloat(r))
	case l.Kind == VKString && r.Kind == VKString:
		if op == ast.BinAdd {
			return StringValue(l.S + r.S), nil
		}
		if op.IsComparison() {
			return BoolValue(compareResult(op, strings.Compare(l.S, r.S))), nil
		}
	case l.Kind == VKBool && r.Kind == VKBool:
		switch op {
		case ast.BinEq:
			return BoolValue(l.B == r.B), nil
		case ast.BinNe:
			return BoolValue(l.B != r.B), nil
		}
	}
	return Value{}, vm.Panic(PanicTypeMismatch, span, "invalid operands to '%s' (%s and %s)", op, l.Kind, r.Kind)
}

func (vm *VM) intBinary(span source.Span, op ast.ExprBinaryOp, a, b int64) (Value, error) {
	switch op {
	case ast.BinAdd:
		return IntValue(a + b), nil
	case ast.BinSub:
		return IntValue(a - b), nil
	case ast.BinMul:
		return IntValue(a * b), nil
	case ast.BinDiv, ast.BinMod:
		if b == 0 {
			return Value{}, vm.Panic(PanicDivisionByZero, span, "integer division by zero")
		}
		if op == ast.BinDiv {
			return IntValue(a / b), nil
		}
		return IntValue(a % b), nil
	}
	if op.IsComparison() {
		c := 0
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
		return BoolValue(compareResult(op, c)), nil
	}
	return Value{}, vm.Panic(PanicUnimplemented, span, "operator '%s' on int", op)
}

func (vm *VM) floatBinary(span source.Span, op ast.ExprBinaryOp, a, b float64) (Value, error) {
	switch op {
	case ast.BinAdd:
		return FloatValue(a + b), nil
	case ast.BinSub:
		return FloatValue(a - b), nil
	case ast.BinMul:
		return FloatValue(a * b), nil
	case ast.BinDiv:
		return FloatValue(a / b), nil
	case ast.BinLt:
		return BoolValue(a < b), nil
	case ast.BinLe:
		return BoolValue(a <= b), nil
	case ast.BinGt:
		return BoolValue(a > b), nil
	case ast.BinGe:
		return BoolValue(a >= b), nil
	case ast.BinEq:
		return BoolValue(a == b), nil
	case ast.BinNe:
		return BoolValue(a != b), nil
	}
	return Value{}, vm.Panic(PanicTypeMismatch, span, "operator '%s' is not defined on float", op)
}

func compareResult(op ast.ExprBinaryOp, c int) bool {
	switch op {
	case ast.BinLt:
		return c < 0
	case ast.BinLe:
		return c <= 0
	case ast.BinGt:
		return c > 0
	case ast.BinGe:
		return c >= 0
	case ast.BinEq:
		return c == 0
	default:
		return c != 0
	}
}

func isNumeric(v Value) bool {
	return v.Kind == VKInt || v.Kind == VKFloat
}

func asFloat(v Value) float64 {
	if v.Kind == VKInt {
		return float64(v.I)
	}
	return v.F
}

// Unary applies - or !.
func (vm *VM) Unary(span source.Span, op ast.ExprUnaryOp, v Value) (Value, error) {
	switch {
	case op == ast.UnaryNeg && v.Kind == VKInt:
		return IntValue(-v.I), nil
	case op == ast.UnaryNeg && v.Kind == VKFloat:
		return FloatValue(-v.F), nil
	case op == ast.UnaryNot && v.Kind == VKBool:
		return BoolValue(!v.B), nil
	}
	return Value{}, vm.Panic(PanicTypeMismatch, span, "invalid operand of type %s for unary '%s'", v.Kind, op)
}

// Convert applies an implicit conversion to kind to.
func (vm *VM) Convert(span source.Span, v Value, to ValueKind) (Value, error) {
	switch {
	case v.Kind == to:
		return v, nil
	case v.Kind == VKInt && to == VKFloat:
		return FloatValue(float64(v.I)), nil
	case v.Kind == VKFloat && to == VKInt:
		t := math.Trunc(v.F)
		if math.IsNaN(t) || t < math.MinInt64 || t >= math.MaxInt64 {
			return Value{}, vm.Panic(PanicIntOverflow, span, "%s does not fit into int", formatFloat(v.F))
		}
		return IntValue(int64(t)), nil
	}
	return Value{}, vm.Panic(PanicTypeMismatch, span, "cannot use %s value as %s", v.Kind, to)
}

// Truth requires a bool value.
func (vm *VM) Truth(span source.Span, v Value) (bool, error) {
	if v.Kind != VKBool {
		return false, vm.Panic(PanicTypeMismatch, span, "condition must be bool, got %s", v.Kind)
	}
	return v.B, nil
}
