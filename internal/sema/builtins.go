package sema

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
)

// Builtin identifies a function provided by the runtime itself.
type Builtin uint8

const (
	BuiltinNone Builtin = iota
	BuiltinPrint
	BuiltinLen
	BuiltinStr
)

var builtinList = []struct {
	id   Builtin
	name string
}{
	{BuiltinPrint, "print"},
	{BuiltinLen, "len"},
	{BuiltinStr, "str"},
}

// LookupBuiltin maps a name onto a builtin.
func LookupBuiltin(name string) (Builtin, bool) {
	for _, b := range builtinList {
		if b.name == name {
			return b.id, true
		}
	}
	return BuiltinNone, false
}

func (b Builtin) String() string {
	for _, e := range builtinList {
		if e.id == b {
			return e.name
		}
	}
	return "<builtin>"
}

// checkBuiltinCall проверяет аргументы встроенной функции и возвращает тип результата.
func (tc *checker) checkBuiltinCall(call ast.ExprID, builtin Builtin, args []ast.ExprID) ast.Type {
	span := tc.b.Exprs.Get(call).Span
	result := ast.TypeVoid
	switch builtin {
	case BuiltinPrint:
		for _, arg := range args {
			tc.requireValue(arg)
		}
		return ast.TypeVoid
	case BuiltinLen:
		result = ast.TypeInt
	case BuiltinStr:
		result = ast.TypeString
	}
	if len(args) != 1 {
		tc.errorf(span, diag.SemaArgCount, "%s expects 1 argument, got %d", builtin, len(args))
		for _, arg := range args {
			tc.expr(arg)
		}
		return result
	}
	t := tc.requireValue(args[0])
	if builtin == BuiltinLen && t != ast.TypeString && t != ast.TypeDynamic && t != ast.TypeInvalid {
		tc.errorf(tc.b.Exprs.Get(args[0]).Span, diag.SemaTypeMismatch, "len expects string, got %s", t)
	}
	return result
}
