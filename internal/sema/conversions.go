package sema

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
)

// coerce проверяет выражение и приводит его к типу to, вставляя
// неявное преобразование. Возвращает id, который надо записать в родителя.
func (tc *checker) coerce(id ast.ExprID, to ast.Type) ast.ExprID {
	from := tc.expr(id)
	span := tc.b.Exprs.Get(id).Span
	switch {
	case from == ast.TypeInvalid || from == to:
		return id
	case from == ast.TypeVoid:
		tc.errorf(span, diag.SemaVoidValue, "void value cannot be converted to %s", to)
		return id
	case from == ast.TypeDynamic:
		// проверит VM
		return tc.b.Exprs.NewConvert(id, to)
	case from == ast.TypeInt && to == ast.TypeFloat:
		return tc.b.Exprs.NewConvert(id, to)
	case from == ast.TypeFloat && to == ast.TypeInt:
		tc.warnf(span, diag.SemaLossyConversion, "implicit conversion from float to int may lose precision")
		return tc.b.Exprs.NewConvert(id, to)
	}
	tc.errorf(span, diag.SemaTypeMismatch, "cannot use %s value as %s", from, to)
	return id
}
