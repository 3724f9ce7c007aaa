package sema

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
)

func (tc *checker) stmt(id ast.StmtID) {
	st := tc.b.Stmts.Get(id)
	if st == nil {
		return
	}
	span := st.Span
	switch st.Kind {
	case ast.StmtBlock:
		data, _ := tc.b.Stmts.Block(id)
		tc.pushScope()
		for _, s := range data.Stmts {
			tc.stmt(s)
		}
		tc.popScope()

	case ast.StmtVar:
		data, _ := tc.b.Stmts.Var(id)
		for _, d := range data.Decls {
			tc.localVar(d)
		}

	case ast.StmtExpr:
		data, _ := tc.b.Stmts.Expr(id)
		expr := data.Expr
		tc.expr(expr)

	case ast.StmtValuePrint:
		data, _ := tc.b.Stmts.ValuePrint(id)
		tc.requireValue(data.Expr)

	case ast.StmtIf:
		data, _ := tc.b.Stmts.If(id)
		cond, then, els := data.Cond, data.Then, data.Else
		cond = tc.condition(cond)
		data, _ = tc.b.Stmts.If(id)
		data.Cond = cond
		tc.scoped(then)
		tc.scoped(els)

	case ast.StmtWhile:
		data, _ := tc.b.Stmts.While(id)
		cond, body := data.Cond, data.Body
		cond = tc.condition(cond)
		data, _ = tc.b.Stmts.While(id)
		data.Cond = cond
		tc.fn.loops++
		tc.scoped(body)
		tc.fn.loops--

	case ast.StmtReturn:
		data, _ := tc.b.Stmts.Return(id)
		value := data.Value
		switch {
		case !value.IsValid():
			if tc.fn.result != ast.TypeVoid {
				tc.errorf(span, diag.SemaMissingReturnValue, "non-void function must return a %s value", tc.fn.result)
			}
		case tc.fn.result == ast.TypeVoid:
			tc.expr(value)
			tc.errorf(span, diag.SemaTypeMismatch, "void function cannot return a value")
		default:
			value = tc.coerce(value, tc.fn.result)
			data, _ = tc.b.Stmts.Return(id)
			data.Value = value
		}

	case ast.StmtBreak, ast.StmtContinue:
		if tc.fn.loops == 0 {
			tc.errorf(span, diag.SemaBreakOutsideLoop, "break or continue outside of a loop")
		}
	}
}

// scoped: тело if/while без фигурных скобок всё равно получает свою область
func (tc *checker) scoped(id ast.StmtID) {
	if !id.IsValid() {
		return
	}
	tc.pushScope()
	tc.stmt(id)
	tc.popScope()
}

func (tc *checker) localVar(id ast.DeclID) {
	data, _ := tc.b.Decls.Var(id)
	typ, init := data.Type, data.Init
	// инициализатор видит внешнее имя, а не объявляемое
	if init.IsValid() {
		init = tc.coerce(init, typ)
		data, _ = tc.b.Decls.Var(id)
		data.Init = init
	}
	tc.declareLocal(id)
}

func (tc *checker) condition(id ast.ExprID) ast.ExprID {
	t := tc.expr(id)
	switch t {
	case ast.TypeBool, ast.TypeInvalid:
		return id
	case ast.TypeDynamic:
		return tc.b.Exprs.NewConvert(id, ast.TypeBool)
	}
	tc.errorf(tc.b.Exprs.Get(id).Span, diag.SemaTypeMismatch, "condition must be bool, got %s", t)
	return id
}
