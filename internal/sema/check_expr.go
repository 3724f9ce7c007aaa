package sema

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
)

// expr проверяет выражение, записывает тип в узел и возвращает его.
// Арены могут вырасти во время проверки детей, поэтому указатели на
// payload перечитываются перед записью.
func (tc *checker) expr(id ast.ExprID) ast.Type {
	t := tc.exprType(id, false)
	if e := tc.b.Exprs.Get(id); e != nil {
		e.Type = t
	}
	return t
}

func (tc *checker) typeOf(id ast.ExprID) ast.Type {
	if e := tc.b.Exprs.Get(id); e != nil {
		return e.Type
	}
	return ast.TypeInvalid
}

func (tc *checker) exprType(id ast.ExprID, callee bool) ast.Type {
	e := tc.b.Exprs.Get(id)
	if e == nil {
		return ast.TypeInvalid
	}
	span := e.Span
	switch e.Kind {
	case ast.ExprLit:
		data, _ := tc.b.Exprs.Literal(id)
		switch data.Kind {
		case ast.LitInt:
			return ast.TypeInt
		case ast.LitFloat:
			return ast.TypeFloat
		case ast.LitString:
			return ast.TypeString
		default:
			return ast.TypeBool
		}

	case ast.ExprIdent:
		return tc.ident(id, callee)

	case ast.ExprDynamic, ast.ExprConvert:
		return e.Type

	case ast.ExprGroup:
		data, _ := tc.b.Exprs.Group(id)
		return tc.expr(data.Inner)

	case ast.ExprUnary:
		data, _ := tc.b.Exprs.Unary(id)
		op, operand := data.Op, data.Operand
		t := tc.expr(operand)
		switch {
		case t == ast.TypeInvalid:
			return ast.TypeInvalid
		case t == ast.TypeDynamic:
			if op == ast.UnaryNot {
				return ast.TypeBool
			}
			return ast.TypeDynamic
		case op == ast.UnaryNeg && t.IsNumeric():
			return t
		case op == ast.UnaryNot && t == ast.TypeBool:
			return ast.TypeBool
		}
		tc.errorf(span, diag.SemaBadOperand, "invalid operand of type %s for unary '%s'", t, op)
		return ast.TypeInvalid

	case ast.ExprBinary:
		return tc.binary(id)

	case ast.ExprAssign:
		return tc.assign(id)

	case ast.ExprCall:
		return tc.call(id)
	}
	return ast.TypeInvalid
}

func (tc *checker) ident(id ast.ExprID, callee bool) ast.Type {
	data, _ := tc.b.Exprs.Ident(id)
	name := data.Name
	span := tc.b.Exprs.Get(id).Span

	if local, ok := tc.lookupLocal(name); ok {
		data.Ref, data.Decl = ast.IdentDecl, local
		v, _ := tc.b.Decls.Var(local)
		return v.Type
	}

	sym, ok := tc.a.uni.lookup(name)
	if !ok {
		sym, ok = tc.a.materialize(name, span)
		// материализация аллоцирует узлы, data мог устареть
		data, _ = tc.b.Exprs.Ident(id)
	}
	if !ok {
		if tc.a.resolver != nil && tc.a.resolver.LookupUnresolved(name, span) {
			data, _ = tc.b.Exprs.Ident(id)
			data.Ref = ast.IdentDeferred
			return ast.TypeDynamic
		}
		tc.errorf(span, diag.SemaUnresolvedSymbol, "use of undeclared identifier '%s'", name)
		return ast.TypeInvalid
	}

	switch sym.Kind {
	case SymbolBuiltin:
		data.Ref = ast.IdentBuiltin
		if !callee {
			tc.errorf(span, diag.SemaBadOperand, "builtin '%s' can only be called", name)
			return ast.TypeInvalid
		}
		return ast.TypeVoid
	case SymbolFunc:
		data.Ref, data.Decl = ast.IdentDecl, sym.Decl
		if !callee {
			tc.errorf(span, diag.SemaBadOperand, "function '%s' used as a value", name)
			return ast.TypeInvalid
		}
		fn, _ := tc.b.Decls.Func(sym.Decl)
		return fn.Result
	}
	data.Ref, data.Decl = ast.IdentDecl, sym.Decl
	v, _ := tc.b.Decls.Var(sym.Decl)
	return v.Type
}

func (tc *checker) binary(id ast.ExprID) ast.Type {
	data, _ := tc.b.Exprs.Binary(id)
	op, left, right := data.Op, data.Left, data.Right
	span := tc.b.Exprs.Get(id).Span
	lt := tc.expr(left)
	rt := tc.expr(right)
	if lt == ast.TypeInvalid || rt == ast.TypeInvalid {
		return ast.TypeInvalid
	}
	if lt == ast.TypeVoid || rt == ast.TypeVoid {
		tc.errorf(span, diag.SemaVoidValue, "void value used in '%s'", op)
		return ast.TypeInvalid
	}

	if op == ast.BinDiv || op == ast.BinMod {
		tc.checkConstDivisor(right)
	}

	result := ast.TypeInvalid
	switch {
	case lt == ast.TypeDynamic || rt == ast.TypeDynamic:
		// проверка откладывается до исполнения
		result = ast.TypeDynamic
		if op.IsComparison() || op.IsLogical() {
			result = ast.TypeBool
		}

	case op.IsLogical():
		if lt == ast.TypeBool && rt == ast.TypeBool {
			result = ast.TypeBool
		}

	case op == ast.BinEq || op == ast.BinNe:
		if lt.IsNumeric() && rt.IsNumeric() {
			left, right = tc.promote(left, lt, right, rt)
			result = ast.TypeBool
		} else if lt == rt {
			result = ast.TypeBool
		}

	case op.IsComparison():
		if lt.IsNumeric() && rt.IsNumeric() {
			left, right = tc.promote(left, lt, right, rt)
			result = ast.TypeBool
		} else if lt == ast.TypeString && rt == ast.TypeString {
			result = ast.TypeBool
		}

	case op == ast.BinAdd && lt == ast.TypeString && rt == ast.TypeString:
		result = ast.TypeString

	case op == ast.BinMod:
		if lt == ast.TypeInt && rt == ast.TypeInt {
			result = ast.TypeInt
		}

	default:
		if lt.IsNumeric() && rt.IsNumeric() {
			left, right = tc.promote(left, lt, right, rt)
			result = lt
			if lt != rt {
				result = ast.TypeFloat
			}
		}
	}
	if result == ast.TypeInvalid {
		tc.errorf(span, diag.SemaBadOperand, "invalid operands to '%s' (%s and %s)", op, lt, rt)
		return ast.TypeInvalid
	}
	data, _ = tc.b.Exprs.Binary(id)
	data.Left, data.Right = left, right
	return result
}

// promote приводит int-сторону смешанной пары к float.
func (tc *checker) promote(left ast.ExprID, lt ast.Type, right ast.ExprID, rt ast.Type) (ast.ExprID, ast.ExprID) {
	switch {
	case lt == ast.TypeInt && rt == ast.TypeFloat:
		left = tc.b.Exprs.NewConvert(left, ast.TypeFloat)
	case lt == ast.TypeFloat && rt == ast.TypeInt:
		right = tc.b.Exprs.NewConvert(right, ast.TypeFloat)
	}
	return left, right
}

func (tc *checker) checkConstDivisor(id ast.ExprID) {
	inner := id
	for {
		g, ok := tc.b.Exprs.Group(inner)
		if !ok {
			break
		}
		inner = g.Inner
	}
	lit, ok := tc.b.Exprs.Literal(inner)
	if !ok {
		return
	}
	if (lit.Kind == ast.LitInt && lit.Int == 0) || (lit.Kind == ast.LitFloat && lit.Float == 0) {
		tc.warnf(tc.b.Exprs.Get(id).Span, diag.SemaDivisionByZero, "division by zero")
	}
}

func (tc *checker) assign(id ast.ExprID) ast.Type {
	data, _ := tc.b.Exprs.Assign(id)
	target, value := data.Target, data.Value
	tt := tc.expr(target)
	if tt == ast.TypeInvalid {
		tc.expr(value)
		return ast.TypeInvalid
	}
	if tt == ast.TypeDynamic {
		tc.requireValue(value)
		return ast.TypeDynamic
	}
	value = tc.coerce(value, tt)
	data, _ = tc.b.Exprs.Assign(id)
	data.Value = value
	return tt
}

func (tc *checker) call(id ast.ExprID) ast.Type {
	data, _ := tc.b.Exprs.Call(id)
	callee := data.Callee
	args := append([]ast.ExprID(nil), data.Args...)
	span := tc.b.Exprs.Get(id).Span

	ident, isIdent := tc.b.Exprs.Ident(callee)
	if !isIdent {
		tc.expr(callee)
		tc.errorf(tc.b.Exprs.Get(callee).Span, diag.SemaNotCallable, "called object is not a function")
		return ast.TypeInvalid
	}
	name := ident.Name
	ct := tc.exprType(callee, true)
	tc.b.Exprs.Get(callee).Type = ct
	ident, _ = tc.b.Exprs.Ident(callee)

	switch ident.Ref {
	case ast.IdentBuiltin:
		builtin, _ := LookupBuiltin(name)
		return tc.checkBuiltinCall(id, builtin, args)

	case ast.IdentDeferred:
		// вызов по имени во время исполнения, аргументы не приводятся
		for _, arg := range args {
			tc.requireValue(arg)
		}
		return ast.TypeDynamic

	case ast.IdentDecl:
		decl := tc.b.Decls.Get(ident.Decl)
		if decl.Kind != ast.DeclFunc {
			tc.errorf(tc.b.Exprs.Get(callee).Span, diag.SemaNotCallable, "'%s' is not a function", name)
			for _, arg := range args {
				tc.expr(arg)
			}
			return ast.TypeInvalid
		}
		fn, _ := tc.b.Decls.Func(ident.Decl)
		params := append([]ast.DeclID(nil), fn.Params...)
		result := fn.Result
		if tc.b.Decls.IsPrototype(ident.Decl) {
			tc.a.protoCalls = append(tc.a.protoCalls, protoCall{name: name, span: span})
		}
		if len(args) != len(params) {
			diag.ReportError(tc, diag.SemaArgCount, span,
				"wrong number of arguments to '"+name+"'").
				WithNote(decl.Span, "declared here").
				Emit()
			for _, arg := range args {
				tc.expr(arg)
			}
			return result
		}
		for i, arg := range args {
			pv, _ := tc.b.Decls.Var(params[i])
			args[i] = tc.coerce(arg, pv.Type)
		}
		data, _ = tc.b.Exprs.Call(id)
		data.Args = args
		return result
	}
	// неразрешённое имя уже отрепорчено
	for _, arg := range args {
		tc.expr(arg)
	}
	return ast.TypeInvalid
}

// requireValue проверяет выражение и запрещает void.
func (tc *checker) requireValue(id ast.ExprID) ast.Type {
	t := tc.expr(id)
	if t == ast.TypeVoid {
		tc.errorf(tc.b.Exprs.Get(id).Span, diag.SemaVoidValue, "void value used where a value is required")
		return ast.TypeInvalid
	}
	return t
}
