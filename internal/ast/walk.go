package ast

// WalkExpr visits id and every sub-expression in pre-order.
func (b *Builder) WalkExpr(id ExprID, fn func(ExprID)) {
	expr := b.Exprs.Get(id)
	if expr == nil {
		return
	}
	fn(id)
	switch expr.Kind {
	case ExprUnary:
		data, _ := b.Exprs.Unary(id)
		b.WalkExpr(data.Operand, fn)
	case ExprBinary:
		data, _ := b.Exprs.Binary(id)
		b.WalkExpr(data.Left, fn)
		b.WalkExpr(data.Right, fn)
	case ExprAssign:
		data, _ := b.Exprs.Assign(id)
		b.WalkExpr(data.Target, fn)
		b.WalkExpr(data.Value, fn)
	case ExprCall:
		data, _ := b.Exprs.Call(id)
		b.WalkExpr(data.Callee, fn)
		for _, arg := range data.Args {
			b.WalkExpr(arg, fn)
		}
	case ExprGroup:
		data, _ := b.Exprs.Group(id)
		b.WalkExpr(data.Inner, fn)
	case ExprConvert:
		data, _ := b.Exprs.Convert(id)
		b.WalkExpr(data.Value, fn)
	}
}

// WalkStmtExprs visits every expression reachable from a statement tree,
// including initializers of local declarations.
func (b *Builder) WalkStmtExprs(id StmtID, fn func(ExprID)) {
	st := b.Stmts.Get(id)
	if st == nil {
		return
	}
	switch st.Kind {
	case StmtBlock:
		data, _ := b.Stmts.Block(id)
		for _, s := range data.Stmts {
			b.WalkStmtExprs(s, fn)
		}
	case StmtVar:
		data, _ := b.Stmts.Var(id)
		for _, d := range data.Decls {
			if v, ok := b.Decls.Var(d); ok {
				b.WalkExpr(v.Init, fn)
			}
		}
	case StmtExpr:
		data, _ := b.Stmts.Expr(id)
		b.WalkExpr(data.Expr, fn)
	case StmtValuePrint:
		data, _ := b.Stmts.ValuePrint(id)
		b.WalkExpr(data.Expr, fn)
	case StmtIf:
		data, _ := b.Stmts.If(id)
		b.WalkExpr(data.Cond, fn)
		b.WalkStmtExprs(data.Then, fn)
		b.WalkStmtExprs(data.Else, fn)
	case StmtWhile:
		data, _ := b.Stmts.While(id)
		b.WalkExpr(data.Cond, fn)
		b.WalkStmtExprs(data.Body, fn)
	case StmtReturn:
		data, _ := b.Stmts.Return(id)
		b.WalkExpr(data.Value, fn)
	}
}

// WalkDeclExprs visits every expression owned by a declaration.
func (b *Builder) WalkDeclExprs(id DeclID, fn func(ExprID)) {
	decl := b.Decls.Get(id)
	if decl == nil {
		return
	}
	switch decl.Kind {
	case DeclVar:
		data, _ := b.Decls.Var(id)
		b.WalkExpr(data.Init, fn)
	case DeclFunc, DeclWrapper:
		data, _ := b.Decls.Func(id)
		b.WalkStmtExprs(data.Body, fn)
	}
}
