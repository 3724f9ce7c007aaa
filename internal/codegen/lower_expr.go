package codegen

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/sema"
	"kiln/internal/source"
	"kiln/internal/vm"
)

func constant(v vm.Value) vm.Eval {
	return func(*vm.Frame) (vm.Value, error) { return v, nil }
}

func (l *lowerer) expr(id ast.ExprID) vm.Eval {
	e := l.b.Exprs.Get(id)
	if e == nil {
		return constant(vm.Nothing())
	}
	span := e.Span
	switch e.Kind {
	case ast.ExprLit:
		data, _ := l.b.Exprs.Literal(id)
		return constant(literal(data))
	case ast.ExprIdent:
		return l.ident(id, span)
	case ast.ExprDynamic:
		data, _ := l.b.Exprs.Dynamic(id)
		return l.dynamic(data.Name, span)
	case ast.ExprGroup:
		data, _ := l.b.Exprs.Group(id)
		return l.expr(data.Inner)
	case ast.ExprConvert:
		data, _ := l.b.Exprs.Convert(id)
		inner := l.expr(data.Value)
		to := vm.KindOf(data.To)
		return func(f *vm.Frame) (vm.Value, error) {
			v, err := inner(f)
			if err != nil {
				return v, err
			}
			return l.m.Convert(span, v, to)
		}
	case ast.ExprUnary:
		data, _ := l.b.Exprs.Unary(id)
		op := data.Op
		operand := l.expr(data.Operand)
		return func(f *vm.Frame) (vm.Value, error) {
			v, err := operand(f)
			if err != nil {
				return v, err
			}
			return l.m.Unary(span, op, v)
		}
	case ast.ExprBinary:
		data, _ := l.b.Exprs.Binary(id)
		return l.binary(span, *data)
	case ast.ExprAssign:
		data, _ := l.b.Exprs.Assign(id)
		return l.assign(span, *data)
	case ast.ExprCall:
		data, _ := l.b.Exprs.Call(id)
		return l.call(span, data.Callee, data.Args)
	}
	l.errorf(diag.GenInfo, span, "cannot generate code for expression kind %d", e.Kind)
	return constant(vm.Nothing())
}

func literal(data *ast.ExprLiteralData) vm.Value {
	switch data.Kind {
	case ast.LitInt:
		return vm.IntValue(data.Int)
	case ast.LitFloat:
		return vm.FloatValue(data.Float)
	case ast.LitBool:
		return vm.BoolValue(data.Bool)
	default:
		return vm.StringValue(data.Str)
	}
}

func (l *lowerer) ident(id ast.ExprID, span source.Span) vm.Eval {
	data, _ := l.b.Exprs.Ident(id)
	switch data.Ref {
	case ast.IdentDecl:
	case ast.IdentDeferred:
		l.errorf(diag.GenUnresolvedDynamic, span, "'%s' was deferred to run time but dynamic lookup is not active", data.Name)
		return constant(vm.Nothing())
	default:
		l.errorf(diag.GenInfo, span, "'%s' is not a value", data.Name)
		return constant(vm.Nothing())
	}
	v, ok := l.b.Decls.Var(data.Decl)
	if !ok {
		l.errorf(diag.GenInfo, span, "'%s' is not a variable", data.Name)
		return constant(vm.Nothing())
	}
	if v.Storage != ast.StorageGlobal {
		slot := v.Slot
		return func(f *vm.Frame) (vm.Value, error) {
			return f.Slots[slot], nil
		}
	}
	gid, name := vm.GlobalID(data.Decl), data.Name
	return func(*vm.Frame) (vm.Value, error) {
		g, ok := l.m.Global(gid)
		if !ok {
			return vm.Value{}, l.m.Panic(vm.PanicUnresolvedName, span, "global '%s' is not defined", name)
		}
		return g.Value, nil
	}
}

func (l *lowerer) dynamic(name string, span source.Span) vm.Eval {
	return func(*vm.Frame) (vm.Value, error) {
		g, ok := l.m.LookupName(name)
		if !ok {
			return vm.Value{}, l.m.Panic(vm.PanicUnresolvedName, span, "'%s' is not defined", name)
		}
		return g.Value, nil
	}
}

func (l *lowerer) binary(span source.Span, data ast.ExprBinaryData) vm.Eval {
	left, right := l.expr(data.Left), l.expr(data.Right)
	op := data.Op
	if op.IsLogical() {
		// короткое замыкание
		stopOn := op == ast.BinOr
		return func(f *vm.Frame) (vm.Value, error) {
			lv, err := left(f)
			if err != nil {
				return lv, err
			}
			lb, err := l.m.Truth(span, lv)
			if err != nil {
				return vm.Value{}, err
			}
			if lb == stopOn {
				return vm.BoolValue(lb), nil
			}
			rv, err := right(f)
			if err != nil {
				return rv, err
			}
			rb, err := l.m.Truth(span, rv)
			return vm.BoolValue(rb), err
		}
	}
	return func(f *vm.Frame) (vm.Value, error) {
		lv, err := left(f)
		if err != nil {
			return lv, err
		}
		rv, err := right(f)
		if err != nil {
			return rv, err
		}
		return l.m.Binary(span, op, lv, rv)
	}
}

func (l *lowerer) assign(span source.Span, data ast.ExprAssignData) vm.Eval {
	value := l.expr(data.Value)
	target := l.b.Exprs.Get(data.Target)

	if target.Kind == ast.ExprDynamic {
		dyn, _ := l.b.Exprs.Dynamic(data.Target)
		name := dyn.Name
		return func(f *vm.Frame) (vm.Value, error) {
			v, err := value(f)
			if err != nil {
				return v, err
			}
			g, ok := l.m.LookupName(name)
			if !ok {
				return vm.Value{}, l.m.Panic(vm.PanicUnresolvedName, span, "'%s' is not defined", name)
			}
			if v, err = l.m.Convert(span, v, g.Kind); err != nil {
				return v, err
			}
			g.Value = v
			return v, nil
		}
	}

	ident, ok := l.b.Exprs.Ident(data.Target)
	if !ok || ident.Ref != ast.IdentDecl {
		if ok && ident.Ref == ast.IdentDeferred {
			l.errorf(diag.GenUnresolvedDynamic, target.Span, "'%s' was deferred to run time but dynamic lookup is not active", ident.Name)
		} else {
			l.errorf(diag.GenInfo, span, "invalid assignment target")
		}
		return constant(vm.Nothing())
	}
	v, ok := l.b.Decls.Var(ident.Decl)
	if !ok {
		l.errorf(diag.GenInfo, span, "'%s' is not a variable", ident.Name)
		return constant(vm.Nothing())
	}
	if v.Storage != ast.StorageGlobal {
		slot := v.Slot
		return func(f *vm.Frame) (vm.Value, error) {
			val, err := value(f)
			if err != nil {
				return val, err
			}
			f.Slots[slot] = val
			return val, nil
		}
	}
	gid, name := vm.GlobalID(ident.Decl), ident.Name
	return func(f *vm.Frame) (vm.Value, error) {
		val, err := value(f)
		if err != nil {
			return val, err
		}
		g, ok := l.m.Global(gid)
		if !ok {
			return vm.Value{}, l.m.Panic(vm.PanicUnresolvedName, span, "global '%s' is not defined", name)
		}
		g.Value = val
		return val, nil
	}
}

func (l *lowerer) call(span source.Span, callee ast.ExprID, argIDs []ast.ExprID) vm.Eval {
	args := make([]vm.Eval, len(argIDs))
	for i, a := range argIDs {
		args[i] = l.expr(a)
	}
	evalArgs := func(f *vm.Frame) ([]vm.Value, error) {
		out := make([]vm.Value, len(args))
		for i, a := range args {
			v, err := a(f)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	var name string
	ce := l.b.Exprs.Get(callee)
	switch {
	case ce.Kind == ast.ExprDynamic:
		dyn, _ := l.b.Exprs.Dynamic(callee)
		name = dyn.Name
	case ce.Kind == ast.ExprIdent:
		ident, _ := l.b.Exprs.Ident(callee)
		name = ident.Name
		switch ident.Ref {
		case ast.IdentBuiltin:
			return l.builtin(span, name, evalArgs)
		case ast.IdentDeferred:
			l.errorf(diag.GenUnresolvedDynamic, ce.Span, "'%s' was deferred to run time but dynamic lookup is not active", name)
			return constant(vm.Nothing())
		case ast.IdentDecl:
		default:
			l.errorf(diag.GenInfo, ce.Span, "'%s' is not callable", name)
			return constant(vm.Nothing())
		}
	default:
		l.errorf(diag.GenInfo, ce.Span, "expression is not callable")
		return constant(vm.Nothing())
	}

	return func(f *vm.Frame) (vm.Value, error) {
		vals, err := evalArgs(f)
		if err != nil {
			return vm.Value{}, err
		}
		f.Span = span
		return l.m.Call(name, vals, span)
	}
}

func (l *lowerer) builtin(span source.Span, name string, evalArgs func(*vm.Frame) ([]vm.Value, error)) vm.Eval {
	b, _ := sema.LookupBuiltin(name)
	return func(f *vm.Frame) (vm.Value, error) {
		vals, err := evalArgs(f)
		if err != nil {
			return vm.Value{}, err
		}
		switch b {
		case sema.BuiltinPrint:
			if err := l.m.Print(vals); err != nil {
				return vm.Value{}, err
			}
			return vm.Nothing(), nil
		case sema.BuiltinLen:
			return l.m.Len(span, vals[0])
		case sema.BuiltinStr:
			return l.m.Str(span, vals[0])
		}
		return vm.Value{}, l.m.Panic(vm.PanicUnimplemented, span, "builtin '%s' is not implemented", name)
	}
}
