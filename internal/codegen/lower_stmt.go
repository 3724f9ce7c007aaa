package codegen

import (
	"fmt"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/source"
	"kiln/internal/vm"
)

// lowerer переводит одно тело (или один инициализатор) в замыкания.
type lowerer struct {
	g      *Generator
	b      *ast.Builder
	m      *vm.VM
	fn     *vm.Function
	failed bool
}

func (g *Generator) newLowerer(fn *vm.Function) *lowerer {
	return &lowerer{g: g, b: g.b, m: g.m, fn: fn}
}

func (l *lowerer) errorf(code diag.Code, span source.Span, format string, args ...any) {
	l.failed = true
	if l.g.reporter != nil {
		diag.ReportError(l.g.reporter, code, span, fmt.Sprintf(format, args...)).Emit()
	}
}

func nextStmt(*vm.Frame) (vm.Control, error) {
	return vm.CtrlNext, nil
}

func (l *lowerer) stmt(id ast.StmtID) vm.Exec {
	st := l.b.Stmts.Get(id)
	if st == nil {
		return nextStmt
	}
	span := st.Span
	switch st.Kind {
	case ast.StmtBlock:
		data, _ := l.b.Stmts.Block(id)
		return l.block(data.Stmts)
	case ast.StmtVar:
		data, _ := l.b.Stmts.Var(id)
		return l.localVars(data.Decls)
	case ast.StmtExpr:
		data, _ := l.b.Stmts.Expr(id)
		eval := l.expr(data.Expr)
		return func(f *vm.Frame) (vm.Control, error) {
			f.Span = span
			_, err := eval(f)
			return vm.CtrlNext, err
		}
	case ast.StmtValuePrint:
		data, _ := l.b.Stmts.ValuePrint(id)
		return l.valuePrint(span, data.Expr)
	case ast.StmtIf:
		data, _ := l.b.Stmts.If(id)
		return l.ifStmt(span, *data)
	case ast.StmtWhile:
		data, _ := l.b.Stmts.While(id)
		return l.whileStmt(span, *data)
	case ast.StmtReturn:
		data, _ := l.b.Stmts.Return(id)
		if !data.Value.IsValid() {
			return func(*vm.Frame) (vm.Control, error) { return vm.CtrlReturn, nil }
		}
		eval := l.expr(data.Value)
		return func(f *vm.Frame) (vm.Control, error) {
			f.Span = span
			v, err := eval(f)
			if err != nil {
				return vm.CtrlReturn, err
			}
			f.Ret = v
			return vm.CtrlReturn, nil
		}
	case ast.StmtBreak:
		return func(*vm.Frame) (vm.Control, error) { return vm.CtrlBreak, nil }
	case ast.StmtContinue:
		return func(*vm.Frame) (vm.Control, error) { return vm.CtrlContinue, nil }
	default:
		return nextStmt
	}
}

func (l *lowerer) block(ids []ast.StmtID) vm.Exec {
	list := make([]vm.Exec, 0, len(ids))
	for _, id := range ids {
		list = append(list, l.stmt(id))
	}
	return func(f *vm.Frame) (vm.Control, error) {
		for _, exec := range list {
			ctrl, err := exec(f)
			if err != nil || ctrl != vm.CtrlNext {
				return ctrl, err
			}
		}
		return vm.CtrlNext, nil
	}
}

type localInit struct {
	slot uint32
	zero vm.Value
	init vm.Eval
}

func (l *lowerer) localVars(decls []ast.DeclID) vm.Exec {
	var inits []localInit
	for _, id := range decls {
		data, ok := l.b.Decls.Var(id)
		if !ok || data.Storage == ast.StorageGlobal {
			// вынесена в глобалы, присваивание оставлено отдельным оператором
			continue
		}
		li := localInit{slot: data.Slot, zero: vm.Zero(vm.KindOf(data.Type))}
		if data.Init.IsValid() {
			li.init = l.expr(data.Init)
		}
		inits = append(inits, li)
	}
	return func(f *vm.Frame) (vm.Control, error) {
		for _, li := range inits {
			v := li.zero
			if li.init != nil {
				var err error
				if v, err = li.init(f); err != nil {
					return vm.CtrlNext, err
				}
			}
			f.Slots[li.slot] = v
		}
		return vm.CtrlNext, nil
	}
}

func (l *lowerer) valuePrint(span source.Span, id ast.ExprID) vm.Exec {
	eval := l.expr(id)
	silent := l.b.Exprs.Get(id).Type == ast.TypeVoid
	return func(f *vm.Frame) (vm.Control, error) {
		f.Span = span
		v, err := eval(f)
		if err != nil {
			return vm.CtrlNext, err
		}
		if silent || v.Kind == vm.VKNothing {
			return vm.CtrlNext, nil
		}
		return vm.CtrlNext, l.m.Echo(v)
	}
}

func (l *lowerer) ifStmt(span source.Span, data ast.IfStmtData) vm.Exec {
	cond := l.expr(data.Cond)
	then := l.stmt(data.Then)
	els := vm.Exec(nextStmt)
	if data.Else.IsValid() {
		els = l.stmt(data.Else)
	}
	condSpan := l.b.Exprs.Get(data.Cond).Span
	return func(f *vm.Frame) (vm.Control, error) {
		f.Span = span
		v, err := cond(f)
		if err != nil {
			return vm.CtrlNext, err
		}
		ok, err := l.m.Truth(condSpan, v)
		if err != nil {
			return vm.CtrlNext, err
		}
		if ok {
			return then(f)
		}
		return els(f)
	}
}

func (l *lowerer) whileStmt(span source.Span, data ast.WhileStmtData) vm.Exec {
	cond := l.expr(data.Cond)
	body := l.stmt(data.Body)
	condSpan := l.b.Exprs.Get(data.Cond).Span
	return func(f *vm.Frame) (vm.Control, error) {
		for {
			f.Span = span
			v, err := cond(f)
			if err != nil {
				return vm.CtrlNext, err
			}
			ok, err := l.m.Truth(condSpan, v)
			if err != nil || !ok {
				return vm.CtrlNext, err
			}
			ctrl, err := body(f)
			if err != nil {
				return ctrl, err
			}
			switch ctrl {
			case vm.CtrlBreak:
				return vm.CtrlNext, nil
			case vm.CtrlReturn:
				return ctrl, nil
			}
		}
	}
}
