package sema

import (
	"fmt"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/source"
)

// checker - состояние проверки одной декларации верхнего уровня.
// Для каждой декларации создаётся свой, поэтому материализация внешних
// имён посреди проверки не портит текущий контекст.
type checker struct {
	a      *Analyzer
	b      *ast.Builder
	errors int

	fn       *funcContext
	reported map[ast.ExprID]bool
}

type funcContext struct {
	decl     ast.DeclID
	result   ast.Type
	wrapper  bool
	scopes   []map[string]ast.DeclID
	nextSlot uint32
	loops    int
}

func newChecker(a *Analyzer) *checker {
	return &checker{a: a, b: a.b}
}

func (tc *checker) report(sp source.Span, code diag.Code, sev diag.Severity, msg string) {
	if sev == diag.SevError {
		tc.errors++
	}
	if tc.a.opts.Reporter != nil {
		tc.a.opts.Reporter.Report(code, sev, sp, msg, nil)
	}
}

func (tc *checker) errorf(sp source.Span, code diag.Code, format string, args ...any) {
	tc.report(sp, code, diag.SevError, fmt.Sprintf(format, args...))
}

func (tc *checker) warnf(sp source.Span, code diag.Code, format string, args ...any) {
	tc.report(sp, code, diag.SevWarning, fmt.Sprintf(format, args...))
}

func (tc *checker) decl(id ast.DeclID) {
	decl := tc.b.Decls.Get(id)
	if decl == nil {
		return
	}
	switch decl.Kind {
	case ast.DeclVar:
		tc.globalVar(id)
	case ast.DeclFunc:
		tc.function(id)
	case ast.DeclWrapper:
		tc.body(id, true)
	}
}

func (tc *checker) globalVar(id ast.DeclID) {
	data, _ := tc.b.Decls.Var(id)
	typ, init := data.Type, data.Init
	if init.IsValid() {
		init = tc.coerce(init, typ)
		data, _ = tc.b.Decls.Var(id)
		data.Init = init
	}
	decl := tc.b.Decls.Get(id)
	tc.declareGlobal(decl.Name, decl.Span, Symbol{Kind: SymbolVar, Name: decl.Name, Decl: id})
}

// declareGlobal кладёт имя во вселенную, проверяя конфликты.
func (tc *checker) declareGlobal(name string, span source.Span, sym Symbol) bool {
	prev, exists := tc.a.uni.lookup(name)
	if !exists {
		tc.a.uni.set(sym)
		return true
	}
	switch {
	case prev.Kind == SymbolBuiltin:
		tc.errorf(span, diag.SemaRedefinitionBuiltin, "cannot redefine builtin '%s'", name)
		return false
	case prev.Kind == SymbolFunc && sym.Kind == SymbolFunc:
		return tc.redeclareFunc(prev, sym, span)
	}
	diag.ReportError(tc, diag.SemaDuplicateSymbol, span, fmt.Sprintf("redefinition of '%s'", name)).
		WithNote(tc.b.Decls.Get(prev.Decl).Span, "previous definition is here").
		Emit()
	return false
}

// Report делает checker diag.Reporter-ом для ReportBuilder.
func (tc *checker) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	if sev == diag.SevError {
		tc.errors++
	}
	if tc.a.opts.Reporter != nil {
		tc.a.opts.Reporter.Report(code, sev, primary, msg, notes)
	}
}

func (tc *checker) redeclareFunc(prev, sym Symbol, span source.Span) bool {
	prevProto := tc.b.Decls.IsPrototype(prev.Decl)
	newProto := tc.b.Decls.IsPrototype(sym.Decl)
	if !tc.sameSignature(prev.Decl, sym.Decl) {
		diag.ReportError(tc, diag.SemaPrototypeMismatch, span,
			fmt.Sprintf("conflicting declaration of '%s'", sym.Name)).
			WithNote(tc.b.Decls.Get(prev.Decl).Span, "previous declaration is here").
			Emit()
		return false
	}
	switch {
	case newProto:
		// повторный прототип ничего не меняет
		return true
	case prevProto:
		tc.a.uni.set(sym)
		return true
	}
	diag.ReportError(tc, diag.SemaDuplicateSymbol, span, fmt.Sprintf("redefinition of '%s'", sym.Name)).
		WithNote(tc.b.Decls.Get(prev.Decl).Span, "previous definition is here").
		Emit()
	return false
}

func (tc *checker) sameSignature(x, y ast.DeclID) bool {
	fx, _ := tc.b.Decls.Func(x)
	fy, _ := tc.b.Decls.Func(y)
	if fx.Result != fy.Result || len(fx.Params) != len(fy.Params) {
		return false
	}
	for i := range fx.Params {
		px, _ := tc.b.Decls.Var(fx.Params[i])
		py, _ := tc.b.Decls.Var(fy.Params[i])
		if px.Type != py.Type {
			return false
		}
	}
	return true
}

func (tc *checker) function(id ast.DeclID) {
	decl := tc.b.Decls.Get(id)
	name, span := decl.Name, decl.Span
	// объявляем до тела, чтобы работала рекурсия
	if !tc.declareGlobal(name, span, Symbol{Kind: SymbolFunc, Name: name, Decl: id}) {
		return
	}
	if tc.b.Decls.IsPrototype(id) {
		return
	}
	tc.body(id, false)
}

func (tc *checker) body(id ast.DeclID, wrapper bool) {
	fn, _ := tc.b.Decls.Func(id)
	params := fn.Params
	body := fn.Body
	ctx := &funcContext{
		decl:    id,
		result:  fn.Result,
		wrapper: wrapper,
		scopes:  []map[string]ast.DeclID{make(map[string]ast.DeclID, len(params))},
	}
	tc.fn = ctx
	defer func() { tc.fn = nil }()

	for _, p := range params {
		pd := tc.b.Decls.Get(p)
		if prev, dup := ctx.scopes[0][pd.Name]; dup {
			diag.ReportError(tc, diag.SemaDuplicateSymbol, pd.Span, fmt.Sprintf("duplicate parameter '%s'", pd.Name)).
				WithNote(tc.b.Decls.Get(prev).Span, "previous parameter is here").
				Emit()
			continue
		}
		ctx.scopes[0][pd.Name] = p
		ctx.nextSlot++
	}
	// тело разделяет область видимости с параметрами
	if blk, ok := tc.b.Stmts.Block(body); ok {
		for _, st := range blk.Stmts {
			tc.stmt(st)
		}
	}
	fn, _ = tc.b.Decls.Func(id)
	fn.FrameSize = ctx.nextSlot
}

func (tc *checker) pushScope() {
	tc.fn.scopes = append(tc.fn.scopes, make(map[string]ast.DeclID))
}

func (tc *checker) popScope() {
	tc.fn.scopes = tc.fn.scopes[:len(tc.fn.scopes)-1]
}

func (tc *checker) lookupLocal(name string) (ast.DeclID, bool) {
	if tc.fn == nil {
		return ast.NoDeclID, false
	}
	for i := len(tc.fn.scopes) - 1; i >= 0; i-- {
		if id, ok := tc.fn.scopes[i][name]; ok {
			return id, true
		}
	}
	return ast.NoDeclID, false
}

func (tc *checker) declareLocal(id ast.DeclID) {
	decl := tc.b.Decls.Get(id)
	scope := tc.fn.scopes[len(tc.fn.scopes)-1]
	if prev, dup := scope[decl.Name]; dup {
		diag.ReportError(tc, diag.SemaDuplicateSymbol, decl.Span, fmt.Sprintf("redefinition of '%s'", decl.Name)).
			WithNote(tc.b.Decls.Get(prev).Span, "previous definition is here").
			Emit()
		return
	}
	if _, builtin := LookupBuiltin(decl.Name); builtin {
		tc.errorf(decl.Span, diag.SemaRedefinitionBuiltin, "cannot redefine builtin '%s'", decl.Name)
		return
	}
	scope[decl.Name] = id
	data, _ := tc.b.Decls.Var(id)
	data.Storage = ast.StorageLocal
	data.Slot = tc.fn.nextSlot
	tc.fn.nextSlot++
}
