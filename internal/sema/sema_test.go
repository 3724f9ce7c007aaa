package sema_test

import (
	"errors"
	"testing"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/parser"
	"kiln/internal/sema"
	"kiln/internal/source"
)

type harness struct {
	fs  *source.FileSet
	b   *ast.Builder
	bag *diag.Bag
	p   *parser.Parser
	a   *sema.Analyzer
	seq int
}

func newHarness() *harness {
	h := &harness{
		fs:  source.NewFileSet(),
		b:   ast.NewBuilder(ast.Hints{}),
		bag: diag.NewBag(64),
	}
	rep := diag.BagReporter{Bag: h.bag}
	h.p = parser.New(h.fs, h.b, parser.Options{Reporter: rep})
	h.a = sema.New(h.b, sema.Options{
		Reporter: rep,
		Parse: func(name, text string) ([]ast.DeclID, bool) {
			return h.p.ParseAll(h.fs.AddVirtual(name, []byte(text)))
		},
	})
	return h
}

// compile разбирает и анализирует фрагмент, возвращая все декларации
func (h *harness) compile(t *testing.T, text string) []ast.DeclID {
	t.Helper()
	h.seq++
	h.p.Enter(h.fs.AddFragment("input_line_"+string(rune('0'+h.seq)), text))
	var out []ast.DeclID
	for {
		g, eof := h.p.ParseTopLevel()
		if eof {
			break
		}
		h.a.AnalyzeGroup(&g)
		out = append(out, g.Decls...)
	}
	out = append(out, h.a.TakeSideEffectDecls()...)
	h.a.PerformPendingWork()
	return out
}

func (h *harness) codes() []diag.Code {
	var out []diag.Code
	for _, d := range h.bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func expectCodes(t *testing.T, h *harness, want ...diag.Code) {
	t.Helper()
	got := h.codes()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v (%v)", want, got, h.bag.Items())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("diag %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestGlobalsPersistAcrossFragments(t *testing.T) {
	h := newHarness()
	h.compile(t, "int x = 5;")
	h.compile(t, "int y = x + 1;")
	expectCodes(t, h)
	sym, ok := h.a.Lookup("y")
	if !ok || sym.Kind != sema.SymbolVar {
		t.Fatalf("y not declared: %+v", sym)
	}
}

func TestRedefinitionIsAnError(t *testing.T) {
	h := newHarness()
	h.compile(t, "int x = 5;")
	ids := h.compile(t, "int x = 5;")
	expectCodes(t, h, diag.SemaDuplicateSymbol)
	if h.b.Decls.Get(ids[0]).Flags&ast.DeclInvalid == 0 {
		t.Fatalf("redefinition must be flagged invalid")
	}
}

func TestBuiltinCannotBeRedefined(t *testing.T) {
	h := newHarness()
	h.compile(t, "int print = 1;")
	expectCodes(t, h, diag.SemaRedefinitionBuiltin)
}

func TestPrototypeThenDefinition(t *testing.T) {
	h := newHarness()
	h.compile(t, "int sq(int); int y = sq(3);")
	expectCodes(t, h, diag.SemaPrototypeUndefined)
	h.bag.Reset()

	h.compile(t, "int sq(int v) { return v * v; }")
	expectCodes(t, h)
	sym, _ := h.a.Lookup("sq")
	if h.b.Decls.IsPrototype(sym.Decl) {
		t.Fatalf("definition must replace the prototype")
	}

	h.compile(t, "float sq(int v) { return 1.5; }")
	expectCodes(t, h, diag.SemaPrototypeMismatch)
}

func TestImplicitConversions(t *testing.T) {
	h := newHarness()
	ids := h.compile(t, "float f = 1; int i = 2.5;")
	expectCodes(t, h, diag.SemaLossyConversion)
	for _, id := range ids {
		v, _ := h.b.Decls.Var(id)
		if h.b.Exprs.Get(v.Init).Kind != ast.ExprConvert {
			t.Fatalf("%s: expected implicit conversion", h.b.Decls.Get(id).Name)
		}
	}
}

func TestTypeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"string to int", `int a = "s";`, diag.SemaTypeMismatch},
		{"bad operands", `int a = 1 + true;`, diag.SemaBadOperand},
		{"undeclared", `int a = nope;`, diag.SemaUnresolvedSymbol},
		{"not callable", `int a = 1; int b = a(2);`, diag.SemaNotCallable},
		{"arg count", `int f(int v) { return v; } int b = f();`, diag.SemaArgCount},
		{"void value", `void g() {} int b = g();`, diag.SemaVoidValue},
		{"missing return", `int f() { return; }`, diag.SemaMissingReturnValue},
		{"break outside loop", `break;`, diag.SemaBreakOutsideLoop},
		{"condition", `if (1) { print(1); }`, diag.SemaTypeMismatch},
		{"func as value", `int f() { return 1; } int b = f;`, diag.SemaBadOperand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.compile(t, tc.src)
			got := h.codes()
			if len(got) == 0 || got[len(got)-1] != tc.code {
				t.Fatalf("expected %v, got %v (%v)", tc.code, got, h.bag.Items())
			}
		})
	}
}

func TestConstantDivisionByZeroWarns(t *testing.T) {
	h := newHarness()
	h.compile(t, "int z = 10 / (0);")
	expectCodes(t, h, diag.SemaDivisionByZero)
}

func TestLocalsGetSlots(t *testing.T) {
	h := newHarness()
	ids := h.compile(t, "int f(int a, int b) { int c = a; { int d = b; } return c; }")
	expectCodes(t, h)
	fn, _ := h.b.Decls.Func(ids[0])
	if fn.FrameSize != 4 {
		t.Fatalf("expected frame of 4 slots, got %d", fn.FrameSize)
	}
}

func TestMarkRollback(t *testing.T) {
	h := newHarness()
	h.compile(t, "int keep = 1;")
	m := h.a.Mark()
	h.compile(t, "int gone = 2; int keep2 = 3;")
	h.a.Rollback(m)
	if _, ok := h.a.Lookup("gone"); ok {
		t.Fatalf("gone must be forgotten")
	}
	if _, ok := h.a.Lookup("keep"); !ok {
		t.Fatalf("keep must survive")
	}
	// имя снова свободно
	h.compile(t, "int gone = 4;")
	expectCodes(t, h)
}

type countingResolver struct{ calls []string }

func (r *countingResolver) LookupUnresolved(name string, _ source.Span) bool {
	r.calls = append(r.calls, name)
	return true
}

func TestResolverDefersUnknownNames(t *testing.T) {
	h := newHarness()
	r := &countingResolver{}
	if err := h.a.InstallResolver(r); err != nil {
		t.Fatal(err)
	}
	if err := h.a.InstallResolver(r); !errors.Is(err, sema.ErrResolverInstalled) {
		t.Fatalf("expected ErrResolverInstalled, got %v", err)
	}
	ids := h.compile(t, "print(mystery);")
	expectCodes(t, h)
	if len(r.calls) != 1 || r.calls[0] != "mystery" {
		t.Fatalf("resolver must be called exactly once, got %v", r.calls)
	}
	var deferred int
	h.b.WalkDeclExprs(ids[0], func(id ast.ExprID) {
		if d, ok := h.b.Exprs.Ident(id); ok && d.Ref == ast.IdentDeferred {
			deferred++
		}
	})
	if deferred != 1 {
		t.Fatalf("expected one deferred identifier, got %d", deferred)
	}
	if !h.a.RemoveResolver() || h.a.RemoveResolver() {
		t.Fatalf("RemoveResolver must report the previous state")
	}
}

func TestPromoteToGlobal(t *testing.T) {
	h := newHarness()
	ids := h.compile(t, "print(1); int y = 2;")
	fn, _ := h.b.Decls.Func(ids[0])
	body, _ := h.b.Stmts.Block(fn.Body)
	vs, _ := h.b.Stmts.Var(body.Stmts[1])
	local := vs.Decls[0]
	if _, ok := h.a.Lookup("y"); ok {
		t.Fatalf("local must not be global before promotion")
	}
	if !h.a.PromoteToGlobal(local) {
		t.Fatalf("promotion failed")
	}
	v, _ := h.b.Decls.Var(local)
	if v.Storage != ast.StorageGlobal || v.Init.IsValid() {
		t.Fatalf("unexpected promoted var %+v", v)
	}
	if h.a.PromoteToGlobal(local) {
		t.Fatalf("second promotion must fail")
	}
}

type mapSource map[string]sema.ExternalDecl

func (m mapSource) Lookup(name string) (sema.ExternalDecl, bool) {
	d, ok := m[name]
	return d, ok
}

func (m mapSource) Names() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestExternalSourceIsLazy(t *testing.T) {
	h := newHarness()
	h.a.SetExternalSource(mapSource{
		"base":  {Kind: sema.KindVar, Name: "base", Source: "int base = 40;"},
		"bump":  {Kind: sema.KindFunc, Name: "bump", Source: "int bump(int v) { return v + base; }"},
		"other": {Kind: sema.KindVar, Name: "other", Source: "int other = 1;"},
	})
	h.compile(t, "int r = bump(2);")
	expectCodes(t, h)
	if _, ok := h.a.Lookup("other"); ok {
		t.Fatalf("unused entries must not be materialized")
	}
	// side effects уже забраны compile; проверим порядок через повтор
	h2 := newHarness()
	h2.a.SetExternalSource(mapSource{
		"base": {Kind: sema.KindVar, Name: "base", Source: "int base = 40;"},
		"bump": {Kind: sema.KindFunc, Name: "bump", Source: "int bump(int v) { return v + base; }"},
	})
	h2.p.Enter(h2.fs.AddFragment("input_line_1", "int r = bump(2);"))
	g, _ := h2.p.ParseTopLevel()
	h2.a.AnalyzeGroup(&g)
	side := h2.a.TakeSideEffectDecls()
	if len(side) != 2 || h2.b.Decls.Get(side[0]).Name != "base" || h2.b.Decls.Get(side[1]).Name != "bump" {
		t.Fatalf("unexpected side effect decls %v", side)
	}
	if h2.b.Decls.Get(side[0]).Flags&ast.DeclExternal == 0 {
		t.Fatalf("materialized decls must be flagged external")
	}
}

func TestExportDecls(t *testing.T) {
	h := newHarness()
	h.compile(t, "int x = 1 + 2; int later(int); float half(int v) { return v / 2.0; }")
	exp := h.a.ExportDecls()
	if len(exp) != 3 {
		t.Fatalf("expected 3 exported decls, got %v", exp)
	}
	want := []sema.ExternalDecl{
		{Kind: sema.KindVar, Name: "x", Source: "int x = 1 + 2;"},
		{Kind: sema.KindProto, Name: "later", Source: "int later(int);"},
		{Kind: sema.KindFunc, Name: "half", Source: "float half(int v) {\n    return v / 2.0;\n}"},
	}
	for i := range want {
		if exp[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], exp[i])
		}
	}
}
