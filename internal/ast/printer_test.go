package ast

import (
	"bytes"
	"testing"

	"kiln/internal/source"
)

func lit(b *Builder, v int64, raw string) ExprID {
	return b.Exprs.NewLiteral(source.Span{}, ExprLiteralData{Kind: LitInt, Raw: raw, Int: v})
}

func TestPrintVarAndFunc(t *testing.T) {
	b := NewBuilder(Hints{})

	x := b.Decls.NewVar(source.Span{}, "x", VarDeclData{Type: TypeInt, Init: lit(b, 5, "5")})
	if got := b.DeclString(x); got != "int x = 5;" {
		t.Fatalf("var: %q", got)
	}

	a := b.Decls.NewVar(source.Span{}, "a", VarDeclData{Type: TypeInt, Storage: StorageParam})
	bb := b.Decls.NewVar(source.Span{}, "b", VarDeclData{Type: TypeInt, Storage: StorageParam, Slot: 1})
	sum := b.Exprs.NewBinary(source.Span{}, BinAdd, b.Exprs.NewIdent(source.Span{}, "a"), b.Exprs.NewIdent(source.Span{}, "b"))
	// неявное преобразование не печатается
	ret := b.Stmts.NewReturn(source.Span{}, b.Exprs.NewConvert(sum, TypeFloat))
	body := b.Stmts.NewBlock(source.Span{}, []StmtID{ret})
	fn := b.Decls.NewFunc(DeclFunc, source.Span{}, "add", FuncDeclData{Result: TypeFloat, Params: []DeclID{a, bb}, Body: body})

	want := "float add(int a, int b) {\n    return a + b;\n}"
	if got := b.DeclString(fn); got != want {
		t.Fatalf("func:\n got %q\nwant %q", got, want)
	}

	unnamed := b.Decls.NewVar(source.Span{}, "", VarDeclData{Type: TypeString, Storage: StorageParam})
	proto := b.Decls.NewFunc(DeclFunc, source.Span{}, "later", FuncDeclData{Result: TypeVoid, Params: []DeclID{unnamed}})
	if got := b.DeclString(proto); got != "void later(string);" {
		t.Fatalf("proto: %q", got)
	}
	if !b.Decls.IsPrototype(proto) || b.Decls.IsPrototype(fn) {
		t.Fatalf("IsPrototype misclassified")
	}
}

func TestPrintStatements(t *testing.T) {
	b := NewBuilder(Hints{})
	sp := source.Span{}

	cond := b.Exprs.NewBinary(sp, BinLt, b.Exprs.NewIdent(sp, "i"), lit(b, 3, "3"))
	inc := b.Exprs.NewAssign(sp, b.Exprs.NewIdent(sp, "i"),
		b.Exprs.NewBinary(sp, BinAdd, b.Exprs.NewIdent(sp, "i"), lit(b, 1, "1")))
	loopBody := b.Stmts.NewBlock(sp, []StmtID{b.Stmts.NewExpr(sp, inc, false), b.Stmts.NewSimple(StmtBreak, sp)})
	loop := b.Stmts.NewWhile(sp, cond, loopBody)
	last := b.Stmts.NewExpr(sp, b.Exprs.NewUnary(sp, UnaryNeg, b.Exprs.NewIdent(sp, "i")), true)
	body := b.Stmts.NewBlock(sp, []StmtID{loop, last})
	w := b.Decls.NewFunc(DeclWrapper, sp, "__kiln_wrapper_1", FuncDeclData{Result: TypeVoid, Body: body})

	want := "void __kiln_wrapper_1() {\n" +
		"    while (i < 3) {\n" +
		"        i = i + 1;\n" +
		"        break;\n" +
		"    }\n" +
		"    -i\n" +
		"}"
	if got := b.DeclString(w); got != want {
		t.Fatalf("wrapper:\n got %q\nwant %q", got, want)
	}

	if !b.Stmts.MakeValuePrint(last) {
		t.Fatalf("MakeValuePrint failed")
	}
	if b.Stmts.Get(last).Kind != StmtValuePrint {
		t.Fatalf("statement not rewritten")
	}
	var buf bytes.Buffer
	g := GroupOf(w)
	if err := b.FprintGroup(&buf, &g); err != nil {
		t.Fatalf("FprintGroup: %v", err)
	}
	if buf.String() != want+"\n" {
		t.Fatalf("value print must render as the bare expression, got %q", buf.String())
	}
}

func TestMakeDynamicKeepsID(t *testing.T) {
	b := NewBuilder(Hints{})
	id := b.Exprs.NewIdent(source.Span{Start: 1, End: 4}, "foo")
	call := b.Exprs.NewCall(source.Span{}, id, nil)

	if !b.Exprs.MakeDynamic(id) {
		t.Fatalf("MakeDynamic failed")
	}
	data, ok := b.Exprs.Dynamic(id)
	if !ok || data.Name != "foo" || b.Exprs.Get(id).Type != TypeDynamic {
		t.Fatalf("unexpected dynamic node %+v", b.Exprs.Get(id))
	}
	if c, _ := b.Exprs.Call(call); c.Callee != id {
		t.Fatalf("parent lost the rewritten child")
	}
	if b.Exprs.MakeDynamic(id) {
		t.Fatalf("second rewrite must be rejected")
	}
	if got := b.ExprString(call); got != "foo()" {
		t.Fatalf("print: %q", got)
	}
}

func TestWalkDeclExprs(t *testing.T) {
	b := NewBuilder(Hints{})
	sp := source.Span{}
	local := b.Decls.NewVar(sp, "y", VarDeclData{Type: TypeInt, Storage: StorageLocal, Init: b.Exprs.NewIdent(sp, "z")})
	ifs := b.Stmts.NewIf(sp, b.Exprs.NewIdent(sp, "c"), b.Stmts.NewVar(sp, []DeclID{local}), NoStmtID)
	fn := b.Decls.NewFunc(DeclWrapper, sp, "w", FuncDeclData{Result: TypeVoid, Body: b.Stmts.NewBlock(sp, []StmtID{ifs})})

	var names []string
	b.WalkDeclExprs(fn, func(id ExprID) {
		if data, ok := b.Exprs.Ident(id); ok {
			names = append(names, data.Name)
		}
	})
	if len(names) != 2 || names[0] != "c" || names[1] != "z" {
		t.Fatalf("unexpected walk order %v", names)
	}
}

func TestGroupHelpers(t *testing.T) {
	var empty Group
	if !empty.IsEmpty() || empty.First().IsValid() || empty.Last().IsValid() {
		t.Fatalf("empty group misbehaves")
	}
	g := GroupOf(3)
	g.InsertBefore(0, 1, 2)
	if g.Len() != 3 || g.First() != 1 || g.Last() != 3 {
		t.Fatalf("unexpected group %v", g.Decls)
	}
	c := g.Clone()
	c.Decls[0] = 9
	if g.Decls[0] != 1 {
		t.Fatalf("clone shares backing array")
	}
}
