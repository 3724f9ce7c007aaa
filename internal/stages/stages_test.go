package stages

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"kiln/internal/ast"
	"kiln/internal/dynlookup"
	"kiln/internal/frontend"
	"kiln/internal/snapshot"
)

type fixture struct {
	t   *testing.T
	fe  *frontend.Frontend
	b   *ast.Builder
	seq int
}

func newFixture(t *testing.T) *fixture {
	fe := frontend.New(frontend.Options{})
	return &fixture{t: t, fe: fe, b: fe.AST()}
}

// groups parses one fragment and fails the test on compile errors.
func (f *fixture) groups(text string) []ast.Group {
	f.t.Helper()
	f.seq++
	f.fe.Enter(f.fe.AddFragment(fmt.Sprintf("input_line_%d", f.seq), text))
	var out []ast.Group
	for {
		g, eof := f.fe.ParseTopLevel()
		if eof {
			break
		}
		if !g.IsEmpty() {
			out = append(out, g)
		}
	}
	if f.fe.Diagnostics().HasErrorOccurred() {
		f.t.Fatalf("unexpected errors: %v", f.fe.Diagnostics().Items())
	}
	return out
}

func (f *fixture) wrapperStmts(id ast.DeclID) []ast.StmtID {
	fn, ok := f.b.Decls.Func(id)
	if !ok {
		f.t.Fatalf("decl %d is not a function", id)
	}
	blk, _ := f.b.Stmts.Block(fn.Body)
	return blk.Stmts
}

func TestExtractorHoistsWrapperVars(t *testing.T) {
	f := newFixture(t)
	gs := f.groups("print(1);\nint y = 2;\nint z;\ny + z")
	if len(gs) != 1 || gs[0].Len() != 1 {
		t.Fatalf("expected one wrapper group, got %v", gs)
	}
	g := gs[0]
	wrapper := g.First()

	NewDeclExtractor(f.b, f.fe).HandleGroup(&g)

	if g.Len() != 3 || g.Last() != wrapper {
		t.Fatalf("expected [y z wrapper], got %v", g.Decls)
	}
	for _, id := range g.Decls[:2] {
		d := f.b.Decls.Get(id)
		v, _ := f.b.Decls.Var(id)
		if d.Flags&ast.DeclPromoted == 0 || v.Storage != ast.StorageGlobal {
			t.Fatalf("%s not promoted", d.Name)
		}
		if _, ok := f.fe.Analyzer().Lookup(d.Name); !ok {
			t.Fatalf("%s not visible globally", d.Name)
		}
	}

	var kinds []ast.StmtKind
	for _, st := range f.wrapperStmts(wrapper) {
		kinds = append(kinds, f.b.Stmts.Get(st).Kind)
	}
	// print(1); y = 2; y + z  (z без инициализатора исчезает)
	want := []ast.StmtKind{ast.StmtExpr, ast.StmtExpr, ast.StmtExpr}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Fatalf("wrapper body kinds %v, want %v", kinds, want)
	}
	assignStmt, _ := f.b.Stmts.Expr(f.wrapperStmts(wrapper)[1])
	if got := f.b.ExprString(assignStmt.Expr); got != "y = 2" {
		t.Fatalf("left behind %q", got)
	}
}

func TestExtractorKeepsShadowingLocal(t *testing.T) {
	f := newFixture(t)
	f.groups("int y = 1;")
	gs := f.groups("print(0);\nint y = 5;")
	g := gs[0]
	NewDeclExtractor(f.b, f.fe).HandleGroup(&g)
	if g.Len() != 1 {
		t.Fatalf("nothing must be hoisted, got %v", g.Decls)
	}
	last := f.wrapperStmts(g.First())[1]
	if f.b.Stmts.Get(last).Kind != ast.StmtVar {
		t.Fatalf("local declaration must stay in place")
	}
}

func TestValuePrinterMarksTrailingExpr(t *testing.T) {
	f := newFixture(t)
	g := f.groups("int a = 1;\na + 2")
	wrapper := g[1]
	NewValuePrinter(f.b).HandleGroup(&wrapper)
	st := f.wrapperStmts(wrapper.First())[0]
	if f.b.Stmts.Get(st).Kind != ast.StmtValuePrint {
		t.Fatalf("trailing expression not rewritten")
	}

	g2 := f.groups("a + 3;")
	NewValuePrinter(f.b).HandleGroup(&g2[0])
	st = f.wrapperStmts(g2[0].First())[0]
	if f.b.Stmts.Get(st).Kind != ast.StmtExpr {
		t.Fatalf("expression with ';' must stay silent")
	}
}

func TestDynamicRewriter(t *testing.T) {
	f := newFixture(t)
	h := dynlookup.New(f.fe, nil)
	if err := h.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	gs := f.groups("print(ghost + 1);")
	rw := NewDynamicRewriter(f.b)
	rw.HandleGroup(&gs[0])
	if rw.Rewritten() != 1 {
		t.Fatalf("rewritten %d identifiers", rw.Rewritten())
	}
	var dynamic int
	f.b.WalkDeclExprs(gs[0].First(), func(e ast.ExprID) {
		if f.b.Exprs.Get(e).Kind == ast.ExprDynamic {
			dynamic++
		}
	})
	if dynamic != 1 {
		t.Fatalf("expected one run-time lookup, got %d", dynamic)
	}
}

func TestDumper(t *testing.T) {
	f := newFixture(t)
	gs := f.groups("int d = 4;")
	var buf bytes.Buffer
	NewDumper(f.b, &buf).HandleGroup(&gs[0])
	if !strings.Contains(buf.String(), "// group of 1\nint d = 4;\n") {
		t.Fatalf("unexpected dump %q", buf.String())
	}
}

type fakeSink struct{ groups, finals int }

func (s *fakeSink) HandleGroup(*ast.Group) { s.groups++ }
func (s *fakeSink) Finalize()              { s.finals++ }

func TestCodeGenForwards(t *testing.T) {
	sink := &fakeSink{}
	st := NewCodeGen(sink)
	g := ast.GroupOf(1)
	st.HandleGroup(&g)
	st.HandleGroup(&g)
	st.FlushTransaction()
	if sink.groups != 2 || sink.finals != 1 {
		t.Fatalf("sink saw %+v", sink)
	}
}

func TestSnapshotWriterOnce(t *testing.T) {
	f := newFixture(t)
	f.groups("int kept = 3;")
	path := filepath.Join(t.TempDir(), "s.ksnap")
	w, err := snapshot.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	st := NewSnapshotWriter(w, f.fe.ExportDecls)
	g := ast.GroupOf(1)
	st.HandleGroup(&g)
	st.FlushTransaction()
	if groups, txns := st.Seen(); groups != 1 || txns != 1 {
		t.Fatalf("Seen() = %d, %d", groups, txns)
	}
	if err := st.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := st.Write(); !errors.Is(err, snapshot.ErrAlreadyWritten) {
		t.Fatalf("second Write: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	src, err := snapshot.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := src.Lookup("kept"); !ok {
		t.Fatalf("snapshot lost 'kept': %v", src.Names())
	}
}
