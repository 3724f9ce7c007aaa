package codegen_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"kiln/internal/codegen"
	"kiln/internal/diag"
	"kiln/internal/frontend"
	"kiln/internal/source"
	"kiln/internal/vm"
)

type harness struct {
	t   *testing.T
	fe  *frontend.Frontend
	gen *codegen.Generator
	out *bytes.Buffer
	seq int
}

func newHarness(t *testing.T, maxDepth int) *harness {
	t.Helper()
	fe := frontend.New(frontend.Options{})
	out := &bytes.Buffer{}
	gen := codegen.New(fe.AST(), codegen.Options{
		Reporter: fe.Diagnostics(),
		Stdout:   out,
		MaxDepth: maxDepth,
	})
	return &harness{t: t, fe: fe, gen: gen, out: out}
}

// lower parses text as one fragment and hands every group to the generator.
func (h *harness) lower(text string) {
	h.t.Helper()
	h.seq++
	h.fe.Enter(h.fe.FileSet().AddFragment(fmt.Sprintf("input_line_%d", h.seq), text))
	for {
		g, eof := h.fe.ParseTopLevel()
		if eof {
			break
		}
		if !g.IsEmpty() {
			h.gen.HandleGroup(&g)
		}
	}
}

// run lowers, commits and runs one fragment; compile errors fail the test.
func (h *harness) run(text string) error {
	h.t.Helper()
	h.fe.Diagnostics().Reset()
	h.lower(text)
	if h.fe.Diagnostics().HasErrorOccurred() {
		h.t.Fatalf("unexpected compile errors: %v", h.fe.Diagnostics().Items())
	}
	h.gen.Finalize()
	return h.gen.RunStaticInitializersOnce(context.Background())
}

func TestGlobalsFunctionsAndWrappers(t *testing.T) {
	h := newHarness(t, 0)
	err := h.run("int x = 2;\nint sq(int v) { return v * v; }\nprint(sq(x) + 1);")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := h.out.String(); got != "5\n" {
		t.Fatalf("unexpected output %q", got)
	}
	g, ok := h.gen.VM().LookupName("x")
	if !ok || g.Value != vm.IntValue(2) {
		t.Fatalf("global x not committed: %+v", g)
	}

	// повторный запуск ничего не исполняет
	h.out.Reset()
	if err := h.gen.RunStaticInitializersOnce(context.Background()); err != nil || h.out.Len() != 0 {
		t.Fatalf("initializers ran twice: %q %v", h.out.String(), err)
	}
}

func TestControlFlow(t *testing.T) {
	h := newHarness(t, 0)
	src := `int sum = 0;
int i = 0;
while (true) {
    i = i + 1;
    if (i > 10) { break; }
    if (i % 2 == 0) { continue; }
    sum = sum + i;
}
print(sum, i);`
	if err := h.run(src); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := h.out.String(); got != "25 11\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestLocalsAndConversions(t *testing.T) {
	h := newHarness(t, 0)
	src := `float half(int v) {
    float f = v;
    return f / 2;
}
int trunc = 7.9;
print(half(3), trunc, str(trunc) + "!", len("héllo"));`
	if err := h.run(src); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := h.out.String(); got != "1.5 7 7! 5\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestShortCircuit(t *testing.T) {
	h := newHarness(t, 0)
	src := `int calls = 0;
bool touch() {
    calls = calls + 1;
    return true;
}
bool r = false && touch();
bool s = true || touch();
print(calls, r, s);`
	if err := h.run(src); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := h.out.String(); got != "0 false true\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestDiscardDropsUnit(t *testing.T) {
	h := newHarness(t, 0)
	h.lower("int dropped = 1;\nprint(dropped);")
	h.gen.Discard()
	h.gen.Finalize()
	if err := h.gen.RunStaticInitializersOnce(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := h.gen.VM().LookupName("dropped"); ok {
		t.Fatalf("discarded global reached the machine")
	}
	if h.out.Len() != 0 {
		t.Fatalf("discarded wrapper ran: %q", h.out.String())
	}
}

func TestRuntimeErrorKeepsRunning(t *testing.T) {
	h := newHarness(t, 0)
	h.lower("int z = 0;\nprint(1 / z);")
	h.gen.Finalize()
	h.lower("int after = 3;\nprint(\"after\", after);")
	h.gen.Finalize()
	if h.fe.Diagnostics().HasErrorOccurred() {
		t.Fatalf("unexpected compile errors: %v", h.fe.Diagnostics().Items())
	}

	err := h.gen.RunStaticInitializersOnce(context.Background())
	var vmErr *vm.VMError
	if !errors.As(err, &vmErr) || vmErr.Code != vm.PanicDivisionByZero {
		t.Fatalf("expected division by zero, got %v", err)
	}
	if got := h.out.String(); got != "after 3\n" {
		t.Fatalf("later initializers must still run, got %q", got)
	}
}

func TestPrototypeResolvedAtCallTime(t *testing.T) {
	h := newHarness(t, 0)
	err := h.run("int later(int v);\nprint(later(2));")
	var vmErr *vm.VMError
	if !errors.As(err, &vmErr) || vmErr.Code != vm.PanicUnknownFunction {
		t.Fatalf("expected unknown function, got %v", err)
	}
	if err := h.run("int later(int v) { return v + 40; }\nprint(later(2));"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := h.out.String(); got != "42\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestStackOverflowBacktrace(t *testing.T) {
	h := newHarness(t, 16)
	err := h.run("int down(int n) { return down(n + 1); }\ndown(0);")
	var vmErr *vm.VMError
	if !errors.As(err, &vmErr) || vmErr.Code != vm.PanicStackOverflow {
		t.Fatalf("expected stack overflow, got %v", err)
	}
	if len(vmErr.Backtrace) != 16 {
		t.Fatalf("expected 16 frames, got %d", len(vmErr.Backtrace))
	}
	if h.gen.VM().Depth() != 0 {
		t.Fatalf("stack not unwound")
	}
}

type deferAll struct{ calls int }

func (d *deferAll) LookupUnresolved(string, source.Span) bool {
	d.calls++
	return true
}

func TestDeferredIdentWithoutRewriteIsAnError(t *testing.T) {
	h := newHarness(t, 0)
	if err := h.fe.InstallResolver(&deferAll{}); err != nil {
		t.Fatalf("InstallResolver: %v", err)
	}
	h.lower("print(nowhere);")
	var found bool
	for _, d := range h.fe.Diagnostics().Items() {
		if d.Code == diag.GenUnresolvedDynamic {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s, got %v", diag.GenUnresolvedDynamic, h.fe.Diagnostics().Items())
	}
	h.gen.Finalize()
	if h.gen.Queued() != 0 {
		t.Fatalf("wrapper with an unresolved name must not be queued")
	}
}

func TestReleaseStopsAccepting(t *testing.T) {
	h := newHarness(t, 0)
	h.gen.Release()
	h.lower("int late = 1;")
	h.gen.Finalize()
	if _, ok := h.gen.VM().LookupName("late"); ok {
		t.Fatalf("released generator accepted a unit")
	}
}
