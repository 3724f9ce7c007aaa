package driver_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kiln/internal/ast"
	"kiln/internal/codegen"
	"kiln/internal/diag"
	"kiln/internal/driver"
	"kiln/internal/dynlookup"
	"kiln/internal/frontend"
	"kiln/internal/pipeline"
	"kiln/internal/sema"
	"kiln/internal/session"
	"kiln/internal/source"
)

// recordingBackend counts what reaches code generation.
type recordingBackend struct {
	*codegen.Generator
	groups   int
	discards int
}

func (r *recordingBackend) HandleGroup(g *ast.Group) {
	r.groups++
	r.Generator.HandleGroup(g)
}

func (r *recordingBackend) Discard() {
	r.discards++
	r.Generator.Discard()
}

type harness struct {
	d   *driver.Driver
	fe  *frontend.Frontend
	be  *recordingBackend
	out *bytes.Buffer
}

func newHarness(t *testing.T, opts driver.Options) *harness {
	t.Helper()
	fe := frontend.New(frontend.Options{})
	out := &bytes.Buffer{}
	be := &recordingBackend{Generator: codegen.New(fe.AST(), codegen.Options{
		Reporter: fe.Diagnostics(),
		Stdout:   out,
	})}
	d, err := driver.New(context.Background(), fe, be, opts)
	if err != nil {
		t.Fatalf("driver.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	be.groups = 0
	out.Reset()
	return &harness{d: d, fe: fe, be: be, out: out}
}

func (h *harness) prompt(t *testing.T, line string) driver.Outcome {
	t.Helper()
	return h.d.CompileLineFromPrompt(context.Background(), line)
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, it := range bag.Items() {
		if it.Code == code {
			return true
		}
	}
	return false
}

// probe sits in the snapshot writer slot and records the toggles it sees.
type probe struct {
	p         *pipeline.Pipeline
	extractor []bool
	printer   []bool
}

func (s *probe) EnabledByDefault() bool { return true }
func (s *probe) FlushTransaction()      {}

func (s *probe) HandleGroup(*ast.Group) {
	s.extractor = append(s.extractor, s.p.IsEnabled(pipeline.StageDeclExtractor))
	s.printer = append(s.printer, s.p.IsEnabled(pipeline.StageValuePrinter))
}

func attachProbe(t *testing.T, h *harness) *probe {
	t.Helper()
	pr := &probe{p: h.d.Pipeline()}
	if !h.d.Pipeline().Register(pipeline.StageSnapshotWriter, pr) {
		t.Fatalf("probe slot taken")
	}
	return pr
}

func TestNewRequiresCollaborators(t *testing.T) {
	ctx := context.Background()
	fe := frontend.New(frontend.Options{})
	gen := codegen.New(fe.AST(), codegen.Options{Reporter: fe.Diagnostics()})
	if _, err := driver.New(ctx, nil, gen, driver.Options{}); !errors.Is(err, driver.ErrNoFrontend) {
		t.Fatalf("expected ErrNoFrontend, got %v", err)
	}
	if _, err := driver.New(ctx, fe, nil, driver.Options{}); !errors.Is(err, driver.ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
}

func TestBootstrapCompilesRuntime(t *testing.T) {
	h := newHarness(t, driver.Options{})
	if _, ok := h.fe.Analyzer().Lookup("clamp"); !ok {
		t.Fatalf("runtime not compiled at startup")
	}
	log := h.d.State().Log()
	if len(log) != 2 {
		t.Fatalf("expected 2 bootstrap transactions, got %d", len(log))
	}
	if !log[0].Empty() || log[0].Fragment != "" {
		t.Fatalf("first bootstrap call must drain pending input only: %+v", log[0])
	}
	for _, txn := range log {
		if txn.State != session.TxnCommitted {
			t.Fatalf("bootstrap transaction %d is %s", txn.ID, txn.State)
		}
	}
	if out := h.prompt(t, "abs(-3)"); out.Status != driver.StatusSuccess || h.out.String() != "(int) 3\n" {
		t.Fatalf("runtime call: %s %q", out.Status, h.out.String())
	}
}

func TestNoBootstrap(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	if len(h.d.State().Log()) != 0 {
		t.Fatalf("no transaction expected")
	}
	if _, ok := h.fe.Analyzer().Lookup("abs"); ok {
		t.Fatalf("runtime must not be visible")
	}
}

func TestCompileSingleDeclaration(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	out := h.d.CompileAsIs(context.Background(), "int x = 5;")
	if out.Status != driver.StatusSuccess {
		t.Fatalf("status %s: %v", out.Status, out.Diags.Items())
	}
	txn := out.Txn
	if len(txn.Decls) != 1 || txn.First != txn.Last || txn.Fragment != "input_line_1" {
		t.Fatalf("unexpected transaction %+v", txn)
	}
	decl := h.fe.AST().Decls.Get(txn.First)
	if decl.Kind != ast.DeclVar || decl.Name != "x" {
		t.Fatalf("unexpected decl %+v", decl)
	}
	if h.be.groups != 1 || txn.State != session.TxnCommitted {
		t.Fatalf("groups=%d state=%s", h.be.groups, txn.State)
	}
}

func TestIncompleteFragmentFails(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	out := h.d.CompileAsIs(context.Background(), "int x = ")
	if out.Status != driver.StatusFailed || !out.Diags.HasErrors() {
		t.Fatalf("expected failure, got %s", out.Status)
	}
	if h.be.groups != 0 || h.be.discards != 1 {
		t.Fatalf("nothing may reach codegen: groups=%d discards=%d", h.be.groups, h.be.discards)
	}
	if out.Txn.State != session.TxnFailed {
		t.Fatalf("transaction state %s", out.Txn.State)
	}
	if _, ok := h.fe.Analyzer().Lookup("x"); ok {
		t.Fatalf("failed declaration still visible")
	}
	// диагностика не переходит в следующий вызов
	if next := h.d.CompileAsIs(context.Background(), "int y = 1;"); next.Status != driver.StatusSuccess || next.Diags.Len() != 0 {
		t.Fatalf("diagnostics leaked: %s %v", next.Status, next.Diags.Items())
	}
}

func TestSameFragmentTwice(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	ctx := context.Background()
	first := h.d.CompileAsIs(ctx, "int x = 5;")
	second := h.d.CompileAsIs(ctx, "int x = 5;")
	if first.Status != driver.StatusSuccess {
		t.Fatalf("first: %s", first.Status)
	}
	if second.Status != driver.StatusFailed || !hasCode(second.Diags, diag.SemaDuplicateSymbol) {
		t.Fatalf("second must fail with a redefinition: %s %v", second.Status, second.Diags.Items())
	}
	if first.Txn == second.Txn || first.Txn.ID == second.Txn.ID || second.Txn.Fragment != "input_line_2" {
		t.Fatalf("transactions must be independent")
	}
	if first.Txn.State != session.TxnCommitted || second.Txn.State != session.TxnFailed {
		t.Fatalf("states: %s, %s", first.Txn.State, second.Txn.State)
	}
	if out := h.prompt(t, "x"); out.Status != driver.StatusSuccess || h.out.String() != "(int) 5\n" {
		t.Fatalf("x must survive the failed redefinition: %s %q", out.Status, h.out.String())
	}
}

func TestEmptyCompile(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	out := h.d.CompileAsIs(context.Background(), "")
	if out.Status != driver.StatusSuccess || !out.Txn.Empty() {
		t.Fatalf("empty compile: %s %+v", out.Status, out.Txn)
	}
	if out.Txn.First.IsValid() || out.Txn.Last.IsValid() || h.d.State().Fragments() != 0 {
		t.Fatalf("empty compile must not name a fragment")
	}
}

func TestWarningsClassify(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	out := h.d.CompileAsIs(context.Background(), "int lossy = 2.5;")
	if out.Status != driver.StatusSucceededWithWarnings || !out.OK() {
		t.Fatalf("expected warnings, got %s %v", out.Status, out.Diags.Items())
	}
}

func TestPromptRejectsDirective(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	for _, line := range []string{`#include "x.ks"`, "  #pragma kiln dynamic_lookup on"} {
		out := h.prompt(t, line)
		if out.Status != driver.StatusInvalidInput || !errors.Is(out.Err, driver.ErrDirectiveInPrompt) || out.Txn != nil {
			t.Fatalf("%q: expected invalid input, got %s %v", line, out.Status, out.Err)
		}
	}
	if len(h.d.State().Log()) != 0 {
		t.Fatalf("rejected input must not open a transaction")
	}
}

func TestPromptExtractsAndPrints(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	if out := h.prompt(t, "int y = 2;"); out.Status != driver.StatusSuccess {
		t.Fatalf("decl: %s", out.Status)
	}
	if out := h.prompt(t, "print(y); int z = y * 3; z"); out.Status != driver.StatusSuccess {
		t.Fatalf("wrapper: %s %v", out.Status, out.Diags.Items())
	}
	if _, ok := h.fe.Analyzer().Lookup("z"); !ok {
		t.Fatalf("z must be hoisted to a global")
	}
	if out := h.prompt(t, "z + 1"); out.Status != driver.StatusSuccess {
		t.Fatalf("use: %s", out.Status)
	}
	if got, want := h.out.String(), "2\n(int) 6\n(int) 7\n"; got != want {
		t.Fatalf("output %q, want %q", got, want)
	}
}

func TestAsIsKeepsExtractionOff(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	pr := attachProbe(t, h)
	before := h.d.Pipeline().States()
	h.d.CompileAsIs(context.Background(), "int a = 1; print(a); a")
	if len(pr.extractor) == 0 {
		t.Fatalf("probe saw nothing")
	}
	for i := range pr.extractor {
		if pr.extractor[i] || pr.printer[i] {
			t.Fatalf("batch %d: extractor=%v printer=%v", i, pr.extractor[i], pr.printer[i])
		}
	}
	if after := h.d.Pipeline().States(); !equalStates(before, after) {
		t.Fatalf("pipeline changed: %v -> %v", before, after)
	}
	if strings.Contains(h.out.String(), "(int)") {
		t.Fatalf("as-is mode printed a value: %q", h.out.String())
	}
}

func TestPromptRestoresStagesOnError(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	pr := attachProbe(t, h)
	h.d.Pipeline().Disable(pipeline.StageValuePrinter)
	before := h.d.Pipeline().States()

	out := h.prompt(t, `print(1); missing_name`)
	if out.Status != driver.StatusFailed {
		t.Fatalf("expected failure, got %s", out.Status)
	}
	if len(pr.extractor) == 0 || !pr.extractor[0] || !pr.printer[0] {
		t.Fatalf("prompt mode must enable both stages during the call")
	}
	if after := h.d.Pipeline().States(); !equalStates(before, after) {
		t.Fatalf("pipeline not restored: %v -> %v", before, after)
	}
}

func equalStates(a, b []pipeline.StageState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDynamicLookupToggle(t *testing.T) {
	var ids *dynlookup.IDHandler
	h := newHarness(t, driver.Options{
		NoBootstrap: true,
		Resolver: func() sema.ExternalResolver {
			ids = dynlookup.NewIDHandler()
			return ids
		},
	})
	if err := h.d.EnableDynamicLookup(false); err != nil {
		t.Fatalf("disable when off: %v", err)
	}
	if err := h.d.EnableDynamicLookup(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := h.d.EnableDynamicLookup(true); !errors.Is(err, sema.ErrResolverInstalled) {
		t.Fatalf("second enable: %v", err)
	}
	if !h.d.State().DynamicLookup {
		t.Fatalf("flag not set")
	}

	out := h.prompt(t, "print(ghost);")
	if ids.Calls() != 1 {
		t.Fatalf("resolver called %d times", ids.Calls())
	}
	if out.Status != driver.StatusFailed || !hasCode(out.Diags, diag.RunError) {
		t.Fatalf("undefined dynamic name must fail at run time: %s %v", out.Status, out.Diags.Items())
	}
	if hasCode(out.Diags, diag.SemaUnresolvedSymbol) {
		t.Fatalf("name must not fail analysis")
	}

	if err := h.d.EnableDynamicLookup(false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if out := h.prompt(t, "print(ghost);"); !hasCode(out.Diags, diag.SemaUnresolvedSymbol) {
		t.Fatalf("strict mode must reject the name: %v", out.Diags.Items())
	}
}

func TestPragmaEnablesDynamicLookup(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	out := h.d.CompilePreprocessed(context.Background(), "#pragma kiln dynamic_lookup on\n")
	if out.Status != driver.StatusSuccess {
		t.Fatalf("pragma: %s %v", out.Status, out.Diags.Items())
	}
	if !h.d.DynamicLookup().Enabled() || !h.d.Pipeline().IsEnabled(pipeline.StageDynamicRewriter) {
		t.Fatalf("pragma did not switch dynamic lookup on")
	}
	out = h.d.CompilePreprocessed(context.Background(), "#pragma kiln dynamic_lookup maybe\n")
	if out.Status != driver.StatusFailed || !hasCode(out.Diags, diag.SynBadDirective) {
		t.Fatalf("bad pragma value: %s %v", out.Status, out.Diags.Items())
	}
}

type reentrantResolver struct {
	d   *driver.Driver
	got []driver.Outcome
}

func (r *reentrantResolver) LookupUnresolved(string, source.Span) bool {
	r.got = append(r.got, r.d.CompileAsIs(context.Background(), "int inner = 1;"))
	return true
}

func TestReentrantCallRejected(t *testing.T) {
	res := &reentrantResolver{}
	h := newHarness(t, driver.Options{
		NoBootstrap: true,
		Resolver:    func() sema.ExternalResolver { return res },
	})
	res.d = h.d
	if err := h.d.EnableDynamicLookup(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	h.prompt(t, "print(outer);")
	if len(res.got) != 1 {
		t.Fatalf("resolver not consulted")
	}
	if got := res.got[0]; got.Status != driver.StatusInvalidInput || !errors.Is(got.Err, driver.ErrReentrant) {
		t.Fatalf("nested compile: %s %v", got.Status, got.Err)
	}
	if _, ok := h.fe.Analyzer().Lookup("inner"); ok {
		t.Fatalf("nested compile must not run")
	}
}

func TestParseDeclarationsOnly(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	ctx := context.Background()
	groups, out := h.d.ParseDeclarationsOnly(ctx, "int a = 1; int twice(int v) { return v * 2; }")
	if out.Status != driver.StatusSuccess || len(groups) != 2 {
		t.Fatalf("status %s, %d groups", out.Status, len(groups))
	}
	if h.be.groups != 0 {
		t.Fatalf("code generation must be off, got %d groups", h.be.groups)
	}
	if !h.d.Pipeline().IsEnabled(pipeline.StageCodeGen) {
		t.Fatalf("code generation not re-enabled")
	}
	if out.Txn.State != session.TxnParsed || !out.Txn.DeclOnly {
		t.Fatalf("transaction must stay pending: %s", out.Txn.State)
	}
	name := h.fe.AST().Decls.Get(groups[1].First()).Name
	if name != "twice" {
		t.Fatalf("unexpected second group %q", name)
	}

	next := h.d.CompileAsIs(ctx, "int b = 2;")
	if next.Status != driver.StatusSuccess || out.Txn.State != session.TxnCommitted {
		t.Fatalf("next compile must flush the pending transaction: %s", out.Txn.State)
	}
	if h.be.groups != 3 {
		t.Fatalf("flushed batches must reach the backend, got %d groups", h.be.groups)
	}
	if len(out.Txn.Batches) != 0 {
		t.Fatalf("replayed batches must be released")
	}

	h.out.Reset()
	for _, line := range []string{"twice(21)", "a"} {
		if res := h.prompt(t, line); res.Status != driver.StatusSuccess {
			t.Fatalf("%q: %s %v", line, res.Status, res.Diags.Items())
		}
	}
	if got := h.out.String(); got != "(int) 42\n(int) 1\n" {
		t.Fatalf("flushed declarations must run: %q", got)
	}
}

func TestParseDeclarationsOnlyTwiceInARow(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	ctx := context.Background()
	if _, out := h.d.ParseDeclarationsOnly(ctx, "int one() { return 1; }"); !out.OK() {
		t.Fatalf("first: %s", out.Status)
	}
	// второй вызов сбрасывает первый при выключенной кодогенерации
	if _, out := h.d.ParseDeclarationsOnly(ctx, "int two() { return one() + 1; }"); !out.OK() {
		t.Fatalf("second: %s", out.Status)
	}
	if res := h.prompt(t, "two()"); res.Status != driver.StatusSuccess {
		t.Fatalf("two(): %s %v", res.Status, res.Diags.Items())
	}
	if got := h.out.String(); got != "(int) 2\n" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "boot.kss")

	build := newHarness(t, driver.Options{SnapshotPath: path})
	if !build.d.State().BuildingSnapshot || build.d.State().UsingSnapshot {
		t.Fatalf("missing snapshot must switch to build mode")
	}
	for _, src := range []string{"int base = 40;", "int add2(int v) { return v + 2; }"} {
		if out := build.d.CompileAsIs(ctx, src); out.Status != driver.StatusSuccess {
			t.Fatalf("%q: %s", src, out.Status)
		}
	}
	if err := build.d.WriteStartupSnapshot(ctx); err != nil {
		t.Fatalf("write: %v", err)
	}
	if build.d.Pipeline().Exists(pipeline.StageSnapshotWriter) {
		t.Fatalf("writer stage must be freed")
	}
	if err := build.d.WriteStartupSnapshot(ctx); !errors.Is(err, driver.ErrNoSnapshotSink) {
		t.Fatalf("second write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file: %v", err)
	}

	load := newHarness(t, driver.Options{SnapshotPath: path})
	if !load.d.State().UsingSnapshot || load.d.State().BuildingSnapshot {
		t.Fatalf("snapshot not used")
	}
	if len(load.d.State().Log()) != 0 {
		t.Fatalf("bootstrap must be skipped, got %d transactions", len(load.d.State().Log()))
	}
	if load.d.StartupSnapshot().Len() == 0 {
		t.Fatalf("empty snapshot")
	}
	if out := load.prompt(t, "add2(base)"); out.Status != driver.StatusSuccess {
		t.Fatalf("use snapshot decls: %s %v", out.Status, out.Diags.Items())
	}
	if out := load.prompt(t, "abs(-1)"); out.Status != driver.StatusSuccess {
		t.Fatalf("runtime from snapshot: %s %v", out.Status, out.Diags.Items())
	}
	if got, want := load.out.String(), "(int) 42\n(int) 1\n"; got != want {
		t.Fatalf("output %q, want %q", got, want)
	}
	if _, err := load.d.LoadStartupSnapshot(ctx, path); !errors.Is(err, driver.ErrSnapshotActive) {
		t.Fatalf("second load: %v", err)
	}
}

func TestSnapshotKeepsHoistedInitializers(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hoisted.kss")

	build := newHarness(t, driver.Options{SnapshotPath: path})
	if out := build.prompt(t, "print(1); int y = 7;"); out.Status != driver.StatusSuccess {
		t.Fatalf("build: %s %v", out.Status, out.Diags.Items())
	}
	if out := build.prompt(t, "y"); out.Status != driver.StatusSuccess {
		t.Fatalf("read y: %s", out.Status)
	}
	if got := build.out.String(); got != "1\n(int) 7\n" {
		t.Fatalf("builder output %q", got)
	}
	if err := build.d.WriteStartupSnapshot(ctx); err != nil {
		t.Fatalf("write: %v", err)
	}

	load := newHarness(t, driver.Options{SnapshotPath: path})
	entry, ok := load.d.StartupSnapshot().Lookup("y")
	if !ok {
		t.Fatalf("hoisted variable missing from the snapshot")
	}
	if entry.Source != "int y = 7;" {
		t.Fatalf("exported source %q", entry.Source)
	}
	if out := load.prompt(t, "y"); out.Status != driver.StatusSuccess {
		t.Fatalf("load y: %s %v", out.Status, out.Diags.Items())
	}
	if got := load.out.String(); got != "(int) 7\n" {
		t.Fatalf("loaded value %q, want the builder's", got)
	}
}

func TestCloseRemovesUnwrittenSink(t *testing.T) {
	dir := t.TempDir()
	fe := frontend.New(frontend.Options{})
	gen := codegen.New(fe.AST(), codegen.Options{Reporter: fe.Diagnostics(), Stdout: &bytes.Buffer{}})
	d, err := driver.New(context.Background(), fe, gen, driver.Options{SnapshotPath: filepath.Join(dir, "s.kss")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("sink left behind: %v", entries)
	}
	if out := d.CompileAsIs(context.Background(), "int x;"); !errors.Is(out.Err, driver.ErrClosed) {
		t.Fatalf("use after close: %v", out.Err)
	}
}

func TestRuntimeErrorKeepsDeclarations(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	ctx := context.Background()
	h.d.CompileAsIs(ctx, "int zero = 0;")
	out := h.d.CompileAsIs(ctx, "int r = 10 / zero;")
	if out.Status != driver.StatusFailed || !hasCode(out.Diags, diag.RunError) {
		t.Fatalf("expected run error: %s %v", out.Status, out.Diags.Items())
	}
	if h.be.discards != 0 {
		t.Fatalf("run-time failure must not discard the unit")
	}
	if _, ok := h.fe.Analyzer().Lookup("r"); !ok {
		t.Fatalf("committed declaration was rolled back")
	}
	if next := h.prompt(t, "r"); next.Status != driver.StatusSuccess || h.out.String() != "(int) 0\n" {
		t.Fatalf("r: %s %q", next.Status, h.out.String())
	}
}

func TestTimingsAttached(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true, EnableTimings: true})
	out := h.d.CompileAsIs(context.Background(), "int t = 1;")
	if len(out.Timings.Phases) == 0 {
		t.Fatalf("no phases recorded")
	}
	if !hasCode(out.Diags, diag.ObsTimings) {
		t.Fatalf("timing diagnostic missing")
	}
	if out.Status != driver.StatusSuccess {
		t.Fatalf("timings must not change the status: %s", out.Status)
	}
}

func TestStageOrderStable(t *testing.T) {
	h := newHarness(t, driver.Options{NoBootstrap: true})
	p := h.d.Pipeline()
	p.Disable(pipeline.StageCodeGen)
	p.Enable(pipeline.StageDumper)
	p.Disable(pipeline.StageDumper)
	p.Enable(pipeline.StageCodeGen)
	var names []string
	for _, st := range p.States() {
		names = append(names, st.ID.String())
	}
	want := "dynamic_rewriter,decl_extractor,value_printer,dumper,codegen"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("order %s, want %s", got, want)
	}
}

func TestDumperStage(t *testing.T) {
	var dump bytes.Buffer
	h := newHarness(t, driver.Options{NoBootstrap: true, DumpOutput: &dump})
	h.d.Pipeline().Enable(pipeline.StageDumper)
	h.d.CompileAsIs(context.Background(), "int d = 4;")
	if got := dump.String(); got != "// group of 1\nint d = 4;\n" {
		t.Fatalf("dump %q", got)
	}
}
