package diag

import (
	"strings"
	"testing"

	"kiln/internal/source"
)

func TestEngineCountsPerCall(t *testing.T) {
	e := NewEngine(10)
	sp := source.Span{File: 0, Start: 1, End: 2}

	e.BeginScope()
	ReportError(e, SynExpectSemicolon, sp, "expected ';'").Emit()
	ReportWarning(e, SemaLossyConversion, sp, "float to int").Emit()
	e.Report(SemaLossyConversion, SevWarning, source.Span{File: 0, Start: 3, End: 4}, "float to int", nil)
	e.EndScope()

	if !e.HasErrorOccurred() || e.NumErrors() != 1 {
		t.Fatalf("expected 1 error, got %d", e.NumErrors())
	}
	if e.NumWarnings() != 2 {
		t.Fatalf("expected 2 warnings, got %d", e.NumWarnings())
	}
	if len(e.Items()) != 3 {
		t.Fatalf("expected 3 items, got %d", len(e.Items()))
	}

	e.Reset()
	if e.HasErrorOccurred() || e.NumWarnings() != 0 || len(e.Items()) != 0 {
		t.Fatalf("reset did not clear engine")
	}
}

func TestEngineDedupWithinScope(t *testing.T) {
	e := NewEngine(10)
	sp := source.Span{File: 1, Start: 0, End: 1}

	e.BeginScope()
	e.Report(SynUnexpectedToken, SevError, sp, "unexpected token", nil)
	e.Report(SynUnexpectedToken, SevError, sp, "unexpected token", nil)
	e.EndScope()
	if e.NumErrors() != 1 {
		t.Fatalf("duplicate counted: %d", e.NumErrors())
	}

	// новый вызов: та же ошибка снова видна
	e.Reset()
	e.BeginScope()
	e.Report(SynUnexpectedToken, SevError, sp, "unexpected token", nil)
	e.EndScope()
	if e.NumErrors() != 1 {
		t.Fatalf("expected error in next call, got %d", e.NumErrors())
	}
}

func TestEngineLimit(t *testing.T) {
	e := NewEngine(2)
	for i := range 4 {
		e.Report(SemaTypeMismatch, SevError, source.Span{Start: uint32(i), End: uint32(i + 1)}, "mismatch", nil)
	}
	if len(e.Items()) != 2 || e.Dropped() != 2 {
		t.Fatalf("unexpected items=%d dropped=%d", len(e.Items()), e.Dropped())
	}
	if e.NumErrors() != 4 {
		t.Fatalf("errors must be counted even when dropped, got %d", e.NumErrors())
	}
}

func TestNestedScopes(t *testing.T) {
	e := NewEngine(4)
	e.BeginScope()
	e.BeginScope()
	e.EndScope()
	if !e.InScope() {
		t.Fatalf("outer scope closed too early")
	}
	e.EndScope()
	if e.InScope() {
		t.Fatalf("scope still open")
	}
}

func TestBagSortAndFilter(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(SemaTypeMismatch, source.Span{File: 1, Start: 5, End: 6}, "b"))
	b.Add(New(SevWarning, SemaLossyConversion, source.Span{File: 0, Start: 9, End: 10}, "a"))
	b.Add(NewError(SynExpectSemicolon, source.Span{File: 0, Start: 9, End: 10}, "c"))

	b.Sort()
	items := b.Items()
	if items[0].Code != SynExpectSemicolon || items[1].Code != SemaLossyConversion {
		t.Fatalf("unexpected order: %v, %v", items[0].Code, items[1].Code)
	}

	b.Filter(func(d *Diagnostic) bool { return d.Severity == SevError })
	if b.Len() != 2 || !b.HasErrors() {
		t.Fatalf("unexpected filter result: %d", b.Len())
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddFragment("input_line_1", "int x = ")
	rt := fs.AddVirtual(RuntimeBufferName, []byte("int y = 0;"))
	diags := []Diagnostic{
		NewError(SynExpectExpression, source.Span{File: id, Start: 8, End: 8}, "expected expression"),
		NewError(SemaTypeMismatch, source.Span{File: rt, Start: 0, End: 3}, "internal"),
	}

	golden := FormatGoldenDiagnostics(diags, fs, false)
	if strings.Contains(golden, RuntimeBufferName) {
		t.Fatalf("runtime buffer leaked into golden output: %q", golden)
	}
	if want := "error SYN2004 input_line_1:1:9 expected expression"; golden != want {
		t.Fatalf("golden mismatch:\n got %q\nwant %q", golden, want)
	}

	short := FormatShortDiagnostics(diags, fs, false)
	if strings.Count(short, "\n") != 1 {
		t.Fatalf("expected two lines, got %q", short)
	}
}

func TestFormatShortKeepsUnlocatedLast(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddFragment("input_line_1", "int x = 5.5;")
	diags := []Diagnostic{
		New(SevInfo, ObsTimings, source.Span{}, "timings (compile):\n total 0.10 ms"),
		New(SevWarning, SemaLossyConversion, source.Span{File: id, Start: 8, End: 11}, "lossy conversion").
			WithNote(source.Span{File: id, Start: 0, End: 3}, "declared here"),
	}
	got := FormatShortDiagnostics(diags, fs, true)
	want := "note SEM3011 input_line_1:1:1 declared here\n" +
		"warning SEM3011 input_line_1:1:9 lossy conversion\n" +
		"info OBS6001 kiln timings (compile): total 0.10 ms"
	if got != want {
		t.Fatalf("short mismatch:\n got %q\nwant %q", got, want)
	}
	if golden := FormatGoldenDiagnostics(diags[:1], fs, true); golden != "" {
		t.Fatalf("unlocated diagnostics must stay out of golden output: %q", golden)
	}
}
