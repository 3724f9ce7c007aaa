package diag

import (
	"kiln/internal/source"
)

// Engine is the per-call diagnostic sink of an interactive session.
// Every compile call opens a scope, producers report into it, and the driver
// reads the counters to classify the call before Reset clears them.
type Engine struct {
	bag      *Bag
	dedup    *DedupReporter
	errors   int
	warnings int
	depth    int
	// Dropped counts diagnostics that did not fit into the bag.
	dropped int
}

// NewEngine creates an engine keeping at most max diagnostics per call.
func NewEngine(max int) *Engine {
	e := &Engine{bag: NewBag(max)}
	e.dedup = NewDedupReporter(engineSink{e})
	return e
}

type engineSink struct{ e *Engine }

func (s engineSink) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	s.e.record(Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes})
}

// Report implements Reporter. Identical diagnostics inside one scope are reported once.
func (e *Engine) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	e.dedup.Report(code, sev, primary, msg, notes)
}

func (e *Engine) record(d Diagnostic) {
	switch {
	case d.Severity.IsError():
		e.errors++
	case d.Severity == SevWarning:
		e.warnings++
	}
	if !e.bag.Add(d) {
		e.dropped++
	}
}

// BeginScope opens a diagnostic window. Scopes nest; counters belong to the outermost one.
func (e *Engine) BeginScope() {
	e.depth++
}

// EndScope closes the innermost window.
func (e *Engine) EndScope() {
	if e.depth > 0 {
		e.depth--
	}
	if e.depth == 0 {
		e.dedup.Forget()
	}
}

// InScope reports whether a window is open.
func (e *Engine) InScope() bool {
	return e.depth > 0
}

func (e *Engine) HasErrorOccurred() bool {
	return e.errors > 0
}

func (e *Engine) NumErrors() int {
	return e.errors
}

func (e *Engine) NumWarnings() int {
	return e.warnings
}

// Dropped reports how many diagnostics exceeded the bag limit in this call.
func (e *Engine) Dropped() int {
	return e.dropped
}

// Items returns the diagnostics collected since the last Reset.
func (e *Engine) Items() []Diagnostic {
	return e.bag.Items()
}

// Snapshot copies the collected diagnostics into a fresh, sorted bag.
func (e *Engine) Snapshot() *Bag {
	out := e.bag.Clone()
	out.Sort()
	return out
}

// Reset clears the counters and the collected diagnostics.
func (e *Engine) Reset() {
	e.errors = 0
	e.warnings = 0
	e.dropped = 0
	e.bag.Reset()
	e.dedup.Forget()
}
