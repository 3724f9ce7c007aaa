package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/observ"
	"kiln/internal/pipeline"
	"kiln/internal/session"
	"kiln/internal/source"
	"kiln/internal/trace"
	"kiln/internal/vm"
)

// Compile compiles text as one transaction. An empty text only drains
// input that is still pending in the parser.
func (d *Driver) Compile(ctx context.Context, text string, mode Mode) Outcome {
	if err := d.enter(); err != nil {
		return invalid(err)
	}
	defer d.leave()

	restore := d.applyMode(mode)
	defer restore()
	return d.compile(ctx, text, false)
}

// CompileAsIs compiles text without declaration extraction and value printing.
func (d *Driver) CompileAsIs(ctx context.Context, text string) Outcome {
	return d.Compile(ctx, text, ModeAsIs)
}

// CompileLineFromPrompt compiles one line typed at the prompt. Directive
// lines are rejected; they belong to CompilePreprocessed.
func (d *Driver) CompileLineFromPrompt(ctx context.Context, line string) Outcome {
	if strings.HasPrefix(strings.TrimLeft(line, " \t"), "#") {
		return invalid(ErrDirectiveInPrompt)
	}
	return d.Compile(ctx, line, ModePrompt)
}

// CompilePreprocessed compiles text that may carry directives.
func (d *Driver) CompilePreprocessed(ctx context.Context, text string) Outcome {
	return d.Compile(ctx, text, ModeAsIs)
}

// ParseDeclarationsOnly parses and dispatches text with code generation
// disabled and returns the dispatched groups. The transaction stays
// pending; the next compile call flushes it.
func (d *Driver) ParseDeclarationsOnly(ctx context.Context, text string) ([]ast.Group, Outcome) {
	if err := d.enter(); err != nil {
		return nil, invalid(err)
	}
	defer d.leave()

	ctx, span := trace.Start(ctx, trace.ScopeDriver, "parse_decls_only")
	defer span.End("")

	restore := d.applyMode(ModeAsIs)
	defer restore()
	prev, ok := d.pipe.Disable(pipeline.StageCodeGen)
	if ok {
		defer d.pipe.RestorePreviousState(pipeline.StageCodeGen, prev)
	}

	out := d.compile(ctx, text, true)
	queue := d.pipe.Queue()
	groups := make([]ast.Group, len(queue))
	for i := range queue {
		groups[i] = queue[i].Clone()
	}
	return groups, out
}

// applyMode sets the stage toggles of mode and returns the undo.
func (d *Driver) applyMode(mode Mode) func() {
	toggle := d.pipe.Disable
	if mode == ModePrompt {
		toggle = d.pipe.Enable
	}
	type saved struct {
		id   pipeline.StageID
		prev bool
	}
	var undo []saved
	for _, id := range []pipeline.StageID{pipeline.StageDeclExtractor, pipeline.StageValuePrinter} {
		if prev, ok := toggle(id); ok {
			undo = append(undo, saved{id: id, prev: prev})
		}
	}
	return func() {
		for _, s := range undo {
			d.pipe.RestorePreviousState(s.id, s.prev)
		}
	}
}

// armRewriter matches the rewrite stage to the dynamic lookup flag.
func (d *Driver) armRewriter() {
	if d.state.DynamicLookup {
		d.pipe.Enable(pipeline.StageDynamicRewriter)
	} else {
		d.pipe.Disable(pipeline.StageDynamicRewriter)
	}
}

// compile runs one transaction. The caller holds the entry guard.
func (d *Driver) compile(ctx context.Context, text string, declOnly bool) Outcome {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "compile")
	var timer *observ.Timer
	if d.opts.EnableTimings {
		timer = observ.NewTimer()
	}
	diags := d.fe.Diagnostics()

	diags.BeginScope()
	if pending := d.state.Pending(); pending != nil {
		d.flushPending(ctx, pending, timer)
	}
	// ошибки исполнения отложенной транзакции не откатывают этот фрагмент
	inherited := diags.NumErrors()
	d.be.Reset()
	d.pipe.ResetQueue()
	d.armRewriter()

	mark := d.fe.Mark()
	fragment := ""
	if text != "" {
		fragment = d.state.NextFragmentName()
	}
	txn, err := d.state.Begin(fragment)
	if err != nil {
		diags.EndScope()
		span.End("rejected")
		return invalid(err)
	}
	txn.DeclOnly = declOnly
	if text != "" {
		d.fe.Enter(d.fe.AddFragment(fragment, text))
	}

	d.parse(ctx, txn, timer)
	d.dispatchSideEffects(ctx, txn, timer)

	idx := timer.Begin("pending_work")
	_, pw := trace.Start(ctx, trace.ScopePass, "pending_work")
	d.fe.PerformPendingWork()
	pw.End("")
	timer.End(idx, "")
	d.state.MarkParsed()

	status := StatusSuccess
	switch {
	case diags.NumErrors() > inherited:
		d.be.Discard()
		d.fe.Rollback(mark)
		d.state.Fail()
	case declOnly:
		// остаётся Pending до следующего вызова
	default:
		d.flush(ctx, timer)
		d.runInitializers(ctx, timer, diags)
		d.state.Commit()
	}
	d.state.SetCounters(diags.NumErrors(), diags.NumWarnings())
	switch errs, warns := d.state.Counters(); {
	case errs > 0:
		status = StatusFailed
	case warns > 0:
		status = StatusSucceededWithWarnings
	}

	diags.EndScope()
	out := Outcome{Status: status, Txn: txn, Diags: diags.Snapshot()}
	if timer != nil {
		out.Timings = timer.Report()
		appendTimingDiagnostic(out.Diags, timingPayload{
			Fragment: fragment,
			TotalMS:  out.Timings.TotalMS,
			Phases:   out.Timings.Phases,
		})
	}
	diags.Reset()
	d.state.ResetCounters()

	span.WithExtra("fragment", fragment).
		WithExtra("groups", fmt.Sprint(txn.Groups)).
		End(status.String())
	return out
}

// parse pulls top-level groups until the input is exhausted and
// dispatches every non-empty one.
func (d *Driver) parse(ctx context.Context, txn *session.Transaction, timer *observ.Timer) {
	idx := timer.Begin("parse")
	ctx, span := trace.Start(ctx, trace.ScopePass, "parse")
	for {
		g, eof := d.fe.ParseTopLevel()
		if eof {
			break
		}
		if g.IsEmpty() {
			continue
		}
		d.pipe.Dispatch(ctx, &g)
		txn.Record(&g)
	}
	span.End("")
	timer.End(idx, fmt.Sprintf("%d groups", txn.Groups))
}

// dispatchSideEffects dispatches declarations the analyzer materialized
// while elaborating, one group each.
func (d *Driver) dispatchSideEffects(ctx context.Context, txn *session.Transaction, timer *observ.Timer) {
	ids := d.fe.TakeSideEffectDecls()
	if len(ids) == 0 {
		return
	}
	idx := timer.Begin("side_effect_decls")
	ctx, span := trace.Start(ctx, trace.ScopePass, "side_effect_decls")
	for _, id := range ids {
		g := ast.GroupOf(id)
		d.pipe.Dispatch(ctx, &g)
		txn.Record(&g)
	}
	span.End(fmt.Sprint(len(ids)))
	timer.End(idx, "")
}

// flush ends the transaction for every enabled stage; the code generation
// stage commits the unit.
func (d *Driver) flush(ctx context.Context, timer *observ.Timer) {
	idx := timer.Begin("flush")
	_, span := trace.Start(ctx, trace.ScopePass, "flush")
	d.pipe.FlushTransaction()
	span.End("")
	timer.End(idx, "")
}

// flushPending commits a transaction left behind by ParseDeclarationsOnly.
// Its batches never reached the backend, so they are lowered now and
// their initializers run; run-time errors are reported with this call.
func (d *Driver) flushPending(ctx context.Context, txn *session.Transaction, timer *observ.Timer) {
	idx := timer.Begin("flush_pending")
	trace.Point(ctx, trace.ScopePass, "flush_pending", fmt.Sprintf("txn %d", txn.ID))
	d.be.Reset()
	for i := range txn.Batches {
		d.be.HandleGroup(&txn.Batches[i])
	}
	d.be.Finalize()
	// остальные стадии тоже закрывают транзакцию; пустой Finalize безвреден
	d.pipe.FlushTransaction()
	timer.End(idx, fmt.Sprintf("%d groups", len(txn.Batches)))
	txn.Batches = nil

	d.runInitializers(ctx, timer, d.fe.Diagnostics())
	d.state.Commit()
}

// runInitializers runs the committed initializers and turns run-time
// panics into RUN diagnostics of the call. Committed declarations stay.
func (d *Driver) runInitializers(ctx context.Context, timer *observ.Timer, r diag.Reporter) {
	idx := timer.Begin("run_inits")
	err := d.be.RunStaticInitializersOnce(ctx)
	timer.End(idx, "")
	if err == nil {
		return
	}
	for _, e := range unjoin(err) {
		var ve *vm.VMError
		if !errors.As(e, &ve) {
			diag.ReportError(r, diag.RunError, source.Span{}, e.Error()).Emit()
			continue
		}
		b := diag.ReportError(r, diag.RunError, ve.Span, ve.Error())
		for _, f := range ve.Backtrace {
			b.WithNote(f.Span, "in "+f.FuncName)
		}
		b.Emit()
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
