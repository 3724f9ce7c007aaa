// Package driver compiles source fragments one at a time against a single
// persistent semantic context.
//
// Every entry point is one transaction: the fragment is parsed into
// declaration groups, each group passes the stage pipeline in registration
// order, and the code generation stage forwards the survivors to the
// backend. A failed transaction is discarded by the backend and forgotten
// by the analyzer. The driver is single-threaded and rejects reentrant calls.
package driver

import (
	"context"
	"fmt"
	"io"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/dynlookup"
	"kiln/internal/parser"
	"kiln/internal/pipeline"
	"kiln/internal/sema"
	"kiln/internal/session"
	"kiln/internal/snapshot"
	"kiln/internal/source"
	"kiln/internal/stages"
)

// Frontend parses and analyzes fragments inside one persistent context.
type Frontend interface {
	AddFragment(name, text string) source.FileID
	Enter(id source.FileID)
	ParseTopLevel() (ast.Group, bool)
	TakeSideEffectDecls() []ast.DeclID
	PerformPendingWork()
	Diagnostics() *diag.Engine
	InstallResolver(r sema.ExternalResolver) error
	RemoveResolver() bool
	SetExternalSource(src sema.ExternalSource)
	ExportDecls() []sema.ExternalDecl
	Mark() sema.Mark
	Rollback(m sema.Mark)
	PromoteToGlobal(id ast.DeclID) bool
	SetPragmaHandler(h parser.PragmaHandler)
	AST() *ast.Builder
	FileSet() *source.FileSet
}

// Backend receives the groups of a unit and runs what it committed.
type Backend interface {
	Reset()
	HandleGroup(g *ast.Group)
	Finalize()
	Discard()
	RunStaticInitializersOnce(ctx context.Context) error
	Release()
}

type Options struct {
	// SnapshotPath enables the startup snapshot: it is loaded when it
	// exists and is valid, built otherwise.
	SnapshotPath  string
	DynamicLookup bool
	EnableTimings bool
	// NoBootstrap skips the runtime include at startup.
	NoBootstrap bool
	// DumpOutput receives the output of the dumper stage.
	DumpOutput io.Writer
	// Resolver builds the dynamic lookup resolver; nil defers every name.
	Resolver dynlookup.Factory
}

// Driver is the root of an incremental session.
type Driver struct {
	fe    Frontend
	be    Backend
	opts  Options
	pipe  *pipeline.Pipeline
	state *session.State
	dyn   *dynlookup.Handler

	snapSource *snapshot.Source

	busy   bool
	closed bool
}

// New wires fe and be into a driver, loads or opens the startup snapshot
// and compiles the runtime unless a snapshot already provides it.
func New(ctx context.Context, fe Frontend, be Backend, opts Options) (*Driver, error) {
	if fe == nil {
		return nil, ErrNoFrontend
	}
	if be == nil {
		return nil, ErrNoBackend
	}
	if opts.DumpOutput == nil {
		opts.DumpOutput = io.Discard
	}
	d := &Driver{
		fe:    fe,
		be:    be,
		opts:  opts,
		pipe:  pipeline.New(),
		state: session.New(),
		dyn:   dynlookup.New(fe, opts.Resolver),
	}
	b := fe.AST()
	d.pipe.Register(pipeline.StageDynamicRewriter, stages.NewDynamicRewriter(b))
	d.pipe.Register(pipeline.StageDeclExtractor, stages.NewDeclExtractor(b, fe))
	d.pipe.Register(pipeline.StageValuePrinter, stages.NewValuePrinter(b))
	d.pipe.Register(pipeline.StageDumper, stages.NewDumper(b, opts.DumpOutput))
	d.pipe.Register(pipeline.StageCodeGen, stages.NewCodeGen(be))
	fe.SetPragmaHandler(d.pragma)

	if opts.DynamicLookup {
		if err := d.EnableDynamicLookup(true); err != nil {
			return nil, err
		}
	}
	if opts.SnapshotPath != "" {
		if _, err := d.LoadStartupSnapshot(ctx, opts.SnapshotPath); err != nil {
			return nil, err
		}
	}
	if !d.state.UsingSnapshot && !opts.NoBootstrap {
		if err := d.bootstrap(ctx); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

// bootstrap drains pending input, then compiles the runtime support declarations.
func (d *Driver) bootstrap(ctx context.Context) error {
	for _, text := range []string{"", fmt.Sprintf("#include %q", diag.RuntimeBufferName)} {
		out := d.CompileAsIs(ctx, text)
		if out.OK() {
			continue
		}
		if out.Err != nil {
			return fmt.Errorf("driver: bootstrap: %w", out.Err)
		}
		msg := "unknown error"
		for _, it := range out.Diags.Items() {
			if it.Severity.IsError() {
				msg = it.Message
				break
			}
		}
		return fmt.Errorf("driver: bootstrap failed: %s", msg)
	}
	return nil
}

func (d *Driver) Frontend() Frontend                { return d.fe }
func (d *Driver) Pipeline() *pipeline.Pipeline      { return d.pipe }
func (d *Driver) State() *session.State             { return d.state }
func (d *Driver) DynamicLookup() *dynlookup.Handler { return d.dyn }

// StartupSnapshot returns the loaded snapshot, nil when none.
func (d *Driver) StartupSnapshot() *snapshot.Source {
	return d.snapSource
}

// enter guards every entry point against reentrancy and use after Close.
func (d *Driver) enter() error {
	if d.closed {
		return ErrClosed
	}
	if d.busy {
		return ErrReentrant
	}
	d.busy = true
	return nil
}

func (d *Driver) leave() {
	d.busy = false
}

// Close releases the backend, drops the resolver and closes the stages,
// which removes an unwritten snapshot sink.
func (d *Driver) Close() error {
	if d.closed {
		return nil
	}
	if d.busy {
		return ErrReentrant
	}
	d.closed = true
	d.dyn.Disable()
	err := d.pipe.Close()
	d.state.BuildingSnapshot = false
	d.be.Release()
	return err
}
