// Package codegen lowers analyzed declarations into closures executed by
// internal/vm. One compile call is one unit: HandleGroup lowers into the
// pending unit, Finalize commits it to the machine and queues its static
// initializers, Discard throws it away.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"io"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/source"
	"kiln/internal/trace"
	"kiln/internal/vm"
)

type Options struct {
	Reporter diag.Reporter
	Stdout   io.Writer
	MaxDepth int
}

// initializer - одна ленивая инициализация: глобал с init или обёртка.
type initializer struct {
	name string
	span source.Span
	run  func() error
}

type pendingGlobal struct {
	id   vm.GlobalID
	name string
	kind vm.ValueKind
}

// unit копит результат одного вызова компиляции до Finalize.
type unit struct {
	globals []pendingGlobal
	funcs   []*vm.Function
	// инициализаторы деклараций из снапшота идут первыми
	externInits []initializer
	inits       []initializer
	groups      int
}

func (u *unit) empty() bool {
	return len(u.globals) == 0 && len(u.funcs) == 0 && len(u.inits) == 0 && len(u.externInits) == 0
}

// Generator is the code generation backend of a session.
type Generator struct {
	b        *ast.Builder
	m        *vm.VM
	reporter diag.Reporter
	pending  unit
	queue    []initializer
	released bool
}

func New(b *ast.Builder, opts Options) *Generator {
	return &Generator{
		b:        b,
		m:        vm.New(vm.Options{Stdout: opts.Stdout, MaxDepth: opts.MaxDepth}),
		reporter: opts.Reporter,
	}
}

// VM exposes the machine the generator commits into.
func (g *Generator) VM() *vm.VM {
	return g.m
}

func (g *Generator) SetReporter(r diag.Reporter) {
	g.reporter = r
}

// Reset drops the per-unit state before a new unit starts.
func (g *Generator) Reset() {
	g.pending = unit{}
}

// Discard forgets everything lowered since the last Finalize.
func (g *Generator) Discard() {
	g.pending = unit{}
}

// PendingGroups reports how many groups the open unit received.
func (g *Generator) PendingGroups() int {
	return g.pending.groups
}

// HandleGroup lowers every valid declaration of the group into the open unit.
func (g *Generator) HandleGroup(group *ast.Group) {
	if g.released || group == nil {
		return
	}
	g.pending.groups++
	for _, id := range group.Decls {
		decl := g.b.Decls.Get(id)
		if decl == nil || decl.Flags&ast.DeclInvalid != 0 {
			continue
		}
		switch decl.Kind {
		case ast.DeclVar:
			g.global(id, decl)
		case ast.DeclFunc:
			g.function(id, decl)
		case ast.DeclWrapper:
			g.wrapper(id, decl)
		}
	}
}

func (g *Generator) global(id ast.DeclID, decl *ast.Decl) {
	data, ok := g.b.Decls.Var(id)
	if !ok || data.Storage != ast.StorageGlobal {
		return
	}
	gid := vm.GlobalID(id)
	kind := vm.KindOf(data.Type)
	g.pending.globals = append(g.pending.globals, pendingGlobal{id: gid, name: decl.Name, kind: kind})
	if !data.Init.IsValid() {
		return
	}
	l := g.newLowerer(nil)
	eval := l.expr(data.Init)
	if l.failed {
		return
	}
	span := decl.Span
	g.addInit(decl, initializer{
		name: decl.Name,
		span: span,
		run: func() error {
			frame := vm.NewFrame(decl.Name, 0, span)
			v, err := eval(frame)
			if err != nil {
				return err
			}
			gl, ok := g.m.Global(gid)
			if !ok {
				return g.m.Panic(vm.PanicUnresolvedName, span, "global '%s' is not defined", decl.Name)
			}
			gl.Value = v
			return nil
		},
	})
}

func (g *Generator) function(id ast.DeclID, decl *ast.Decl) {
	data, ok := g.b.Decls.Func(id)
	if !ok || !data.Body.IsValid() {
		// прототип: тело придёт позже, вызов разрешается по имени
		return
	}
	fn, ok := g.lowerFunc(id, decl, data)
	if !ok {
		return
	}
	g.pending.funcs = append(g.pending.funcs, fn)
}

// wrapper lowers top-level statements into a function run once as an initializer.
func (g *Generator) wrapper(id ast.DeclID, decl *ast.Decl) {
	data, ok := g.b.Decls.Func(id)
	if !ok || !data.Body.IsValid() {
		return
	}
	fn, ok := g.lowerFunc(id, decl, data)
	if !ok {
		return
	}
	g.addInit(decl, initializer{
		name: decl.Name,
		span: decl.Span,
		run: func() error {
			_, err := g.m.Invoke(fn, nil, decl.Span)
			return err
		},
	})
}

func (g *Generator) addInit(decl *ast.Decl, in initializer) {
	if decl.Flags&ast.DeclExternal != 0 {
		g.pending.externInits = append(g.pending.externInits, in)
		return
	}
	g.pending.inits = append(g.pending.inits, in)
}

func (g *Generator) lowerFunc(id ast.DeclID, decl *ast.Decl, data *ast.FuncDeclData) (*vm.Function, bool) {
	fn := &vm.Function{
		Name:      decl.Name,
		Result:    vm.KindOf(data.Result),
		FrameSize: data.FrameSize,
		Span:      decl.Span,
	}
	for _, p := range data.Params {
		pd, ok := g.b.Decls.Var(p)
		if !ok {
			return nil, false
		}
		fn.Params = append(fn.Params, vm.KindOf(pd.Type))
	}
	body := data.Body
	l := g.newLowerer(fn)
	exec := l.stmt(body)
	if l.failed {
		return nil, false
	}
	fn.Body = exec
	return fn, true
}

// Finalize commits the open unit: globals and functions become visible to
// later units and the initializers join the run queue.
func (g *Generator) Finalize() {
	if g.released {
		return
	}
	u := g.pending
	g.pending = unit{}
	for _, pg := range u.globals {
		g.m.DefineGlobal(pg.id, pg.name, pg.kind)
	}
	for _, fn := range u.funcs {
		g.m.SetFunction(fn)
	}
	g.queue = append(g.queue, u.externInits...)
	g.queue = append(g.queue, u.inits...)
}

// Queued reports how many initializers are waiting to run.
func (g *Generator) Queued() int {
	return len(g.queue)
}

// RunStaticInitializersOnce runs every queued initializer exactly once, in
// commit order. A failing initializer does not stop the following ones.
func (g *Generator) RunStaticInitializersOnce(ctx context.Context) error {
	if len(g.queue) == 0 {
		return nil
	}
	ctx, span := trace.Start(ctx, trace.ScopePass, "run_inits")
	queue := g.queue
	g.queue = nil

	var errs []error
	for _, in := range queue {
		if err := in.run(); err != nil {
			trace.Point(ctx, trace.ScopeModule, "init_failed", in.name)
			errs = append(errs, err)
		}
	}
	span.WithExtra("count", fmt.Sprint(len(queue))).End("")
	return errors.Join(errs...)
}

// Release drops the pending unit and the run queue; the generator
// accepts nothing afterwards.
func (g *Generator) Release() {
	g.pending = unit{}
	g.queue = nil
	g.released = true
}
