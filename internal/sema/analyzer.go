package sema

import (
	"errors"
	"sort"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/source"
)

// ErrResolverInstalled is returned when the resolver slot is already taken.
var ErrResolverInstalled = errors.New("sema: external resolver already installed")

// ExternalResolver is consulted for identifiers nothing else can resolve.
// Returning true defers the name to run time.
type ExternalResolver interface {
	LookupUnresolved(name string, span source.Span) bool
}

// ParseFunc turns declaration source into parsed, not yet analyzed decls.
type ParseFunc func(name, text string) ([]ast.DeclID, bool)

type Options struct {
	Reporter diag.Reporter
	// Parse нужен только для материализации внешних деклараций
	Parse ParseFunc
}

// Analyzer keeps the semantic context of a whole session.
type Analyzer struct {
	b        *ast.Builder
	opts     Options
	uni      *universe
	resolver ExternalResolver
	external ExternalSource

	sideEffects   []ast.DeclID
	materializing map[string]bool
	// вызовы прототипов за текущий вызов компиляции
	protoCalls []protoCall
}

type protoCall struct {
	name string
	span source.Span
}

// Mark is a rollback point.
type Mark struct {
	undo  int
	side  int
	calls int
}

func New(b *ast.Builder, opts Options) *Analyzer {
	return &Analyzer{
		b:             b,
		opts:          opts,
		uni:           newUniverse(),
		materializing: make(map[string]bool),
	}
}

// SetReporter redirects diagnostics.
func (a *Analyzer) SetReporter(r diag.Reporter) {
	a.opts.Reporter = r
}

// InstallResolver fills the extension slot.
func (a *Analyzer) InstallResolver(r ExternalResolver) error {
	if a.resolver != nil {
		return ErrResolverInstalled
	}
	a.resolver = r
	return nil
}

// RemoveResolver empties the extension slot and reports whether it was filled.
func (a *Analyzer) RemoveResolver() bool {
	had := a.resolver != nil
	a.resolver = nil
	return had
}

// HasResolver reports whether the extension slot is filled.
func (a *Analyzer) HasResolver() bool {
	return a.resolver != nil
}

// SetExternalSource attaches a lazily consulted declaration source; nil detaches.
func (a *Analyzer) SetExternalSource(src ExternalSource) {
	a.external = src
}

// Lookup finds a global name.
func (a *Analyzer) Lookup(name string) (Symbol, bool) {
	return a.uni.lookup(name)
}

// Mark records the current state of the universe.
func (a *Analyzer) Mark() Mark {
	return Mark{undo: a.uni.mark(), side: len(a.sideEffects), calls: len(a.protoCalls)}
}

// Rollback forgets every name declared after m.
func (a *Analyzer) Rollback(m Mark) {
	a.uni.rollback(m.undo)
	if m.side < len(a.sideEffects) {
		a.sideEffects = a.sideEffects[:m.side]
	}
	if m.calls < len(a.protoCalls) {
		a.protoCalls = a.protoCalls[:m.calls]
	}
}

// AnalyzeGroup checks every declaration of g in order. It reports whether
// all of them are valid; invalid ones carry ast.DeclInvalid.
func (a *Analyzer) AnalyzeGroup(g *ast.Group) bool {
	ok := true
	for _, id := range g.Decls {
		if !a.analyzeDecl(id) {
			ok = false
		}
	}
	return ok
}

func (a *Analyzer) analyzeDecl(id ast.DeclID) bool {
	tc := newChecker(a)
	tc.decl(id)
	if tc.errors > 0 {
		a.b.Decls.Get(id).Flags |= ast.DeclInvalid
		return false
	}
	return true
}

// TakeSideEffectDecls returns declarations materialized from the external
// source since the last call.
func (a *Analyzer) TakeSideEffectDecls() []ast.DeclID {
	out := a.sideEffects
	a.sideEffects = nil
	return out
}

// PerformPendingWork reports prototypes that were called but are still
// undefined.
func (a *Analyzer) PerformPendingWork() {
	seen := make(map[string]bool, len(a.protoCalls))
	for _, c := range a.protoCalls {
		if seen[c.name] {
			continue
		}
		seen[c.name] = true
		sym, ok := a.uni.lookup(c.name)
		if !ok || sym.Kind != SymbolFunc || !a.b.Decls.IsPrototype(sym.Decl) {
			continue
		}
		diag.ReportWarning(a.opts.Reporter, diag.SemaPrototypeUndefined, c.span,
			"function '"+c.name+"' is declared but never defined").
			WithNote(a.b.Decls.Get(sym.Decl).Span, "declared here").
			Emit()
	}
	a.protoCalls = a.protoCalls[:0]
}

// PromoteToGlobal turns a local variable of a wrapper into a global. The
// initializer moves to Hoisted; the caller keeps the assignment. It fails
// when the name is already taken.
func (a *Analyzer) PromoteToGlobal(id ast.DeclID) bool {
	decl := a.b.Decls.Get(id)
	data, ok := a.b.Decls.Var(id)
	if !ok || data.Storage != ast.StorageLocal {
		return false
	}
	if _, taken := a.uni.lookup(decl.Name); taken {
		return false
	}
	data.Storage = ast.StorageGlobal
	data.Slot = 0
	data.Hoisted, data.Init = data.Init, ast.NoExprID
	decl.Flags |= ast.DeclPromoted
	a.uni.set(Symbol{Kind: SymbolVar, Name: decl.Name, Decl: id})
	return true
}

// ExportDecls renders every valid global declaration, builtins excluded.
func (a *Analyzer) ExportDecls() []ExternalDecl {
	type entry struct {
		decl ast.DeclID
		out  ExternalDecl
	}
	entries := make([]entry, 0, len(a.uni.order))
	for _, name := range a.uni.order {
		sym, ok := a.uni.lookup(name)
		if !ok || sym.Kind == SymbolBuiltin {
			continue
		}
		decl := a.b.Decls.Get(sym.Decl)
		if decl == nil || decl.Flags&ast.DeclInvalid != 0 {
			continue
		}
		kind := KindVar
		if sym.Kind == SymbolFunc {
			kind = KindFunc
			if a.b.Decls.IsPrototype(sym.Decl) {
				kind = KindProto
			}
		}
		entries = append(entries, entry{decl: sym.Decl, out: ExternalDecl{
			Kind:   kind,
			Name:   name,
			Source: a.b.DeclString(sym.Decl),
		}})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].decl < entries[j].decl })
	out := make([]ExternalDecl, len(entries))
	for i, e := range entries {
		out[i] = e.out
	}
	return out
}
