package sema

import (
	"fmt"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/source"
)

const (
	KindVar   = "var"
	KindFunc  = "func"
	KindProto = "proto"
)

// ExternalDecl is one declaration in source form, as kept by a snapshot.
type ExternalDecl struct {
	Kind   string
	Name   string
	Source string
}

// ExternalSource supplies declarations the session has not seen yet.
type ExternalSource interface {
	Lookup(name string) (ExternalDecl, bool)
	Names() []string
}

// materialize пытается подтянуть имя из внешнего источника.
// Результат анализируется как обычная глобальная декларация.
func (a *Analyzer) materialize(name string, use source.Span) (Symbol, bool) {
	if a.external == nil || a.opts.Parse == nil || a.materializing[name] {
		return Symbol{}, false
	}
	ext, ok := a.external.Lookup(name)
	if !ok {
		return Symbol{}, false
	}
	a.materializing[name] = true
	defer delete(a.materializing, name)

	ids, parsed := a.opts.Parse("<snapshot:"+name+">", ext.Source)
	if !parsed || len(ids) != 1 || a.b.Decls.Get(ids[0]).Name != name {
		diag.ReportError(a.opts.Reporter, diag.SemaSnapshotDecl, use,
			fmt.Sprintf("snapshot entry for '%s' is not a single declaration of that name", name)).Emit()
		return Symbol{}, false
	}
	id := ids[0]
	decl := a.b.Decls.Get(id)
	if want := ext.Kind == KindVar; want != (decl.Kind == ast.DeclVar) {
		diag.ReportError(a.opts.Reporter, diag.SemaSnapshotDecl, use,
			fmt.Sprintf("snapshot entry for '%s' has kind %s but declares a %s", name, ext.Kind, decl.Kind)).Emit()
		return Symbol{}, false
	}
	decl.Flags |= ast.DeclExternal
	if !a.analyzeDecl(id) {
		return Symbol{}, false
	}
	a.sideEffects = append(a.sideEffects, id)
	return a.uni.lookup(name)
}
