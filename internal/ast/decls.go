package ast

import (
	"kiln/internal/source"
)

// Decls manages allocation of declarations.
type Decls struct {
	Arena *Arena[Decl]
	Vars  *Arena[VarDeclData]
	Funcs *Arena[FuncDeclData]
}

func NewDecls(capHint uint) *Decls {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Decls{
		Arena: NewArena[Decl](capHint),
		Vars:  NewArena[VarDeclData](capHint),
		Funcs: NewArena[FuncDeclData](capHint / 2),
	}
}

func (d *Decls) Get(id DeclID) *Decl {
	return d.Arena.Get(uint32(id))
}

func (d *Decls) NewVar(span source.Span, name string, data VarDeclData) DeclID {
	payload := d.Vars.Allocate(data)
	return DeclID(d.Arena.Allocate(Decl{Kind: DeclVar, Span: span, Name: name, Payload: PayloadID(payload)}))
}

func (d *Decls) Var(id DeclID) (*VarDeclData, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclVar {
		return nil, false
	}
	return d.Vars.Get(uint32(decl.Payload)), true
}

// NewFunc allocates a function or wrapper declaration.
func (d *Decls) NewFunc(kind DeclKind, span source.Span, name string, data FuncDeclData) DeclID {
	payload := d.Funcs.Allocate(data)
	return DeclID(d.Arena.Allocate(Decl{Kind: kind, Span: span, Name: name, Payload: PayloadID(payload)}))
}

func (d *Decls) Func(id DeclID) (*FuncDeclData, bool) {
	decl := d.Get(id)
	if decl == nil || (decl.Kind != DeclFunc && decl.Kind != DeclWrapper) {
		return nil, false
	}
	return d.Funcs.Get(uint32(decl.Payload)), true
}

// IsPrototype reports whether id is a function declared without a body.
func (d *Decls) IsPrototype(id DeclID) bool {
	fn, ok := d.Func(id)
	return ok && !fn.Body.IsValid()
}
