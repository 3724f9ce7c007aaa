package sema

import (
	"kiln/internal/ast"
)

type SymbolKind uint8

const (
	SymbolVar SymbolKind = iota
	SymbolFunc
	SymbolBuiltin
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVar:
		return "var"
	case SymbolFunc:
		return "func"
	default:
		return "builtin"
	}
}

// Symbol is one name of the global universe.
type Symbol struct {
	Kind    SymbolKind
	Name    string
	Decl    ast.DeclID
	Builtin Builtin
}

type undoEntry struct {
	name    string
	prev    Symbol
	hadPrev bool
}

// universe - глобальные имена сессии с журналом отката
type universe struct {
	names map[string]Symbol
	log   []undoEntry
	order []string // порядок первого появления, для экспорта
}

func newUniverse() *universe {
	u := &universe{names: make(map[string]Symbol, 64)}
	for _, b := range builtinList {
		u.names[b.name] = Symbol{Kind: SymbolBuiltin, Name: b.name, Builtin: b.id}
	}
	return u
}

func (u *universe) lookup(name string) (Symbol, bool) {
	sym, ok := u.names[name]
	return sym, ok
}

func (u *universe) set(sym Symbol) {
	prev, had := u.names[sym.Name]
	u.log = append(u.log, undoEntry{name: sym.Name, prev: prev, hadPrev: had})
	if !had {
		u.order = append(u.order, sym.Name)
	}
	u.names[sym.Name] = sym
}

func (u *universe) mark() int {
	return len(u.log)
}

func (u *universe) rollback(to int) {
	for i := len(u.log) - 1; i >= to; i-- {
		e := u.log[i]
		if e.hadPrev {
			u.names[e.name] = e.prev
			continue
		}
		delete(u.names, e.name)
		if n := len(u.order); n > 0 && u.order[n-1] == e.name {
			u.order = u.order[:n-1]
		}
	}
	u.log = u.log[:to]
}
