package stages

import "kiln/internal/ast"

// Sink receives groups for code generation.
type Sink interface {
	HandleGroup(g *ast.Group)
	Finalize()
}

// CodeGen forwards groups to the backend and commits the unit when the
// transaction ends.
type CodeGen struct {
	sink Sink
}

func NewCodeGen(sink Sink) *CodeGen {
	return &CodeGen{sink: sink}
}

func (s *CodeGen) EnabledByDefault() bool   { return true }
func (s *CodeGen) HandleGroup(g *ast.Group) { s.sink.HandleGroup(g) }
func (s *CodeGen) FlushTransaction()        { s.sink.Finalize() }
