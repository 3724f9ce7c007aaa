package stages

import "kiln/internal/ast"

// ValuePrinter rewrites a trailing expression typed without ';' into a
// statement that echoes its value, e.g. `(int) 5`.
type ValuePrinter struct {
	b *ast.Builder
}

func NewValuePrinter(b *ast.Builder) *ValuePrinter {
	return &ValuePrinter{b: b}
}

func (s *ValuePrinter) EnabledByDefault() bool { return true }
func (s *ValuePrinter) FlushTransaction()      {}

func (s *ValuePrinter) HandleGroup(g *ast.Group) {
	for _, id := range g.Decls {
		decl := s.b.Decls.Get(id)
		if decl == nil || decl.Kind != ast.DeclWrapper {
			continue
		}
		fn, _ := s.b.Decls.Func(id)
		blk, ok := s.b.Stmts.Block(fn.Body)
		if !ok {
			continue
		}
		for _, st := range blk.Stmts {
			if data, ok := s.b.Stmts.Expr(st); ok && data.NoSemi {
				s.b.Stmts.MakeValuePrint(st)
			}
		}
	}
}
