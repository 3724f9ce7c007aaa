package stages

import "kiln/internal/ast"

// DynamicRewriter turns identifiers the resolver deferred into run-time
// lookups. Off by default; the driver arms it together with dynamic lookup.
type DynamicRewriter struct {
	b         *ast.Builder
	rewritten int
}

func NewDynamicRewriter(b *ast.Builder) *DynamicRewriter {
	return &DynamicRewriter{b: b}
}

func (s *DynamicRewriter) EnabledByDefault() bool { return false }
func (s *DynamicRewriter) FlushTransaction()      {}

// Rewritten reports how many identifiers were rewritten so far.
func (s *DynamicRewriter) Rewritten() int {
	return s.rewritten
}

func (s *DynamicRewriter) HandleGroup(g *ast.Group) {
	var deferred []ast.ExprID
	for _, id := range g.Decls {
		s.b.WalkDeclExprs(id, func(e ast.ExprID) {
			if data, ok := s.b.Exprs.Ident(e); ok && data.Ref == ast.IdentDeferred {
				deferred = append(deferred, e)
			}
		})
	}
	for _, e := range deferred {
		if s.b.Exprs.MakeDynamic(e) {
			s.rewritten++
		}
	}
}
