package stages

import "kiln/internal/ast"

// Promoter turns a wrapper-local variable into a global.
type Promoter interface {
	PromoteToGlobal(id ast.DeclID) bool
}

// DeclExtractor hoists variables declared directly in a wrapper body to
// globals so later fragments can see them. The initializer stays behind
// as an assignment at the original position.
type DeclExtractor struct {
	b        *ast.Builder
	promoter Promoter
}

func NewDeclExtractor(b *ast.Builder, p Promoter) *DeclExtractor {
	return &DeclExtractor{b: b, promoter: p}
}

func (s *DeclExtractor) EnabledByDefault() bool { return true }
func (s *DeclExtractor) FlushTransaction()      {}

func (s *DeclExtractor) HandleGroup(g *ast.Group) {
	for i := 0; i < len(g.Decls); i++ {
		hoisted := s.extract(g.Decls[i])
		if len(hoisted) == 0 {
			continue
		}
		g.InsertBefore(i, hoisted...)
		i += len(hoisted)
	}
}

// extract returns the promoted declarations of one wrapper.
func (s *DeclExtractor) extract(id ast.DeclID) []ast.DeclID {
	decl := s.b.Decls.Get(id)
	if decl == nil || decl.Kind != ast.DeclWrapper || decl.Flags&ast.DeclInvalid != 0 {
		return nil
	}
	fn, _ := s.b.Decls.Func(id)
	body := fn.Body
	blk, ok := s.b.Stmts.Block(body)
	if !ok {
		return nil
	}
	stmts := append([]ast.StmtID(nil), blk.Stmts...)

	var hoisted []ast.DeclID
	out := make([]ast.StmtID, 0, len(stmts))
	for _, st := range stmts {
		vars, ok := s.b.Stmts.Var(st)
		if !ok {
			out = append(out, st)
			continue
		}
		decls := append([]ast.DeclID(nil), vars.Decls...)
		var kept []ast.DeclID
		for _, d := range decls {
			v, _ := s.b.Decls.Var(d)
			init, typ := v.Init, v.Type
			if !s.promoter.PromoteToGlobal(d) {
				kept = append(kept, d)
				continue
			}
			hoisted = append(hoisted, d)
			if init.IsValid() {
				out = append(out, s.assignment(d, typ, init))
			}
		}
		if len(kept) > 0 {
			span := s.b.Stmts.Get(st).Span
			out = append(out, s.b.Stmts.NewVar(span, kept))
		}
	}
	if len(hoisted) == 0 {
		return nil
	}
	// арены могли переехать, блок берём заново
	blk, _ = s.b.Stmts.Block(body)
	blk.Stmts = out
	return hoisted
}

// assignment builds `name = init;` bound to the promoted declaration.
func (s *DeclExtractor) assignment(d ast.DeclID, typ ast.Type, init ast.ExprID) ast.StmtID {
	decl := s.b.Decls.Get(d)
	name, span := decl.Name, decl.Span

	target := s.b.Exprs.NewIdent(span, name)
	ident, _ := s.b.Exprs.Ident(target)
	ident.Ref = ast.IdentDecl
	ident.Decl = d
	s.b.Exprs.Get(target).Type = typ

	initSpan := s.b.Exprs.Get(init).Span
	assign := s.b.Exprs.NewAssign(span.Cover(initSpan), target, init)
	s.b.Exprs.Get(assign).Type = typ
	return s.b.Stmts.NewExpr(span.Cover(initSpan), assign, false)
}
