package ast

import (
	"kiln/internal/source"
)

// Stmts manages allocation of statements.
type Stmts struct {
	Arena       *Arena[Stmt]
	Blocks      *Arena[BlockStmtData]
	Vars        *Arena[VarStmtData]
	Exprs       *Arena[ExprStmtData]
	Ifs         *Arena[IfStmtData]
	Whiles      *Arena[WhileStmtData]
	Returns     *Arena[ReturnStmtData]
	ValuePrints *Arena[ValuePrintStmtData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Stmts{
		Arena:       NewArena[Stmt](capHint),
		Blocks:      NewArena[BlockStmtData](capHint / 2),
		Vars:        NewArena[VarStmtData](capHint / 4),
		Exprs:       NewArena[ExprStmtData](capHint / 2),
		Ifs:         NewArena[IfStmtData](capHint / 8),
		Whiles:      NewArena[WhileStmtData](capHint / 8),
		Returns:     NewArena[ReturnStmtData](capHint / 8),
		ValuePrints: NewArena[ValuePrintStmtData](capHint / 8),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload PayloadID) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: span, Payload: payload}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) NewBlock(span source.Span, stmts []StmtID) StmtID {
	payload := s.Blocks.Allocate(BlockStmtData{Stmts: stmts})
	return s.new(StmtBlock, span, PayloadID(payload))
}

func (s *Stmts) Block(id StmtID) (*BlockStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtBlock {
		return nil, false
	}
	return s.Blocks.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewVar(span source.Span, decls []DeclID) StmtID {
	payload := s.Vars.Allocate(VarStmtData{Decls: decls})
	return s.new(StmtVar, span, PayloadID(payload))
}

func (s *Stmts) Var(id StmtID) (*VarStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtVar {
		return nil, false
	}
	return s.Vars.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewExpr(span source.Span, expr ExprID, noSemi bool) StmtID {
	payload := s.Exprs.Allocate(ExprStmtData{Expr: expr, NoSemi: noSemi})
	return s.new(StmtExpr, span, PayloadID(payload))
}

func (s *Stmts) Expr(id StmtID) (*ExprStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtExpr {
		return nil, false
	}
	return s.Exprs.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewIf(span source.Span, cond ExprID, then, els StmtID) StmtID {
	payload := s.Ifs.Allocate(IfStmtData{Cond: cond, Then: then, Else: els})
	return s.new(StmtIf, span, PayloadID(payload))
}

func (s *Stmts) If(id StmtID) (*IfStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtIf {
		return nil, false
	}
	return s.Ifs.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewWhile(span source.Span, cond ExprID, body StmtID) StmtID {
	payload := s.Whiles.Allocate(WhileStmtData{Cond: cond, Body: body})
	return s.new(StmtWhile, span, PayloadID(payload))
}

func (s *Stmts) While(id StmtID) (*WhileStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtWhile {
		return nil, false
	}
	return s.Whiles.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	payload := s.Returns.Allocate(ReturnStmtData{Value: value})
	return s.new(StmtReturn, span, PayloadID(payload))
}

func (s *Stmts) Return(id StmtID) (*ReturnStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtReturn {
		return nil, false
	}
	return s.Returns.Get(uint32(st.Payload)), true
}

// NewSimple creates a statement without payload (break, continue, empty).
func (s *Stmts) NewSimple(kind StmtKind, span source.Span) StmtID {
	return s.new(kind, span, NoPayloadID)
}

// MakeValuePrint rewrites an expression statement in place into a value print.
func (s *Stmts) MakeValuePrint(id StmtID) bool {
	data, ok := s.Expr(id)
	if !ok {
		return false
	}
	payload := s.ValuePrints.Allocate(ValuePrintStmtData{Expr: data.Expr})
	st := s.Get(id)
	st.Kind = StmtValuePrint
	st.Payload = PayloadID(payload)
	return true
}

func (s *Stmts) ValuePrint(id StmtID) (*ValuePrintStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtValuePrint {
		return nil, false
	}
	return s.ValuePrints.Get(uint32(st.Payload)), true
}
