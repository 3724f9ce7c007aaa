package ast

import (
	"kiln/internal/source"
)

type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtVar
	StmtExpr
	StmtIf
	StmtWhile
	StmtReturn
	StmtBreak
	StmtContinue
	StmtEmpty
	// StmtValuePrint печатает значение выражения в виде "(int) 5"
	StmtValuePrint
)

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type BlockStmtData struct {
	Stmts []StmtID
}

// VarStmtData - локальное объявление; Decls указывают на DeclVar.
type VarStmtData struct {
	Decls []DeclID
}

type ExprStmtData struct {
	Expr ExprID
	// NoSemi: выражение стояло последним во фрагменте без ';'
	NoSemi bool
}

type IfStmtData struct {
	Cond ExprID
	Then StmtID
	Else StmtID
}

type WhileStmtData struct {
	Cond ExprID
	Body StmtID
}

type ReturnStmtData struct {
	Value ExprID
}

type ValuePrintStmtData struct {
	Expr ExprID
}
