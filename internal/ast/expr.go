package ast

import (
	"kiln/internal/source"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprLit
	ExprUnary
	ExprBinary
	ExprAssign
	ExprCall
	ExprGroup
	// ExprConvert is an implicit conversion inserted by the analyzer.
	ExprConvert
	// ExprDynamic is a name looked up when the code runs.
	ExprDynamic
)

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
	// Type заполняет sema; TypeInvalid до анализа
	Type Type
}

type IdentRef uint8

const (
	IdentUnresolved IdentRef = iota
	IdentDecl
	IdentBuiltin
	// IdentDeferred - имя отдано резолверу, станет ExprDynamic
	IdentDeferred
)

type ExprIdentData struct {
	Name string
	Ref  IdentRef
	Decl DeclID
}

type ExprLitKind uint8

const (
	LitInt ExprLitKind = iota
	LitFloat
	LitString
	LitBool
)

type ExprLiteralData struct {
	Kind  ExprLitKind
	Raw   string // исходный текст токена
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

type ExprUnaryOp uint8

const (
	UnaryNeg ExprUnaryOp = iota
	UnaryNot
)

func (op ExprUnaryOp) String() string {
	if op == UnaryNot {
		return "!"
	}
	return "-"
}

type ExprUnaryData struct {
	Op      ExprUnaryOp
	Operand ExprID
}

type ExprBinaryOp uint8

const (
	BinAdd ExprBinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinLt
	BinLe
	BinGt
	BinGe
	BinEq
	BinNe
	BinAnd
	BinOr
)

var binaryOpText = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinMod: "%",
	BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=", BinEq: "==", BinNe: "!=",
	BinAnd: "&&", BinOr: "||",
}

func (op ExprBinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// IsComparison reports whether op yields bool from ordered or equality checks.
func (op ExprBinaryOp) IsComparison() bool {
	return op >= BinLt && op <= BinNe
}

// IsLogical reports whether op is && or ||.
func (op ExprBinaryOp) IsLogical() bool {
	return op == BinAnd || op == BinOr
}

type ExprBinaryData struct {
	Op          ExprBinaryOp
	Left, Right ExprID
}

type ExprAssignData struct {
	Target ExprID // всегда ExprIdent или ExprDynamic
	Value  ExprID
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

type ExprGroupData struct {
	Inner ExprID
}

type ExprConvertData struct {
	Value ExprID
	To    Type
}

type ExprDynamicData struct {
	Name string
}
