package parser

import (
	"kiln/internal/ast"
	"kiln/internal/token"
)

// приоритеты бинарных операторов; больше - связывает сильнее
const (
	precNone = iota
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
)

type binaryInfo struct {
	op   ast.ExprBinaryOp
	prec int
}

var binaryOps = map[token.Kind]binaryInfo{
	token.OrOr:    {ast.BinOr, precOr},
	token.AndAnd:  {ast.BinAnd, precAnd},
	token.EqEq:    {ast.BinEq, precEquality},
	token.BangEq:  {ast.BinNe, precEquality},
	token.Lt:      {ast.BinLt, precRelational},
	token.LtEq:    {ast.BinLe, precRelational},
	token.Gt:      {ast.BinGt, precRelational},
	token.GtEq:    {ast.BinGe, precRelational},
	token.Plus:    {ast.BinAdd, precAdditive},
	token.Minus:   {ast.BinSub, precAdditive},
	token.Star:    {ast.BinMul, precMultiplicative},
	token.Slash:   {ast.BinDiv, precMultiplicative},
	token.Percent: {ast.BinMod, precMultiplicative},
}
