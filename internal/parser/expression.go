package parser

import (
	"fmt"
	"strconv"
	"strings"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/lexer"
	"kiln/internal/token"
)

// parseExpr: присваивание правоассоциативно и слабее любых бинарных операторов.
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	left, ok := p.parseBinary(precOr)
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.Assign) {
		return left, true
	}
	eq := p.advance()
	target := p.b.Exprs.Get(left)
	if target.Kind != ast.ExprIdent {
		p.report(diag.SynUnexpectedToken, diag.SevError, eq.Span, "left side of '=' must be a name")
		return ast.NoExprID, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	span := target.Span.Cover(p.b.Exprs.Get(value).Span)
	return p.b.Exprs.NewAssign(span, left, value), true
}

func (p *Parser) parseBinary(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		info, isBin := binaryOps[p.peek().Kind]
		if !isBin || info.prec < minPrec {
			return left, true
		}
		p.advance()
		right, ok := p.parseBinary(info.prec + 1)
		if !ok {
			return ast.NoExprID, false
		}
		span := p.b.Exprs.Get(left).Span.Cover(p.b.Exprs.Get(right).Span)
		left = p.b.Exprs.NewBinary(span, info.op, left, right)
	}
}

func (p *Parser) parseUnary() (ast.ExprID, bool) {
	tok := p.peek()
	var op ast.ExprUnaryOp
	switch tok.Kind {
	case token.Minus:
		op = ast.UnaryNeg
	case token.Bang:
		op = ast.UnaryNot
	default:
		return p.parsePostfix()
	}
	p.advance()
	operand, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	return p.b.Exprs.NewUnary(tok.Span.Cover(p.b.Exprs.Get(operand).Span), op, operand), true
}

func (p *Parser) parsePostfix() (ast.ExprID, bool) {
	expr, ok := p.parsePrimary()
	if !ok {
		return ast.NoExprID, false
	}
	for p.at(token.LParen) {
		open := p.advance()
		var args []ast.ExprID
		for !p.at(token.RParen) {
			if len(args) > 0 {
				if !p.at(token.Comma) {
					p.report(diag.SynUnclosedParen, diag.SevError, open.Span, "expected ',' or ')' in call")
					return ast.NoExprID, false
				}
				p.advance()
			}
			arg, ok := p.parseExpr()
			if !ok {
				return ast.NoExprID, false
			}
			args = append(args, arg)
		}
		p.advance()
		span := p.b.Exprs.Get(expr).Span.Cover(p.lastSpan)
		expr = p.b.Exprs.NewCall(span, expr, args)
	}
	return expr, true
}

func (p *Parser) parsePrimary() (ast.ExprID, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.b.Exprs.NewIdent(tok.Span, tok.Text), true
	case token.IntLit:
		p.advance()
		v, err := parseIntLiteral(tok.Text)
		if err != nil {
			p.report(diag.LexBadNumber, diag.SevError, tok.Span, err.Error())
			return ast.NoExprID, false
		}
		return p.b.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{Kind: ast.LitInt, Raw: tok.Text, Int: v}), true
	case token.FloatLit:
		p.advance()
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Text, "_", ""), 64)
		if err != nil {
			p.report(diag.LexBadNumber, diag.SevError, tok.Span, fmt.Sprintf("invalid float literal %q", tok.Text))
			return ast.NoExprID, false
		}
		return p.b.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{Kind: ast.LitFloat, Raw: tok.Text, Float: v}), true
	case token.StringLit:
		p.advance()
		return p.b.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{Kind: ast.LitString, Raw: tok.Text, Str: lexer.Unquote(tok.Text)}), true
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.b.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{Kind: ast.LitBool, Raw: tok.Text, Bool: tok.Kind == token.KwTrue}), true
	case token.LParen:
		open := p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		if !p.at(token.RParen) {
			p.report(diag.SynUnclosedParen, diag.SevError, open.Span, "expected ')'")
			return ast.NoExprID, false
		}
		p.advance()
		return p.b.Exprs.NewGroup(open.Span.Cover(p.lastSpan), inner), true
	case token.Invalid:
		// лексер уже отрепортил
		p.advance()
		return ast.NoExprID, false
	}
	p.err(diag.SynExpectExpression, "expected expression")
	return ast.NoExprID, false
}

// parseIntLiteral понимает 0x/0b и разделители '_'.
func parseIntLiteral(text string) (int64, error) {
	clean := strings.ReplaceAll(text, "_", "")
	base := 10
	switch {
	case strings.HasPrefix(clean, "0x"), strings.HasPrefix(clean, "0X"):
		base, clean = 16, clean[2:]
	case strings.HasPrefix(clean, "0b"), strings.HasPrefix(clean, "0B"):
		base, clean = 2, clean[2:]
	}
	v, err := strconv.ParseInt(clean, base, 64)
	if err != nil {
		return 0, fmt.Errorf("integer literal %q out of range", text)
	}
	return v, nil
}
