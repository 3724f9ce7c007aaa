package parser

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/token"
)

// parseStmt разбирает один оператор. top - оператор лежит прямо в обёртке,
// там последнее выражение фрагмента может обойтись без ';'.
func (p *Parser) parseStmt(top bool) (ast.StmtID, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.Semicolon:
		p.advance()
		return p.b.Stmts.NewSimple(ast.StmtEmpty, tok.Span), true
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwBreak, token.KwContinue:
		p.advance()
		kind := ast.StmtBreak
		if tok.Kind == token.KwContinue {
			kind = ast.StmtContinue
		}
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after "+tok.Text); !ok {
			return ast.NoStmtID, false
		}
		return p.b.Stmts.NewSimple(kind, tok.Span.Cover(p.lastSpan)), true
	case token.Directive:
		p.report(diag.SynBadDirective, diag.SevError, tok.Span, "directive is not allowed inside a block")
		p.advance()
		return ast.NoStmtID, false
	}

	if tok.IsTypeKeyword() {
		return p.parseLocalVar()
	}

	expr, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	span := p.b.Exprs.Get(expr).Span
	if p.at(token.Semicolon) {
		p.advance()
		return p.b.Stmts.NewExpr(span.Cover(p.lastSpan), expr, false), true
	}
	if top && p.atFragmentEOF() {
		return p.b.Stmts.NewExpr(span, expr, true), true
	}
	p.err(diag.SynExpectSemicolon, "expected ';' after expression")
	return ast.NoStmtID, false
}

func (p *Parser) parseLocalVar() (ast.StmtID, bool) {
	typTok := p.advance()
	typ, _ := ast.TypeFromToken(typTok.Kind)
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier")
	if !ok {
		return ast.NoStmtID, false
	}
	if p.at(token.LParen) {
		p.err(diag.SynUnexpectedToken, "function definitions are only allowed at top level")
		return ast.NoStmtID, false
	}
	ids, ok := p.parseDeclarators(typTok, typ, nameTok, ast.StorageLocal)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.b.Stmts.NewVar(typTok.Span.Cover(p.lastSpan), ids), true
}

func (p *Parser) parseBlock() (ast.StmtID, bool) {
	open := p.advance() // '{'
	p.depth++
	var stmts []ast.StmtID
	for !p.at(token.RBrace) {
		if p.at(token.EOF) {
			p.report(diag.SynUnclosedBrace, diag.SevError, open.Span, "unclosed '{'")
			return ast.NoStmtID, false
		}
		st, ok := p.parseStmt(false)
		if !ok {
			return ast.NoStmtID, false
		}
		stmts = append(stmts, st)
	}
	p.advance()
	p.depth--
	return p.b.Stmts.NewBlock(open.Span.Cover(p.lastSpan), stmts), true
}

// parseCond: '(' expr ')'
func (p *Parser) parseCond() (ast.ExprID, bool) {
	open, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('")
	if !ok {
		return ast.NoExprID, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.RParen) {
		p.report(diag.SynUnclosedParen, diag.SevError, open.Span, "expected ')' to close condition")
		return ast.NoExprID, false
	}
	p.advance()
	return cond, true
}

func (p *Parser) parseIf() (ast.StmtID, bool) {
	kw := p.advance()
	cond, ok := p.parseCond()
	if !ok {
		return ast.NoStmtID, false
	}
	then, ok := p.parseStmt(false)
	if !ok {
		return ast.NoStmtID, false
	}
	els := ast.NoStmtID
	if p.at(token.KwElse) {
		p.advance()
		if els, ok = p.parseStmt(false); !ok {
			return ast.NoStmtID, false
		}
	}
	return p.b.Stmts.NewIf(kw.Span.Cover(p.lastSpan), cond, then, els), true
}

func (p *Parser) parseWhile() (ast.StmtID, bool) {
	kw := p.advance()
	cond, ok := p.parseCond()
	if !ok {
		return ast.NoStmtID, false
	}
	body, ok := p.parseStmt(false)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.b.Stmts.NewWhile(kw.Span.Cover(p.lastSpan), cond, body), true
}

func (p *Parser) parseReturn() (ast.StmtID, bool) {
	kw := p.advance()
	value := ast.NoExprID
	if !p.at(token.Semicolon) {
		var ok bool
		if value, ok = p.parseExpr(); !ok {
			return ast.NoStmtID, false
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after return"); !ok {
		return ast.NoStmtID, false
	}
	return p.b.Stmts.NewReturn(kw.Span.Cover(p.lastSpan), value), true
}
