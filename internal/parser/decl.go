package parser

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/token"
)

// parseTopDecl: <type> <ident> ( '(' … функция | декларации переменных ).
func (p *Parser) parseTopDecl() (ast.Group, bool) {
	typTok := p.advance()
	typ, _ := ast.TypeFromToken(typTok.Kind)
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier")
	if !ok {
		return ast.Group{}, false
	}
	if p.at(token.LParen) {
		id, ok := p.parseFunc(typTok, typ, nameTok)
		if !ok {
			return ast.Group{}, false
		}
		return ast.GroupOf(id), true
	}
	ids, ok := p.parseDeclarators(typTok, typ, nameTok, ast.StorageGlobal)
	if !ok {
		return ast.Group{}, false
	}
	return ast.Group{Decls: ids}, true
}

// parseDeclarators разбирает "= init, b = …;" после первого имени.
func (p *Parser) parseDeclarators(typTok token.Token, typ ast.Type, nameTok token.Token, storage ast.Storage) ([]ast.DeclID, bool) {
	if typ == ast.TypeVoid {
		p.report(diag.SynVoidVariable, diag.SevError, typTok.Span, "variable cannot have type void")
		return nil, false
	}
	var ids []ast.DeclID
	for {
		init := ast.NoExprID
		if p.at(token.Assign) {
			p.advance()
			var ok bool
			if init, ok = p.parseExpr(); !ok {
				return nil, false
			}
		}
		span := typTok.Span.Cover(p.lastSpan)
		if len(ids) > 0 {
			span = nameTok.Span.Cover(p.lastSpan)
		}
		ids = append(ids, p.b.Decls.NewVar(span, nameTok.Text, ast.VarDeclData{
			Type:    typ,
			Init:    init,
			Storage: storage,
		}))
		if !p.at(token.Comma) {
			break
		}
		p.advance()
		var ok bool
		if nameTok, ok = p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier after ','"); !ok {
			return nil, false
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after declaration"); !ok {
		return nil, false
	}
	return ids, true
}

// parseFunc: '(' params ')' ( block | ';' ).
func (p *Parser) parseFunc(typTok token.Token, result ast.Type, nameTok token.Token) (ast.DeclID, bool) {
	p.advance() // '('
	var params []ast.DeclID
	unnamed := false

	// "(void)" - то же, что "()"
	if p.at(token.KwVoid) && p.peekN(1).Kind == token.RParen {
		p.advance()
	}
	for !p.at(token.RParen) {
		if len(params) > 0 {
			if _, ok := p.expect(token.Comma, diag.SynUnexpectedToken, "expected ',' or ')' in parameter list"); !ok {
				return ast.NoDeclID, false
			}
		}
		pt := p.peek()
		typ, isType := ast.TypeFromToken(pt.Kind)
		if !isType {
			p.err(diag.SynExpectType, "expected parameter type")
			return ast.NoDeclID, false
		}
		p.advance()
		if typ == ast.TypeVoid {
			p.report(diag.SynVoidVariable, diag.SevError, pt.Span, "parameter cannot have type void")
			return ast.NoDeclID, false
		}
		name := ""
		span := pt.Span
		if p.at(token.Ident) {
			nt := p.advance()
			name = nt.Text
			span = span.Cover(nt.Span)
		} else {
			unnamed = true
		}
		slot := uint32(len(params))
		params = append(params, p.b.Decls.NewVar(span, name, ast.VarDeclData{
			Type:    typ,
			Storage: ast.StorageParam,
			Slot:    slot,
		}))
	}
	p.advance() // ')'

	data := ast.FuncDeclData{Result: result, Params: params}
	if p.at(token.Semicolon) {
		p.advance()
		return p.b.Decls.NewFunc(ast.DeclFunc, typTok.Span.Cover(p.lastSpan), nameTok.Text, data), true
	}
	if !p.at(token.LBrace) {
		p.err(diag.SynExpectSemicolon, "expected '{' or ';' after parameter list")
		return ast.NoDeclID, false
	}
	if unnamed {
		p.err(diag.SynExpectIdentifier, "parameters of a function definition must be named")
		return ast.NoDeclID, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return ast.NoDeclID, false
	}
	data.Body = body
	return p.b.Decls.NewFunc(ast.DeclFunc, typTok.Span.Cover(p.lastSpan), nameTok.Text, data), true
}

// parseWrapper собирает подряд идущие операторы верхнего уровня в синтетическую
// функцию. Останавливается на конце буфера, директиве и определении функции.
func (p *Parser) parseWrapper() (ast.DeclID, bool) {
	start := p.peek().Span
	var stmts []ast.StmtID
	for {
		tok := p.peek()
		if tok.Kind == token.EOF || tok.Kind == token.Directive {
			break
		}
		if tok.IsTypeKeyword() && p.peekN(1).Kind == token.Ident && p.peekN(2).Kind == token.LParen {
			break
		}
		if tok.Kind == token.RBrace {
			p.err(diag.SynUnexpectedTopLevel, "unexpected '}'")
			p.advance()
			return ast.NoDeclID, false
		}
		st, ok := p.parseStmt(true)
		if !ok {
			return ast.NoDeclID, false
		}
		stmts = append(stmts, st)
	}
	span := start.Cover(p.lastSpan)
	body := p.b.Stmts.NewBlock(span, stmts)
	return p.b.Decls.NewFunc(ast.DeclWrapper, span, p.nextWrapperName(), ast.FuncDeclData{
		Result: ast.TypeVoid,
		Body:   body,
	}), true
}
