package parser

import (
	"kiln/internal/diag"
	"kiln/internal/source"
	"kiln/internal/token"
)

// peekN смотрит на n-й токен вперёд в текущем буфере (0 - ближайший)
func (p *Parser) peekN(n int) token.Token {
	in := p.top()
	if in == nil {
		return token.Token{Kind: token.EOF}
	}
	for len(in.ahead) <= n {
		// после EOF лексер ничего нового не даст
		if l := len(in.ahead); l > 0 && in.ahead[l-1].Kind == token.EOF {
			return in.ahead[l-1]
		}
		in.ahead = append(in.ahead, in.lx.Next())
	}
	return in.ahead[n]
}

func (p *Parser) peek() token.Token {
	return p.peekN(0)
}

// advance - съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	in := p.top()
	if in == nil {
		return token.Token{Kind: token.EOF}
	}
	tok := p.peek()
	if tok.Kind == token.EOF {
		return tok
	}
	in.ahead = in.ahead[1:]
	if tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// diagSpan - на EOF указываем сразу за последним токеном
func (p *Parser) diagSpan() source.Span {
	tok := p.peek()
	if tok.Kind == token.EOF && p.lastSpan.File == tok.Span.File && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return tok.Span
}

// expect - ожидаем конкретный токен. Если нет - репортим и возвращаем (invalid,false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	sp := p.diagSpan()
	p.report(code, diag.SevError, sp, msg)
	return token.Token{Kind: token.Invalid, Span: sp}, false
}

// репортует ошибку и передает текущий спан
func (p *Parser) err(code diag.Code, msg string) {
	p.report(code, diag.SevError, p.diagSpan(), msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	if sev == diag.SevError {
		p.errors++
	}
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, sev, sp, msg, nil)
	}
}

// resync пропускает токены до ';' или закрывающей '}' на нулевой глубине.
func (p *Parser) resync() {
	depth := p.depth
	p.depth = 0
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.EOF:
			return
		case token.Semicolon:
			p.advance()
			if depth == 0 {
				return
			}
		case token.LBrace:
			p.advance()
			depth++
		case token.RBrace:
			p.advance()
			depth--
			if depth <= 0 {
				return
			}
		case token.Directive:
			if depth == 0 {
				return
			}
			p.advance()
		default:
			p.advance()
		}
	}
}
