package lexer

import (
	"kiln/internal/diag"
	"kiln/internal/token"
)

// Поддержка: 0, 123, 0b..., 0x..., 1.0, .5, 1e-3, 1.0e+10, '_' как разделитель.
// Неверные формы - репорт в opts.Reporter, токен по возможности завершаем.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
	}
	bad := func(msg string) token.Token {
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexBadNumber, sp, msg)
		return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
	}
	digits := func(ok func(byte) bool) int {
		n := 0
		for b := lx.cursor.Peek(); ok(b) || b == '_'; b = lx.cursor.Peek() {
			if b != '_' {
				n++
			}
			lx.cursor.Bump()
		}
		return n
	}

	// ведущий 0 и база?
	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '0' {
		switch b1 {
		case 'x', 'X':
			lx.cursor.Bump()
			lx.cursor.Bump()
			if digits(isHex) == 0 {
				return bad("expected hex digit after '0x'")
			}
			return emit(kind)
		case 'b', 'B':
			lx.cursor.Bump()
			lx.cursor.Bump()
			if digits(func(b byte) bool { return b == '0' || b == '1' }) == 0 {
				return bad("expected binary digit after '0b'")
			}
			return emit(kind)
		}
	}

	digits(isDec)

	// дробная часть
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		kind = token.FloatLit
		digits(isDec)
	}

	// экспонента
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		kind = token.FloatLit
		lx.cursor.Bump()
		if b := lx.cursor.Peek(); b == '+' || b == '-' {
			lx.cursor.Bump()
		}
		if digits(isDec) == 0 {
			return bad("expected digit after exponent")
		}
	}

	// хвост вида 12abc - ошибка, съедаем его целиком
	if isIdentStartByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		return bad("invalid suffix on numeric literal")
	}
	return emit(kind)
}
