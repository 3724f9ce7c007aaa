package token_test

import (
	"testing"

	"kiln/internal/source"
	"kiln/internal/token"
)

func tok(k token.Kind) token.Token {
	return token.Token{Kind: k, Span: source.Span{Start: 0, End: 0}}
}

func TestIsLiteral(t *testing.T) {
	lits := []token.Kind{token.IntLit, token.FloatLit, token.StringLit, token.KwTrue, token.KwFalse}
	for _, k := range lits {
		if !tok(k).IsLiteral() {
			t.Fatalf("%v should be literal", k)
		}
	}
	non := []token.Kind{token.Ident, token.KwInt, token.Plus, token.LParen, token.Directive}
	for _, k := range non {
		if tok(k).IsLiteral() {
			t.Fatalf("%v must NOT be literal", k)
		}
	}
}

func TestIsPunctOrOp(t *testing.T) {
	ops := []token.Kind{
		token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
		token.Assign, token.EqEq, token.Bang, token.BangEq,
		token.Lt, token.LtEq, token.Gt, token.GtEq,
		token.AndAnd, token.OrOr, token.Semicolon, token.Comma,
		token.LParen, token.RParen, token.LBrace, token.RBrace,
	}
	for _, k := range ops {
		if !tok(k).IsPunctOrOp() {
			t.Fatalf("%v should be punct/op", k)
		}
	}
	non := []token.Kind{token.Ident, token.KwIf, token.IntLit, token.EOF}
	for _, k := range non {
		if tok(k).IsPunctOrOp() {
			t.Fatalf("%v must NOT be punct/op", k)
		}
	}
}

func TestIsKeywordAndType(t *testing.T) {
	types := []token.Kind{token.KwInt, token.KwFloat, token.KwBool, token.KwString, token.KwVoid}
	for _, k := range types {
		if !tok(k).IsKeyword() || !tok(k).IsTypeKeyword() {
			t.Fatalf("%v should be a type keyword", k)
		}
	}
	if tok(token.KwWhile).IsTypeKeyword() {
		t.Fatalf("while is not a type")
	}
	if !tok(token.KwReturn).IsKeyword() || tok(token.Ident).IsKeyword() {
		t.Fatalf("keyword classification broken")
	}
}

func TestHasNewlineBefore(t *testing.T) {
	tk := token.Token{Kind: token.Ident, Leading: []token.Trivia{{Kind: token.TriviaSpace}, {Kind: token.TriviaNewline}}}
	if !tk.HasNewlineBefore() {
		t.Fatalf("newline trivia not detected")
	}
	if tok(token.Ident).HasNewlineBefore() {
		t.Fatalf("no trivia means no newline")
	}
}
