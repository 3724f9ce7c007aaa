package lexer_test

import (
	"testing"

	"kiln/internal/diag"
	"kiln/internal/lexer"
	"kiln/internal/source"
	"kiln/internal/token"
)

func makeTestLexer(input string) (*lexer.Lexer, *diag.Bag) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddFragment("input_line_1", input))
	bag := diag.NewBag(16)
	return lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}}), bag
}

func collectAllTokens(lx *lexer.Lexer) []token.Token {
	var tokens []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func expectKinds(t *testing.T, input string, expected ...token.Kind) {
	t.Helper()
	lx, bag := makeTestLexer(input)
	tokens := collectAllTokens(lx)
	if len(tokens) != len(expected) {
		t.Fatalf("input %q: expected %d tokens, got %d: %v (diags: %v)", input, len(expected), len(tokens), tokens, bag.Items())
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("input %q token %d: expected %v, got %v (text %q)", input, i, expected[i], tok.Kind, tok.Text)
		}
	}
}

func TestDeclarations(t *testing.T) {
	expectKinds(t, "int x = 5;", token.KwInt, token.Ident, token.Assign, token.IntLit, token.Semicolon)
	expectKinds(t, "float f = .5, g = 1e-3;",
		token.KwFloat, token.Ident, token.Assign, token.FloatLit, token.Comma,
		token.Ident, token.Assign, token.FloatLit, token.Semicolon)
	expectKinds(t, "int add(int a, int b) { return a + b; }",
		token.KwInt, token.Ident, token.LParen, token.KwInt, token.Ident, token.Comma,
		token.KwInt, token.Ident, token.RParen, token.LBrace, token.KwReturn, token.Ident,
		token.Plus, token.Ident, token.Semicolon, token.RBrace)
}

func TestOperatorsGreedy(t *testing.T) {
	expectKinds(t, "a<=b>=c==d!=e&&f||!g",
		token.Ident, token.LtEq, token.Ident, token.GtEq, token.Ident, token.EqEq,
		token.Ident, token.BangEq, token.Ident, token.AndAnd, token.Ident, token.OrOr,
		token.Bang, token.Ident)
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		in   string
		kind token.Kind
	}{
		{"0", token.IntLit},
		{"1_000", token.IntLit},
		{"0xFF", token.IntLit},
		{"0b1010", token.IntLit},
		{"3.14", token.FloatLit},
		{"2.", token.FloatLit},
		{"1e10", token.FloatLit},
		{"6.02E+23", token.FloatLit},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			lx, bag := makeTestLexer(tc.in)
			tok := lx.Next()
			if tok.Kind != tc.kind || tok.Text != tc.in {
				t.Fatalf("got %v %q", tok.Kind, tok.Text)
			}
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %v", bag.Items())
			}
		})
	}
}

func TestBadNumbers(t *testing.T) {
	for _, in := range []string{"0x", "1e+", "12abc"} {
		t.Run(in, func(t *testing.T) {
			lx, bag := makeTestLexer(in)
			if tok := lx.Next(); tok.Kind != token.Invalid {
				t.Fatalf("expected Invalid, got %v", tok.Kind)
			}
			if bag.Len() != 1 || bag.Items()[0].Code != diag.LexBadNumber {
				t.Fatalf("expected LexBadNumber, got %v", bag.Items())
			}
		})
	}
}

func TestStrings(t *testing.T) {
	lx, bag := makeTestLexer(`"a\"b\n"`)
	tok := lx.Next()
	if tok.Kind != token.StringLit || lexer.Unquote(tok.Text) != "a\"b\n" {
		t.Fatalf("unexpected string token %v %q", tok.Kind, tok.Text)
	}

	lx, bag = makeTestLexer("\"open\nint")
	if tok := lx.Next(); tok.Kind != token.Invalid {
		t.Fatalf("expected Invalid for newline in string, got %v", tok.Kind)
	}
	if bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Fatalf("unexpected code %v", bag.Items()[0].Code)
	}
	if tok := lx.Next(); tok.Kind != token.KwInt {
		t.Fatalf("lexing must resume on the next line, got %v", tok.Kind)
	}
}

func TestDirectiveIsWholeLine(t *testing.T) {
	lx, _ := makeTestLexer("#include \"<runtime>\" // tail\nint")
	tok := lx.Next()
	if tok.Kind != token.Directive || tok.Text != `#include "<runtime>" // tail` {
		t.Fatalf("unexpected directive %v %q", tok.Kind, tok.Text)
	}
	next := lx.Next()
	if next.Kind != token.KwInt || !next.HasNewlineBefore() {
		t.Fatalf("expected int after newline, got %v", next.Kind)
	}
}

func TestCommentsAreTrivia(t *testing.T) {
	lx, bag := makeTestLexer("// line\nx /* block */ + 1")
	tokens := collectAllTokens(lx)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %v", tokens)
	}
	lead := tokens[0].Leading
	if len(lead) != 2 || lead[0].Kind != token.TriviaLineComment || lead[1].Kind != token.TriviaNewline {
		t.Fatalf("unexpected leading trivia %+v", lead)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics %v", bag.Items())
	}

	lx, bag = makeTestLexer("x /* never closed")
	collectAllTokens(lx)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnterminatedBlockComment {
		t.Fatalf("expected unterminated comment, got %v", bag.Items())
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("a b")
	if p := lx.Peek(); p.Text != "a" {
		t.Fatalf("peek = %q", p.Text)
	}
	if p := lx.Peek(); p.Text != "a" {
		t.Fatalf("second peek = %q", p.Text)
	}
	if n := lx.Next(); n.Text != "a" {
		t.Fatalf("next = %q", n.Text)
	}
	if n := lx.Next(); n.Text != "b" {
		t.Fatalf("next = %q", n.Text)
	}
	if n := lx.Next(); n.Kind != token.EOF {
		t.Fatalf("expected EOF, got %v", n.Kind)
	}
}

func TestUnicodeIdentAndUnknownChar(t *testing.T) {
	expectKinds(t, "int café = 1;", token.KwInt, token.Ident, token.Assign, token.IntLit, token.Semicolon)

	lx, bag := makeTestLexer("a @ b")
	tokens := collectAllTokens(lx)
	if len(tokens) != 3 || tokens[1].Kind != token.Invalid {
		t.Fatalf("unexpected tokens %v", tokens)
	}
	if bag.Items()[0].Code != diag.LexUnknownChar {
		t.Fatalf("expected LexUnknownChar, got %v", bag.Items())
	}
}
