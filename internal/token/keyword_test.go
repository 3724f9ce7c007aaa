package token

import (
	"testing"
)

func TestLookupKeyword_Positive(t *testing.T) {
	cases := map[string]Kind{
		"int":    KwInt,
		"float":  KwFloat,
		"void":   KwVoid,
		"while":  KwWhile,
		"return": KwReturn,
		"true":   KwTrue,
		"false":  KwFalse,
	}

	for lexeme, want := range cases {
		got, ok := LookupKeyword(lexeme)
		if !ok {
			t.Fatalf("LookupKeyword(%q) = !ok, want %v", lexeme, want)
		}
		if got != want {
			t.Fatalf("LookupKeyword(%q) = %v, want %v", lexeme, got, want)
		}
	}
}

func TestLookupKeyword_Negative(t *testing.T) {
	// Заведомо НЕ ключевые слова
	notKw := []string{
		"Int", "VOID", "Return", // регистр важен
		"print", "len", "str", // builtins - обычные идентификаторы
		"include", "pragma",
	}
	for _, s := range notKw {
		if _, ok := LookupKeyword(s); ok {
			t.Fatalf("LookupKeyword(%q) returned ok=true, want false", s)
		}
	}
}

func TestKindString(t *testing.T) {
	if KwInt.String() != "int" || AndAnd.String() != "&&" || EOF.String() != "EOF" {
		t.Fatalf("unexpected kind names: %s %s %s", KwInt, AndAnd, EOF)
	}
	if Kind(250).String() != "Kind(?)" {
		t.Fatalf("unknown kind must not panic")
	}
}
