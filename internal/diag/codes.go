package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexTokenTooLong             Code = 1005

	// Парсерные
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynExpectSemicolon    Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectExpression   Code = 2004
	SynExpectType         Code = 2005
	SynUnclosedParen      Code = 2006
	SynUnclosedBrace      Code = 2007
	SynBadDirective       Code = 2008
	SynIncludeNotFound    Code = 2009
	SynIncludeCycle       Code = 2010
	SynUnknownPragma      Code = 2011
	SynVoidVariable       Code = 2012
	SynUnexpectedTopLevel Code = 2013

	// Семантические
	SemaInfo                Code = 3000
	SemaDuplicateSymbol     Code = 3001
	SemaUnresolvedSymbol    Code = 3002
	SemaTypeMismatch        Code = 3003
	SemaNotCallable         Code = 3004
	SemaArgCount            Code = 3005
	SemaNotAssignable       Code = 3006
	SemaBadOperand          Code = 3007
	SemaReturnOutsideFn     Code = 3008
	SemaMissingReturnValue  Code = 3009
	SemaVoidValue           Code = 3010
	SemaLossyConversion     Code = 3011
	SemaDivisionByZero      Code = 3012
	SemaPrototypeUndefined  Code = 3013
	SemaPrototypeMismatch   Code = 3014
	SemaSnapshotDecl        Code = 3015
	SemaDynamicUnsupported  Code = 3016
	SemaRedefinitionBuiltin Code = 3017
	SemaBreakOutsideLoop    Code = 3018

	// Кодогенерация и исполнение
	GenInfo              Code = 4000
	GenUnresolvedDynamic Code = 4001
	RunInfo              Code = 4500
	RunError             Code = 4501

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Bad number",
	LexTokenTooLong:             "Token too long",
	SynInfo:                     "Syntax information",
	SynUnexpectedToken:          "Unexpected token",
	SynExpectSemicolon:          "Expected ';'",
	SynExpectIdentifier:         "Expected identifier",
	SynExpectExpression:         "Expected expression",
	SynExpectType:               "Expected type",
	SynUnclosedParen:            "Unclosed parenthesis",
	SynUnclosedBrace:            "Unclosed brace",
	SynBadDirective:             "Malformed directive",
	SynIncludeNotFound:          "Included file not found",
	SynIncludeCycle:             "Recursive include",
	SynUnknownPragma:            "Unknown pragma",
	SynVoidVariable:             "Variable of type void",
	SynUnexpectedTopLevel:       "Unexpected top level construct",
	SemaInfo:                    "Semantic information",
	SemaDuplicateSymbol:         "Duplicate symbol",
	SemaUnresolvedSymbol:        "Unresolved symbol",
	SemaTypeMismatch:            "Type mismatch",
	SemaNotCallable:             "Value is not callable",
	SemaArgCount:                "Wrong number of arguments",
	SemaNotAssignable:           "Expression is not assignable",
	SemaBadOperand:              "Invalid operand",
	SemaReturnOutsideFn:         "Return outside of function",
	SemaMissingReturnValue:      "Missing return value",
	SemaVoidValue:               "Void value used",
	SemaLossyConversion:         "Lossy conversion",
	SemaDivisionByZero:          "Division by zero",
	SemaPrototypeUndefined:      "Function declared but not defined",
	SemaPrototypeMismatch:       "Conflicting function declaration",
	SemaSnapshotDecl:            "Invalid snapshot declaration",
	SemaDynamicUnsupported:      "Dynamic lookup not available here",
	SemaRedefinitionBuiltin:     "Redefinition of builtin",
	SemaBreakOutsideLoop:        "Break or continue outside of loop",
	GenInfo:                     "Code generation information",
	GenUnresolvedDynamic:        "Unresolved dynamic identifier",
	RunInfo:                     "Runtime information",
	RunError:                    "Runtime error",
	ObsInfo:                     "Observability information",
	ObsTimings:                  "Timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 4500:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 4500 && ic < 5000:
		return fmt.Sprintf("RUN%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
