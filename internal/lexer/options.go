package lexer

import (
	"kiln/internal/diag"
	"kiln/internal/source"
)

// maxTokenLength bounds a single token; longer input is reported and skipped.
const maxTokenLength = 4096

type Options struct {
	Reporter diag.Reporter // может быть nil - тогда ошибки игнорируем (но продолжаем лексить)
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}
