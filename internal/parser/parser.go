package parser

import (
	"fmt"
	"slices"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/lexer"
	"kiln/internal/source"
	"kiln/internal/token"
)

// WrapperPrefix names the synthetic functions that hold top-level statements.
const WrapperPrefix = "__kiln_wrapper_"

// PragmaHandler receives `#pragma kiln <key> <value>` lines.
type PragmaHandler func(key, value string) error

type Options struct {
	Reporter diag.Reporter
	// IncludePaths ищутся после каталога подключающего файла
	IncludePaths []string
	// Virtual - буферы, доступные по имени без диска (например "<runtime>")
	Virtual map[string]string
	Pragma  PragmaHandler
}

// input - один буфер на стеке ввода с собственным окном предпросмотра.
type input struct {
	file  *source.File
	lx    *lexer.Lexer
	ahead []token.Token
}

// Parser - состояние парсера на всю сессию: стек буферов и счётчик обёрток.
type Parser struct {
	fs         *source.FileSet
	b          *ast.Builder
	opts       Options
	inputs     []*input
	wrapperSeq int
	depth      int         // открытые '{' для ресинхронизации
	lastSpan   source.Span // span последнего съеденного токена для лучшей диагностики
	errors     int
}

func New(fs *source.FileSet, b *ast.Builder, opts Options) *Parser {
	return &Parser{fs: fs, b: b, opts: opts}
}

// SetPragmaHandler replaces the pragma callback.
func (p *Parser) SetPragmaHandler(h PragmaHandler) {
	p.opts.Pragma = h
}

// Enter splices a buffer into the input: it is read before anything pending.
func (p *Parser) Enter(id source.FileID) {
	f := p.fs.Get(id)
	if f == nil {
		return
	}
	p.inputs = append(p.inputs, &input{
		file: f,
		lx:   lexer.New(f, lexer.Options{Reporter: p.opts.Reporter}),
	})
}

// Pending reports whether any input is left.
func (p *Parser) Pending() bool {
	return len(p.inputs) > 0
}

// Errors reports how many syntax errors the parser emitted so far.
func (p *Parser) Errors() int {
	return p.errors
}

// ParseTopLevel pulls the next top-level unit. A syntax error yields an
// empty group after recovery; eof is true once every input is drained.
func (p *Parser) ParseTopLevel() (ast.Group, bool) {
	for {
		in := p.top()
		if in == nil {
			return ast.Group{}, true
		}
		tok := p.peek()
		switch {
		case tok.Kind == token.EOF:
			p.inputs = p.inputs[:len(p.inputs)-1]
			continue
		case tok.Kind == token.Directive:
			p.advance()
			p.directive(tok)
			continue
		case tok.IsTypeKeyword() && p.peekN(1).Kind == token.Ident:
			g, ok := p.parseTopDecl()
			if !ok {
				p.resync()
				return ast.Group{}, false
			}
			return g, false
		default:
			id, ok := p.parseWrapper()
			if !ok {
				p.resync()
				return ast.Group{}, false
			}
			return ast.GroupOf(id), false
		}
	}
}

// ParseAll drains a single buffer into declarations; used for standalone
// sources such as snapshot entries. Statements are rejected.
func (p *Parser) ParseAll(id source.FileID) ([]ast.DeclID, bool) {
	base := len(p.inputs)
	p.Enter(id)
	var out []ast.DeclID
	ok := true
	for len(p.inputs) > base {
		tok := p.peek()
		if tok.Kind == token.EOF {
			p.inputs = p.inputs[:len(p.inputs)-1]
			continue
		}
		if !tok.IsTypeKeyword() {
			p.err(diag.SynUnexpectedTopLevel, "expected declaration")
			p.inputs = p.inputs[:base]
			return out, false
		}
		g, gok := p.parseTopDecl()
		if !gok {
			ok = false
			p.resync()
			continue
		}
		out = append(out, g.Decls...)
	}
	return out, ok
}

func (p *Parser) top() *input {
	if len(p.inputs) == 0 {
		return nil
	}
	return p.inputs[len(p.inputs)-1]
}

func (p *Parser) nextWrapperName() string {
	p.wrapperSeq++
	return fmt.Sprintf("%s%d", WrapperPrefix, p.wrapperSeq)
}

// atFragmentEOF: текущий буфер - фрагмент и он закончился
func (p *Parser) atFragmentEOF() bool {
	in := p.top()
	return in != nil && in.file.Flags&source.FileFragment != 0 && p.at(token.EOF)
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}
