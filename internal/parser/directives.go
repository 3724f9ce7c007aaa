package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kiln/internal/diag"
	"kiln/internal/source"
	"kiln/internal/token"
)

// directive разбирает строку '#...' верхнего уровня.
func (p *Parser) directive(tok token.Token) {
	body := strings.TrimSpace(strings.TrimPrefix(tok.Text, "#"))
	// хвостовой комментарий в директиве не участвует
	if i := strings.Index(body, "//"); i >= 0 && !strings.HasPrefix(body, "include") {
		body = strings.TrimSpace(body[:i])
	}
	name, rest, _ := strings.Cut(body, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "include":
		p.include(tok.Span, rest)
	case "pragma":
		p.pragma(tok.Span, rest)
	default:
		p.report(diag.SynBadDirective, diag.SevError, tok.Span, fmt.Sprintf("unknown directive '#%s'", name))
	}
}

func (p *Parser) include(sp source.Span, arg string) {
	if len(arg) < 2 || arg[0] != '"' {
		p.report(diag.SynBadDirective, diag.SevError, sp, "expected #include \"file\"")
		return
	}
	end := strings.IndexByte(arg[1:], '"')
	if end < 0 {
		p.report(diag.SynBadDirective, diag.SevError, sp, "unterminated include path")
		return
	}
	name := arg[1 : end+1]

	id, ok := p.openInclude(sp, name)
	if !ok {
		return
	}
	path := p.fs.Get(id).Path
	for _, in := range p.inputs {
		if in.file.Path == path {
			p.report(diag.SynIncludeCycle, diag.SevError, sp, fmt.Sprintf("include cycle through %q", name))
			return
		}
	}
	p.Enter(id)
}

func (p *Parser) openInclude(sp source.Span, name string) (source.FileID, bool) {
	if content, ok := p.opts.Virtual[name]; ok {
		// виртуальный буфер создаём один раз на сессию
		if id, seen := p.fs.GetLatest(name); seen {
			return id, true
		}
		return p.fs.AddVirtual(name, []byte(content)), true
	}

	var candidates []string
	if filepath.IsAbs(name) {
		candidates = append(candidates, name)
	} else {
		if cur := p.top(); cur != nil && cur.file.Flags&source.FileVirtual == 0 {
			candidates = append(candidates, filepath.Join(filepath.Dir(cur.file.Path), name))
		}
		for _, dir := range p.opts.IncludePaths {
			candidates = append(candidates, filepath.Join(dir, name))
		}
		candidates = append(candidates, filepath.Join(p.fs.BaseDir(), name))
	}
	for _, c := range candidates {
		if st, err := os.Stat(c); err != nil || st.IsDir() {
			continue
		}
		id, err := p.fs.Load(c)
		if err != nil {
			p.report(diag.SynIncludeNotFound, diag.SevError, sp, fmt.Sprintf("cannot read %q: %v", name, err))
			return 0, false
		}
		return id, true
	}
	p.report(diag.SynIncludeNotFound, diag.SevError, sp, fmt.Sprintf("include file %q not found", name))
	return 0, false
}

func (p *Parser) pragma(sp source.Span, arg string) {
	fields := strings.Fields(arg)
	if len(fields) == 0 || fields[0] != "kiln" {
		p.report(diag.SynUnknownPragma, diag.SevWarning, sp, "unknown pragma ignored")
		return
	}
	if len(fields) != 3 {
		p.report(diag.SynBadDirective, diag.SevError, sp, "expected #pragma kiln <key> <value>")
		return
	}
	if p.opts.Pragma == nil {
		p.report(diag.SynUnknownPragma, diag.SevWarning, sp, fmt.Sprintf("pragma %q has no effect here", fields[1]))
		return
	}
	if err := p.opts.Pragma(fields[1], fields[2]); err != nil {
		p.report(diag.SynBadDirective, diag.SevError, sp, err.Error())
	}
}
