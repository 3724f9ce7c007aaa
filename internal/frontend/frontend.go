// Package frontend bundles the source set, the parser, the analyzer and the
// diagnostic engine of one session behind a single value.
package frontend

import (
	_ "embed"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/parser"
	"kiln/internal/sema"
	"kiln/internal/source"
)

// RuntimeSource is the runtime support library reachable as #include "<runtime>".
//
//go:embed runtime.ks
var RuntimeSource string

type Options struct {
	IncludePaths   []string
	MaxDiagnostics int
	BaseDir        string
}

// Frontend owns everything the session parses and analyzes.
type Frontend struct {
	fs     *source.FileSet
	b      *ast.Builder
	diags  *diag.Engine
	parser *parser.Parser
	sema   *sema.Analyzer
}

func New(opts Options) *Frontend {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 256
	}
	fe := &Frontend{
		fs:    source.NewFileSet(),
		b:     ast.NewBuilder(ast.Hints{}),
		diags: diag.NewEngine(opts.MaxDiagnostics),
	}
	if opts.BaseDir != "" {
		fe.fs.SetBaseDir(opts.BaseDir)
	}
	fe.parser = parser.New(fe.fs, fe.b, parser.Options{
		Reporter:     fe.diags,
		IncludePaths: opts.IncludePaths,
		Virtual:      map[string]string{diag.RuntimeBufferName: RuntimeSource},
	})
	fe.sema = sema.New(fe.b, sema.Options{
		Reporter: fe.diags,
		Parse:    fe.parseExternal,
	})
	return fe
}

func (fe *Frontend) parseExternal(name, text string) ([]ast.DeclID, bool) {
	return fe.parser.ParseAll(fe.fs.AddVirtual(name, []byte(text)))
}

func (fe *Frontend) FileSet() *source.FileSet  { return fe.fs }
func (fe *Frontend) AST() *ast.Builder         { return fe.b }
func (fe *Frontend) Diagnostics() *diag.Engine { return fe.diags }
func (fe *Frontend) Analyzer() *sema.Analyzer  { return fe.sema }

// SetPragmaHandler routes `#pragma kiln` lines to h.
func (fe *Frontend) SetPragmaHandler(h parser.PragmaHandler) {
	fe.parser.SetPragmaHandler(h)
}

// AddFragment registers one interactive fragment buffer.
func (fe *Frontend) AddFragment(name, text string) source.FileID {
	return fe.fs.AddFragment(name, text)
}

// Enter splices a buffer into the parser input.
func (fe *Frontend) Enter(id source.FileID) {
	fe.parser.Enter(id)
}

// ParseTopLevel parses and analyzes the next top-level unit. Declarations
// that failed analysis stay in the group flagged ast.DeclInvalid.
func (fe *Frontend) ParseTopLevel() (ast.Group, bool) {
	g, eof := fe.parser.ParseTopLevel()
	if eof || g.IsEmpty() {
		return g, eof
	}
	fe.sema.AnalyzeGroup(&g)
	return g, false
}

func (fe *Frontend) TakeSideEffectDecls() []ast.DeclID {
	return fe.sema.TakeSideEffectDecls()
}

func (fe *Frontend) PerformPendingWork() {
	fe.sema.PerformPendingWork()
}

func (fe *Frontend) InstallResolver(r sema.ExternalResolver) error {
	return fe.sema.InstallResolver(r)
}

func (fe *Frontend) RemoveResolver() bool {
	return fe.sema.RemoveResolver()
}

func (fe *Frontend) SetExternalSource(src sema.ExternalSource) {
	fe.sema.SetExternalSource(src)
}

func (fe *Frontend) ExportDecls() []sema.ExternalDecl {
	return fe.sema.ExportDecls()
}

func (fe *Frontend) Mark() sema.Mark {
	return fe.sema.Mark()
}

func (fe *Frontend) Rollback(m sema.Mark) {
	fe.sema.Rollback(m)
}

func (fe *Frontend) PromoteToGlobal(id ast.DeclID) bool {
	return fe.sema.PromoteToGlobal(id)
}
