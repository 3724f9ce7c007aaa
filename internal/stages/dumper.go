package stages

import (
	"fmt"
	"io"

	"kiln/internal/ast"
)

// Dumper prints every group it sees. Off by default.
type Dumper struct {
	b   *ast.Builder
	w   io.Writer
	err error
}

func NewDumper(b *ast.Builder, w io.Writer) *Dumper {
	return &Dumper{b: b, w: w}
}

func (s *Dumper) EnabledByDefault() bool { return false }
func (s *Dumper) FlushTransaction()      {}

// Err returns the first write error.
func (s *Dumper) Err() error {
	return s.err
}

func (s *Dumper) HandleGroup(g *ast.Group) {
	if s.err != nil {
		return
	}
	if _, err := fmt.Fprintf(s.w, "// group of %d\n", g.Len()); err != nil {
		s.err = err
		return
	}
	s.err = s.b.FprintGroup(s.w, g)
}
