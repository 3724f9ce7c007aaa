package stages

import (
	"kiln/internal/ast"
	"kiln/internal/sema"
	"kiln/internal/snapshot"
)

// SnapshotWriter follows the session while a startup snapshot is being
// built and writes the exported context once on request.
type SnapshotWriter struct {
	w      *snapshot.Writer
	export func() []sema.ExternalDecl
	groups int
	txns   int
}

func NewSnapshotWriter(w *snapshot.Writer, export func() []sema.ExternalDecl) *SnapshotWriter {
	return &SnapshotWriter{w: w, export: export}
}

func (s *SnapshotWriter) EnabledByDefault() bool { return true }
func (s *SnapshotWriter) HandleGroup(*ast.Group) { s.groups++ }
func (s *SnapshotWriter) FlushTransaction()      { s.txns++ }

// Seen reports the groups and transactions observed since the sink opened.
func (s *SnapshotWriter) Seen() (groups, txns int) {
	return s.groups, s.txns
}

func (s *SnapshotWriter) Path() string {
	return s.w.Path()
}

// Write serializes the current context; snapshot.ErrAlreadyWritten on repeat.
func (s *SnapshotWriter) Write() error {
	return s.w.Write(s.export())
}

// Close releases the sink; the pipeline calls it when the slot is freed.
func (s *SnapshotWriter) Close() error {
	return s.w.Close()
}
