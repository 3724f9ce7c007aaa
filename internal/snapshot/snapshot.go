// Package snapshot stores the exported semantic context of a session so a
// later session can resolve the same declarations without compiling them.
package snapshot

import (
	"bufio"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"kiln/internal/sema"
	"kiln/internal/version"
)

// SchemaVersion bumps whenever Payload changes shape.
const SchemaVersion uint16 = 1

var (
	ErrSchema         = errors.New("snapshot: unsupported schema")
	ErrCorrupt        = errors.New("snapshot: corrupt payload")
	ErrAlreadyWritten = errors.New("snapshot: already written")
)

// Entry is one exported declaration.
type Entry struct {
	Kind   string `msgpack:"kind"`
	Name   string `msgpack:"name"`
	Source string `msgpack:"source"`
}

// Payload is the on-disk layout.
type Payload struct {
	Schema uint16   `msgpack:"schema"`
	Tool   string   `msgpack:"tool"`
	Decls  []Entry  `msgpack:"decls"`
	Digest [32]byte `msgpack:"digest"`
}

// digest хеширует записи в порядке файла; длины разделяют поля.
func digest(entries []Entry) [32]byte {
	h := sha256.New()
	for _, e := range entries {
		for _, s := range [...]string{e.Kind, e.Name, e.Source} {
			fmt.Fprintf(h, "%d:%s", len(s), s)
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Source serves a loaded snapshot to the analyzer.
type Source struct {
	path   string
	tool   string
	byName map[string]Entry
	order  []Entry
}

var _ sema.ExternalSource = (*Source)(nil)

// Load reads and verifies the snapshot at path.
func Load(path string) (*Source, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode reads a payload from r; path is only kept for reporting.
func Decode(r io.Reader, path string) (*Source, error) {
	var p Payload
	if err := msgpack.NewDecoder(bufio.NewReader(r)).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if p.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: %s has schema %d, want %d", ErrSchema, path, p.Schema, SchemaVersion)
	}
	if digest(p.Decls) != p.Digest {
		return nil, fmt.Errorf("%w: %s: digest mismatch", ErrCorrupt, path)
	}
	src := &Source{
		path:   path,
		tool:   p.Tool,
		byName: make(map[string]Entry, len(p.Decls)),
		order:  p.Decls,
	}
	for _, e := range p.Decls {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: %s: entry without a name", ErrCorrupt, path)
		}
		if _, dup := src.byName[e.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate entry %q", ErrCorrupt, path, e.Name)
		}
		src.byName[e.Name] = e
	}
	return src, nil
}

// Lookup implements sema.ExternalSource.
func (s *Source) Lookup(name string) (sema.ExternalDecl, bool) {
	e, ok := s.byName[name]
	if !ok {
		return sema.ExternalDecl{}, false
	}
	return sema.ExternalDecl{Kind: e.Kind, Name: e.Name, Source: e.Source}, true
}

// Names implements sema.ExternalSource.
func (s *Source) Names() []string {
	out := make([]string, 0, len(s.byName))
	for name := range s.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Source) Path() string { return s.path }
func (s *Source) Tool() string { return s.tool }
func (s *Source) Len() int     { return len(s.order) }

// Entries returns the declarations in file order.
func (s *Source) Entries() []Entry {
	return append([]Entry(nil), s.order...)
}

// Writer writes one snapshot. The payload goes to a temporary file next to
// the target and is renamed into place, so readers never see a partial file.
type Writer struct {
	path    string
	tmp     *os.File
	written bool
	closed  bool
}

// Create opens a sink for path.
func Create(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open sink: %w", err)
	}
	return &Writer{path: path, tmp: tmp}, nil
}

func (w *Writer) Path() string  { return w.path }
func (w *Writer) Written() bool { return w.written }

// Write serializes decls. It succeeds once; later calls return ErrAlreadyWritten.
func (w *Writer) Write(decls []sema.ExternalDecl) error {
	if w.written || w.closed {
		return ErrAlreadyWritten
	}
	w.written = true

	entries := make([]Entry, len(decls))
	for i, d := range decls {
		entries[i] = Entry{Kind: d.Kind, Name: d.Name, Source: d.Source}
	}
	payload := Payload{
		Schema: SchemaVersion,
		Tool:   version.ToolString(),
		Decls:  entries,
		Digest: digest(entries),
	}

	bw := bufio.NewWriter(w.tmp)
	err := msgpack.NewEncoder(bw).Encode(&payload)
	if err == nil {
		err = bw.Flush()
	}
	if err == nil {
		err = w.tmp.Sync()
	}
	if cerr := w.tmp.Close(); err == nil {
		err = cerr
	}
	w.closed = true
	if err == nil {
		// атомарная замена
		err = os.Rename(w.tmp.Name(), w.path)
	}
	if err != nil {
		_ = os.Remove(w.tmp.Name()) //nolint:errcheck
		return fmt.Errorf("snapshot: write %s: %w", w.path, err)
	}
	return nil
}

// Close releases an unwritten sink and removes its temporary file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.tmp.Close()
	if rerr := os.Remove(w.tmp.Name()); err == nil {
		err = rerr
	}
	return err
}
