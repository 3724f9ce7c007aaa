package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"kiln/internal/sema"
)

var sample = []sema.ExternalDecl{
	{Kind: sema.KindVar, Name: "limit", Source: "int limit = 10;"},
	{Kind: sema.KindFunc, Name: "twice", Source: "int twice(int v) {\n    return v * 2;\n}"},
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "boot.ksnap")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("target must not exist before Write")
	}
	if err := w.Write(sample); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(sample); !errors.Is(err, ErrAlreadyWritten) {
		t.Fatalf("second Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close after Write: %v", err)
	}

	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(src.Names(), []string{"limit", "twice"}) {
		t.Fatalf("names %v", src.Names())
	}
	got, ok := src.Lookup("twice")
	if !ok || got != sample[1] {
		t.Fatalf("Lookup(twice) = %+v %v", got, ok)
	}
	if _, ok := src.Lookup("nope"); ok {
		t.Fatalf("unknown name resolved")
	}
	if src.Tool() == "" || src.Len() != 2 {
		t.Fatalf("metadata lost: tool=%q len=%d", src.Tool(), src.Len())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestCloseUnwrittenRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "boot.ksnap"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Write(sample); !errors.Is(err, ErrAlreadyWritten) {
		t.Fatalf("Write after Close: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("sink left files: %v", entries)
	}
}

func encode(t *testing.T, p Payload) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&p); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &buf
}

func TestDecodeRejects(t *testing.T) {
	entries := []Entry{{Kind: sema.KindVar, Name: "a", Source: "int a;"}}
	good := Payload{Schema: SchemaVersion, Decls: entries, Digest: digest(entries)}

	wrongSchema := good
	wrongSchema.Schema = SchemaVersion + 1

	tampered := good
	tampered.Decls = []Entry{{Kind: sema.KindVar, Name: "a", Source: "int a = 1;"}}

	dup := []Entry{entries[0], entries[0]}
	duplicated := Payload{Schema: SchemaVersion, Decls: dup, Digest: digest(dup)}

	cases := []struct {
		name string
		in   *bytes.Buffer
		want error
	}{
		{"garbage", bytes.NewBufferString("not msgpack at all"), ErrCorrupt},
		{"schema", encode(t, wrongSchema), ErrSchema},
		{"digest", encode(t, tampered), ErrCorrupt},
		{"duplicate", encode(t, duplicated), ErrCorrupt},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Decode(c.in, c.name); !errors.Is(err, c.want) {
				t.Fatalf("Decode: %v, want %v", err, c.want)
			}
		})
	}
	if _, err := Decode(encode(t, good), "good"); err != nil {
		t.Fatalf("good payload rejected: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.ksnap"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
