package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find: ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(root, FileName) {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	f, ok, err := Load(t.TempDir())
	if err != nil || ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if f.Config.REPL.Prompt != DefaultPrompt || f.Config.Session.MaxDiagnostics != DefaultMaxDiagnostics {
		t.Fatalf("unexpected defaults %+v", f.Config)
	}
}

func TestDecode(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, FileName)
	writeFile(t, path, `
[session]
snapshot = ".kiln/boot.kss"
dynamic_lookup = true

[repl]
history = "/tmp/kiln_history"

[include]
paths = ["lib", "/opt/kiln"]
`)
	cfg, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := filepath.Join(root, ".kiln", "boot.kss"); cfg.Session.Snapshot != want {
		t.Fatalf("snapshot %q, want %q", cfg.Session.Snapshot, want)
	}
	if !cfg.Session.DynamicLookup || cfg.Session.MaxDiagnostics != DefaultMaxDiagnostics {
		t.Fatalf("unexpected session %+v", cfg.Session)
	}
	if cfg.REPL.Prompt != DefaultPrompt || cfg.REPL.History != "/tmp/kiln_history" {
		t.Fatalf("unexpected repl %+v", cfg.REPL)
	}
	if len(cfg.Include.Paths) != 2 || cfg.Include.Paths[0] != filepath.Join(root, "lib") || cfg.Include.Paths[1] != "/opt/kiln" {
		t.Fatalf("unexpected include paths %v", cfg.Include.Paths)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[session]\nsnapshots = \"x\"\n", "unknown keys"},
		{"bad limit", "[session]\nmax_diagnostics = 0\n", "max_diagnostics"},
		{"empty prompt", "[repl]\nprompt = \"\"\n", "prompt"},
		{"syntax", "[session\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.content)
			_, err := Decode(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
