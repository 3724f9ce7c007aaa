// Package config loads kiln.toml, the optional per-project settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is looked up from the working directory towards the root.
const FileName = "kiln.toml"

const (
	DefaultPrompt         = "kiln> "
	DefaultMaxDiagnostics = 100
)

// Config mirrors kiln.toml.
type Config struct {
	Session SessionConfig `toml:"session"`
	REPL    REPLConfig    `toml:"repl"`
	Include IncludeConfig `toml:"include"`
}

type SessionConfig struct {
	// Snapshot is the startup snapshot path, relative to the file.
	Snapshot       string `toml:"snapshot"`
	DynamicLookup  bool   `toml:"dynamic_lookup"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	Timings        bool   `toml:"timings"`
}

type REPLConfig struct {
	Prompt  string `toml:"prompt"`
	History string `toml:"history"`
}

type IncludeConfig struct {
	Paths []string `toml:"paths"`
}

// File is a decoded kiln.toml together with its location.
type File struct {
	Path   string
	Root   string
	Config Config
}

// Default returns the settings used without a kiln.toml.
func Default() Config {
	return Config{
		Session: SessionConfig{MaxDiagnostics: DefaultMaxDiagnostics},
		REPL:    REPLConfig{Prompt: DefaultPrompt},
	}
}

// Find walks up from startDir and returns the first kiln.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and decodes kiln.toml. Without one it returns the defaults
// and ok == false.
func Load(startDir string) (*File, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &File{Config: Default()}, false, nil
	}
	cfg, err := Decode(path)
	if err != nil {
		return nil, true, err
	}
	return &File{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// Decode reads one file. Unknown keys are errors; missing keys keep their
// defaults; relative paths are resolved against the file's directory.
func Decode(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("session", "max_diagnostics") && cfg.Session.MaxDiagnostics <= 0 {
		return Config{}, fmt.Errorf("%s: [session].max_diagnostics must be positive", path)
	}
	if meta.IsDefined("repl", "prompt") && cfg.REPL.Prompt == "" {
		return Config{}, fmt.Errorf("%s: [repl].prompt must not be empty", path)
	}

	root := filepath.Dir(path)
	cfg.Session.Snapshot = resolve(root, cfg.Session.Snapshot)
	cfg.REPL.History = resolve(root, cfg.REPL.History)
	for i, p := range cfg.Include.Paths {
		cfg.Include.Paths[i] = resolve(root, p)
	}
	return cfg, nil
}

func resolve(root, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}
