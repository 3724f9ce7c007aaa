package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kiln/internal/codegen"
	"kiln/internal/config"
	"kiln/internal/diag"
	"kiln/internal/diagfmt"
	"kiln/internal/driver"
	"kiln/internal/frontend"
)

// settings is kiln.toml merged with the command line; flags win when set.
type settings struct {
	cfg      config.Config
	baseDir  string
	color    bool
	format   string
	pathMode diagfmt.PathMode

	snapshot    string
	dynamic     bool
	timings     bool
	maxDiags    int
	include     []string
	noBootstrap bool
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Flags()
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	var file *config.File
	if path, _ := flags.GetString("config"); path != "" {
		cfg, err := config.Decode(path)
		if err != nil {
			return nil, err
		}
		file = &config.File{Path: path, Config: cfg}
	} else {
		file, _, err = config.Load(wd)
		if err != nil {
			return nil, err
		}
	}

	s := &settings{
		cfg:      file.Config,
		baseDir:  wd,
		snapshot: file.Config.Session.Snapshot,
		dynamic:  file.Config.Session.DynamicLookup,
		timings:  file.Config.Session.Timings,
		maxDiags: file.Config.Session.MaxDiagnostics,
		include:  append([]string(nil), file.Config.Include.Paths...),
	}

	colorMode, _ := flags.GetString("color")
	switch strings.ToLower(colorMode) {
	case "on":
		s.color = true
	case "off":
		s.color = false
	case "auto", "":
		s.color = isTerminal(os.Stderr) && !color.NoColor
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorMode)
	}
	color.NoColor = !s.color

	s.format, _ = flags.GetString("diag-format")
	switch s.format {
	case "pretty", "short", "json":
	default:
		return nil, fmt.Errorf("invalid --diag-format value %q (expected pretty|short|json)", s.format)
	}
	mode, _ := flags.GetString("path-mode")
	s.pathMode = diagfmt.ParsePathMode(mode)

	if flags.Changed("snapshot") {
		s.snapshot, _ = flags.GetString("snapshot")
	}
	if flags.Changed("dynamic-lookup") {
		s.dynamic, _ = flags.GetBool("dynamic-lookup")
	}
	if flags.Changed("timings") {
		s.timings, _ = flags.GetBool("timings")
	}
	if n, _ := flags.GetInt("max-diagnostics"); n > 0 {
		s.maxDiags = n
	}
	if extra, _ := flags.GetStringSlice("include"); len(extra) > 0 {
		s.include = append(s.include, extra...)
	}
	s.noBootstrap, _ = flags.GetBool("no-runtime")
	return s, nil
}

// cliSession is one driver with its concrete frontend and backend.
type cliSession struct {
	fe     *frontend.Frontend
	gen    *codegen.Generator
	drv    *driver.Driver
	set    *settings
	stdout io.Writer
	stderr io.Writer
}

type sessionIO struct {
	stdout io.Writer
	stderr io.Writer
	dump   io.Writer
}

func openSession(ctx context.Context, set *settings, sio sessionIO) (*cliSession, error) {
	fe := frontend.New(frontend.Options{
		IncludePaths:   set.include,
		MaxDiagnostics: set.maxDiags,
		BaseDir:        set.baseDir,
	})
	gen := codegen.New(fe.AST(), codegen.Options{
		Reporter: fe.Diagnostics(),
		Stdout:   sio.stdout,
	})
	drv, err := driver.New(ctx, fe, gen, driver.Options{
		SnapshotPath:  set.snapshot,
		DynamicLookup: set.dynamic,
		EnableTimings: set.timings,
		NoBootstrap:   set.noBootstrap,
		DumpOutput:    sio.dump,
	})
	if err != nil {
		return nil, err
	}
	return &cliSession{fe: fe, gen: gen, drv: drv, set: set, stdout: sio.stdout, stderr: sio.stderr}, nil
}

func (s *cliSession) Close() error {
	return s.drv.Close()
}

// report prints the diagnostics of a compile call and the error that made
// the call invalid, if any.
func (s *cliSession) report(out driver.Outcome) {
	if out.Err != nil {
		fmt.Fprintf(s.stderr, "kiln: %v\n", out.Err)
	}
	writeDiagnostics(s.stderr, out.Diags, s.fe, s.set)
}

func writeDiagnostics(w io.Writer, bag *diag.Bag, fe *frontend.Frontend, set *settings) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	switch set.format {
	case "short":
		if text := diag.FormatShortDiagnostics(bag.Items(), fe.FileSet(), true); text != "" {
			fmt.Fprintln(w, text)
		}
	case "json":
		if err := diagfmt.JSON(w, bag, fe.FileSet(), diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         set.pathMode,
			IncludeNotes:     true,
		}); err != nil {
			fmt.Fprintf(w, "kiln: %v\n", err)
		}
	default:
		diagfmt.Pretty(w, bag, fe.FileSet(), diagfmt.PrettyOpts{
			Color:     set.color,
			Context:   1,
			PathMode:  set.pathMode,
			ShowNotes: true,
		})
	}
}
