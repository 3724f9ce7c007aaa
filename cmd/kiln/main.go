package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kiln/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "kiln",
	Short: "Incremental compiler and interactive shell",
	Long: `kiln compiles source fragments one at a time against a growing session.
Without a subcommand it starts the interactive shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		stopProfiling, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			stopProfiling()
			return err
		}
		traceCleanup = func() {
			cleanup()
			stopProfiling()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		runTraceCleanup()
	},
	RunE: runREPL,
}

// main registers subcommands and global flags, then executes the root command.
// Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(declsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 0, "maximum number of diagnostics per compile call (0 uses kiln.toml or the default)")
	flags.String("diag-format", "pretty", "diagnostics format (pretty|short|json)")
	flags.String("path-mode", "auto", "how to print file paths (auto|absolute|relative|basename)")
	flags.String("config", "", "path to kiln.toml (default: search upwards from the working directory)")
	flags.String("snapshot", "", "startup snapshot to load, or to build when it does not exist")
	flags.Bool("dynamic-lookup", false, "resolve unknown names at run time")
	flags.StringSliceP("include", "I", nil, "additional include directories")
	flags.Bool("no-runtime", false, "do not include the runtime at startup")

	flags.String("trace", "", "write trace events to a file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace mode (stream|ring|both)")
	flags.String("trace-format", "auto", "trace output format (auto|text|ndjson|chrome)")
	flags.Int("trace-ring-size", 4096, "ring buffer capacity for ring mode")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")

	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")

	err := rootCmd.Execute()
	runTraceCleanup()
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
