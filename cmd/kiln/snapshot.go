package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"kiln/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Build and inspect startup snapshots",
}

var snapshotBuildCmd = &cobra.Command{
	Use:   "build <path> [file]...",
	Short: "Compile the runtime and the given files, then save the session",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSnapshotBuild,
}

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "List the declarations stored in a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotInspect,
}

func init() {
	snapshotBuildCmd.Flags().Bool("force", false, "overwrite an existing snapshot")
	snapshotInspectCmd.Flags().Bool("source", false, "print the source of every declaration")
	snapshotCmd.AddCommand(snapshotBuildCmd)
	snapshotCmd.AddCommand(snapshotInspectCmd)
}

func runSnapshotBuild(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	path := args[0]
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	switch _, statErr := os.Stat(path); {
	case statErr == nil && !force:
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	case statErr == nil:
		if err := os.Remove(path); err != nil {
			return err
		}
	case !errors.Is(statErr, fs.ErrNotExist):
		return statErr
	}

	set, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	set.snapshot = path
	ctx := cmd.Context()
	sess, err := openSession(ctx, set, sessionIO{stdout: cmd.OutOrStdout(), stderr: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, file := range args[1:] {
		text, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		out := sess.drv.CompilePreprocessed(ctx, string(text))
		sess.report(out)
		if !out.OK() {
			return fmt.Errorf("%s: %s", file, out.Status)
		}
	}
	if err := sess.drv.WriteStartupSnapshot(ctx); err != nil {
		return err
	}
	src, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d declarations)\n", path, src.Len())
	return nil
}

func runSnapshotInspect(cmd *cobra.Command, args []string) error {
	showSource, err := cmd.Flags().GetBool("source")
	if err != nil {
		return err
	}
	src, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d declarations, written by %s\n", src.Path(), src.Len(), src.Tool())
	for _, e := range src.Entries() {
		fmt.Fprintf(out, "  %-6s %s\n", e.Kind, e.Name)
		if showSource {
			fmt.Fprintf(out, "         %s\n", e.Source)
		}
	}
	return nil
}
