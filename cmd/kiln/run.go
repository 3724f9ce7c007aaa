package main

import (
	"bytes"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"kiln/internal/buildpipeline"
	"kiln/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run <file>...",
	Short: "Compile and run script files in one session",
	Long: `run loads the files in parallel and compiles them in the given order
into a single session, so later files see the declarations of earlier ones.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	runCmd.Flags().Int("jobs", 0, "max parallel file loads (0=auto)")
	runCmd.Flags().Bool("keep-going", false, "continue with the next file after a failure")
}

func runRun(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	set, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	keepGoing, err := cmd.Flags().GetBool("keep-going")
	if err != nil {
		return err
	}

	useTUI := shouldUseTUI(mode, len(args))
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	// под TUI вывод программы копится и печатается после
	var progOut bytes.Buffer
	sio := sessionIO{stdout: stdout, stderr: stderr, dump: io.Discard}
	if useTUI {
		sio.stdout = &progOut
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, set, sio)
	if err != nil {
		return err
	}
	defer sess.Close()

	req := &buildpipeline.RunRequest{
		Files:     args,
		BaseDir:   set.baseDir,
		Jobs:      jobs,
		KeepGoing: keepGoing,
	}
	var result buildpipeline.RunResult
	if useTUI {
		names := buildpipeline.DisplayNames(args, set.baseDir)
		err = ui.RunWithProgress("kiln run", names, stdout, func(sink buildpipeline.ProgressSink) error {
			req.Progress = sink
			var runErr error
			result, runErr = buildpipeline.Run(ctx, sess.drv, req)
			return runErr
		})
	} else {
		result, err = buildpipeline.Run(ctx, sess.drv, req)
	}
	if useTUI {
		if _, werr := io.Copy(stdout, &progOut); werr != nil && err == nil {
			err = werr
		}
	}
	for _, fr := range result.Files {
		if fr.Outcome.Err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", fr.Script.Display, fr.Outcome.Err)
		}
		writeDiagnostics(stderr, fr.Outcome.Diags, sess.fe, set)
	}
	if err != nil {
		return err
	}

	if set.timings {
		printStageTimings(stderr, result.Timings)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", result.Failed, len(args))
	}
	return nil
}
