// Package buildpipeline runs script files through a driver session: files
// load in parallel and compile in order, one fragment per file.
package buildpipeline

import (
	"context"
	"errors"
	"time"

	"kiln/internal/driver"
)

// Compiler is the part of the driver a run needs.
type Compiler interface {
	CompilePreprocessed(ctx context.Context, text string) driver.Outcome
}

// RunRequest configures a run.
type RunRequest struct {
	Files    []string
	BaseDir  string
	Jobs     int
	Progress ProgressSink
	// KeepGoing compiles the remaining files after a failed one.
	KeepGoing bool
}

// FileResult is the outcome of one script.
type FileResult struct {
	Script  Script
	Outcome driver.Outcome
	Elapsed time.Duration
}

// RunResult collects the per-file outcomes and stage timings.
type RunResult struct {
	Files   []FileResult
	Timings Timings
	Failed  int
}

// Run loads req.Files and compiles them in order. A load error aborts the
// run; compile failures are counted in RunResult.Failed.
func Run(ctx context.Context, c Compiler, req *RunRequest) (RunResult, error) {
	var result RunResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, errors.New("missing run request")
	}
	if len(req.Files) == 0 {
		return result, errors.New("no files to run")
	}
	emitQueued(req.Progress, DisplayNames(req.Files, req.BaseDir))

	start := time.Now()
	scripts, err := LoadScripts(ctx, req.Files, req.BaseDir, req.Jobs, req.Progress)
	result.Timings.Set(StageLoad, time.Since(start))
	if err != nil {
		return result, err
	}

	start = time.Now()
	for _, s := range scripts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		fileStart := time.Now()
		emit(req.Progress, s.Display, StageCompile, StatusWorking, nil, 0)
		out := c.CompilePreprocessed(ctx, s.Text)
		fr := FileResult{Script: s, Outcome: out, Elapsed: time.Since(fileStart)}
		result.Files = append(result.Files, fr)
		if out.OK() {
			emit(req.Progress, s.Display, StageCompile, StatusDone, nil, fr.Elapsed)
			continue
		}
		result.Failed++
		emit(req.Progress, s.Display, StageCompile, StatusError, out.Err, fr.Elapsed)
		if !req.KeepGoing {
			break
		}
	}
	result.Timings.Set(StageCompile, time.Since(start))
	return result, nil
}
