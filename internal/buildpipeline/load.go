package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Script is one loaded source file.
type Script struct {
	Path string
	// Display is Path relative to the base directory, for progress output.
	Display string
	Text    string
}

// LoadScripts reads paths concurrently with at most jobs workers (0 means
// GOMAXPROCS). The result keeps the order of paths. The first error cancels
// the remaining reads.
func LoadScripts(ctx context.Context, paths []string, baseDir string, jobs int, sink ProgressSink) ([]Script, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	display := DisplayNames(paths, baseDir)
	scripts := make([]Script, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			// Проверка отмены
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			emit(sink, display[i], StageLoad, StatusWorking, nil, 0)
			data, err := os.ReadFile(path)
			if err != nil {
				emit(sink, display[i], StageLoad, StatusError, err, time.Since(start))
				return fmt.Errorf("load %s: %w", display[i], err)
			}
			scripts[i] = Script{Path: path, Display: display[i], Text: string(data)}
			// загружен, ждёт компиляции
			emit(sink, display[i], StageCompile, StatusQueued, nil, time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scripts, nil
}

// DisplayNames shortens paths under baseDir to slash-separated relative
// names. Paths outside baseDir stay as given.
func DisplayNames(paths []string, baseDir string) []string {
	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
	}
	out := make([]string, len(paths))
	for i, file := range paths {
		path := filepath.Clean(file)
		if base != "" {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
				path = rel
			} else {
				path = filepath.Clean(file)
			}
		}
		out[i] = filepath.ToSlash(path)
	}
	return out
}
