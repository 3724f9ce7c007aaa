package main

import (
	"fmt"
	"io"
	"time"

	"kiln/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	if timings.Has(buildpipeline.StageLoad) {
		fmt.Fprintf(out, "loaded %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageLoad)))
	}
	if timings.Has(buildpipeline.StageCompile) {
		fmt.Fprintf(out, "compiled %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageCompile)))
	}
	fmt.Fprintf(out, "total %.1f ms\n", toMillis(timings.Total()))
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
