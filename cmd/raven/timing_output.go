package main

import (
	"fmt"
	"io"
	"time"

	"raven/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings, enabled bool) {
	if out == nil || !enabled {
		return
	}
	for _, stage := range buildpipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "%-9s %8.1f ms\n", stage, toMillis(timings.Duration(stage)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
