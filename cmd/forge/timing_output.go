package main

import (
	"fmt"
	"io"
	"time"

	"forge/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	stages := []buildpipeline.Stage{
		buildpipeline.StageCompile,
		buildpipeline.StageArchive,
		buildpipeline.StageLink,
		buildpipeline.StageTestLink,
	}
	printed := false
	for _, stage := range stages {
		if timings.Has(stage) {
			fmt.Fprintf(out, "%-10s %7.1f ms\n", stage, toMillis(timings.Duration(stage)))
			printed = true
		}
	}
	if printed {
		fmt.Fprintf(out, "%-10s %7.1f ms\n", "total", toMillis(timings.Total()))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
