package main

import (
	"fmt"
	"io"

	"naggy/internal/driver"
	"naggy/internal/observ"
)

func printTimings(out io.Writer, results []driver.FileResult) {
	var reports []observ.Report
	for i := range results {
		r := &results[i]
		if r.Timing == nil {
			continue
		}
		reports = append(reports, *r.Timing)
		fmt.Fprintf(out, "%s %s", r.Path, r.Timing.Summary())
	}
	if len(reports) > 1 {
		fmt.Fprintf(out, "all files %s", observ.Aggregate(reports...).Summary())
	}
}
