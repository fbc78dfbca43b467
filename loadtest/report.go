package loadtest

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
)

var reportHeaderColor = color.New(color.Bold)

// PrintReport writes a human-readable summary of a load run.
func PrintReport(dest io.Writer, report Report) {
	reportHeaderColor.Fprintf(dest, "Load run %s: %d users, %.1fs, %.1f req/s\n",
		report.RunID, report.Users, report.Elapsed.Seconds(), report.RequestsPerSecond())

	ops := make([]string, 0, len(report.Stats))
	for op := range report.Stats {
		if op != TotalKey {
			ops = append(ops, op)
		}
	}
	sort.Strings(ops)
	ops = append(ops, TotalKey)

	fmt.Fprintf(dest, "%-8s %8s %8s %8s %8s %10s %10s %10s %10s\n",
		"op", "count", "ok", "error", "net-err", "mean", "p50", "p95", "p99")
	for _, op := range ops {
		s := report.Stats[op]
		fmt.Fprintf(dest, "%-8s %8d %8d %8d %8d %10s %10s %10s %10s\n",
			op, s.Count, s.OK, s.Errors, s.TransportErrors,
			roundDuration(s.Mean), roundDuration(s.P50), roundDuration(s.P95), roundDuration(s.P99))
	}
}

func roundDuration(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond)
	default:
		return d
	}
}
