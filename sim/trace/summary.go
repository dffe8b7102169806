package trace

import (
	"strings"
	"time"
)

// TraceSummary aggregates statistics from a trace.
type TraceSummary struct {
	TotalEntries int
	ErrorEntries int
	Elapsed      time.Duration // timestamp of the last entry
}

// Summarize computes aggregate statistics from entries.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(entries []Entry) *TraceSummary {
	summary := &TraceSummary{TotalEntries: len(entries)}
	for _, e := range entries {
		if strings.HasPrefix(e.Message, "ERROR: ") {
			summary.ErrorEntries++
		}
		if e.Elapsed > summary.Elapsed {
			summary.Elapsed = e.Elapsed
		}
	}
	return summary
}
