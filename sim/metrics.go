// Tracks run-wide and per-program statistics such as completion order,
// turnaround and per-device busy time.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ossim/ossim/sim/trace"
)

// ProgramMetrics describes one completed program.
type ProgramMetrics struct {
	ID           int     `json:"id"`
	Operations   int     `json:"operations"`
	IOOperations int     `json:"io_operations"`
	TurnaroundMs float64 `json:"turnaround_ms"` // dispatch to termination
}

// Metrics aggregates statistics about one run for final reporting.
// Operation records may arrive from I/O goroutines.
type Metrics struct {
	mu sync.Mutex

	RunID              string             `json:"run_id"`
	Scheduling         string             `json:"scheduling"`
	ProgramsCompleted  int                `json:"programs_completed"`
	OperationsExecuted int                `json:"operations_executed"`
	Allocations        int                `json:"allocations"`
	CompletionOrder    []int              `json:"completion_order"`
	Programs           []ProgramMetrics   `json:"programs"`
	BusyMs             map[string]float64 `json:"busy_ms"` // per resource
	TraceEntries       int                `json:"trace_entries"`
	ElapsedSec         float64            `json:"elapsed_sec"`
}

// NewMetrics returns empty metrics for a run.
func NewMetrics(runID, scheduling string) *Metrics {
	return &Metrics{
		RunID:           runID,
		Scheduling:      scheduling,
		CompletionOrder: make([]int, 0),
		Programs:        make([]ProgramMetrics, 0),
		BusyMs:          make(map[string]float64),
	}
}

func (m *Metrics) recordOperation(op Operation, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OperationsExecuted++
	m.BusyMs[op.Resource.String()] += toMillis(elapsed)
}

func (m *Metrics) recordProgram(p *PCB, turnaround time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProgramsCompleted++
	m.Programs = append(m.Programs, ProgramMetrics{
		ID:           p.ID,
		Operations:   p.OpCount(),
		IOOperations: p.IOCount(),
		TurnaroundMs: toMillis(turnaround),
	})
}

func (m *Metrics) finish(order []int, allocations int, entries []trace.Entry) {
	summary := trace.Summarize(entries)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompletionOrder = order
	m.Allocations = allocations
	m.TraceEntries = summary.TotalEntries
	m.ElapsedSec = summary.Elapsed.Seconds()
}

func (m *Metrics) turnarounds() []float64 {
	out := make([]float64, len(m.Programs))
	for i, p := range m.Programs {
		out[i] = p.TurnaroundMs
	}
	return out
}

// MeanTurnaroundMs is the mean turnaround over completed programs.
func (m *Metrics) MeanTurnaroundMs() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CalculateMean(m.turnarounds())
}

// TurnaroundPercentileMs returns the p-th percentile turnaround.
func (m *Metrics) TurnaroundPercentileMs(p float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CalculatePercentile(m.turnarounds(), p)
}

// Print writes a human summary followed by the JSON form.
func (m *Metrics) Print(w io.Writer) error {
	mean := m.MeanTurnaroundMs()
	p90 := m.TurnaroundPercentileMs(90)
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Scheduling           : %s\n", m.Scheduling)
	fmt.Fprintf(w, "Programs Completed   : %d\n", m.ProgramsCompleted)
	fmt.Fprintf(w, "Operations Executed  : %d\n", m.OperationsExecuted)
	if m.ProgramsCompleted > 0 {
		fmt.Fprintf(w, "Completion Order     : %v\n", m.CompletionOrder)
		fmt.Fprintf(w, "Mean Turnaround      : %.3f ms\n", mean)
		fmt.Fprintf(w, "P90 Turnaround       : %.3f ms\n", p90)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
