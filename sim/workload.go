package sim

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Workload holds the programs produced by one parse pass, in creation order.
type Workload struct {
	Programs []*PCB
}

// NewWorkload returns an empty workload.
func NewWorkload() *Workload {
	return &Workload{Programs: make([]*PCB, 0)}
}

// Add appends a program.
func (w *Workload) Add(p *PCB) {
	w.Programs = append(w.Programs, p)
}

// Len returns the number of programs.
func (w *Workload) Len() int {
	return len(w.Programs)
}

// OperationCount returns the number of work operations across all programs.
func (w *Workload) OperationCount() int {
	total := 0
	for _, p := range w.Programs {
		total += p.OpCount()
	}
	return total
}

// Admit hands every program to q in creation order. Ownership moves to the
// queue; the workload is emptied.
func (w *Workload) Admit(q *ReadyQueue) {
	for _, p := range w.Programs {
		q.Enqueue(p)
	}
	w.Programs = w.Programs[:0]
}

// LoadWorkload downloads a workload token stream. location is a local path
// or any URL fs supports.
func LoadWorkload(ctx context.Context, fs afs.Service, location string) ([]byte, error) {
	data, err := fs.DownloadWithURL(ctx, url.Normalize(location, file.Scheme))
	if err != nil {
		return nil, fmt.Errorf("reading workload %s: %w", location, err)
	}
	return data, nil
}
