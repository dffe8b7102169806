package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	sim "github.com/ossim/ossim/sim"
)

// writeDefaultConfig prints the built-in configuration in the same YAML
// schema LoadConfig accepts, so the output is a valid starting config.
func writeDefaultConfig(w io.Writer) error {
	cfg := sim.DefaultConfig()
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&cfg); err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	return encoder.Close()
}

// validateWorkload loads and parses the workload and reports its programs.
func validateWorkload(ctx context.Context, cfg *sim.Config, location string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := sim.LoadWorkload(ctx, afs.New(), location)
	if err != nil {
		return err
	}
	workload, err := sim.ParseWorkload(data)
	if err != nil {
		return fmt.Errorf("%s: %w", location, err)
	}
	q := sim.NewReadyQueue(sim.NewScheduler(cfg.Scheduling))
	programs := append([]*sim.PCB(nil), workload.Programs...)
	workload.Admit(q)

	fmt.Fprintf(w, "%s: %d programs, %d operations\n", location, len(programs), countOperations(programs))
	for _, p := range programs {
		fmt.Fprintf(w, "  process %d: %d operations, %d I/O\n", p.ID, p.OpCount(), p.IOCount())
	}
	order := make([]int, 0, q.Len())
	for q.Len() > 0 {
		order = append(order, q.Dequeue().ID)
	}
	fmt.Fprintf(w, "%s dispatch order: %v\n", cfg.Scheduling, order)
	return nil
}

func countOperations(programs []*sim.PCB) int {
	n := 0
	for _, p := range programs {
		n += p.OpCount()
	}
	return n
}
