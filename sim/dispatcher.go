package sim

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ossim/ossim/internal/tracing"
)

// Dispatcher pops programs from the ready queue one at a time, drives each
// through its lifecycle and hands it to the Engine. Exactly one program is
// running at any moment.
type Dispatcher struct {
	sim       *Simulator
	queue     *ReadyQueue
	engine    *Engine
	completed []int
}

// NewDispatcher builds a dispatcher ordered by the simulator's scheduler.
func NewDispatcher(sim *Simulator) *Dispatcher {
	return &Dispatcher{
		sim:       sim,
		queue:     NewReadyQueue(sim.Scheduler),
		engine:    NewEngine(sim),
		completed: make([]int, 0),
	}
}

// Admit moves every parsed program into the ready queue.
func (d *Dispatcher) Admit(w *Workload) {
	w.Admit(d.queue)
	logrus.Debugf("admitted %d programs under %s: %s", d.queue.Len(), d.sim.Scheduler.Name(), d.queue)
}

// Pending returns the number of programs still waiting to run.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Completed returns process IDs in the order they terminated.
func (d *Dispatcher) Completed() []int {
	out := make([]int, len(d.completed))
	copy(out, d.completed)
	return out
}

// Run dispatches until the ready queue is empty. Cancellation is observed
// between programs.
func (d *Dispatcher) Run(ctx context.Context) error {
	for d.queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.dispatch(ctx, d.queue.Dequeue()); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, p *PCB) (err error) {
	ctx, span := tracing.StartSpan(ctx, d.sim.tracer, "process",
		attribute.Int("process.id", p.ID),
		attribute.Int("process.operations", p.OpCount()),
		attribute.Int("process.io", p.IOCount()),
	)
	defer func() { tracing.EndSpan(span, err) }()

	d.sim.Log.Logf("OS: preparing process %d", p.ID)
	if err = p.SetState(StateReady); err != nil {
		return err
	}
	d.sim.Log.Logf("OS: starting process %d", p.ID)
	if err = p.SetState(StateRunning); err != nil {
		return err
	}

	started := d.sim.clock.Now()
	execErr := d.engine.Execute(ctx, p)
	if err = p.SetState(StateTerminated); err != nil {
		return err
	}
	if execErr != nil {
		return execErr
	}
	d.sim.Log.Logf("OS: removing process %d", p.ID)
	d.completed = append(d.completed, p.ID)
	d.sim.Metrics.recordProgram(p, d.sim.clock.Now().Sub(started))
	return nil
}
