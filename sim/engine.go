package sim

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ossim/ossim/internal/clock"
	"github.com/ossim/ossim/internal/tracing"
)

// IOTask is an input or output operation running on its own goroutine.
// The goroutine acquires the device slot, executes, and releases it.
type IOTask struct {
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// Cancel abandons the task if it has not started executing. A task waiting
// for its device still waits; once the slot is granted it is released
// untouched and Wait reports the cancellation. Execution in progress always
// completes.
func (t *IOTask) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes and returns its error.
func (t *IOTask) Wait() error {
	<-t.done
	return t.err
}

// Done is closed when the task finishes.
func (t *IOTask) Done() <-chan struct{} {
	return t.done
}

// Engine runs a single program's operation queue against the simulated
// hardware of its Simulator.
type Engine struct {
	sim *Simulator
}

// NewEngine binds an engine to sim.
func NewEngine(sim *Simulator) *Engine {
	return &Engine{sim: sim}
}

// Execute drains p's operation queue in order. I/O operations are awaited
// before the next operation starts, so a program never overlaps with itself.
func (e *Engine) Execute(ctx context.Context, p *PCB) error {
	for {
		op, ok := p.Next()
		if !ok {
			return nil
		}
		var err error
		if op.Kind.IsIO() {
			err = e.StartIO(ctx, p.ID, op).Wait()
		} else {
			err = e.execute(ctx, p.ID, op, NoSlot)
		}
		if err != nil {
			return fmt.Errorf("process %d: %s: %w", p.ID, op, err)
		}
	}
}

// StartIO launches op on a new goroutine and returns immediately.
// Device acquisition blocks until a slot is free and is not cancellable.
func (e *Engine) StartIO(ctx context.Context, pid int, op Operation) *IOTask {
	ctx, cancel := context.WithCancel(ctx)
	task := &IOTask{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(task.done)
		defer cancel()
		slot, err := e.sim.Arbiter.Acquire(op.Resource)
		if err != nil {
			task.err = err
			return
		}
		if err = ctx.Err(); err == nil {
			err = e.execute(ctx, pid, op, slot)
		}
		if relErr := e.sim.Arbiter.Release(op.Resource, slot); relErr != nil && err == nil {
			err = relErr
		}
		task.err = err
	}()
	return task
}

// execute logs the start entry, busy-waits for the operation's simulated
// duration and logs the end entry.
func (e *Engine) execute(ctx context.Context, pid int, op Operation, slot int) (err error) {
	wait, err := e.sim.Config.WaitTime(op)
	if err != nil {
		return err
	}
	_, span := tracing.StartSpan(ctx, e.sim.tracer, "operation",
		attribute.Int("process.id", pid),
		attribute.String("operation", op.String()),
		attribute.Int("slot", slot),
	)
	defer func() { tracing.EndSpan(span, err) }()

	e.sim.Log.Log(startMessage(pid, op, slot))
	elapsed := clock.Spin(e.sim.clock, wait)

	end := endMessage(pid, op)
	if op.Resource == ResourceAllocate {
		addr, allocErr := e.sim.Allocator.Allocate()
		if allocErr != nil {
			return allocErr
		}
		end = fmt.Sprintf("Process %d: memory allocated at %s", pid, FormatAddress(addr))
	}
	e.sim.Log.Log(end)
	e.sim.Metrics.recordOperation(op, elapsed)
	return nil
}

func startMessage(pid int, op Operation, slot int) string {
	switch op.Resource {
	case ResourceRun:
		return fmt.Sprintf("Process %d: start processing action", pid)
	case ResourceAllocate:
		return fmt.Sprintf("Process %d: allocating memory", pid)
	case ResourceBlock:
		return fmt.Sprintf("Process %d: start memory blocking", pid)
	case ResourceProjector:
		return fmt.Sprintf("Process %d: start projector %s on PROJ %d", pid, op.Kind, slot)
	case ResourceHardDrive:
		return fmt.Sprintf("Process %d: start hard drive %s on HDD %d", pid, op.Kind, slot)
	default:
		return fmt.Sprintf("Process %d: start %s %s", pid, op.Resource, op.Kind)
	}
}

func endMessage(pid int, op Operation) string {
	switch op.Resource {
	case ResourceRun:
		return fmt.Sprintf("Process %d: end processing action", pid)
	case ResourceBlock:
		return fmt.Sprintf("Process %d: end memory blocking", pid)
	default:
		return fmt.Sprintf("Process %d: end %s %s", pid, op.Resource, op.Kind)
	}
}
