// Defines the PCB (program control block) that carries one synthetic program
// through parsing, dispatch and execution.

package sim

import (
	"fmt"
)

// State represents the lifecycle state of a program.
type State string

const (
	StateNew        State = "new"
	StateReady      State = "ready"
	StateRunning    State = "running"
	StateWaiting    State = "waiting" // reserved; no current policy blocks a program
	StateTerminated State = "terminated"
)

// stateRank orders states; transitions may only move to a higher rank.
var stateRank = map[State]int{
	StateNew:        0,
	StateReady:      1,
	StateRunning:    2,
	StateWaiting:    3,
	StateTerminated: 4,
}

// PCB is the program control block of one synthetic program.
// It is owned by exactly one component at a time: the parser while it is
// built, the ReadyQueue while queued, the Engine while running.
type PCB struct {
	ID int

	state      State
	operations []Operation // FIFO; head at index 0
	ioCount    int         // input + output operations appended
	opCount    int         // all work operations appended
}

// NewPCB returns an empty program in StateNew.
func NewPCB(id int) *PCB {
	return &PCB{ID: id, state: StateNew}
}

// State returns the current lifecycle state.
func (p *PCB) State() State {
	return p.state
}

// SetState moves the program forward in its lifecycle.
func (p *PCB) SetState(next State) error {
	cur, ok := stateRank[p.state]
	nxt, known := stateRank[next]
	if !ok || !known || nxt <= cur {
		return fmt.Errorf("%w: process %d %s -> %s", ErrInvalidTransition, p.ID, p.state, next)
	}
	p.state = next
	return nil
}

// AddOperation appends op to the operation queue and updates the counters
// used as scheduling keys. Marker operations are not queued.
func (p *PCB) AddOperation(op Operation) {
	if !op.Kind.IsWork() {
		return
	}
	p.operations = append(p.operations, op)
	p.opCount++
	if op.Kind.IsIO() {
		p.ioCount++
	}
}

// IOCount returns the number of input and output operations appended.
func (p *PCB) IOCount() int {
	return p.ioCount
}

// OpCount returns the number of work operations appended.
func (p *PCB) OpCount() int {
	return p.opCount
}

// Pending returns the number of operations not yet executed.
func (p *PCB) Pending() int {
	return len(p.operations)
}

// Next removes and returns the head of the operation queue.
func (p *PCB) Next() (Operation, bool) {
	if len(p.operations) == 0 {
		return Operation{}, false
	}
	op := p.operations[0]
	p.operations = p.operations[1:]
	return op, true
}

// Operations returns a copy of the pending operations in execution order.
func (p *PCB) Operations() []Operation {
	out := make([]Operation, len(p.operations))
	copy(out, p.operations)
	return out
}

func (p *PCB) String() string {
	return fmt.Sprintf("PCB: (ID: %d, State: %s, Ops: %d, IO: %d, Pending: %d)", p.ID, p.state, p.opCount, p.ioCount, len(p.operations))
}
