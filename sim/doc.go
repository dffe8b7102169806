// Package sim provides the core of the operating-system scheduling simulator.
//
// # Reading Guide
//
// Start with these files to follow one run end to end:
//   - parser.go: turns a workload token stream into programs (PCBs)
//   - dispatcher.go: pops programs from the ReadyQueue one at a time
//   - engine.go: executes a program's operations with simulated timing
//   - simulator.go: the run context that owns every collaborator
//
// # Architecture
//
// A Simulator is built once from a Config and passed by reference to the
// Dispatcher and Engine. It owns:
//   - the trace Log (sim/trace/): timestamped entries for the monitor and file
//   - the Arbiter: round-robin pools for projectors and hard drives
//   - the Allocator: bump allocation of fixed-size memory blocks
//   - Metrics: completion order, turnaround and device busy time
//
// Programs move New → Ready → Running → Terminated. Exactly one program runs
// at a time; its I/O operations run on their own goroutine but are awaited
// before the next operation starts.
//
// # Key Interfaces
//
//   - Scheduler: orders programs in the ReadyQueue (fcfs, sjf, ps)
//   - clock.Clock: time source behind busy-waits and trace timestamps
//   - afs.Service: storage for workloads and the trace file
//
// # Errors
//
// Every failure during a run goes through one path: the error is logged to
// the trace, the trace is flushed, and Run returns a *FatalError naming the
// stage that failed.
package sim
