// sim/simulator.go
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ossim/ossim/internal/clock"
	"github.com/ossim/ossim/internal/tracing"
	"github.com/ossim/ossim/sim/trace"
)

// ErrAlreadyRan is returned when Run is called on a simulator a second time.
var ErrAlreadyRan = errors.New("simulator already ran")

// Option customizes a Simulator.
type Option func(*Simulator)

// WithClock replaces the wall clock behind busy-waits and trace timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// WithStorage replaces the storage service used to load workloads and
// persist the trace file.
func WithStorage(fs afs.Service) Option {
	return func(s *Simulator) { s.fs = fs }
}

// WithMonitor redirects monitor output, os.Stdout by default.
func WithMonitor(w io.Writer) Option {
	return func(s *Simulator) { s.monitor = w }
}

// WithTracer sets the OpenTelemetry tracer for process and operation spans.
func WithTracer(t oteltrace.Tracer) Option {
	return func(s *Simulator) { s.tracer = t }
}

// Simulator is the single context of one run. It owns the configuration,
// the trace log, the device arbiter and the memory allocator, and is passed
// by reference to the Dispatcher and Engine.
type Simulator struct {
	RunID     string
	Config    *Config
	Scheduler Scheduler
	Log       *trace.Log
	Arbiter   *Arbiter
	Allocator *Allocator
	Metrics   *Metrics

	clock   clock.Clock
	fs      afs.Service
	monitor io.Writer
	tracer  oteltrace.Tracer
	ran     bool
}

// NewSimulator validates cfg and wires the run context.
func NewSimulator(cfg *Config, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		RunID:   uuid.NewString(),
		Config:  cfg,
		clock:   clock.Real{},
		monitor: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.tracer == nil {
		s.tracer = tracing.Tracer()
	}

	arbiter, err := NewArbiter(cfg.Devices.Projectors, cfg.Devices.HardDrives)
	if err != nil {
		return nil, err
	}
	allocator, err := NewAllocator(uint64(cfg.Memory.BlockSize), cfg.MemoryCapacity())
	if err != nil {
		return nil, err
	}
	s.Arbiter = arbiter
	s.Allocator = allocator
	s.Scheduler = NewScheduler(cfg.Scheduling)
	s.Log = trace.NewLog(trace.Config{
		Target:   trace.LogTarget(cfg.Log.Target),
		FilePath: cfg.Log.FilePath,
	}, s.clock, s.fs, s.monitor)
	s.Metrics = NewMetrics(s.RunID, s.Scheduler.Name())
	return s, nil
}

// RunFile loads the workload at location and runs it.
func (s *Simulator) RunFile(ctx context.Context, location string) (*Metrics, error) {
	data, err := LoadWorkload(ctx, s.fs, location)
	if err != nil {
		s.ran = true
		s.Log.Start()
		return nil, s.abort(ctx, nil, "load", err)
	}
	return s.Run(ctx, data)
}

// Run parses input, dispatches every program to completion and flushes the
// trace. Any failure is logged, the trace is flushed, and a *FatalError is
// returned. A Simulator runs once.
func (s *Simulator) Run(ctx context.Context, input []byte) (*Metrics, error) {
	if s.ran {
		return nil, ErrAlreadyRan
	}
	s.ran = true

	ctx, span := tracing.StartSpan(ctx, s.tracer, "simulation",
		attribute.String("run.id", s.RunID),
		attribute.String("scheduling", s.Scheduler.Name()),
	)
	s.Log.Start()
	s.Log.Log("Simulator program starting")

	workload, err := ParseWorkload(input)
	if err != nil {
		return nil, s.abort(ctx, span, "parse", err)
	}
	logrus.Debugf("run %s: parsed %d programs, %d operations", s.RunID, workload.Len(), workload.OperationCount())

	dispatcher := NewDispatcher(s)
	dispatcher.Admit(workload)
	if err := dispatcher.Run(ctx); err != nil {
		return nil, s.abort(ctx, span, "dispatch", err)
	}

	s.Log.Log("Simulator program ending")
	s.Metrics.finish(dispatcher.Completed(), s.Allocator.Allocations(), s.Log.Entries())
	if err := s.Log.Flush(ctx); err != nil {
		tracing.EndSpan(span, err)
		return s.Metrics, &FatalError{Stage: "flush", Err: err}
	}
	tracing.EndSpan(span, nil)
	return s.Metrics, nil
}

// abort is the single failure path: log the error, flush, report.
func (s *Simulator) abort(ctx context.Context, span oteltrace.Span, stage string, err error) error {
	s.Log.Error(err)
	if flushErr := s.Log.Flush(ctx); flushErr != nil {
		logrus.Errorf("run %s: flushing trace after %s failure: %v", s.RunID, stage, flushErr)
	}
	if span != nil {
		tracing.EndSpan(span, err)
	}
	return &FatalError{Stage: stage, Err: fmt.Errorf("run %s: %w", s.RunID, err)}
}
