package sim

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/ossim/ossim/internal/clock"
)

// testConfig returns a valid config with cheap cycle costs.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.TimeUnit = time.Microsecond
	return &cfg
}

// newTestSimulator builds a simulator on a stepping clock, an in-memory
// storage service and a discarded monitor.
func newTestSimulator(t *testing.T, cfg *Config, opts ...Option) *Simulator {
	t.Helper()
	base := []Option{
		WithClock(clock.NewStepping(time.Unix(0, 0), 100*time.Microsecond)),
		WithStorage(afs.New()),
		WithMonitor(io.Discard),
	}
	s, err := NewSimulator(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

// mustOp builds an operation or fails the test.
func mustOp(t *testing.T, kind Kind, name string, cycles int) Operation {
	t.Helper()
	op, err := NewOperation(kind, name, cycles)
	require.NoError(t, err)
	return op
}

// pcbWith builds a program with the given work operations.
func pcbWith(id int, ops ...Operation) *PCB {
	p := NewPCB(id)
	for _, op := range ops {
		p.AddOperation(op)
	}
	return p
}
