package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_CompletionOrderPerPolicy(t *testing.T) {
	tests := []struct {
		policy string
		want   []int
	}{
		{PolicyFCFS, []int{1, 2, 3, 4}},
		{PolicySJF, []int{2, 4, 1, 3}},
		{PolicyPriority, []int{3, 1, 4, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.policy, func(t *testing.T) {
			// GIVEN the queue fixture under a policy
			cfg := testConfig()
			cfg.Scheduling = tc.policy
			s := newTestSimulator(t, cfg)
			d := NewDispatcher(s)
			w := NewWorkload()
			programs := queueFixture(t)
			for _, p := range programs {
				w.Add(p)
			}
			d.Admit(w)

			// WHEN dispatched to completion
			require.NoError(t, d.Run(context.Background()))

			// THEN programs terminate in policy order
			assert.Equal(t, tc.want, d.Completed())
			assert.Equal(t, 0, d.Pending())
			for _, p := range programs {
				assert.Equal(t, StateTerminated, p.State())
				assert.Equal(t, 0, p.Pending())
			}
		})
	}
}

func TestDispatcher_LifecycleMessages(t *testing.T) {
	s := newTestSimulator(t, testConfig())
	d := NewDispatcher(s)
	w := NewWorkload()
	w.Add(pcbWith(1, mustOp(t, KindCpu, "run", 1)))
	d.Admit(w)

	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, []string{
		"OS: preparing process 1",
		"OS: starting process 1",
		"Process 1: start processing action",
		"Process 1: end processing action",
		"OS: removing process 1",
	}, messages(s))
	require.Len(t, s.Metrics.Programs, 1)
	assert.Equal(t, 1, s.Metrics.Programs[0].ID)
}

func TestDispatcher_EngineFailure_StopsAndTerminates(t *testing.T) {
	// GIVEN the first program exhausts memory
	cfg := testConfig()
	cfg.Memory.SystemKB = 0
	s := newTestSimulator(t, cfg)
	d := NewDispatcher(s)
	w := NewWorkload()
	failing := pcbWith(1, mustOp(t, KindMemory, "allocate", 1))
	waiting := pcbWith(2, mustOp(t, KindCpu, "run", 1))
	w.Add(failing)
	w.Add(waiting)
	d.Admit(w)

	// WHEN dispatched
	err := d.Run(context.Background())

	// THEN dispatch stops at the failing program
	assert.ErrorIs(t, err, ErrMemoryExhausted)
	assert.Equal(t, StateTerminated, failing.State())
	assert.Equal(t, StateNew, waiting.State())
	assert.Empty(t, d.Completed())
	assert.Equal(t, 1, d.Pending())
}

func TestDispatcher_CancelledContext_StopsBeforeNextProgram(t *testing.T) {
	s := newTestSimulator(t, testConfig())
	d := NewDispatcher(s)
	w := NewWorkload()
	w.Add(pcbWith(1, mustOp(t, KindCpu, "run", 1)))
	d.Admit(w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Run(ctx), context.Canceled)
	assert.Equal(t, 1, d.Pending())
}
