package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepping_NowAdvancesByStep(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewStepping(start, 5*time.Millisecond)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(5*time.Millisecond), c.Now())
}

func TestStepping_NonPositiveStepUsesDefault(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewStepping(start, 0)
	c.Now()
	assert.Equal(t, start.Add(DefaultStep), c.Now())
}

func TestSpin_NeverReturnsEarly(t *testing.T) {
	tests := []struct {
		name string
		step time.Duration
		wait time.Duration
	}{
		{"exact multiple", time.Millisecond, 200 * time.Millisecond},
		{"coarse step overshoots", 30 * time.Millisecond, 200 * time.Millisecond},
		{"zero wait", time.Millisecond, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewStepping(time.Unix(0, 0), tt.step)
			elapsed := Spin(c, tt.wait)
			assert.GreaterOrEqual(t, elapsed, tt.wait)
			assert.Less(t, elapsed, tt.wait+tt.step+tt.step)
		})
	}
}

func TestSpin_RealClock(t *testing.T) {
	elapsed := Spin(Real{}, 2*time.Millisecond)
	assert.GreaterOrEqual(t, elapsed, 2*time.Millisecond)
}
