package sim

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_OverridesDefaults(t *testing.T) {
	// GIVEN a config that sets only a few fields
	data := []byte(`
scheduling: SJF
time_unit: 2ms
cycle_times:
  processor: 7
devices:
  projectors: 3
`)

	// WHEN it is parsed
	cfg, err := ParseConfig(data)

	// THEN set fields override and the rest keep their defaults
	require.NoError(t, err)
	assert.Equal(t, PolicySJF, cfg.Scheduling)
	assert.Equal(t, 2*time.Millisecond, cfg.TimeUnit)
	assert.Equal(t, 7, cfg.CycleTimes.Processor)
	assert.Equal(t, DefaultConfig().CycleTimes.Monitor, cfg.CycleTimes.Monitor)
	assert.Equal(t, 3, cfg.Devices.Projectors)
	assert.Equal(t, 1, cfg.Devices.HardDrives)
}

func TestParseConfig_UnknownKey_Rejected(t *testing.T) {
	_, err := ParseConfig([]byte("cycle_times:\n  procesor: 5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "procesor")
}

func TestParseConfig_PolicyAliases(t *testing.T) {
	for alias, want := range map[string]string{
		"fifo":     PolicyFCFS,
		"FCFS":     PolicyFCFS,
		"priority": PolicyPriority,
		"ps":       PolicyPriority,
		"sjf":      PolicySJF,
	} {
		cfg, err := ParseConfig([]byte("scheduling: " + alias + "\n"))
		require.NoError(t, err, alias)
		assert.Equal(t, want, cfg.Scheduling, alias)
	}
}

func TestConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown policy", func(c *Config) { c.Scheduling = "lottery" }, "scheduling"},
		{"zero time unit", func(c *Config) { c.TimeUnit = 0 }, "time_unit"},
		{"negative cost", func(c *Config) { c.CycleTimes.Scanner = -1 }, "cycle_times.scanner"},
		{"zero block size", func(c *Config) { c.Memory.BlockSize = 0 }, "block_size"},
		{"negative memory", func(c *Config) { c.Memory.SystemKB = -1 }, "system_kb"},
		{"no projectors", func(c *Config) { c.Devices.Projectors = 0 }, "projectors"},
		{"no hard drives", func(c *Config) { c.Devices.HardDrives = 0 }, "hard_drives"},
		{"bad log target", func(c *Config) { c.Log.Target = "printer" }, "log target"},
		{"file without path", func(c *Config) { c.Log.Target = "both" }, "file_path"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestConfig_WaitTime(t *testing.T) {
	// GIVEN processor cost 100 per cycle and a 1ms time unit
	cfg := DefaultConfig()
	cfg.CycleTimes.Processor = 100

	// WHEN a 2-cycle run operation is timed
	got, err := cfg.WaitTime(mustOp(t, KindCpu, "run", 2))

	// THEN it takes 200ms
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, got)

	// markers are free
	got, err = cfg.WaitTime(SystemBegin)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestConfig_CostPerCycle_PerResource(t *testing.T) {
	cfg := DefaultConfig()
	cases := map[Resource]int{
		ResourceRun:       cfg.CycleTimes.Processor,
		ResourceAllocate:  cfg.CycleTimes.Memory,
		ResourceBlock:     cfg.CycleTimes.Memory,
		ResourceKeyboard:  cfg.CycleTimes.Keyboard,
		ResourceScanner:   cfg.CycleTimes.Scanner,
		ResourceMonitor:   cfg.CycleTimes.Monitor,
		ResourceProjector: cfg.CycleTimes.Projector,
		ResourceHardDrive: cfg.CycleTimes.HardDrive,
	}
	for res, want := range cases {
		got, err := cfg.CostPerCycle(res)
		require.NoError(t, err)
		assert.Equal(t, want, got, res.String())
	}
	_, err := cfg.CostPerCycle(Resource(99))
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestConfig_MemoryCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Memory.SystemKB = 2
	assert.Equal(t, uint64(2048), cfg.MemoryCapacity())
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduling: ps\n"), 0o644))

	cfg, err := LoadConfig(context.Background(), afs.New(), path)
	require.NoError(t, err)
	assert.Equal(t, PolicyPriority, cfg.Scheduling)

	_, err = LoadConfig(context.Background(), afs.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "reading config"))
}

func TestLoadConfig_FromStorage(t *testing.T) {
	// GIVEN a config uploaded to in-memory storage
	ctx := context.Background()
	fs := afs.New()
	const location = "mem://localhost/ossim/config.yaml"
	require.NoError(t, fs.Upload(ctx, location, file.DefaultFileOsMode,
		bytes.NewReader([]byte("scheduling: sjf\ndevices:\n  hard_drives: 3\n"))))

	// WHEN it is loaded through the same service
	cfg, err := LoadConfig(ctx, fs, location)

	// THEN the overrides apply on top of the defaults
	require.NoError(t, err)
	assert.Equal(t, PolicySJF, cfg.Scheduling)
	assert.Equal(t, 3, cfg.Devices.HardDrives)
	assert.Equal(t, 1, cfg.Devices.Projectors)

	_, err = LoadConfig(ctx, fs, "mem://localhost/ossim/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestConfig_WaitTime_OverflowFails(t *testing.T) {
	// GIVEN processor cost 10 at 1ms per unit
	cfg := DefaultConfig()
	cfg.TimeUnit = time.Millisecond
	cfg.CycleTimes.Processor = 10

	// WHEN an operation runs for a trillion cycles
	op, err := NewOperation(KindCpu, "run", 1_000_000_000_000)
	require.NoError(t, err)
	wait, err := cfg.WaitTime(op)

	// THEN the duration is rejected instead of wrapping negative
	assert.ErrorIs(t, err, ErrWaitOverflow)
	assert.Zero(t, wait)
}

func TestConfig_WaitTime_Bounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeUnit = time.Nanosecond
	cfg.CycleTimes.Processor = 1

	// the largest representable product still fits
	op, err := NewOperation(KindCpu, "run", math.MaxInt)
	require.NoError(t, err)
	wait, err := cfg.WaitTime(op)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(math.MaxInt), wait)

	// cost times unit alone can overflow
	cfg.TimeUnit = time.Hour
	cfg.CycleTimes.Processor = math.MaxInt32
	op, err = NewOperation(KindCpu, "run", 1)
	require.NoError(t, err)
	_, err = cfg.WaitTime(op)
	assert.ErrorIs(t, err, ErrWaitOverflow)

	// zero cycles never overflow
	op, err = NewOperation(KindCpu, "run", 0)
	require.NoError(t, err)
	wait, err = cfg.WaitTime(op)
	require.NoError(t, err)
	assert.Zero(t, wait)
}
