package sim

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"

	"github.com/ossim/ossim/sim/trace"
)

// CycleTimes holds the cost of one cycle per device family, in TimeUnit.
type CycleTimes struct {
	Processor int `yaml:"processor"`
	Monitor   int `yaml:"monitor"`
	HardDrive int `yaml:"hard_drive"`
	Projector int `yaml:"projector"`
	Keyboard  int `yaml:"keyboard"`
	Scanner   int `yaml:"scanner"`
	Memory    int `yaml:"memory"`
}

// MemoryConfig sizes the allocator.
type MemoryConfig struct {
	SystemKB  int64 `yaml:"system_kb"`  // total system memory in kilobytes
	BlockSize int64 `yaml:"block_size"` // bytes per allocation
}

// DeviceConfig sizes the arbitrated device pools.
type DeviceConfig struct {
	Projectors int `yaml:"projectors"`
	HardDrives int `yaml:"hard_drives"`
}

// LogConfig routes the execution trace.
type LogConfig struct {
	Target   string `yaml:"target"`    // "monitor", "file" or "both"
	FilePath string `yaml:"file_path"` // required when target includes file
}

// Config is the full simulator configuration, loadable from YAML.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version      string        `yaml:"version"`
	WorkloadPath string        `yaml:"workload_path"`
	Scheduling   string        `yaml:"scheduling"`
	TimeUnit     time.Duration `yaml:"time_unit"`
	CycleTimes   CycleTimes    `yaml:"cycle_times"`
	Memory       MemoryConfig  `yaml:"memory"`
	Devices      DeviceConfig  `yaml:"devices"`
	Log          LogConfig     `yaml:"log"`
}

// DefaultConfig returns the settings used for any field a config file omits.
func DefaultConfig() Config {
	return Config{
		Version:    "1.0",
		Scheduling: PolicyFCFS,
		TimeUnit:   time.Millisecond,
		CycleTimes: CycleTimes{
			Processor: 10,
			Monitor:   20,
			HardDrive: 15,
			Projector: 25,
			Keyboard:  50,
			Scanner:   10,
			Memory:    30,
		},
		Memory:  MemoryConfig{SystemKB: 48, BlockSize: 128},
		Devices: DeviceConfig{Projectors: 1, HardDrives: 1},
		Log:     LogConfig{Target: string(trace.TargetMonitor)},
	}
}

// LoadConfig reads a YAML configuration from location through fs on top of
// DefaultConfig and validates it. Plain paths resolve to local files.
// Unknown keys are rejected so typos surface as errors.
func LoadConfig(ctx context.Context, fs afs.Service, location string) (*Config, error) {
	data, err := fs.DownloadWithURL(ctx, url.Normalize(location, file.Scheme))
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", location, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML config data; see LoadConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Scheduling = NormalizePolicy(cfg.Scheduling)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks policy names and parameter ranges.
func (c *Config) Validate() error {
	if !IsValidPolicy(c.Scheduling) {
		return fmt.Errorf("unknown scheduling policy %q", c.Scheduling)
	}
	if c.TimeUnit <= 0 {
		return fmt.Errorf("time_unit must be positive, got %v", c.TimeUnit)
	}
	costs := map[string]int{
		"processor":  c.CycleTimes.Processor,
		"monitor":    c.CycleTimes.Monitor,
		"hard_drive": c.CycleTimes.HardDrive,
		"projector":  c.CycleTimes.Projector,
		"keyboard":   c.CycleTimes.Keyboard,
		"scanner":    c.CycleTimes.Scanner,
		"memory":     c.CycleTimes.Memory,
	}
	for name, v := range costs {
		if v < 0 {
			return fmt.Errorf("cycle_times.%s must be non-negative, got %d", name, v)
		}
	}
	if c.Memory.BlockSize <= 0 {
		return fmt.Errorf("memory.block_size must be positive, got %d", c.Memory.BlockSize)
	}
	if c.Memory.SystemKB < 0 {
		return fmt.Errorf("memory.system_kb must be non-negative, got %d", c.Memory.SystemKB)
	}
	if c.Devices.Projectors < 1 {
		return fmt.Errorf("devices.projectors must be at least 1, got %d", c.Devices.Projectors)
	}
	if c.Devices.HardDrives < 1 {
		return fmt.Errorf("devices.hard_drives must be at least 1, got %d", c.Devices.HardDrives)
	}
	if !trace.IsValidLogTarget(c.Log.Target) {
		return fmt.Errorf("unknown log target %q", c.Log.Target)
	}
	if trace.LogTarget(c.Log.Target).ToFile() && c.Log.FilePath == "" {
		return fmt.Errorf("log.file_path is required for log target %q", c.Log.Target)
	}
	return nil
}

// CostPerCycle returns the configured time units per cycle for res.
// Markers cost nothing.
func (c *Config) CostPerCycle(res Resource) (int, error) {
	costs := map[Resource]int{
		ResourceBegin:     0,
		ResourceFinish:    0,
		ResourceRun:       c.CycleTimes.Processor,
		ResourceAllocate:  c.CycleTimes.Memory,
		ResourceBlock:     c.CycleTimes.Memory,
		ResourceKeyboard:  c.CycleTimes.Keyboard,
		ResourceScanner:   c.CycleTimes.Scanner,
		ResourceMonitor:   c.CycleTimes.Monitor,
		ResourceProjector: c.CycleTimes.Projector,
		ResourceHardDrive: c.CycleTimes.HardDrive,
	}
	cost, ok := costs[res]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownResource, res)
	}
	return cost, nil
}

// WaitTime is the simulated duration of op: cycles × cost × TimeUnit.
// A product that does not fit in a time.Duration fails with ErrWaitOverflow.
func (c *Config) WaitTime(op Operation) (time.Duration, error) {
	cost, err := c.CostPerCycle(op.Resource)
	if err != nil {
		return 0, err
	}
	if op.Cycles == 0 || cost == 0 {
		return 0, nil
	}
	perCycle := time.Duration(cost) * c.TimeUnit
	if c.TimeUnit > time.Duration(math.MaxInt64/int64(cost)) ||
		time.Duration(op.Cycles) > time.Duration(math.MaxInt64)/perCycle {
		return 0, fmt.Errorf("%w: %s at %d x %v per cycle", ErrWaitOverflow, op, cost, c.TimeUnit)
	}
	return time.Duration(op.Cycles) * perCycle, nil
}

// MemoryCapacity returns the allocator capacity in bytes.
func (c *Config) MemoryCapacity() uint64 {
	return uint64(c.Memory.SystemKB) * 1024
}
