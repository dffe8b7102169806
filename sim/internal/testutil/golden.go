// Package testutil provides shared test infrastructure for the simulator.
// It loads the golden scheduling scenarios and the workload files under
// testdata/ used by the sim/ test packages.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one workload run under one scheduling policy.
type GoldenTestCase struct {
	Name       string        `json:"name"`
	Workload   string        `json:"workload"` // file name under testdata/
	Scheduling string        `json:"scheduling"`
	Metrics    GoldenMetrics `json:"metrics"`
}

// GoldenMetrics holds the deterministic outcome of a run. Elapsed times
// depend on the clock and are not part of the dataset.
type GoldenMetrics struct {
	ProgramsCompleted  int   `json:"programs_completed"`
	OperationsExecuted int   `json:"operations_executed"`
	Allocations        int   `json:"allocations"`
	CompletionOrder    []int `json:"completion_order"`
	TraceEntries       int   `json:"trace_entries"`
}

// TestdataDir returns the repo root testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func TestdataDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata")
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(TestdataDir(t), "golden.json"))
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	return &dataset
}

// ReadTestdata returns the contents of a file under testdata/.
func ReadTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(TestdataDir(t), name))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return data
}
