package sim

import (
	"fmt"
	"strings"
)

// Policy names accepted in configuration.
const (
	PolicyFCFS     = "fcfs"
	PolicySJF      = "sjf"
	PolicyPriority = "ps"
)

// ValidPolicies is the set of recognized scheduling policy names.
var ValidPolicies = map[string]bool{PolicyFCFS: true, PolicySJF: true, PolicyPriority: true}

var policyAliases = map[string]string{
	"":         PolicyFCFS,
	"fifo":     PolicyFCFS,
	"priority": PolicyPriority,
}

// NormalizePolicy lower-cases name and resolves aliases ("fifo", "priority").
func NormalizePolicy(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := policyAliases[key]; ok {
		return alias
	}
	return key
}

// IsValidPolicy reports whether name (after normalization) is a known policy.
func IsValidPolicy(name string) bool {
	return ValidPolicies[NormalizePolicy(name)]
}

// Scheduler orders programs in the ReadyQueue.
// Less reports whether a must be dispatched before b. Programs for which
// neither is less keep their insertion order.
type Scheduler interface {
	Name() string
	Less(a, b *PCB) bool
}

// FCFSScheduler dispatches in insertion order.
type FCFSScheduler struct{}

func (FCFSScheduler) Name() string { return PolicyFCFS }

func (FCFSScheduler) Less(_, _ *PCB) bool { return false }

// SJFScheduler dispatches programs with fewer operations first.
// Warning: long programs starve if short ones keep arriving; with a
// single-pass workload every program still runs.
type SJFScheduler struct{}

func (SJFScheduler) Name() string { return PolicySJF }

func (SJFScheduler) Less(a, b *PCB) bool { return a.OpCount() < b.OpCount() }

// PriorityScheduler dispatches the most I/O-bound programs first.
type PriorityScheduler struct{}

func (PriorityScheduler) Name() string { return PolicyPriority }

func (PriorityScheduler) Less(a, b *PCB) bool { return a.IOCount() > b.IOCount() }

// NewScheduler creates a Scheduler by policy name.
// Panics on unrecognized names; Config.Validate rejects them first.
func NewScheduler(name string) Scheduler {
	if !IsValidPolicy(name) {
		panic(fmt.Sprintf("unknown scheduling policy %q", name))
	}
	switch NormalizePolicy(name) {
	case PolicyFCFS:
		return FCFSScheduler{}
	case PolicySJF:
		return SJFScheduler{}
	case PolicyPriority:
		return PriorityScheduler{}
	default:
		panic(fmt.Sprintf("unhandled scheduling policy %q", name))
	}
}
