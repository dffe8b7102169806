package sim

import (
	"fmt"
	"strings"
)

// Kind classifies an operation.
type Kind int

const (
	KindSystem Kind = iota
	KindAppBoundary
	KindCpu
	KindInput
	KindOutput
	KindMemory
)

var kindNames = map[Kind]string{
	KindSystem:      "system",
	KindAppBoundary: "application",
	KindCpu:         "process",
	KindInput:       "input",
	KindOutput:      "output",
	KindMemory:      "memory",
}

// kindCodes maps workload type codes to kinds. It is the only place type
// codes are interpreted.
var kindCodes = map[string]Kind{
	"S": KindSystem,
	"A": KindAppBoundary,
	"P": KindCpu,
	"I": KindInput,
	"O": KindOutput,
	"M": KindMemory,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Code returns the single-letter workload code for k.
func (k Kind) Code() string {
	for code, kind := range kindCodes {
		if kind == k {
			return code
		}
	}
	return "?"
}

// IsIO reports whether operations of this kind go through the Arbiter.
func (k Kind) IsIO() bool {
	return k == KindInput || k == KindOutput
}

// IsWork reports whether operations of this kind are appended to a program
// and counted towards its OpCount.
func (k Kind) IsWork() bool {
	return k == KindCpu || k == KindMemory || k.IsIO()
}

// KindFromCode resolves a workload type code.
func KindFromCode(code string) (Kind, error) {
	k, ok := kindCodes[strings.TrimSpace(code)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidToken, code)
	}
	return k, nil
}

// Resource names what an operation consumes. The set is closed: names are
// resolved once by ParseResource when the workload is read.
type Resource int

const (
	resourceInvalid Resource = iota
	ResourceBegin
	ResourceFinish
	ResourceRun
	ResourceAllocate
	ResourceBlock
	ResourceKeyboard
	ResourceScanner
	ResourceMonitor
	ResourceProjector
	ResourceHardDrive
)

var resourceNames = map[Resource]string{
	ResourceBegin:     "begin",
	ResourceFinish:    "finish",
	ResourceRun:       "run",
	ResourceAllocate:  "allocate",
	ResourceBlock:     "block",
	ResourceKeyboard:  "keyboard",
	ResourceScanner:   "scanner",
	ResourceMonitor:   "monitor",
	ResourceProjector: "projector",
	ResourceHardDrive: "hard drive",
}

var resourceAliases = map[string]Resource{
	"start":     ResourceBegin,
	"end":       ResourceFinish,
	"harddrive": ResourceHardDrive,
	"hdd":       ResourceHardDrive,
}

// kindResources lists the resources each kind may name.
var kindResources = map[Kind]map[Resource]bool{
	KindSystem:      {ResourceBegin: true, ResourceFinish: true},
	KindAppBoundary: {ResourceBegin: true, ResourceFinish: true},
	KindCpu:         {ResourceRun: true},
	KindMemory:      {ResourceAllocate: true, ResourceBlock: true},
	KindInput:       {ResourceKeyboard: true, ResourceScanner: true, ResourceHardDrive: true},
	KindOutput:      {ResourceMonitor: true, ResourceProjector: true, ResourceHardDrive: true},
}

func (r Resource) String() string {
	if name, ok := resourceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("resource(%d)", int(r))
}

// ParseResource resolves a resource name, case-insensitively and ignoring
// surrounding whitespace.
func ParseResource(name string) (Resource, error) {
	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	for r, n := range resourceNames {
		if n == key {
			return r, nil
		}
	}
	if r, ok := resourceAliases[key]; ok {
		return r, nil
	}
	return resourceInvalid, fmt.Errorf("%w: %q", ErrUnknownResource, name)
}

// Operation is one unit of work. It is a comparable value: two operations are
// equal iff kind, resource and cycles match.
type Operation struct {
	Kind     Kind
	Resource Resource
	Cycles   int
}

// NewOperation validates the resource name against kind and returns the
// operation.
func NewOperation(kind Kind, name string, cycles int) (Operation, error) {
	if _, ok := kindNames[kind]; !ok {
		return Operation{}, fmt.Errorf("%w: %v", ErrInvalidToken, kind)
	}
	res, err := ParseResource(name)
	if err != nil {
		return Operation{}, err
	}
	if !kindResources[kind][res] {
		return Operation{}, fmt.Errorf("%w: %q is not a %s resource", ErrUnknownResource, name, kind)
	}
	if cycles < 0 {
		return Operation{}, fmt.Errorf("%w: %d", ErrInvalidCycles, cycles)
	}
	return Operation{Kind: kind, Resource: res, Cycles: cycles}, nil
}

// String renders the operation in workload notation, e.g. "P{run}11".
func (op Operation) String() string {
	return fmt.Sprintf("%s{%s}%d", op.Kind.Code(), op.Resource, op.Cycles)
}

// Marker operations bounding the system and application sections.
var (
	SystemBegin  = Operation{Kind: KindSystem, Resource: ResourceBegin}
	SystemFinish = Operation{Kind: KindSystem, Resource: ResourceFinish}
	AppBegin     = Operation{Kind: KindAppBoundary, Resource: ResourceBegin}
	AppFinish    = Operation{Kind: KindAppBoundary, Resource: ResourceFinish}
)
