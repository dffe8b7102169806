package trace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/ossim/ossim/internal/clock"
)

// LogTarget selects where trace entries are routed.
type LogTarget string

const (
	// TargetMonitor prints entries as they are logged.
	TargetMonitor LogTarget = "monitor"
	// TargetFile buffers entries and persists them on Flush.
	TargetFile LogTarget = "file"
	// TargetBoth does both.
	TargetBoth LogTarget = "both"
)

// validLogTargets maps accepted log target strings.
var validLogTargets = map[LogTarget]bool{
	TargetMonitor: true,
	TargetFile:    true,
	TargetBoth:    true,
}

// IsValidLogTarget returns true if the given string is a recognized log target.
func IsValidLogTarget(target string) bool {
	return validLogTargets[LogTarget(target)]
}

// ToMonitor reports whether entries are printed.
func (t LogTarget) ToMonitor() bool { return t == TargetMonitor || t == TargetBoth }

// ToFile reports whether entries are persisted on Flush.
func (t LogTarget) ToFile() bool { return t == TargetFile || t == TargetBoth }

// ErrAlreadyFlushed is returned by a second Flush.
var ErrAlreadyFlushed = errors.New("trace log already flushed")

// Config controls trace routing.
type Config struct {
	Target   LogTarget
	FilePath string // file path or afs URL; used when Target includes file
}

// Log is the simulation's execution trace. Entries are timestamped with the
// time elapsed since Start, kept in memory, printed and/or buffered according
// to the target, and persisted once by Flush.
type Log struct {
	mu      sync.Mutex
	config  Config
	clock   clock.Clock
	fs      afs.Service
	start   time.Time
	started bool
	flushed bool
	entries []Entry
	buffer  bytes.Buffer
	monitor *logrus.Logger
	file    *logrus.Logger
}

// NewLog creates a trace log. monitor receives printed entries (os.Stdout in
// the CLI); fs persists the file buffer.
func NewLog(config Config, clk clock.Clock, fs afs.Service, monitor io.Writer) *Log {
	l := &Log{
		config:  config,
		clock:   clk,
		fs:      fs,
		entries: make([]Entry, 0),
	}
	l.monitor = newEntryLogger(monitor)
	l.file = newEntryLogger(&l.buffer)
	return l
}

// Start anchors the master timer. Entries logged before Start anchor it
// implicitly.
func (l *Log) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = l.clock.Now()
	l.started = true
}

// Log records msg with the current elapsed time.
func (l *Log) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	if !l.started {
		l.start = now
		l.started = true
	}
	entry := Entry{Elapsed: now.Sub(l.start), Message: msg}
	l.entries = append(l.entries, entry)
	if l.flushed {
		logrus.Warnf("trace entry after flush is not persisted: %q", msg)
	}
	fields := logrus.Fields{elapsedField: entry.Elapsed}
	if l.config.Target.ToMonitor() {
		l.monitor.WithFields(fields).Info(msg)
	}
	if l.config.Target.ToFile() && !l.flushed {
		l.file.WithFields(fields).Info(msg)
	}
}

// Logf formats and records a message.
func (l *Log) Logf(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...))
}

// Error records a fatal error followed by the exit notice.
func (l *Log) Error(err error) {
	l.Log("ERROR: " + err.Error())
	l.Log("Exiting with return code 1")
}

// Entries returns a copy of every entry logged so far.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Flush persists the file buffer to the configured path. It must be called
// exactly once; later calls return ErrAlreadyFlushed.
func (l *Log) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.flushed {
		return ErrAlreadyFlushed
	}
	l.flushed = true
	if !l.config.Target.ToFile() {
		return nil
	}
	if l.fs == nil {
		return fmt.Errorf("flushing trace: no storage service")
	}
	dest := url.Normalize(l.config.FilePath, file.Scheme)
	if err := l.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(l.buffer.Bytes())); err != nil {
		return fmt.Errorf("flushing trace to %s: %w", dest, err)
	}
	logrus.Debugf("trace written to %s (%d entries)", dest, len(l.entries))
	return nil
}

// Flushed reports whether Flush has been called.
func (l *Log) Flushed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushed
}
