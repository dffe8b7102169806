// Package trace records the simulator's execution trace: timestamped
// messages routed to the monitor, a persisted file, or both.
// This package has no dependencies on sim/; it stores entries and routes them.
package trace

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is one line of the execution trace.
type Entry struct {
	Elapsed time.Duration // since the master timer started
	Message string
}

func (e Entry) String() string {
	return fmt.Sprintf("%.6f (sec) - %s", e.Elapsed.Seconds(), e.Message)
}

const elapsedField = "elapsed"

// entryFormatter renders logrus entries in trace notation.
type entryFormatter struct{}

func (entryFormatter) Format(e *logrus.Entry) ([]byte, error) {
	elapsed, _ := e.Data[elapsedField].(time.Duration)
	return []byte(Entry{Elapsed: elapsed, Message: e.Message}.String() + "\n"), nil
}

// newEntryLogger returns a dedicated logger, independent of the ambient
// logrus level, that writes formatted entries to w.
func newEntryLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(entryFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}
