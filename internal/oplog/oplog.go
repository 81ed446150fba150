// Package oplog provides the operation log for the lifecycle core: leveled
// logrus streams for mutation, snapshot, and timing events, written to
// separate files so slow-operation alerts stay distinguishable from
// correctness events. The log is initialized explicitly once at process
// start and injected into every component; logging calls never fail the
// caller.
package oplog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// Stream file names under Config.Dir.
const (
	mutationLogFile = "mutations.log"
	snapshotLogFile = "snapshots.log"
	timingLogFile   = "timing.log"
)

// Config controls log destination, verbosity, and the slow-operation
// threshold for timing records.
type Config struct {
	Dir             string
	Level           string
	Format          string
	SlowOpThreshold time.Duration
}

// Log is the process-wide operation log handle. The mutation stream always
// records at debug; the snapshot and timing streams honor the configured
// level.
type Log struct {
	mutation *logrus.Logger
	snapshot *logrus.Logger
	timing   *logrus.Logger
	slowOp   time.Duration
	files    []*os.File
}

// Initialize opens the three stream files under cfg.Dir and returns the log
// handle. It must be called once at process start, before any component is
// constructed; there is no implicit first-use initialization.
func Initialize(cfg Config) (*Log, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	slowOp := cfg.SlowOpThreshold
	if slowOp == 0 {
		slowOp = types.DefaultSlowOpThreshold
	}

	l := &Log{slowOp: slowOp}
	for _, stream := range []struct {
		file   string
		level  logrus.Level
		target **logrus.Logger
	}{
		{mutationLogFile, logrus.DebugLevel, &l.mutation},
		{snapshotLogFile, level, &l.snapshot},
		{timingLogFile, level, &l.timing},
	} {
		f, err := os.OpenFile(filepath.Join(cfg.Dir, stream.file), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("open %s: %w", stream.file, err)
		}
		l.files = append(l.files, f)
		*stream.target = newLogger(f, stream.level, cfg.Format)
	}
	return l, nil
}

// Discard returns a log handle whose streams write nowhere. Intended for
// tests and for components that run before Initialize in tooling contexts.
func Discard() *Log {
	nop := func() *logrus.Logger {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		return logger
	}
	return &Log{
		mutation: nop(),
		snapshot: nop(),
		timing:   nop(),
		slowOp:   types.DefaultSlowOpThreshold,
	}
}

func newLogger(out io.Writer, level logrus.Level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if format == types.LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Mutation returns an entry on the mutation stream. Cascade and batch
// events are recorded here.
func (l *Log) Mutation() *logrus.Entry { return logrus.NewEntry(l.mutation) }

// Snapshot returns an entry on the snapshot stream. Snapshot, retention,
// and restore events are recorded here.
func (l *Log) Snapshot() *logrus.Entry { return logrus.NewEntry(l.snapshot) }

// Timing returns an entry on the timing stream.
func (l *Log) Timing() *logrus.Entry { return logrus.NewEntry(l.timing) }

// Timer starts a timed operation and returns its id together with a
// completion func. The completion record lands on the timing stream: error
// level when err is non-nil, warning when the elapsed time exceeds the
// slow-operation threshold, info otherwise. The returned id lets callers
// tag their mutation and snapshot entries for correlation.
func (l *Log) Timer(operation string) (string, func(err error)) {
	opID := NewOpID()
	start := time.Now()

	return opID, func(err error) {
		elapsed := time.Since(start)
		entry := l.timing.WithFields(logrus.Fields{
			"operation": operation,
			"op_id":     opID,
			"elapsed":   elapsed.Round(time.Millisecond).String(),
		})
		switch {
		case err != nil:
			entry.WithError(err).Error("operation failed")
		case elapsed > l.slowOp:
			entry.Warn("slow operation")
		default:
			entry.Info("operation completed")
		}
	}
}

// NewOpID returns a time-ordered UUIDv7 operation id.
func NewOpID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}

// Close releases the stream files. Safe to call on a Discard log.
func (l *Log) Close() error {
	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
}
