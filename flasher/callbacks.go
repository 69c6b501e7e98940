package flasher

import "time"

// Phase values reported through Progress.
const (
	// PhaseErasing is reported by erase-only runs
	PhaseErasing = "erasing"

	// PhaseWriting is reported by write (and erase+write) runs
	PhaseWriting = "writing"

	// PhaseComplete is reported once, after the run has finished
	PhaseComplete = "complete"
)

// Progress is a snapshot of a run's advancement, delivered to the
// ProgressCallback after every committed eraseblock.
type Progress struct {
	// Phase is one of PhaseErasing, PhaseWriting or PhaseComplete
	Phase string

	// BlockOffset is the offset of the eraseblock just processed
	BlockOffset int64

	// BytesDone is the number of payload bytes committed so far.
	// Erase-only runs account whole blocks, so it can exceed TotalBytes.
	BytesDone int64

	// TotalBytes is the requested payload length
	TotalBytes int64

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since Run started
	ElapsedTime time.Duration
}

// ProgressCallback receives progress updates during a run. Blocks that
// are skipped as bad or retried after a failure do not produce updates;
// only committed work does.
//
// Example:
//
//	flasher.WithProgressCallback(func(p flasher.Progress) {
//	    fmt.Printf("\r%s: %.1f%%", p.Phase, p.Percentage)
//	})
type ProgressCallback func(progress Progress)

// Logger is the interface for flasher logging. Implementations must be
// safe to call with alternating key/value pairs in the manner of
// structured loggers.
//
// Example using log/slog:
//
//	type slogLogger struct{ l *slog.Logger }
//
//	func (s slogLogger) Debug(msg string, kv ...interface{}) { s.l.Debug(msg, kv...) }
//	func (s slogLogger) Info(msg string, kv ...interface{})  { s.l.Info(msg, kv...) }
//	func (s slogLogger) Error(msg string, kv ...interface{}) { s.l.Error(msg, kv...) }
type Logger interface {
	// Debug logs detailed information useful for troubleshooting
	Debug(msg string, keysAndValues ...interface{})

	// Info logs general operational information
	Info(msg string, keysAndValues ...interface{})

	// Error logs failures
	Error(msg string, keysAndValues ...interface{})
}
