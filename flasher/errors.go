package flasher

import (
	"errors"
	"fmt"
)

// Process exit statuses for the four run outcomes; see ExitCode.
const (
	// ExitOK means the run completed
	ExitOK = 0

	// ExitFailure means a general fatal error
	ExitFailure = 1

	// ExitBadBlock means strict bad-block mode aborted the run
	ExitBadBlock = 2

	// ExitNoSpace means the run would not fit below the offset limit
	// or the end of the device
	ExitNoSpace = 3
)

// ConfigError reports an invalid run configuration. It is always
// raised before any device state has been changed.
type ConfigError struct {
	// Reason describes what is wrong with the configuration
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// BadBlockError aborts a strict-mode run on its first bad block,
// whether found already marked or created by a failed write.
type BadBlockError struct {
	// Offset is the offset of the offending eraseblock
	Offset int64

	// Err is the write failure that condemned the block; nil when the
	// block was already marked bad
	Err error
}

func (e *BadBlockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad block at 0x%X: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("bad block at 0x%X", e.Offset)
}

// Unwrap returns the write failure that condemned the block, if any.
func (e *BadBlockError) Unwrap() error {
	return e.Err
}

// NoSpaceError reports that an operation would cross the offset limit
// or the end of the device. It is raised before the operation is
// issued, so nothing past the limit is ever touched.
type NoSpaceError struct {
	// Op names the operation that would overrun
	Op string

	// End is the end offset the operation needs
	End int64

	// Limit is the bound the operation would cross
	Limit int64
}

func (e *NoSpaceError) Error() string {
	return fmt.Sprintf("%s would exceed limit 0x%X (needs up to 0x%X)", e.Op, e.Limit, e.End)
}

// MarkBadError reports a failure to mark a broken eraseblock bad. It is
// always fatal: continuing would leave a block that fails writes but
// still reads back as good.
type MarkBadError struct {
	// Offset is the offset of the block that could not be marked
	Offset int64

	// Cause is the erase or write failure that prompted the marking
	Cause error

	// Err is the marking failure itself
	Err error
}

func (e *MarkBadError) Error() string {
	return fmt.Sprintf("marking block at 0x%X bad failed: %v (block condemned by: %v)", e.Offset, e.Err, e.Cause)
}

// Unwrap returns the marking failure.
func (e *MarkBadError) Unwrap() error {
	return e.Err
}

// ExitCode maps a Run result to its process exit status: 0 on success,
// 2 for a strict-mode bad block abort, 3 when a run does not fit below
// its offset limit, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var badBlock *BadBlockError
	if errors.As(err, &badBlock) {
		return ExitBadBlock
	}
	var noSpace *NoSpaceError
	if errors.As(err, &noSpace) {
		return ExitNoSpace
	}
	return ExitFailure
}
