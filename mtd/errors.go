package mtd

import "fmt"

// Error records a failed device operation and the offset it targeted.
type Error struct {
	// Op is the operation that failed, e.g. "erase" or "write oob"
	Op string

	// Off is the byte offset the operation targeted
	Off int64

	// Err is the underlying error
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("mtd: %s at 0x%X: %v", e.Op, e.Off, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
