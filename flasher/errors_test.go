package flasher

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var (
	_ error = (*ConfigError)(nil)
	_ error = (*BadBlockError)(nil)
	_ error = (*NoSpaceError)(nil)
	_ error = (*MarkBadError)(nil)
)

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Reason: "start offset is required"}
	if got := err.Error(); !strings.Contains(got, "invalid configuration") ||
		!strings.Contains(got, "start offset is required") {
		t.Errorf("Error() = %q", got)
	}
}

func TestBadBlockErrorMessage(t *testing.T) {
	t.Run("existing bad block", func(t *testing.T) {
		err := &BadBlockError{Offset: 0x20000}
		if got := err.Error(); !strings.Contains(got, "bad block at 0x20000") {
			t.Errorf("Error() = %q", got)
		}
		if err.Unwrap() != nil {
			t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
		}
	})

	t.Run("write failure", func(t *testing.T) {
		cause := errors.New("page program failed")
		err := &BadBlockError{Offset: 0x40000, Err: cause}
		if got := err.Error(); !strings.Contains(got, "bad block at 0x40000") ||
			!strings.Contains(got, "page program failed") {
			t.Errorf("Error() = %q", got)
		}
		if !errors.Is(err, cause) {
			t.Errorf("errors.Is does not find the cause")
		}
	})
}

func TestNoSpaceErrorMessage(t *testing.T) {
	err := &NoSpaceError{Op: "erasing next block", End: 0x60000, Limit: 0x40000}
	got := err.Error()
	for _, want := range []string{"erasing next block", "0x40000", "0x60000"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

func TestMarkBadErrorMessage(t *testing.T) {
	cause := errors.New("erase failed")
	markErr := errors.New("ioctl denied")
	err := &MarkBadError{Offset: 0x20000, Cause: cause, Err: markErr}

	got := err.Error()
	for _, want := range []string{"0x20000", "erase failed", "ioctl denied"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
	if !errors.Is(err, markErr) {
		t.Errorf("errors.Is does not find the marking failure")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: ExitOK},
		{name: "plain error", err: errors.New("boom"), want: ExitFailure},
		{name: "config error", err: &ConfigError{Reason: "x"}, want: ExitFailure},
		{name: "mark bad error", err: &MarkBadError{Offset: 0}, want: ExitFailure},
		{name: "bad block", err: &BadBlockError{Offset: 0}, want: ExitBadBlock},
		{name: "no space", err: &NoSpaceError{Op: "x"}, want: ExitNoSpace},
		{
			name: "wrapped bad block",
			err:  fmt.Errorf("run: %w", &BadBlockError{Offset: 0x20000}),
			want: ExitBadBlock,
		},
		{
			name: "wrapped no space",
			err:  fmt.Errorf("run: %w", &NoSpaceError{Op: "writing next page"}),
			want: ExitNoSpace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
