package mtd

import (
	"errors"
	"strings"
	"testing"
)

func TestDevicePath(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"mtd0", "/dev/mtd0"},
		{"mtd12", "/dev/mtd12"},
		{"/dev/mtd3", "/dev/mtd3"},
		{"/dev/mtdblock0", "/dev/mtdblock0"},
		{"./mtd0", "./mtd0"},
		{"flash.img", "flash.img"},
	}

	for _, tt := range tests {
		if got := DevicePath(tt.arg); got != tt.want {
			t.Errorf("DevicePath(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestInfoPagesPerBlock(t *testing.T) {
	info := Info{Size: 1 << 20, EraseSize: 128 * 1024, WriteSize: 2048, OOBSize: 64}
	if got := info.PagesPerBlock(); got != 64 {
		t.Errorf("PagesPerBlock() = %d, want 64", got)
	}
}

func TestErrorFormat(t *testing.T) {
	underlying := errors.New("I/O error")
	err := &Error{Op: "erase", Off: 0x20000, Err: underlying}

	msg := err.Error()
	for _, want := range []string{"erase", "0x20000", "I/O error"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}

	if !errors.Is(err, underlying) {
		t.Errorf("errors.Is does not see through Error")
	}
}

// Compile-time interface checks.
var (
	_ Device = (*Dev)(nil)
	_ Device = (*MemDevice)(nil)
	_ error  = (*Error)(nil)
)
