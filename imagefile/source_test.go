package imagefile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/marcinbor85/gohex"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestOpenBinary(t *testing.T) {
	payload := []byte("raw kernel image payload")
	path := writeTemp(t, "kernel.img", payload)

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if src.Size() != int64(len(payload)) {
		t.Errorf("Size() = %d, want %d", src.Size(), len(payload))
	}
	if src.Name() != path {
		t.Errorf("Name() = %q, want %q", src.Name(), path)
	}

	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("reading source: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("read %q, want %q", got, payload)
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nonexistent.img")); err == nil {
		t.Errorf("Open of missing file succeeded")
	}
}

// TestCRC16KnownVector checks the running checksum against the
// CRC-16/XMODEM check value: CRC("123456789") = 0x31C3.
func TestCRC16KnownVector(t *testing.T) {
	src := New(bytes.NewReader([]byte("123456789")), 9, "check")

	if got := src.CRC16(); got != 0 {
		t.Errorf("CRC16 before reading = %#04x, want 0", got)
	}
	if _, err := io.ReadAll(src); err != nil {
		t.Fatalf("reading source: %v", err)
	}
	if got := src.CRC16(); got != 0x31C3 {
		t.Errorf("CRC16 = %#04x, want 0x31c3", got)
	}
}

// TestCRC16CoversConsumedOnly checks that the checksum reflects only
// the bytes actually read, not the whole underlying stream.
func TestCRC16CoversConsumedOnly(t *testing.T) {
	data := append([]byte("123456789"), []byte("trailing garbage")...)
	src := New(bytes.NewReader(data), int64(len(data)), "partial")

	if _, err := io.ReadFull(src, make([]byte, 9)); err != nil {
		t.Fatalf("reading source: %v", err)
	}
	if got := src.CRC16(); got != 0x31C3 {
		t.Errorf("CRC16 = %#04x, want 0x31c3", got)
	}
}

func TestOpenIntelHex(t *testing.T) {
	// Two segments with a gap; the gap must come back as 0xFF.
	mem := gohex.NewMemory()
	if err := mem.AddBinary(0x1000, bytes.Repeat([]byte{0xAB}, 16)); err != nil {
		t.Fatalf("AddBinary failed: %v", err)
	}
	if err := mem.AddBinary(0x1020, bytes.Repeat([]byte{0xCD}, 8)); err != nil {
		t.Fatalf("AddBinary failed: %v", err)
	}
	var hexText bytes.Buffer
	if err := mem.DumpIntelHex(&hexText, 16); err != nil {
		t.Fatalf("DumpIntelHex failed: %v", err)
	}
	path := writeTemp(t, "boot.hex", hexText.Bytes())

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	want := bytes.Join([][]byte{
		bytes.Repeat([]byte{0xAB}, 16),
		bytes.Repeat([]byte{0xFF}, 16),
		bytes.Repeat([]byte{0xCD}, 8),
	}, nil)

	if src.Size() != int64(len(want)) {
		t.Errorf("Size() = %d, want %d", src.Size(), len(want))
	}
	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("reading source: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("hex image = % 02X, want % 02X", got, want)
	}
}

func TestOpenIntelHexInvalid(t *testing.T) {
	path := writeTemp(t, "broken.hex", []byte(":garbage, not hex records\n"))
	if _, err := Open(path); err == nil {
		t.Errorf("Open of broken hex succeeded")
	}
}

func TestOpenZstd(t *testing.T) {
	payload := bytes.Repeat([]byte("compressible payload "), 400)

	var compressed bytes.Buffer
	enc, err := zstd.NewWriter(&compressed)
	if err != nil {
		t.Fatalf("zstd.NewWriter failed: %v", err)
	}
	if _, err := enc.Write(payload); err != nil {
		t.Fatalf("compressing: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	path := writeTemp(t, "rootfs.zst", compressed.Bytes())

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if src.Size() != int64(len(payload)) {
		t.Errorf("Size() = %d, want %d", src.Size(), len(payload))
	}
	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("reading source: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("decompressed image differs from payload")
	}
}

func TestOpenZstdInvalid(t *testing.T) {
	path := writeTemp(t, "broken.zst", []byte("definitely not zstd"))
	if _, err := Open(path); err == nil {
		t.Errorf("Open of broken zstd succeeded")
	}
}

func TestOpenStdin(t *testing.T) {
	src, err := Open("-")
	if err != nil {
		t.Fatalf("Open(-) failed: %v", err)
	}
	defer src.Close()

	if src.Size() != -1 {
		t.Errorf("Size() = %d, want -1 for stdin", src.Size())
	}
	if src.Name() != "stdin" {
		t.Errorf("Name() = %q, want %q", src.Name(), "stdin")
	}
}

func TestNewWrapsReader(t *testing.T) {
	src := New(bytes.NewReader([]byte{1, 2, 3}), -1, "wrapped")

	if src.Size() != -1 {
		t.Errorf("Size() = %d, want -1", src.Size())
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close of wrapped reader failed: %v", err)
	}
}
