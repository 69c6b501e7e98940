package mtd

import (
	"bytes"
	"errors"
	"testing"
)

// testGeometry is a small but realistic NAND shape: 4 eraseblocks of
// 4 pages, 2048-byte pages with 64 OOB bytes each.
func testGeometry() Info {
	return Info{
		Size:      4 * 4 * 2048,
		EraseSize: 4 * 2048,
		WriteSize: 2048,
		OOBSize:   64,
	}
}

func TestNewMemDeviceErased(t *testing.T) {
	d := NewMemDevice(testGeometry())

	ff := bytes.Repeat([]byte{0xFF}, 2048)
	if !bytes.Equal(d.ReadPage(0), ff) {
		t.Errorf("fresh device page 0 is not erased")
	}
	if !bytes.Equal(d.ReadOOB(0), bytes.Repeat([]byte{0xFF}, 64)) {
		t.Errorf("fresh device OOB 0 is not erased")
	}
}

func TestNewMemDeviceBadGeometry(t *testing.T) {
	bad := []Info{
		{},
		{Size: 2048, EraseSize: 2048, WriteSize: 0, OOBSize: 64},
		{Size: 2048, EraseSize: 2048, WriteSize: 2048, OOBSize: 0},
		{Size: 8192, EraseSize: 3000, WriteSize: 2048, OOBSize: 64},
		{Size: 10000, EraseSize: 8192, WriteSize: 2048, OOBSize: 64},
	}

	for i, info := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("geometry %d (%+v) did not panic", i, info)
				}
			}()
			NewMemDevice(info)
		}()
	}
}

func TestMemDeviceWriteAndErase(t *testing.T) {
	d := NewMemDevice(testGeometry())

	page := bytes.Repeat([]byte{0xA5}, 2048)
	if err := d.WritePage(2048, page); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	if !bytes.Equal(d.ReadPage(2048), page) {
		t.Errorf("page readback differs from what was written")
	}

	// NAND programming clears bits only: writing over existing data
	// ANDs with it.
	if err := d.WritePage(2048, bytes.Repeat([]byte{0x0F}, 2048)); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	if got := d.ReadPage(2048)[0]; got != 0xA5&0x0F {
		t.Errorf("overwrite byte = %#02x, want %#02x", got, 0xA5&0x0F)
	}

	if err := d.Erase(0); err != nil {
		t.Fatalf("Erase failed: %v", err)
	}
	if !bytes.Equal(d.ReadPage(2048), bytes.Repeat([]byte{0xFF}, 2048)) {
		t.Errorf("erase did not restore page to 0xFF")
	}
}

func TestMemDeviceOOBNeedsRawMode(t *testing.T) {
	d := NewMemDevice(testGeometry())
	oob := bytes.Repeat([]byte{0x5A}, 64)

	err := d.WriteOOB(0, oob)
	if err == nil {
		t.Fatalf("WriteOOB succeeded without raw mode")
	}
	if !errors.Is(err, errNotRaw) {
		t.Errorf("WriteOOB error = %v, want raw mode error", err)
	}

	if err := d.SetRawMode(true); err != nil {
		t.Fatalf("SetRawMode failed: %v", err)
	}
	if !d.RawMode() {
		t.Fatalf("RawMode() = false after enabling")
	}
	if err := d.WriteOOB(0, oob); err != nil {
		t.Fatalf("WriteOOB failed in raw mode: %v", err)
	}
	if !bytes.Equal(d.ReadOOB(0), oob) {
		t.Errorf("OOB readback differs from what was written")
	}

	// OOB of page 1 must be untouched.
	if !bytes.Equal(d.ReadOOB(2048), bytes.Repeat([]byte{0xFF}, 64)) {
		t.Errorf("OOB write leaked into the neighbouring page")
	}
}

func TestMemDeviceValidation(t *testing.T) {
	d := NewMemDevice(testGeometry())
	d.SetRawMode(true)

	tests := []struct {
		name string
		call func() error
	}{
		{"erase unaligned", func() error { return d.Erase(2048) }},
		{"erase negative", func() error { return d.Erase(-8192) }},
		{"erase past end", func() error { return d.Erase(4 * 8192) }},
		{"write unaligned", func() error { return d.WritePage(100, make([]byte, 2048)) }},
		{"write past end", func() error { return d.WritePage(4*8192, make([]byte, 2048)) }},
		{"write short page", func() error { return d.WritePage(0, make([]byte, 2047)) }},
		{"oob unaligned", func() error { return d.WriteOOB(3, make([]byte, 64)) }},
		{"oob wrong size", func() error { return d.WriteOOB(0, make([]byte, 63)) }},
		{"mark unaligned", func() error { return d.MarkBad(2048) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatalf("call succeeded, want error")
			}
			var mtdErr *Error
			if !errors.As(err, &mtdErr) {
				t.Errorf("error %v is not a *mtd.Error", err)
			}
		})
	}
}

func TestMemDeviceBadBlocks(t *testing.T) {
	d := NewMemDevice(testGeometry())

	if bad, err := d.IsBad(8192); err != nil || bad {
		t.Fatalf("IsBad(8192) = %v, %v, want false, nil", bad, err)
	}

	d.SetBad(8192)
	if bad, _ := d.IsBad(8192); !bad {
		t.Errorf("factory bad block not reported")
	}
	if len(d.Marks()) != 0 {
		t.Errorf("SetBad recorded a marking operation")
	}

	if err := d.MarkBad(16384); err != nil {
		t.Fatalf("MarkBad failed: %v", err)
	}
	if bad, _ := d.IsBad(16384); !bad {
		t.Errorf("marked block not reported bad")
	}
	if got := d.Marks(); len(got) != 1 || got[0] != 16384 {
		t.Errorf("Marks() = %v, want [16384]", got)
	}
}

func TestMemDeviceFailureInjection(t *testing.T) {
	d := NewMemDevice(testGeometry())
	d.SetRawMode(true)

	custom := errors.New("worn out")
	d.FailErase(0, custom)
	d.FailPageWrite(2048, nil)
	d.FailOOBWrite(2048, nil)
	d.FailMarkBad(8192, nil)
	d.FailIsBad(16384, nil)

	if err := d.Erase(0); !errors.Is(err, custom) {
		t.Errorf("Erase error = %v, want %v", err, custom)
	}
	if err := d.WritePage(2048, make([]byte, 2048)); !errors.Is(err, errSimulated) {
		t.Errorf("WritePage error = %v, want simulated", err)
	}
	if err := d.WriteOOB(2048, make([]byte, 64)); !errors.Is(err, errSimulated) {
		t.Errorf("WriteOOB error = %v, want simulated", err)
	}
	if err := d.MarkBad(8192); !errors.Is(err, errSimulated) {
		t.Errorf("MarkBad error = %v, want simulated", err)
	}
	if _, err := d.IsBad(16384); !errors.Is(err, errSimulated) {
		t.Errorf("IsBad error = %v, want simulated", err)
	}

	// Injected failures persist.
	if err := d.Erase(0); !errors.Is(err, custom) {
		t.Errorf("second Erase error = %v, want %v", err, custom)
	}

	// Other offsets are unaffected.
	if err := d.Erase(8192); err != nil {
		t.Errorf("Erase(8192) failed: %v", err)
	}

	// A failed write must not change the stored bytes.
	if !bytes.Equal(d.ReadPage(2048), bytes.Repeat([]byte{0xFF}, 2048)) {
		t.Errorf("failed write modified the page")
	}
}

func TestMemDeviceOperationLog(t *testing.T) {
	d := NewMemDevice(testGeometry())
	d.SetRawMode(true)
	d.FailPageWrite(4096, nil)

	d.Erase(0)
	d.WritePage(0, make([]byte, 2048))
	d.WriteOOB(0, make([]byte, 64))
	d.WritePage(4096, make([]byte, 2048)) // fails, still recorded
	d.MarkBad(8192)

	if got := d.Erases(); len(got) != 1 || got[0] != 0 {
		t.Errorf("Erases() = %v, want [0]", got)
	}
	if got := d.PageWrites(); len(got) != 2 || got[0] != 0 || got[1] != 4096 {
		t.Errorf("PageWrites() = %v, want [0 4096]", got)
	}
	if got := d.OOBWrites(); len(got) != 1 || got[0] != 0 {
		t.Errorf("OOBWrites() = %v, want [0]", got)
	}
	if got := d.Marks(); len(got) != 1 || got[0] != 8192 {
		t.Errorf("Marks() = %v, want [8192]", got)
	}
}
