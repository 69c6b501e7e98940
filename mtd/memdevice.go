package mtd

import (
	"errors"
	"fmt"
)

// errSimulated backs injected failures registered without a specific
// error value.
var errSimulated = errors.New("simulated failure")

// errNotRaw is returned by MemDevice.WriteOOB when raw mode is off.
var errNotRaw = errors.New("raw mode required")

// MemDevice simulates an MTD NAND partition in memory. It implements
// Device with NAND-like semantics: erased bytes read 0xFF, programming
// can only clear bits, OOB writes require raw mode, and blocks can be
// marked bad. Failures are injectable per offset so callers can
// exercise their bad block handling.
//
// Every erase, page write, OOB write and bad-block marking attempt is
// recorded, so tests can assert exactly which offsets were touched.
// MemDevice is not safe for concurrent use.
type MemDevice struct {
	info Info
	data []byte
	oob  []byte
	bad  map[int64]bool
	raw  bool

	failErase map[int64]error
	failWrite map[int64]error
	failOOB   map[int64]error
	failMark  map[int64]error
	failIsBad map[int64]error

	erases     []int64
	pageWrites []int64
	oobWrites  []int64
	marks      []int64
}

// NewMemDevice creates a fully erased simulated partition with the
// given geometry. Panics if the geometry is not internally consistent;
// simulated geometry is chosen by the test, so a bad one is a bug.
func NewMemDevice(info Info) *MemDevice {
	switch {
	case info.WriteSize <= 0 || info.OOBSize <= 0:
		panic(fmt.Sprintf("mtd: invalid page geometry %+v", info))
	case info.EraseSize <= 0 || info.EraseSize%info.WriteSize != 0:
		panic(fmt.Sprintf("mtd: eraseblock size %d not a multiple of page size %d", info.EraseSize, info.WriteSize))
	case info.Size <= 0 || info.Size%info.EraseSize != 0:
		panic(fmt.Sprintf("mtd: partition size %d not a multiple of eraseblock size %d", info.Size, info.EraseSize))
	}

	d := &MemDevice{
		info:      info,
		data:      make([]byte, info.Size),
		oob:       make([]byte, info.Size/info.WriteSize*info.OOBSize),
		bad:       make(map[int64]bool),
		failErase: make(map[int64]error),
		failWrite: make(map[int64]error),
		failOOB:   make(map[int64]error),
		failMark:  make(map[int64]error),
		failIsBad: make(map[int64]error),
	}
	fill(d.data, 0xFF)
	fill(d.oob, 0xFF)
	return d
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

// Info returns the simulated geometry.
func (d *MemDevice) Info() Info {
	return d.info
}

// SetRawMode switches raw OOB access on or off.
func (d *MemDevice) SetRawMode(enable bool) error {
	d.raw = enable
	return nil
}

// RawMode reports whether raw access is currently enabled.
func (d *MemDevice) RawMode() bool {
	return d.raw
}

// Erase erases one eraseblock: its data and OOB bytes all read 0xFF
// afterwards.
func (d *MemDevice) Erase(off int64) error {
	if err := d.checkBlock("erase", off); err != nil {
		return err
	}
	d.erases = append(d.erases, off)
	if err := d.failErase[off]; err != nil {
		return &Error{Op: "erase", Off: off, Err: err}
	}
	fill(d.data[off:off+d.info.EraseSize], 0xFF)
	first := off / d.info.WriteSize * d.info.OOBSize
	count := d.info.EraseSize / d.info.WriteSize * d.info.OOBSize
	fill(d.oob[first:first+count], 0xFF)
	return nil
}

// WritePage programs one page of in-band data. Like real NAND,
// programming can only clear bits: the stored value is the bitwise AND
// of the existing and the written bytes.
func (d *MemDevice) WritePage(off int64, page []byte) error {
	if err := d.checkPage("write page", off); err != nil {
		return err
	}
	d.pageWrites = append(d.pageWrites, off)
	if int64(len(page)) != d.info.WriteSize {
		return &Error{Op: "write page", Off: off, Err: fmt.Errorf("got %d bytes, want %d", len(page), d.info.WriteSize)}
	}
	if err := d.failWrite[off]; err != nil {
		return &Error{Op: "write page", Off: off, Err: err}
	}
	for i, b := range page {
		d.data[off+int64(i)] &= b
	}
	return nil
}

// WriteOOB programs the out-of-band bytes of one page. Raw mode must be
// enabled first, mirroring how raw MEMWRITEOOB access behaves.
func (d *MemDevice) WriteOOB(off int64, oob []byte) error {
	if err := d.checkPage("write oob", off); err != nil {
		return err
	}
	d.oobWrites = append(d.oobWrites, off)
	if int64(len(oob)) != d.info.OOBSize {
		return &Error{Op: "write oob", Off: off, Err: fmt.Errorf("got %d bytes, want %d", len(oob), d.info.OOBSize)}
	}
	if !d.raw {
		return &Error{Op: "write oob", Off: off, Err: errNotRaw}
	}
	if err := d.failOOB[off]; err != nil {
		return &Error{Op: "write oob", Off: off, Err: err}
	}
	base := off / d.info.WriteSize * d.info.OOBSize
	for i, b := range oob {
		d.oob[base+int64(i)] &= b
	}
	return nil
}

// IsBad reports whether the eraseblock at off is marked bad.
func (d *MemDevice) IsBad(off int64) (bool, error) {
	if err := d.checkBlock("bad block check", off); err != nil {
		return false, err
	}
	if err := d.failIsBad[off]; err != nil {
		return false, &Error{Op: "bad block check", Off: off, Err: err}
	}
	return d.bad[off], nil
}

// MarkBad marks the eraseblock at off bad.
func (d *MemDevice) MarkBad(off int64) error {
	if err := d.checkBlock("mark bad", off); err != nil {
		return err
	}
	d.marks = append(d.marks, off)
	if err := d.failMark[off]; err != nil {
		return &Error{Op: "mark bad", Off: off, Err: err}
	}
	d.bad[off] = true
	return nil
}

func (d *MemDevice) checkBlock(op string, off int64) error {
	if off < 0 || off >= d.info.Size {
		return &Error{Op: op, Off: off, Err: errors.New("offset out of range")}
	}
	if off%d.info.EraseSize != 0 {
		return &Error{Op: op, Off: off, Err: errors.New("offset not eraseblock-aligned")}
	}
	return nil
}

func (d *MemDevice) checkPage(op string, off int64) error {
	if off < 0 || off >= d.info.Size {
		return &Error{Op: op, Off: off, Err: errors.New("offset out of range")}
	}
	if off%d.info.WriteSize != 0 {
		return &Error{Op: op, Off: off, Err: errors.New("offset not page-aligned")}
	}
	return nil
}

// SetBad marks a block bad without recording the operation: a factory
// bad block that exists before the caller runs.
func (d *MemDevice) SetBad(off int64) {
	d.bad[off] = true
}

// FailErase makes Erase of the block at off fail with err, or with a
// generic simulated error if err is nil. The failure is persistent.
func (d *MemDevice) FailErase(off int64, err error) {
	d.failErase[off] = orSimulated(err)
}

// FailPageWrite makes WritePage at off fail. See FailErase.
func (d *MemDevice) FailPageWrite(off int64, err error) {
	d.failWrite[off] = orSimulated(err)
}

// FailOOBWrite makes WriteOOB at off fail. See FailErase.
func (d *MemDevice) FailOOBWrite(off int64, err error) {
	d.failOOB[off] = orSimulated(err)
}

// FailMarkBad makes MarkBad of the block at off fail. See FailErase.
func (d *MemDevice) FailMarkBad(off int64, err error) {
	d.failMark[off] = orSimulated(err)
}

// FailIsBad makes IsBad of the block at off fail. See FailErase.
func (d *MemDevice) FailIsBad(off int64, err error) {
	d.failIsBad[off] = orSimulated(err)
}

func orSimulated(err error) error {
	if err == nil {
		return errSimulated
	}
	return err
}

// ReadPage returns a copy of the in-band bytes of the page at off.
func (d *MemDevice) ReadPage(off int64) []byte {
	if err := d.checkPage("read page", off); err != nil {
		panic(err)
	}
	return append([]byte(nil), d.data[off:off+d.info.WriteSize]...)
}

// ReadOOB returns a copy of the OOB bytes of the page at off.
func (d *MemDevice) ReadOOB(off int64) []byte {
	if err := d.checkPage("read oob", off); err != nil {
		panic(err)
	}
	base := off / d.info.WriteSize * d.info.OOBSize
	return append([]byte(nil), d.oob[base:base+d.info.OOBSize]...)
}

// Erases returns the offsets of every erase attempt, in order.
func (d *MemDevice) Erases() []int64 {
	return append([]int64(nil), d.erases...)
}

// PageWrites returns the offsets of every page write attempt, in order.
func (d *MemDevice) PageWrites() []int64 {
	return append([]int64(nil), d.pageWrites...)
}

// OOBWrites returns the offsets of every OOB write attempt, in order.
func (d *MemDevice) OOBWrites() []int64 {
	return append([]int64(nil), d.oobWrites...)
}

// Marks returns the offsets of every MarkBad attempt, in order.
func (d *MemDevice) Marks() []int64 {
	return append([]int64(nil), d.marks...)
}
