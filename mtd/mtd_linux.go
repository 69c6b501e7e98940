//go:build linux

package mtd

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MTD ioctl request numbers from <mtd/mtd-abi.h>. MEMWRITEOOB encodes
// the size of a struct holding a pointer; the value here is for 64-bit
// builds.
const (
	memGetInfo     = 0x80204d01 // MEMGETINFO
	memErase       = 0x40084d02 // MEMERASE
	memWriteOOB    = 0xc0104d03 // MEMWRITEOOB
	memGetBadBlock = 0x40084d0b // MEMGETBADBLOCK
	memSetBadBlock = 0x40084d0c // MEMSETBADBLOCK
	mtdFileMode    = 0x00004d13 // MTDFILEMODE
)

// Access modes for the MTDFILEMODE ioctl.
const (
	mtdModeNormal = 0 // MTD_FILE_MODE_NORMAL
	mtdModeRaw    = 3 // MTD_FILE_MODE_RAW
)

// mtdInfoUser mirrors struct mtd_info_user. The type byte is padded to
// 32 bits; the two trailing words are obsolete fields.
type mtdInfoUser struct {
	typ       uint8
	_         [3]uint8
	flags     uint32
	size      uint32
	eraseSize uint32
	writeSize uint32
	oobSize   uint32
	_         [2]uint32
}

// eraseInfoUser mirrors struct erase_info_user.
type eraseInfoUser struct {
	start  uint32
	length uint32
}

// oobBuf mirrors struct mtd_oob_buf.
type oobBuf struct {
	start  uint32
	length uint32
	ptr    *byte
}

// Dev is an MTD partition opened through its character device.
type Dev struct {
	f    *os.File
	info Info
}

// Open opens an MTD character device read-write and queries its
// geometry. A bare mtdX name is expanded to /dev/mtdX.
func Open(path string) (*Dev, error) {
	f, err := os.OpenFile(DevicePath(path), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	d := &Dev{f: f}

	var mi mtdInfoUser
	if err := d.ioctl(memGetInfo, unsafe.Pointer(&mi)); err != nil {
		f.Close()
		return nil, &Error{Op: "get info", Err: err}
	}
	d.info = Info{
		Size:      int64(mi.size),
		EraseSize: int64(mi.eraseSize),
		WriteSize: int64(mi.writeSize),
		OOBSize:   int64(mi.oobSize),
	}
	return d, nil
}

// ioctl issues a pointer-argument request on the device descriptor.
func (d *Dev) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), req, uintptr(arg))
	if errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}

// Info returns the partition geometry read at open time.
func (d *Dev) Info() Info {
	return d.info
}

// Close closes the device file.
func (d *Dev) Close() error {
	return d.f.Close()
}

// SetRawMode switches per-page access between ECC-translated and raw.
// Raw mode makes page writes and MEMWRITEOOB pass bytes through without
// the kernel's own ECC getting in the way.
func (d *Dev) SetRawMode(enable bool) error {
	mode := uintptr(mtdModeNormal)
	if enable {
		mode = mtdModeRaw
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), mtdFileMode, mode)
	if errno != 0 {
		return &Error{Op: "set file mode", Err: os.NewSyscallError("ioctl", errno)}
	}
	return nil
}

// Erase erases one eraseblock.
func (d *Dev) Erase(off int64) error {
	ei := eraseInfoUser{start: uint32(off), length: uint32(d.info.EraseSize)}
	if err := d.ioctl(memErase, unsafe.Pointer(&ei)); err != nil {
		return &Error{Op: "erase", Off: off, Err: err}
	}
	return nil
}

// WritePage writes one page of in-band data at the given offset.
func (d *Dev) WritePage(off int64, page []byte) error {
	if _, err := d.f.WriteAt(page, off); err != nil {
		return &Error{Op: "write page", Off: off, Err: err}
	}
	return nil
}

// WriteOOB writes the out-of-band bytes of the page at the given offset.
func (d *Dev) WriteOOB(off int64, oob []byte) error {
	ob := oobBuf{start: uint32(off), length: uint32(len(oob)), ptr: &oob[0]}
	if err := d.ioctl(memWriteOOB, unsafe.Pointer(&ob)); err != nil {
		return &Error{Op: "write oob", Off: off, Err: err}
	}
	return nil
}

// IsBad reports whether the eraseblock at off is marked bad.
func (d *Dev) IsBad(off int64) (bool, error) {
	loff := off
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), memGetBadBlock, uintptr(unsafe.Pointer(&loff)))
	if errno != 0 {
		return false, &Error{Op: "bad block check", Off: off, Err: os.NewSyscallError("ioctl", errno)}
	}
	return r == 1, nil
}

// MarkBad marks the eraseblock at off bad in the device's bad block
// table.
func (d *Dev) MarkBad(off int64) error {
	loff := off
	if err := d.ioctl(memSetBadBlock, unsafe.Pointer(&loff)); err != nil {
		return &Error{Op: "mark bad", Off: off, Err: err}
	}
	return nil
}
