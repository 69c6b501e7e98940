package mtd

import "strings"

// Info describes the geometry of an MTD partition. All sizes are in
// bytes; Size, EraseSize and WriteSize count in-band bytes only.
type Info struct {
	// Size is the total partition size
	Size int64

	// EraseSize is the size of one eraseblock
	EraseSize int64

	// WriteSize is the size of one page, the smallest writable unit
	WriteSize int64

	// OOBSize is the out-of-band (spare) area size per page
	OOBSize int64
}

// PagesPerBlock returns the number of pages in one eraseblock.
func (i Info) PagesPerBlock() int {
	return int(i.EraseSize / i.WriteSize)
}

// Device is the control surface of a NAND flash partition.
//
// All offsets are absolute byte offsets from the start of the
// partition. Erase and bad-block offsets must be eraseblock-aligned,
// write offsets page-aligned.
type Device interface {
	// Info returns the device geometry.
	Info() Info

	// SetRawMode enables or disables raw access. In raw mode OOB
	// bytes pass through unmodified, which is required whenever the
	// caller generates its own ECC.
	SetRawMode(enable bool) error

	// Erase erases the eraseblock at the given offset.
	Erase(off int64) error

	// WritePage writes one page of in-band data.
	WritePage(off int64, page []byte) error

	// WriteOOB writes the out-of-band bytes of the page at the given
	// offset.
	WriteOOB(off int64, oob []byte) error

	// IsBad reports whether the eraseblock at the given offset is
	// marked bad.
	IsBad(blockOff int64) (bool, error)

	// MarkBad marks the eraseblock at the given offset bad.
	MarkBad(blockOff int64) error
}

// DevicePath normalizes a user-supplied MTD device argument: a bare
// mtdX name is expanded to /dev/mtdX, anything else is returned as is.
func DevicePath(arg string) string {
	if strings.HasPrefix(arg, "mtd") && !strings.ContainsRune(arg, '/') {
		return "/dev/" + arg
	}
	return arg
}
