package nandecc

import "fmt"

// Layout selects the on-flash arrangement of page data and OOB bytes.
// The zero value means no layout and is not valid for formatting.
type Layout int

// Supported raw page layouts.
const (
	// LayoutLegacy interleaves each 512-byte subpage with its 16-byte
	// OOB unit: [512 data][6 x 0xFF][10 ECC], repeated four times.
	LayoutLegacy Layout = iota + 1

	// LayoutDM365RBL keeps the 2048 data bytes contiguous and packs the
	// four OOB units into the trailing 64-byte spare area, the layout
	// the DM365 ROM boot loader reads.
	LayoutDM365RBL
)

// String implements fmt.Stringer.
func (l Layout) String() string {
	switch l {
	case LayoutLegacy:
		return "legacy"
	case LayoutDM365RBL:
		return "dm365-rbl"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// FormatPage assembles one raw page from 2048 data bytes: the in-band
// data plus the 64 OOB bytes carrying per-subpage ECC, arranged per the
// selected layout.
//
// The returned slice is RawPageSize long. It aliases the codec's
// staging buffer and is only valid until the next FormatPage call.
// Passing an unknown layout is a programming error and panics.
func (c *Codec) FormatPage(layout Layout, page []byte) ([]byte, error) {
	if len(page) != PageSize {
		return nil, fmt.Errorf("page must be exactly %d bytes, got %d", PageSize, len(page))
	}

	raw := c.raw[:]
	switch layout {
	case LayoutLegacy:
		for n := 0; n < SubpagesPerPage; n++ {
			rawSub := raw[RawSubpageSize*n : RawSubpageSize*(n+1)]
			copy(rawSub, page[SubpageSize*n:SubpageSize*(n+1)])
			oob := rawSub[SubpageSize:]
			for i := 0; i < OOBUnitSpare; i++ {
				oob[i] = 0xFF
			}
			c.genSubpageECC(rawSub[:SubpageSize], oob[OOBUnitSpare:])
		}
	case LayoutDM365RBL:
		copy(raw, page)
		oob := raw[PageSize:]
		for i := range oob {
			oob[i] = 0xFF
		}
		for n := 0; n < SubpagesPerPage; n++ {
			sub := raw[SubpageSize*n : SubpageSize*(n+1)]
			c.genSubpageECC(sub, oob[OOBUnitSize*n+OOBUnitSpare:OOBUnitSize*n+OOBUnitSize])
		}
	default:
		panic(fmt.Sprintf("nandecc: format with invalid layout %d", int(layout)))
	}
	return raw, nil
}
