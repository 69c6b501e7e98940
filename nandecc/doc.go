// Package nandecc generates software Reed-Solomon ECC for large-page NAND
// flash and assembles the raw page layouts expected by TI DaVinci boot ROMs.
//
// The code operates over GF(2^10) with primitive polynomial x^10 + x^3 + 1,
// producing 8 parity symbols (4 correctable symbol errors) per 512-byte
// subpage. A 2048-byte page is treated as 4 independent subpages.
//
// # Page Layouts
//
// Two on-flash arrangements of a 2112-byte raw page (2048 data + 64 OOB)
// are supported:
//
//	Legacy:    [512 data][6xFF][10 ECC] x 4
//	DM365 RBL: [2048 data][6xFF][10 ECC][6xFF][10 ECC][6xFF][10 ECC][6xFF][10 ECC]
//
// The legacy layout interleaves each subpage with its OOB unit. The DM365
// RBL layout keeps the data contiguous and packs all four OOB units into
// the trailing spare area, which is what the DM365 ROM boot loader reads.
//
// # Usage
//
// Build a Codec once and reuse it for every page:
//
//	codec := nandecc.NewCodec()
//	raw, err := codec.FormatPage(nandecc.LayoutLegacy, page)
//	if err != nil {
//	    return err
//	}
//	// raw[:nandecc.PageSize] is the in-band data,
//	// raw[nandecc.PageSize:] the OOB bytes.
//
// The slice returned by FormatPage aliases an internal staging buffer and
// is only valid until the next FormatPage call. A Codec is not safe for
// concurrent use.
//
// # ECC Packing
//
// Each subpage's eight 10-bit parity symbols are packed four-at-a-time
// into five-byte groups, least significant bits first. The exact bit
// layout is fixed by the boot ROM's ECC reader and must not change.
package nandecc
