package nandecc

// Galois field parameters for the Reed-Solomon code.
const (
	// FieldPoly is the primitive polynomial x^10 + x^3 + 1 defining GF(2^10)
	FieldPoly = 0x409

	// FieldSize is the number of field elements (2^10)
	FieldSize = 1 << 10

	// PrimElement is the primitive element generating the multiplicative group
	PrimElement = 2

	// MaxCorrectErrors is the symbol error correction strength per subpage (t)
	MaxCorrectErrors = 4

	// ParitySymbols is the number of 10-bit parity symbols per subpage (2t)
	ParitySymbols = 2 * MaxCorrectErrors

	// DataSymbols is the number of data symbols per codeword (K)
	DataSymbols = 512

	// CodewordSymbols is the codeword length in symbols (N = K + 2t)
	CodewordSymbols = DataSymbols + ParitySymbols
)

// NAND geometry constants. Only large-page devices with 2048-byte pages
// and 64-byte OOB are supported; the sizes are fixed by the boot ROMs
// that read these layouts.
const (
	// SubpageSize is the number of data bytes covered by one ECC unit
	SubpageSize = 512

	// SubpagesPerPage is the number of ECC units per page
	SubpagesPerPage = 4

	// PageSize is the in-band page size in bytes
	PageSize = SubpageSize * SubpagesPerPage

	// OOBSize is the out-of-band (spare) area size in bytes
	OOBSize = 64

	// RawPageSize is the full raw page: in-band data plus OOB
	RawPageSize = PageSize + OOBSize

	// RawSubpageSize is one subpage plus its OOB unit, as stored by the
	// legacy interleaved layout
	RawSubpageSize = SubpageSize + OOBUnitSize

	// OOBUnitSize is the per-subpage OOB unit: spare filler plus ECC
	OOBUnitSize = OOBUnitSpare + ECCBytes

	// OOBUnitSpare is the number of 0xFF filler bytes leading each OOB unit
	OOBUnitSpare = 6

	// ECCBytes is the packed ECC size per subpage: eight 10-bit symbols
	// in ten bytes
	ECCBytes = 10
)
