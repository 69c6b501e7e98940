package nandecc

// Codec generates Reed-Solomon ECC and assembles raw NAND pages in the
// layouts understood by the DaVinci boot ROMs.
//
// The zero value is not usable; construct with NewCodec. A Codec owns
// scratch and staging buffers reused across calls and is not safe for
// concurrent use. The field tables are immutable after construction.
type Codec struct {
	// alpha is the antilog table: alpha[i] = the field element α^i
	alpha [FieldSize]uint32

	// indx is the log table: indx[alpha[i]] = i
	indx [FieldSize]uint32

	// gp holds the generator polynomial coefficients, low degree first;
	// gp[ParitySymbols] is 1
	gp [ParitySymbols + 1]uint32

	// cw is the codeword scratch used by the polynomial long division
	cw [CodewordSymbols]uint32

	// raw is the staging buffer returned by FormatPage
	raw [RawPageSize]byte
}

// NewCodec builds the Galois field tables and the generator polynomial
// for the fixed GF(2^10) code parameters.
func NewCodec() *Codec {
	c := &Codec{}
	c.buildTables()
	c.buildGenPoly()
	return c
}
