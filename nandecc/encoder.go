package nandecc

import "fmt"

// EncodeSubpage computes the Reed-Solomon parity for one 512-byte
// subpage and returns the 10 ECC bytes in NAND stored order.
//
// Returns an error if sub is not exactly SubpageSize bytes long.
func (c *Codec) EncodeSubpage(sub []byte) ([]byte, error) {
	if len(sub) != SubpageSize {
		return nil, fmt.Errorf("subpage must be exactly %d bytes, got %d", SubpageSize, len(sub))
	}
	ecc := make([]byte, ECCBytes)
	c.genSubpageECC(sub, ecc)
	return ecc, nil
}

// genSubpageECC runs the polynomial long division for one subpage and
// packs the remainder into ecc, which must hold at least ECCBytes.
//
// The subpage bytes populate the high coefficients of a degree-519
// codeword polynomial in reversed order, so sub[511] lands just above
// the parity slots. The 8 low slots start zeroed and accumulate the
// remainder.
func (c *Codec) genSubpageECC(sub []byte, ecc []byte) {
	cw := &c.cw
	for i := 0; i < ParitySymbols; i++ {
		cw[i] = 0
	}
	for i := 0; i < DataSymbols; i++ {
		cw[i+ParitySymbols] = uint32(sub[DataSymbols-1-i])
	}

	// Long division by the generator polynomial. Subtraction over the
	// field is XOR, and gp[ParitySymbols] is 1 so the leading term of
	// each step clears exactly.
	for i := CodewordSymbols - 1; i >= ParitySymbols; i-- {
		if cw[i] == 0 {
			continue
		}
		for j := 1; j <= ParitySymbols; j++ {
			cw[i-j] ^= gfMul(cw[i], c.gp[ParitySymbols-j])
		}
		cw[i] = 0
	}

	// The low 8 slots now hold the parity symbols. Pack them as two
	// independent groups of four.
	packParity(cw[0:4], ecc[0:5])
	packParity(cw[4:8], ecc[5:10])
}

// packParity packs four 10-bit symbols into five bytes, low bits first.
// The bit positions are fixed by the boot ROM's ECC reader.
func packParity(sym []uint32, out []byte) {
	out[0] = byte(sym[0])
	out[1] = byte(sym[0]>>8)&0x03 | byte(sym[1]<<2)&0xFC
	out[2] = byte(sym[1]>>6)&0x0F | byte(sym[2]<<4)&0xF0
	out[3] = byte(sym[2]>>4)&0x3F | byte(sym[3]<<6)&0xC0
	out[4] = byte(sym[3] >> 2)
}
