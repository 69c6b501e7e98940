package nandecc

import (
	"fmt"
	"math/bits"
)

// gfOrder returns the bit position of the most significant set bit of x,
// treating x as a polynomial over GF(2). gfOrder(0) is 0.
func gfOrder(x uint32) int {
	if x == 0 {
		return 0
	}
	return bits.Len32(x) - 1
}

// gfMod reduces x modulo y by polynomial long division over GF(2),
// where subtraction is XOR.
func gfMod(x, y uint32) uint32 {
	ordy := gfOrder(y)
	for ordx := gfOrder(x); ordx >= ordy; ordx-- {
		if x&(1<<ordx) != 0 {
			x ^= y << (ordx - ordy)
		}
	}
	return x
}

// gfMul multiplies two field elements: carry-less polynomial product
// reduced modulo the field polynomial.
func gfMul(x, y uint32) uint32 {
	var prod uint32
	for i := 0; i < 16; i++ {
		if x&(1<<i) != 0 {
			prod ^= y << i
		}
	}
	return gfMod(prod, FieldPoly)
}

// buildTables fills the antilog and log tables by repeated multiplication
// with the primitive element. Index 0 of both tables holds 1; because
// alpha^1023 wraps around to 1, the log of 1 reads back as 1023 once the
// loop completes.
func (c *Codec) buildTables() {
	c.alpha[0] = 1
	c.indx[0] = 1
	for i := 1; i < FieldSize; i++ {
		c.alpha[i] = gfMul(c.alpha[i-1], PrimElement)
		c.indx[c.alpha[i]] = uint32(i)
	}
}

// alphaPow returns alpha^i for any non-negative exponent.
func (c *Codec) alphaPow(i int) uint32 {
	return c.alpha[i%(FieldSize-1)]
}

// logOf returns the exponent of a nonzero field element. Zero and
// out-of-range values indicate a bug in the caller.
func (c *Codec) logOf(e uint32) uint32 {
	if e == 0 || e >= FieldSize {
		panic(fmt.Sprintf("nandecc: log of invalid field element %#x", e))
	}
	return c.indx[e]
}

// buildGenPoly computes the generator polynomial as the product of
// (x - alpha^i) for i = 1..2t. The constant coefficient after step i is
// alpha^(1+2+...+i), the product of the roots so far.
func (c *Codec) buildGenPoly() {
	c.gp[0] = 1
	for i := 1; i <= ParitySymbols; i++ {
		c.gp[i] = 1
		for j := i - 1; j > 0; j-- {
			if c.gp[j] != 0 {
				c.gp[j] = c.gp[j-1] ^ gfMul(c.alphaPow(i), c.gp[j])
			} else {
				c.gp[j] = c.gp[j-1]
			}
		}
		c.gp[0] = c.alphaPow(i * (i + 1) / 2)
	}
}
