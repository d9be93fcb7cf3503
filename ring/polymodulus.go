// Package ring implements dense polynomial arithmetic over the quotient
// ring R_q = Z_q[x] / (x^n + 1): schoolbook and fast (NTT, Nussbaumer)
// multiplication, a two-modulus CRT composer used during ciphertext
// multiplication, and the scoped memory arena shared by the scheme layer.
package ring

import (
	"fmt"
	"math/bits"
)

// PolyModulus wraps the cyclotomic polynomial x^n + 1.
type PolyModulus struct {
	n         int
	log2n     int
	isOneZeroOne bool
}

// NewPolyModulus constructs the polynomial modulus x^n + 1. n must be a
// power of two.
func NewPolyModulus(n int) (*PolyModulus, error) {
	if n <= 0 || bits.OnesCount(uint(n)) != 1 {
		return nil, fmt.Errorf("ring: polynomial degree n=%d is not a power of two", n)
	}
	return &PolyModulus{
		n:            n,
		log2n:        bits.TrailingZeros(uint(n)),
		isOneZeroOne: true,
	}, nil
}

// N returns the polynomial degree.
func (pm *PolyModulus) N() int { return pm.n }

// Log2N returns log2(n).
func (pm *PolyModulus) Log2N() int { return pm.log2n }

// IsOneZeroOne reports whether the modulus is the monic "1·x^n + 1" form
// (always true for the NewPolyModulus constructor; kept as a named flag
// since Nussbaumer eligibility is gated on it explicitly rather than
// inferred).
func (pm *PolyModulus) IsOneZeroOne() bool { return pm.isOneZeroOne }
