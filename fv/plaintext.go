// Package fv implements the FV/BFV scheme layer: key generation,
// encryption, decryption, and homomorphic evaluation over the ring
// engine and parameters defined in ring/params. Ciphertext multiplication
// uses a single coefficient modulus plus an auxiliary modulus rather than
// an RNS chain of many small primes.
package fv

import (
	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/params"
)

// Plaintext is a polynomial in R_t: coefficients in [0, t).
type Plaintext struct {
	Coeffs []*bigint.BigUInt
}

// NewPlaintext allocates a zero plaintext with n coefficients, each of
// the declared bit width of t.
func NewPlaintext(p *params.Parameters) *Plaintext {
	width := p.PlainModulus().Q().BitWidth()
	coeffs := make([]*bigint.BigUInt, p.N())
	for i := range coeffs {
		coeffs[i] = bigint.New(width)
	}
	return &Plaintext{Coeffs: coeffs}
}

// NewPlaintextFromUint64s builds a plaintext from a slice of coefficient
// values (low-degree first), zero-padding or erroring if longer than n.
func NewPlaintextFromUint64s(p *params.Parameters, values []uint64) (*Plaintext, error) {
	if len(values) > p.N() {
		return nil, fverr.New(fverr.OutOfRange, "fv.NewPlaintextFromUint64s", "coefficient count exceeds polynomial modulus degree")
	}
	width := p.PlainModulus().Q().BitWidth()
	pt := NewPlaintext(p)
	for i, v := range values {
		pt.Coeffs[i] = bigint.NewFromUint64(width, v)
	}
	return pt, nil
}

// SignedCoeffs recenters coefficients landing in the upper half [t/2, t)
// by subtracting t, returning the canonical signed representative of
// each coefficient mod t.
func (pt *Plaintext) SignedCoeffs(p *params.Parameters) []int64 {
	t := p.PlainModulus().Q()
	out := make([]int64, len(pt.Coeffs))
	for i, c := range pt.Coeffs {
		v := int64(c.Limbs()[0])
		half := t.Limbs()[0] / 2
		if uint64(v) >= half {
			v -= int64(t.Limbs()[0])
		}
		out[i] = v
	}
	return out
}

// Uint64s returns the plaintext coefficients as a plain uint64 slice
// (valid only when t fits in 64 bits, which holds throughout this
// implementation's parameter sets).
func (pt *Plaintext) Uint64s() []uint64 {
	out := make([]uint64, len(pt.Coeffs))
	for i, c := range pt.Coeffs {
		limbs := c.Limbs()
		if len(limbs) > 0 {
			out[i] = limbs[0]
		}
	}
	return out
}
