package fv

import (
	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/ring"
)

// decomposeDigits splits poly's coefficients into ell base-T digits
// (T = 2^w, low digit first), each returned as its own plain-form
// polynomial.
func decomposeDigits(p *params.Parameters, poly *ring.Poly, w, ell int) []*ring.Poly {
	q := p.CoeffModulus()
	n := p.N()
	width := q.Q().BitWidth()

	plain := plainOf(p, poly)
	digits := make([]*ring.Poly, ell)
	for j := range digits {
		digits[j] = ring.NewPoly(n, width)
	}
	mask := uint64(1)<<uint(w) - 1
	for c := 0; c < n; c++ {
		limbs := append([]uint64(nil), plain.Coeffs[c].Limbs()...)
		for j := 0; j < ell; j++ {
			bitOffset := j * w
			digit := extractBits(limbs, bitOffset, w) & mask
			digits[j].Coeffs[c] = bigint.NewFromUint64(width, digit)
		}
	}
	return digits
}

// extractBits reads a w-bit field starting at bitOffset out of limbs
// (little-endian 64-bit words), zero-extending past the end.
func extractBits(limbs []uint64, bitOffset, w int) uint64 {
	var out uint64
	for b := 0; b < w; b++ {
		bit := bitOffset + b
		limbIdx, off := bit/64, uint(bit%64)
		if limbIdx >= len(limbs) {
			continue
		}
		if (limbs[limbIdx]>>off)&1 == 1 {
			out |= 1 << uint(b)
		}
	}
	return out
}

// applySwitchingKey computes sum_j digits[j]*ek0[j] and sum_j
// digits[j]*ek1[j], the (c0, c1) correction terms a relinearization or
// rotation step adds into the running ciphertext accumulator.
func applySwitchingKey(p *params.Parameters, poly *ring.Poly, sw *SwitchingKey, w int) (c0, c1 *ring.Poly) {
	q := p.CoeffModulus()
	n := p.N()
	width := q.Q().BitWidth()
	ell := len(sw.EK0)

	digits := decomposeDigits(p, poly, w, ell)
	c0 = ring.NewPoly(n, width)
	c1 = ring.NewPoly(n, width)
	for j := 0; j < ell; j++ {
		term0 := mulModQ(p, digits[j], sw.EK0[j])
		term1 := mulModQ(p, digits[j], sw.EK1[j])
		ring.AddMod(c0, c0, term0, q)
		ring.AddMod(c1, c1, term1, q)
	}
	return c0, c1
}
