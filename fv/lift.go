package fv

import (
	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/ring"
)

// liftPlaintext computes Delta*m: each coefficient c of the plaintext
// becomes c*delta, with the upper-half increment (q mod t) added when c
// is at or above the upper-half threshold (t+1)/2, so the symbolic
// coefficient is centered for balanced decryption rounding.
func liftPlaintext(p *params.Parameters, pt *Plaintext) *ring.Poly {
	q := p.CoeffModulus()
	width := q.Q().BitWidth()
	n := p.N()
	delta := p.Delta()
	threshold := p.UpperHalfThreshold()
	increment := p.UpperHalfIncrement()

	out := ring.NewPoly(n, width)
	for i := 0; i < n; i++ {
		c := pt.Coeffs[i]
		cWide := c.Clone()
		cWide.Resize(width)

		prod := bigint.New(width)
		deltaWide := delta.Clone()
		deltaWide.Resize(width)
		bigint.MultiplyUintUint(prod, cWide, deltaWide)
		prod.Resize(width)

		if bigint.Compare(cWide, threshold) >= 0 {
			incWide := increment.Clone()
			incWide.Resize(width)
			sum := bigint.New(width)
			bigint.Add(sum, prod, incWide)
			prod = sum
		}
		out.Coeffs[i] = q.Reduce(prod)
	}
	return out
}
