package fv

import (
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/ring"
)

// applyGalois computes the automorphism x -> x^galoisElt applied to poly,
// reduced modulo x^n+1: out(x) = poly(x^galoisElt). galoisElt must be odd
// (coprime to 2n) for the map to be a bijection on exponents mod 2n.
func applyGalois(p *params.Parameters, poly *ring.Poly, galoisElt uint64) *ring.Poly {
	n := uint64(p.N())
	q := p.CoeffModulus()
	width := q.Q().BitWidth()
	out := ring.NewPoly(int(n), width)
	for i := uint64(0); i < n; i++ {
		idx := (i * galoisElt) % (2 * n)
		c := poly.Coeffs[i]
		if idx >= n {
			out.Coeffs[idx-n] = negateModQ(c, q)
		} else {
			out.Coeffs[idx] = c.Clone()
		}
	}
	return out
}
