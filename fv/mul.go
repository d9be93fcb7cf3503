package fv

import (
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/ring"
)

// mulModQ computes a*b mod (x^n+1, q), dispatching to the NTT path when
// parameters enable it and to Nussbaumer otherwise.
func mulModQ(p *params.Parameters, a, b *ring.Poly) *ring.Poly {
	q := p.CoeffModulus()
	n := p.N()
	dst := ring.NewPoly(n, q.Q().BitWidth())

	if p.Qualifiers().EnableNTT {
		aT, bT := a.CopyNew(), b.CopyNew()
		table := p.NTTTable()
		if !aT.IsNTT {
			table.Forward(aT)
		}
		if !bT.IsNTT {
			table.Forward(bT)
		}
		ring.DyadicMul(dst, aT, bT, q)
		table.Inverse(dst)
		return dst
	}

	ring.Nussbaumer(dst, a, b, p.PolyModulus(), q)
	return dst
}
