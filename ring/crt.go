package ring

import (
	"fmt"

	"github.com/fvcore/fv/bigint"
)

// CRTComposer recombines a residue mod q and a residue mod q' into a
// single integer mod q*q', using the two-modulus Chinese Remainder
// Theorem. This is the auxiliary-modulus machinery used during ciphertext
// multiplication to recover an exact product before reducing back mod q.
type CRTComposer struct {
	q, qp   *bigint.Modulus
	qInvModQp *bigint.BigUInt // q^-1 mod q'
	qpInvModQ *bigint.BigUInt // q'^-1 mod q (unused directly but kept for symmetry/debugging)
	qTimesQp  *bigint.BigUInt
}

// NewCRTComposer builds a composer for the coprime pair (q, q'). q*q'
// must be large enough to hold the exact product the caller intends to
// decompose; that sizing is the caller's responsibility.
func NewCRTComposer(q, qp *bigint.Modulus) (*CRTComposer, error) {
	qInvModQp, ok := bigint.TryInvertUintMod(q.Q(), qp)
	if !ok {
		return nil, fmt.Errorf("ring: q is not invertible mod q' (moduli not coprime)")
	}
	qpInvModQ, ok := bigint.TryInvertUintMod(qp.Q(), q)
	if !ok {
		return nil, fmt.Errorf("ring: q' is not invertible mod q (moduli not coprime)")
	}
	width := q.Q().BitWidth() + qp.Q().BitWidth()
	prod := bigint.New(width)
	bigint.MultiplyUintUint(prod, q.Q(), qp.Q())
	return &CRTComposer{q: q, qp: qp, qInvModQp: qInvModQp, qpInvModQ: qpInvModQ, qTimesQp: prod}, nil
}

// Modulus returns q*q', the composite modulus.
func (c *CRTComposer) Modulus() *bigint.BigUInt { return c.qTimesQp }

// Compose recombines (xModQ, xModQp) into x mod q*q' via the two-term
// CRT formula:
//
//	x = xModQ + q*((xModQp - xModQ)*(q^-1 mod q') mod q')
//
// which is the incremental (Garner) form, avoiding a product as large as
// (q*q')^2 in intermediate terms.
func (c *CRTComposer) Compose(xModQ, xModQp *bigint.BigUInt) *bigint.BigUInt {
	width := c.qTimesQp.BitWidth()

	diff := bigint.New(c.qp.Q().BitWidth())
	xq := bigint.New(c.qp.Q().BitWidth())
	xq.Set(xModQ)
	for bigint.Compare(xq, c.qp.Q()) >= 0 {
		bigint.Sub(xq, xq, c.qp.Q())
	}
	if bigint.Compare(xModQp, xq) >= 0 {
		bigint.Sub(diff, xModQp, xq)
	} else {
		t := bigint.New(c.qp.Q().BitWidth() + 1)
		bigint.Add(t, xModQp, c.qp.Q())
		bigint.Sub(diff, t, xq)
	}

	h := bigint.MultiplyUintUintMod(diff, c.qInvModQp, c.qp)

	out := bigint.New(width)
	qWide := bigint.New(width)
	qWide.Set(c.q.Q())
	hWide := bigint.New(width)
	hWide.Set(h)
	prod := bigint.New(width)
	bigint.MultiplyUintUint(prod, qWide, hWide)
	bigint.Add(out, prod, xModQ)
	return out
}

// Decompose returns (x mod q, x mod q') for an already-composed x.
func (c *CRTComposer) Decompose(x *bigint.BigUInt) (xModQ, xModQp *bigint.BigUInt) {
	return c.q.Reduce(x), c.qp.Reduce(x)
}
