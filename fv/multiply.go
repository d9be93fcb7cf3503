package fv

import (
	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/ring"
)

// convolveExact returns the exact (unreduced) integer value of
// sum_{i+j=k} a_i * b_j in the negacyclic ring, for every output index k
// in [0, sizeA+sizeB-2]. When the parameters carry a usable auxiliary
// modulus q' (EnableNTTInMultiply), each term is produced via the NTT
// dyadic-product path under both q and q' and recombined with the CRT
// composer; otherwise MulSchoolbookNonModular computes the exact product
// of every (a_i, b_j) pair directly.
func convolveExact(p *params.Parameters, arena *ring.Arena, a, b []*ring.Poly) []*bigint.BigUInt {
	n := p.N()
	outSize := len(a) + len(b) - 1
	q := p.CoeffModulus()

	if p.Qualifiers().EnableNTTInMultiply {
		return convolveViaCRT(p, a, b, outSize)
	}

	pm := p.PolyModulus()
	accWidth := 2*q.Q().BitWidth() + p.PolyModulus().Log2N() + 2
	acc := make([]*bigint.BigUInt, outSize*n)
	for i := range acc {
		acc[i] = bigint.New(accWidth)
	}
	arena.Configure(n, accWidth)
	term := arena.Acquire()
	defer arena.Release(term)
	for i := range a {
		for j := range b {
			k := i + j
			ring.MulSchoolbookNonModular(term, plainOf(p, a[i]), plainOf(p, b[j]), pm, accWidth)
			base := k * n
			for c := 0; c < n; c++ {
				sum := bigint.New(accWidth)
				bigint.Add(sum, acc[base+c], term.Coeffs[c])
				acc[base+c] = sum
			}
		}
	}
	return acc
}

func plainOf(p *params.Parameters, poly *ring.Poly) *ring.Poly {
	if !poly.IsNTT {
		return poly
	}
	back := poly.CopyNew()
	p.NTTTable().Inverse(back)
	return back
}

// convolveViaCRT accumulates, under each of q and q' separately, the
// dyadic NTT product of every (a_i, b_j) pair landing on output index k,
// then recombines the pair of residues with the CRT composer to recover
// the exact wide integer (q*q' sized large enough to hold the true
// convolution sum, per NewCRTComposer's doc). A composed value in the
// upper half of [0, q*q') stands for a negative sum and is returned in
// two's complement, as scaleWideCoeff expects.
func convolveViaCRT(p *params.Parameters, a, b []*ring.Poly, outSize int) []*bigint.BigUInt {
	n := p.N()
	q := p.CoeffModulus()
	qp := p.AuxCoeffModulus()
	tableQ := p.NTTTable()
	tableQp := p.NTTTableAux()
	crt := p.CRTComposer()

	accQ := make([]*ring.Poly, outSize)
	accQp := make([]*ring.Poly, outSize)
	for k := range accQ {
		accQ[k] = ring.NewPoly(n, q.Q().BitWidth())
		accQp[k] = ring.NewPoly(n, qp.Q().BitWidth())
	}

	aQ, bQ := transformAll(a, tableQ, q), transformAll(b, tableQ, q)
	aQp, bQp := transformAll(a, tableQp, qp), transformAll(b, tableQp, qp)

	for i := range a {
		for j := range b {
			k := i + j
			prodQ := ring.NewPoly(n, q.Q().BitWidth())
			ring.DyadicMul(prodQ, aQ[i], bQ[j], q)
			tableQ.Inverse(prodQ)
			ring.AddMod(accQ[k], accQ[k], prodQ, q)

			prodQp := ring.NewPoly(n, qp.Q().BitWidth())
			ring.DyadicMul(prodQp, aQp[i], bQp[j], qp)
			tableQp.Inverse(prodQp)
			ring.AddMod(accQp[k], accQp[k], prodQp, qp)
		}
	}

	qqp := crt.Modulus()
	halfQQp := bigint.New(qqp.BitWidth())
	bigint.ShiftRight(halfQQp, qqp, 1)
	out := make([]*bigint.BigUInt, outSize*n)
	for k := 0; k < outSize; k++ {
		for c := 0; c < n; c++ {
			x := crt.Compose(accQ[k].Coeffs[c], accQp[k].Coeffs[c])
			if bigint.Compare(x, halfQQp) > 0 {
				bigint.Sub(x, x, qqp) // x - q*q', wrapped into two's complement
			}
			out[k*n+c] = x
		}
	}
	return out
}

func transformAll(polys []*ring.Poly, table *ring.NTTTable, m *bigint.Modulus) []*ring.Poly {
	out := make([]*ring.Poly, len(polys))
	for i, p := range polys {
		src := p
		if src.IsNTT {
			src = src.CopyNew()
			table.Inverse(src)
		}
		reduced := src.CopyNew()
		for c, coeff := range reduced.Coeffs {
			reduced.Coeffs[c] = m.Reduce(coeff)
		}
		table.Forward(reduced)
		out[i] = reduced
	}
	return out
}

// scaleConvolution multiplies every exact wide coefficient by t, rounds
// to the nearest multiple of q, and reduces mod q, producing the
// size s1+s2-1 output ciphertext of a multiplication.
func scaleConvolution(p *params.Parameters, wide []*bigint.BigUInt, outSize int) []*ring.Poly {
	n := p.N()
	q := p.CoeffModulus()
	t := p.PlainModulus().Q()
	parts := make([]*ring.Poly, outSize)
	for k := 0; k < outSize; k++ {
		part := ring.NewPoly(n, q.Q().BitWidth())
		for c := 0; c < n; c++ {
			part.Coeffs[c] = scaleWideCoeff(wide[k*n+c], q, t)
		}
		parts[k] = part
	}
	return parts
}

// topBitSet reports whether bit index i (0 = least significant) is set
// in v's limb representation.
func topBitSet(v *bigint.BigUInt, i int) bool {
	limbs := v.Limbs()
	limbIdx, off := i/64, uint(i%64)
	if limbIdx >= len(limbs) {
		return false
	}
	return (limbs[limbIdx]>>off)&1 == 1
}

// scaleWideCoeff interprets raw as a two's-complement value in its own
// bit width (negative iff the top bit is set), multiplies its magnitude
// by t, rounds by q with ties away from zero, and returns the result as
// the canonical non-negative residue mod q, negating through the
// modulus when the original value was negative.
func scaleWideCoeff(raw *bigint.BigUInt, q, t *bigint.Modulus) *bigint.BigUInt {
	width := raw.BitWidth()
	negative := topBitSet(raw, width-1)

	mag := raw
	if negative {
		full := bigint.New(width + 1)
		one := bigint.NewFromUint64(width+1, 1)
		bigint.ShiftLeft(full, one, width)
		rawWide := raw.Clone()
		rawWide.Resize(width + 1)
		diff := bigint.New(width + 1)
		bigint.Sub(diff, full, rawWide)
		diff.Resize(width)
		mag = diff
	}

	tWide := t.Q().Clone()
	tWide.Resize(mag.BitWidth() + t.Q().BitWidth())
	magWide := mag.Clone()
	magWide.Resize(mag.BitWidth() + t.Q().BitWidth())
	scaled := bigint.New(magWide.BitWidth())
	bigint.MultiplyUintUint(scaled, magWide, tWide)

	qWide := q.Q().Clone()
	qWide.Resize(scaled.BitWidth())
	half := bigint.New(scaled.BitWidth())
	bigint.ShiftRight(half, qWide, 1)
	numerator := bigint.New(scaled.BitWidth() + 1)
	bigint.Add(numerator, scaled, half)

	quo, rem := bigint.New(numerator.BitWidth()), bigint.New(numerator.BitWidth())
	bigint.DivideUint(quo, rem, numerator, qWide)

	quoQ := quo.Clone()
	quoQ.Resize(q.Q().BitWidth())
	reduced := q.Reduce(quoQ)
	if !negative {
		return reduced
	}
	return negateModQ(reduced, q)
}

// negateModQ returns q - c (or zero), the canonical residue of -c mod q.
func negateModQ(c *bigint.BigUInt, q *bigint.Modulus) *bigint.BigUInt {
	if c.IsZero() {
		return c.Clone()
	}
	width := q.Q().BitWidth()
	out := bigint.New(width)
	qWide := q.Q().Clone()
	qWide.Resize(width)
	bigint.Sub(out, qWide, c)
	return out
}
