package fv

import (
	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/ring"
)

// Decryptor recovers plaintexts using a fixed secret key, evaluating the
// ciphertext's polynomials at powers of the secret key one term at a time.
type Decryptor struct {
	params *params.Parameters
	sk     *SecretKey
	sPows  []*ring.Poly // s^1, s^2, ... computed lazily, plain (non-NTT) form.
}

// NewDecryptor builds a Decryptor for the given secret key.
func NewDecryptor(p *params.Parameters, sk *SecretKey) *Decryptor {
	return &Decryptor{params: p, sk: sk}
}

func (dec *Decryptor) sPlain() *ring.Poly {
	s := dec.sk.S
	if !s.IsNTT {
		return s
	}
	back := s.CopyNew()
	dec.params.NTTTable().Inverse(back)
	return back
}

// sPow returns s^k (k >= 1) in plain form, computing and caching powers
// as needed. The decryptor computes these itself: no evaluation key is
// required to recover powers of its own secret key.
func (dec *Decryptor) sPow(k int) *ring.Poly {
	if dec.sPows == nil {
		dec.sPows = []*ring.Poly{dec.sPlain()}
	}
	for len(dec.sPows) < k {
		next := mulModQ(dec.params, dec.sPows[len(dec.sPows)-1], dec.sPows[0])
		dec.sPows = append(dec.sPows, next)
	}
	return dec.sPows[k-1]
}

// Decrypt recovers the plaintext underlying ct.
func (dec *Decryptor) Decrypt(ct *Ciphertext) (*Plaintext, error) {
	p := dec.params
	if err := ct.validate(p, "fv.Decrypt"); err != nil {
		return nil, err
	}
	noisy := dec.noisyPlaintext(ct)
	return dec.scaleDown(noisy), nil
}

// noisyPlaintext computes c0 + c1*s + c2*s^2 + ... mod q, the invariant
// noise plus Delta*m term that scaleDown then rounds back to a plaintext.
func (dec *Decryptor) noisyPlaintext(ct *Ciphertext) *ring.Poly {
	p := dec.params
	q := p.CoeffModulus()
	n := p.N()
	width := q.Q().BitWidth()

	acc := ct.Parts[0].CopyNew()
	if acc.IsNTT {
		p.NTTTable().Inverse(acc)
	}
	for i := 1; i < len(ct.Parts); i++ {
		part := ct.Parts[i]
		if part.IsNTT {
			part = part.CopyNew()
			p.NTTTable().Inverse(part)
		}
		term := mulModQ(p, part, dec.sPow(i))
		next := ring.NewPoly(n, width)
		ring.AddMod(next, acc, term, q)
		acc = next
	}
	return acc
}

// scaleDown multiplies by t, divides by q with round-to-nearest
// (ties away from zero), and reduces mod t.
func (dec *Decryptor) scaleDown(noisy *ring.Poly) *Plaintext {
	p := dec.params
	q := p.CoeffModulus().Q()
	t := p.PlainModulus().Q()
	n := p.N()
	tWidth := t.BitWidth()

	tModulus, _ := bigint.NewModulus(t)
	pt := &Plaintext{Coeffs: make([]*bigint.BigUInt, n)}
	for i := 0; i < n; i++ {
		c := noisy.Coeffs[i]
		wide := c.Clone()
		wide.Resize(c.BitWidth() + tWidth)

		scaled := bigint.New(wide.BitWidth())
		tWide := t.Clone()
		tWide.Resize(wide.BitWidth())
		bigint.MultiplyUintUint(scaled, wide, tWide)

		// round to nearest: (scaled + q/2) / q, ties away from zero (all
		// values here are non-negative residues, so "away from zero" is
		// simply "round half up").
		qWide := q.Clone()
		qWide.Resize(scaled.BitWidth())
		half := bigint.New(scaled.BitWidth())
		bigint.ShiftRight(half, qWide, 1)
		numerator := bigint.New(scaled.BitWidth() + 1)
		bigint.Add(numerator, scaled, half)

		quo, rem := bigint.New(numerator.BitWidth()), bigint.New(numerator.BitWidth())
		bigint.DivideUint(quo, rem, numerator, qWide)

		quoT := quo.Clone()
		quoT.Resize(tWidth)
		reduced := tModulus.Reduce(quoT)

		// reduced is already the canonical positive residue mod t; the
		// caller recenters into the signed range on demand (SignedCoeffs).
		pt.Coeffs[i] = reduced
	}
	return pt
}

// InvariantNoiseBudget reports -log2(2||v||inf), where v is the invariant
// noise polynomial (t*(c0+c1*s+...) - Delta*m)/q.
func (dec *Decryptor) InvariantNoiseBudget(ct *Ciphertext) (int, error) {
	p := dec.params
	if err := ct.validate(p, "fv.InvariantNoiseBudget"); err != nil {
		return 0, fverr.Wrap(fverr.InvalidArgument, "fv.InvariantNoiseBudget", err)
	}
	noisy := dec.noisyPlaintext(ct)
	pt := dec.scaleDown(noisy)
	deltaM := liftPlaintext(p, pt)

	q := p.CoeffModulus().Q()
	t := p.PlainModulus().Q()
	n := p.N()

	maxBits := -q.SignificantBitCount()
	for i := 0; i < n; i++ {
		diff := centeredDiff(noisy.Coeffs[i], deltaM.Coeffs[i], q)
		wide := diff.Clone()
		wide.Resize(diff.BitWidth() + t.BitWidth())
		scaled := bigint.New(wide.BitWidth())
		tWide := t.Clone()
		tWide.Resize(wide.BitWidth())
		bigint.MultiplyUintUint(scaled, wide, tWide)
		bits := scaled.SignificantBitCount() - q.SignificantBitCount()
		if bits > maxBits {
			maxBits = bits
		}
	}
	budget := -maxBits - 1
	if budget < 0 {
		budget = 0
	}
	return budget, nil
}

// centeredDiff returns |a - b| represented as a magnitude, choosing
// whichever direction of subtraction (mod q) yields the smaller of the
// two wrap-around distances, approximating the centered (balanced)
// residue used by the noise metric.
func centeredDiff(a, b, q *bigint.BigUInt) *bigint.BigUInt {
	width := q.BitWidth()
	var diff *bigint.BigUInt
	if bigint.Compare(a, b) >= 0 {
		diff = bigint.New(width)
		bigint.Sub(diff, a, b)
	} else {
		diff = bigint.New(width)
		bigint.Sub(diff, b, a)
	}
	complement := bigint.New(width)
	bigint.Sub(complement, q, diff)
	if bigint.Compare(complement, diff) < 0 {
		return complement
	}
	return diff
}
