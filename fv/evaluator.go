package fv

import (
	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/ring"
)

// Evaluator performs homomorphic operations on ciphertexts. Multiplication
// goes through a single auxiliary modulus q' wide enough to recover an
// exact product (no RNS modulus chain).
type Evaluator struct {
	params *params.Parameters
	arena  *ring.Arena
}

// NewEvaluator builds an Evaluator using the package-global scratch
// arena.
func NewEvaluator(p *params.Parameters) *Evaluator {
	return &Evaluator{params: p, arena: ring.GlobalArena()}
}

// plainForm returns p converted out of NTT form when necessary; every
// Evaluator operation below builds a fresh destination ciphertext rather
// than mutating its inputs, so aliased call sites (dst passed in as one
// of its own operands) need no extra copy.
func (ev *Evaluator) plainForm(p *ring.Poly) *ring.Poly {
	if !p.IsNTT {
		return p
	}
	back := p.CopyNew()
	ev.params.NTTTable().Inverse(back)
	return back
}

// Add computes dst = c1 + c2, sized max(size1, size2).
func (ev *Evaluator) Add(c1, c2 *Ciphertext) (*Ciphertext, error) {
	p := ev.params
	if err := c1.validate(p, "fv.Add"); err != nil {
		return nil, err
	}
	if err := c2.validate(p, "fv.Add"); err != nil {
		return nil, err
	}
	q := p.CoeffModulus()
	size := max(c1.Size(), c2.Size())
	dst := make([]*ring.Poly, size)
	for i := 0; i < size; i++ {
		a := zeroOrPart(c1, i, p)
		b := zeroOrPart(c2, i, p)
		out := ring.NewPoly(p.N(), q.Q().BitWidth())
		ring.AddMod(out, a, b, q)
		dst[i] = out
	}
	return &Ciphertext{Parts: dst}, nil
}

// Sub computes dst = c1 - c2, sized max(size1, size2).
func (ev *Evaluator) Sub(c1, c2 *Ciphertext) (*Ciphertext, error) {
	p := ev.params
	if err := c1.validate(p, "fv.Sub"); err != nil {
		return nil, err
	}
	if err := c2.validate(p, "fv.Sub"); err != nil {
		return nil, err
	}
	q := p.CoeffModulus()
	size := max(c1.Size(), c2.Size())
	dst := make([]*ring.Poly, size)
	for i := 0; i < size; i++ {
		a := zeroOrPart(c1, i, p)
		b := zeroOrPart(c2, i, p)
		out := ring.NewPoly(p.N(), q.Q().BitWidth())
		ring.SubMod(out, a, b, q)
		dst[i] = out
	}
	return &Ciphertext{Parts: dst}, nil
}

// Negate computes dst = -c1, same size.
func (ev *Evaluator) Negate(c1 *Ciphertext) (*Ciphertext, error) {
	p := ev.params
	if err := c1.validate(p, "fv.Negate"); err != nil {
		return nil, err
	}
	q := p.CoeffModulus()
	dst := make([]*ring.Poly, c1.Size())
	for i, part := range c1.Parts {
		out := ring.NewPoly(p.N(), q.Q().BitWidth())
		ring.NegateMod(out, part, q)
		dst[i] = out
	}
	return &Ciphertext{Parts: dst}, nil
}

func zeroOrPart(ct *Ciphertext, i int, p *params.Parameters) *ring.Poly {
	if i < ct.Size() {
		return ct.Parts[i]
	}
	return ring.NewPoly(p.N(), p.CoeffModulus().Q().BitWidth())
}

// AddPlain computes dst = c1 + lift(plain), same size.
func (ev *Evaluator) AddPlain(c1 *Ciphertext, pt *Plaintext) (*Ciphertext, error) {
	p := ev.params
	if err := c1.validate(p, "fv.AddPlain"); err != nil {
		return nil, err
	}
	q := p.CoeffModulus()
	deltaM := liftPlaintext(p, pt)
	dst := c1.CopyNew()
	c0 := ev.plainForm(dst.Parts[0])
	out := ring.NewPoly(p.N(), q.Q().BitWidth())
	ring.AddMod(out, c0, deltaM, q)
	dst.Parts[0] = out
	return dst, nil
}

// SubPlain computes dst = c1 - lift(plain), same size.
func (ev *Evaluator) SubPlain(c1 *Ciphertext, pt *Plaintext) (*Ciphertext, error) {
	p := ev.params
	if err := c1.validate(p, "fv.SubPlain"); err != nil {
		return nil, err
	}
	q := p.CoeffModulus()
	deltaM := liftPlaintext(p, pt)
	dst := c1.CopyNew()
	c0 := ev.plainForm(dst.Parts[0])
	out := ring.NewPoly(p.N(), q.Q().BitWidth())
	ring.SubMod(out, c0, deltaM, q)
	dst.Parts[0] = out
	return dst, nil
}

// recenterPlain replaces each plaintext coefficient c at or above t's
// upper-half threshold with c - t, held as the residue q - (t - c),
// producing the signed-equivalent residue mod q that a dyadic plaintext
// multiply needs.
func recenterPlain(p *params.Parameters, pt *Plaintext) *ring.Poly {
	q := p.CoeffModulus()
	t := p.PlainModulus().Q()
	width := q.Q().BitWidth()
	threshold := p.UpperHalfThreshold()

	out := ring.NewPoly(p.N(), width)
	for i, c := range pt.Coeffs {
		if bigint.Compare(c, threshold) >= 0 {
			cWide := c.Clone()
			cWide.Resize(width)
			shifted := bigint.New(width)
			tWide := t.Clone()
			tWide.Resize(width)
			bigint.Sub(shifted, cWide, tWide) // wraps to q - (t - c), the negative residue mod q
			out.Coeffs[i] = q.Reduce(wrapToQ(shifted, q.Q()))
		} else {
			cWide := c.Clone()
			cWide.Resize(width)
			out.Coeffs[i] = cWide
		}
	}
	return out
}

func wrapToQ(v, q *bigint.BigUInt) *bigint.BigUInt {
	// v was computed as an unsigned subtraction that underflowed (two's
	// complement wraparound within v's declared width); add q to recover
	// the true non-negative residue representative before reduction.
	width := v.BitWidth()
	qWide := q.Clone()
	qWide.Resize(width)
	out := bigint.New(width)
	bigint.Add(out, v, qWide)
	return out
}

// MultiplyPlain computes dst = c1 * plain, same size, rejecting a zero
// plaintext (a zero multiplier would zero out the ciphertext without
// scaling its noise, silently producing a ciphertext decryption can't
// distinguish from a corrupted one).
func (ev *Evaluator) MultiplyPlain(c1 *Ciphertext, pt *Plaintext) (*Ciphertext, error) {
	p := ev.params
	if err := c1.validate(p, "fv.MultiplyPlain"); err != nil {
		return nil, err
	}
	allZero := true
	for _, c := range pt.Coeffs {
		if !c.IsZero() {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, fverr.New(fverr.InvalidArgument, "fv.MultiplyPlain", "plaintext multiplier must not be zero")
	}

	plainPoly := recenterPlain(p, pt)
	dst := make([]*ring.Poly, c1.Size())
	for i, part := range c1.Parts {
		plainPart := ev.plainForm(part)
		dst[i] = mulModQ(p, plainPart, plainPoly)
	}
	return &Ciphertext{Parts: dst}, nil
}

// max returns the larger of a, b.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Multiply computes dst = c1 * c2 via exact wide-accumulator convolution
// followed by t/q round-and-reduce, growing size to size1+size2-1.
func (ev *Evaluator) Multiply(c1, c2 *Ciphertext) (*Ciphertext, error) {
	p := ev.params
	if err := c1.validate(p, "fv.Multiply"); err != nil {
		return nil, err
	}
	if err := c2.validate(p, "fv.Multiply"); err != nil {
		return nil, err
	}
	outSize := c1.Size() + c2.Size() - 1
	wide := convolveExact(p, ev.arena, c1.Parts, c2.Parts)
	parts := scaleConvolution(p, wide, outSize)
	if p.Qualifiers().EnableNTT {
		table := p.NTTTable()
		for _, part := range parts {
			table.Forward(part)
		}
	}
	return &Ciphertext{Parts: parts}, nil
}

// Square computes dst = c1*c1. It reuses Multiply rather than a
// dedicated aa/ab/bb shortcut; the convolution already visits every
// cross term once.
func (ev *Evaluator) Square(c1 *Ciphertext) (*Ciphertext, error) {
	return ev.Multiply(c1, c1)
}

// Relinearize folds a size-s ciphertext (s > 2) back down to size 2,
// consuming s-2 evaluation keys, one per part beyond index 1.
func (ev *Evaluator) Relinearize(ct *Ciphertext, evk *EvaluationKey) (*Ciphertext, error) {
	p := ev.params
	if err := ct.validate(p, "fv.Relinearize"); err != nil {
		return nil, err
	}
	if ct.Size() == 2 {
		return ct.CopyNew(), nil
	}
	extra := ct.Size() - 2
	if extra > len(evk.Keys) {
		return nil, fverr.New(fverr.LogicError, "fv.Relinearize", "not enough evaluation keys to relinearize this ciphertext size")
	}
	q := p.CoeffModulus()
	n := p.N()
	width := q.Q().BitWidth()
	w := p.DecompositionBitCount()

	c0 := ct.Parts[0].CopyNew()
	c1 := ct.Parts[1].CopyNew()
	for i := 2; i < ct.Size(); i++ {
		sw := evk.Keys[i-2]
		d0, d1 := applySwitchingKey(p, ct.Parts[i], sw, w)
		next0 := ring.NewPoly(n, width)
		ring.AddMod(next0, c0, d0, q)
		c0 = next0
		next1 := ring.NewPoly(n, width)
		ring.AddMod(next1, c1, d1, q)
		c1 = next1
	}
	return &Ciphertext{Parts: []*ring.Poly{c0, c1}}, nil
}

// Exponentiate computes ct^e by repeated multiplication, relinearizing
// back to size 2 after every multiply so the ciphertext never grows past
// size 3 mid-computation.
func (ev *Evaluator) Exponentiate(ct *Ciphertext, e int, evk *EvaluationKey) (*Ciphertext, error) {
	if e <= 0 {
		return nil, fverr.New(fverr.InvalidArgument, "fv.Exponentiate", "exponent must be positive")
	}
	result := ct.CopyNew()
	for i := 1; i < e; i++ {
		prod, err := ev.Multiply(result, ct)
		if err != nil {
			return nil, err
		}
		result, err = ev.Relinearize(prod, evk)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// TransformToNTT returns a copy of ct with every part converted into NTT
// (evaluation) form, for use with MultiplyPlainNTT; ct is left unchanged.
func (ev *Evaluator) TransformToNTT(ct *Ciphertext) (*Ciphertext, error) {
	p := ev.params
	if err := ct.validate(p, "fv.TransformToNTT"); err != nil {
		return nil, err
	}
	if !p.Qualifiers().EnableNTT {
		return nil, fverr.New(fverr.LogicError, "fv.TransformToNTT", "parameters do not support the NTT back-end")
	}
	dst := ct.CopyNew()
	table := p.NTTTable()
	for _, part := range dst.Parts {
		if !part.IsNTT {
			table.Forward(part)
		}
	}
	return dst, nil
}

// TransformFromNTT returns a copy of ct with every part converted out of
// NTT form; ct is left unchanged.
func (ev *Evaluator) TransformFromNTT(ct *Ciphertext) (*Ciphertext, error) {
	p := ev.params
	if err := ct.validate(p, "fv.TransformFromNTT"); err != nil {
		return nil, err
	}
	dst := ct.CopyNew()
	table := p.NTTTable()
	for _, part := range dst.Parts {
		if part.IsNTT {
			table.Inverse(part)
		}
	}
	return dst, nil
}

// MultiplyPlainNTT computes dst = c1 * plain using a pointwise product in
// the NTT domain, requiring c1 already transformed (via TransformToNTT).
func (ev *Evaluator) MultiplyPlainNTT(c1 *Ciphertext, pt *Plaintext) (*Ciphertext, error) {
	p := ev.params
	if err := c1.validate(p, "fv.MultiplyPlainNTT"); err != nil {
		return nil, err
	}
	if !p.Qualifiers().EnableNTT {
		return nil, fverr.New(fverr.LogicError, "fv.MultiplyPlainNTT", "parameters do not support the NTT back-end")
	}
	q := p.CoeffModulus()
	table := p.NTTTable()
	plainPoly := recenterPlain(p, pt)
	table.Forward(plainPoly)

	dst := make([]*ring.Poly, c1.Size())
	for i, part := range c1.Parts {
		if !part.IsNTT {
			return nil, fverr.New(fverr.InvalidArgument, "fv.MultiplyPlainNTT", "ciphertext is not in NTT form")
		}
		out := ring.NewPoly(p.N(), q.Q().BitWidth())
		ring.DyadicMul(out, part, plainPoly, q)
		out.IsNTT = true
		dst[i] = out
	}
	return &Ciphertext{Parts: dst}, nil
}

// RotateRows applies the Galois automorphism x -> x^(gk.GaloisElement)
// to ct and key-switches the result back onto the original secret key.
// Batching-aware slot rotation is out of scope; this implements only the
// underlying automorphism + key-switch mechanic.
func (ev *Evaluator) RotateRows(ct *Ciphertext, gk *GaloisKey) (*Ciphertext, error) {
	return ev.applyGaloisKey(ct, gk)
}

// RotateColumns applies the conjugation automorphism (galois element
// 2n-1) and key-switches back.
func (ev *Evaluator) RotateColumns(ct *Ciphertext, gk *GaloisKey) (*Ciphertext, error) {
	if gk.GaloisElement != 2*uint64(ev.params.N())-1 {
		return nil, fverr.New(fverr.InvalidArgument, "fv.RotateColumns", "galois key does not encode the conjugation automorphism")
	}
	return ev.applyGaloisKey(ct, gk)
}

func (ev *Evaluator) applyGaloisKey(ct *Ciphertext, gk *GaloisKey) (*Ciphertext, error) {
	p := ev.params
	if err := ct.validate(p, "fv.applyGaloisKey"); err != nil {
		return nil, err
	}
	if ct.Size() != 2 {
		return nil, fverr.New(fverr.InvalidArgument, "fv.applyGaloisKey", "galois rotation requires a size-2 ciphertext")
	}
	q := p.CoeffModulus()
	n := p.N()
	width := q.Q().BitWidth()
	w := p.DecompositionBitCount()

	c0Rot := applyGalois(p, plainOf(p, ct.Parts[0]), gk.GaloisElement)
	c1Rot := applyGalois(p, plainOf(p, ct.Parts[1]), gk.GaloisElement)

	d0, d1 := applySwitchingKey(p, c1Rot, gk.Key, w)
	outC0 := ring.NewPoly(n, width)
	ring.AddMod(outC0, c0Rot, d0, q)

	return &Ciphertext{Parts: []*ring.Poly{outC0, d1}}, nil
}
