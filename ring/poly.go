package ring

import "github.com/fvcore/fv/bigint"

// Poly is a dense polynomial in R_q: an array of n coefficients, each a
// fixed-width bigint.BigUInt reduced modulo q (unless explicitly noted
// otherwise by the caller: coefficients are raw integers, not
// automatically reduced, except where an API names
// a modulus).
type Poly struct {
	Coeffs []*bigint.BigUInt
	IsNTT  bool
}

// NewPoly allocates a zero polynomial with n coefficients of the given
// coefficient bit width.
func NewPoly(n, coeffBitWidth int) *Poly {
	c := make([]*bigint.BigUInt, n)
	for i := range c {
		c[i] = bigint.New(coeffBitWidth)
	}
	return &Poly{Coeffs: c}
}

// N returns the number of coefficients.
func (p *Poly) N() int { return len(p.Coeffs) }

// CopyNew returns a deep copy of p.
func (p *Poly) CopyNew() *Poly {
	c := make([]*bigint.BigUInt, len(p.Coeffs))
	for i, v := range p.Coeffs {
		c[i] = v.Clone()
	}
	return &Poly{Coeffs: c, IsNTT: p.IsNTT}
}

// Copy overwrites the receiver's coefficients with other's.
func (p *Poly) Copy(other *Poly) {
	for i := range p.Coeffs {
		p.Coeffs[i].Set(other.Coeffs[i])
	}
	p.IsNTT = other.IsNTT
}

// Zero resets every coefficient to zero.
func (p *Poly) Zero() {
	for _, c := range p.Coeffs {
		c.SetUint64(0)
	}
}

// Reduce reduces every coefficient of p modulo m, in place.
func (p *Poly) Reduce(m *bigint.Modulus) {
	for i, c := range p.Coeffs {
		p.Coeffs[i] = m.Reduce(c)
	}
}

// AddMod sets dst = a + b mod q, coefficient-wise. All three polynomials
// must share the same degree.
func AddMod(dst, a, b *Poly, m *bigint.Modulus) {
	for i := range dst.Coeffs {
		width := a.Coeffs[i].BitWidth() + 1
		sum := bigint.New(width)
		bigint.Add(sum, a.Coeffs[i], b.Coeffs[i])
		dst.Coeffs[i] = m.Reduce(sum)
	}
}

// SubMod sets dst = a - b mod q, coefficient-wise.
func SubMod(dst, a, b *Poly, m *bigint.Modulus) {
	q := m.Q()
	for i := range dst.Coeffs {
		width := q.BitWidth()
		av, bv := bigint.New(width), bigint.New(width)
		av.Set(a.Coeffs[i])
		bv.Set(b.Coeffs[i])
		if bigint.Compare(av, q) >= 0 {
			av = m.Reduce(av)
		}
		if bigint.Compare(bv, q) >= 0 {
			bv = m.Reduce(bv)
		}
		if bigint.Compare(av, bv) >= 0 {
			diff := bigint.New(width)
			bigint.Sub(diff, av, bv)
			dst.Coeffs[i] = diff
		} else {
			t := bigint.New(width + 1)
			bigint.Add(t, av, q)
			diff := bigint.New(width)
			bigint.Sub(diff, t, bv)
			dst.Coeffs[i] = diff
		}
	}
}

// NegateMod sets dst = -a mod q, coefficient-wise.
func NegateMod(dst, a *Poly, m *bigint.Modulus) {
	q := m.Q()
	zero := bigint.New(q.BitWidth())
	SubMod(dst, &Poly{Coeffs: repeat(zero, len(a.Coeffs))}, a, m)
}

func repeat(v *bigint.BigUInt, n int) []*bigint.BigUInt {
	out := make([]*bigint.BigUInt, n)
	for i := range out {
		out[i] = v.Clone()
	}
	return out
}
