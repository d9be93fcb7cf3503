package ring

import "github.com/fvcore/fv/bigint"

// MulSchoolbook computes the negacyclic product dst = a*b mod (x^n+1, q)
// using schoolbook convolution, used for small n and as the reference
// implementation the fast back-ends are checked against in tests.
// Coefficients of a and b are assumed already reduced mod q.
func MulSchoolbook(dst, a, b *Poly, pm *PolyModulus, m *bigint.Modulus) {
	n := pm.N()
	q := m.Q()
	acc := make([]*bigint.BigUInt, n)
	for i := range acc {
		acc[i] = bigint.New(q.BitWidth())
	}
	for i := 0; i < n; i++ {
		if a.Coeffs[i].IsZero() {
			continue
		}
		for j := 0; j < n; j++ {
			if b.Coeffs[j].IsZero() {
				continue
			}
			prod := bigint.MultiplyUintUintMod(a.Coeffs[i], b.Coeffs[j], m)
			k := i + j
			negate := false
			if k >= n {
				k -= n
				negate = true // x^n = -1
			}
			if negate {
				sub := bigint.New(q.BitWidth())
				if bigint.Compare(acc[k], prod) >= 0 {
					bigint.Sub(sub, acc[k], prod)
				} else {
					t := bigint.New(q.BitWidth() + 1)
					bigint.Add(t, acc[k], q)
					bigint.Sub(sub, t, prod)
				}
				acc[k] = sub
			} else {
				sum := bigint.New(q.BitWidth() + 1)
				bigint.Add(sum, acc[k], prod)
				acc[k] = m.Reduce(sum)
			}
		}
	}
	for i := range dst.Coeffs {
		dst.Coeffs[i] = acc[i]
	}
}

// MulSchoolbookNonModular computes the exact (non-modular) negacyclic
// product, leaving each coefficient as an unreduced sum of products wide
// enough to hold it. Used by callers that need the exact integer sum
// before applying their own reduction/rounding (e.g. Nussbaumer's t/q
// scaling step).
func MulSchoolbookNonModular(dst, a, b *Poly, pm *PolyModulus, accBitWidth int) {
	n := pm.N()
	acc := make([]*bigint.BigUInt, n)
	for i := range acc {
		acc[i] = bigint.New(accBitWidth)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			wide := bigint.New(accBitWidth)
			bigint.MultiplyUintUint(wide, a.Coeffs[i], b.Coeffs[j])
			k := i + j
			if k >= n {
				k -= n
				sub := bigint.New(accBitWidth)
				bigint.Sub(sub, acc[k], wide)
				acc[k] = sub
			} else {
				sum := bigint.New(accBitWidth)
				bigint.Add(sum, acc[k], wide)
				acc[k] = sum
			}
		}
	}
	for i := range dst.Coeffs {
		dst.Coeffs[i] = acc[i]
	}
}

// DyadicMul computes dst = a ⊙ b, a coefficient-wise (dyadic) product mod
// q. Used in the NTT domain, where polynomial multiplication reduces to a
// pointwise product.
func DyadicMul(dst, a, b *Poly, m *bigint.Modulus) {
	for i := range dst.Coeffs {
		dst.Coeffs[i] = bigint.MultiplyUintUintMod(a.Coeffs[i], b.Coeffs[i], m)
	}
}
