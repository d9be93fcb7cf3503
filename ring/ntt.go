package ring

import (
	"fmt"
	"math/bits"

	"github.com/fvcore/fv/bigint"
)

// NTTTable holds the precomputed twiddle factors for a 2n-point negacyclic
// NTT modulo q: the powers psi^j for j in [0,n), stored in bit-reversed
// order as the twiddles of the in-place butterfly network, plus the
// matching inverse powers and the scalar 1/n.
type NTTTable struct {
	n        int
	q        *bigint.Modulus
	psiPow   []*bigint.BigUInt // psi^j, bit-reversed order
	psiInv   []*bigint.BigUInt // psi^-j, bit-reversed order
	nInv     *bigint.BigUInt
}

// NewNTTTable builds the twiddle tables for an n-point negacyclic NTT mod
// q, using the primitive 2n-th root of unity psi.
func NewNTTTable(n int, q *bigint.Modulus, psi *bigint.BigUInt) (*NTTTable, error) {
	if bits.OnesCount(uint(n)) != 1 {
		return nil, fmt.Errorf("ring: NTT size n=%d is not a power of two", n)
	}
	psiInv, ok := bigint.TryInvertUintMod(psi, q)
	if !ok {
		return nil, fmt.Errorf("ring: psi is not invertible mod q")
	}

	psiPow := make([]*bigint.BigUInt, n)
	psiInvPow := make([]*bigint.BigUInt, n)
	cur := bigint.NewFromUint64(q.Q().BitWidth(), 1)
	curInv := bigint.NewFromUint64(q.Q().BitWidth(), 1)
	log2n := bits.TrailingZeros(uint(n))
	for i := 0; i < n; i++ {
		br := bitReverse(i, log2n)
		psiPow[br] = cur.Clone()
		psiInvPow[br] = curInv.Clone()
		cur = bigint.MultiplyUintUintMod(cur, psi, q)
		curInv = bigint.MultiplyUintUintMod(curInv, psiInv, q)
	}

	nBig := bigint.NewFromUint64(q.Q().BitWidth(), uint64(n))
	nInv, ok := bigint.TryInvertUintMod(nBig, q)
	if !ok {
		return nil, fmt.Errorf("ring: n is not invertible mod q")
	}

	return &NTTTable{n: n, q: q, psiPow: psiPow, psiInv: psiInvPow, nInv: nInv}, nil
}

func bitReverse(x, bitLen int) int {
	r := 0
	for i := 0; i < bitLen; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

// Forward performs an in-place negacyclic NTT via the (non-lazy,
// full-Barrett) butterfly network; using the psi powers as twiddles folds
// the x^n = -1 wrap into the transform itself. p's coefficients are
// replaced by their transform.
func (t *NTTTable) Forward(p *Poly) {
	n := t.n
	q := t.q

	work := make([]*bigint.BigUInt, n)
	for j := 0; j < n; j++ {
		work[j] = q.Reduce(p.Coeffs[j])
	}

	cooleyTukey(work, n, q, t.psiPow)

	for i := range p.Coeffs {
		p.Coeffs[i] = work[i]
	}
	p.IsNTT = true
}

// Inverse undoes Forward.
func (t *NTTTable) Inverse(p *Poly) {
	n := t.n
	q := t.q

	work := make([]*bigint.BigUInt, n)
	for i, c := range p.Coeffs {
		work[i] = c.Clone()
	}

	gentlemanSande(work, n, q, t.psiInv)

	for j := 0; j < n; j++ {
		p.Coeffs[j] = bigint.MultiplyUintUintMod(work[j], t.nInv, q)
	}
	p.IsNTT = false
}

func (t *NTTTable) standardOrderPsi() []*bigint.BigUInt {
	log2n := bits.TrailingZeros(uint(t.n))
	out := make([]*bigint.BigUInt, t.n)
	for i := 0; i < t.n; i++ {
		out[i] = t.psiPow[bitReverse(i, log2n)]
	}
	return out
}

func (t *NTTTable) standardOrderPsiInv() []*bigint.BigUInt {
	log2n := bits.TrailingZeros(uint(t.n))
	out := make([]*bigint.BigUInt, t.n)
	for i := 0; i < t.n; i++ {
		out[i] = t.psiInv[bitReverse(i, log2n)]
	}
	return out
}

// cooleyTukey performs an in-place decimation-in-time NTT: input in
// standard order, output in bit-reversed order (matching the Harvey
// butterfly network's access pattern), here implemented with
// full modular reduction at every butterfly rather than lazy/delayed
// reduction, since coefficients are multi-limb BigUInt rather than
// machine words.
func cooleyTukey(a []*bigint.BigUInt, n int, q *bigint.Modulus, rootPow []*bigint.BigUInt) {
	t := n
	for m := 1; m < n; m <<= 1 {
		t >>= 1
		for i := 0; i < m; i++ {
			j1 := 2 * i * t
			j2 := j1 + t - 1
			s := rootPow[m+i]
			for j := j1; j <= j2; j++ {
				u := a[j]
				v := bigint.MultiplyUintUintMod(a[j+t], s, q)
				a[j] = addMod1(u, v, q)
				a[j+t] = subMod1(u, v, q)
			}
		}
	}
}

// gentlemanSande performs the matching in-place inverse NTT: input in
// bit-reversed order, output in standard order.
func gentlemanSande(a []*bigint.BigUInt, n int, q *bigint.Modulus, rootInvPow []*bigint.BigUInt) {
	t := 1
	for m := n; m > 1; m >>= 1 {
		j1 := 0
		h := m >> 1
		for i := 0; i < h; i++ {
			j2 := j1 + t - 1
			s := rootInvPow[h+i]
			for j := j1; j <= j2; j++ {
				u := a[j]
				v := a[j+t]
				a[j] = addMod1(u, v, q)
				diff := subMod1(u, v, q)
				a[j+t] = bigint.MultiplyUintUintMod(diff, s, q)
			}
			j1 += 2 * t
		}
		t <<= 1
	}
}

func addMod1(a, b *bigint.BigUInt, q *bigint.Modulus) *bigint.BigUInt {
	width := q.Q().BitWidth() + 1
	sum := bigint.New(width)
	bigint.Add(sum, a, b)
	return q.Reduce(sum)
}

func subMod1(a, b *bigint.BigUInt, q *bigint.Modulus) *bigint.BigUInt {
	qq := q.Q()
	width := qq.BitWidth()
	if bigint.Compare(a, b) >= 0 {
		d := bigint.New(width)
		bigint.Sub(d, a, b)
		return d
	}
	t := bigint.New(width + 1)
	bigint.Add(t, a, qq)
	d := bigint.New(width)
	bigint.Sub(d, t, b)
	return d
}
