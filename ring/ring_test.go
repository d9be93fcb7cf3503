package ring

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/fvcore/fv/bigint"
)

func polyFromUint64s(vs []uint64, width int) *Poly {
	p := NewPoly(len(vs), width)
	for i, v := range vs {
		p.Coeffs[i] = bigint.NewFromUint64(width, v)
	}
	return p
}

func uint64sFromPoly(p *Poly) []uint64 {
	out := make([]uint64, len(p.Coeffs))
	for i, c := range p.Coeffs {
		out[i] = c.Limbs()[0]
	}
	return out
}

func TestSchoolbookVsNussbaumer(t *testing.T) {
	// S3: (x^3+3x^2+x+5)*(2x^3+7x+7) mod (x^4+1) mod 27.
	pm, err := NewPolyModulus(4)
	require.NoError(t, err)
	m, err := bigint.NewModulus(bigint.NewFromUint64(64, 27))
	require.NoError(t, err)

	a := polyFromUint64s([]uint64{5, 1, 3, 1}, 64)
	b := polyFromUint64s([]uint64{7, 7, 0, 2}, 64)

	// a*b (ordinary polynomial product) = 2x^6+6x^5+9x^4+38x^3+28x^2+42x+35;
	// folding x^4=-1 gives (35-9) + (42-6)x + (28-2)x^2 + 38x^3, reduced mod 27.
	schoolbook := NewPoly(4, 64)
	MulSchoolbook(schoolbook, a, b, pm, m)
	require.Equal(t, []uint64{26, 9, 26, 11}, uint64sFromPoly(schoolbook))

	nuss := NewPoly(4, 64)
	Nussbaumer(nuss, a, b, pm, m)
	if diff := cmp.Diff(uint64sFromPoly(schoolbook), uint64sFromPoly(nuss)); diff != "" {
		t.Fatalf("Nussbaumer mismatch vs schoolbook (-want +got):\n%s", diff)
	}
}

func TestNTTRoundTrip(t *testing.T) {
	// S6: q=17, n=4.
	q := bigint.NewFromUint64(64, 17)
	m, err := bigint.NewModulus(q)
	require.NoError(t, err)

	psi, ok := bigint.TryPrimitiveRoot(8, m)
	require.True(t, ok)

	table, err := NewNTTTable(4, m, psi)
	require.NoError(t, err)

	a := polyFromUint64s([]uint64{5, 1, 3, 2}, 64)
	back := a.CopyNew()
	table.Forward(back)
	table.Inverse(back)
	require.Equal(t, uint64sFromPoly(a), uint64sFromPoly(back))
}

func TestNTTMultiplyMatchesSchoolbook(t *testing.T) {
	// S6 concrete vector: (5+x+3x^2+2x^3)*(7+7x+2x^3) mod (x^4+1) mod 17
	// -> 2 + 2x + 7x^2 + 11x^3.
	pm, err := NewPolyModulus(4)
	require.NoError(t, err)
	q := bigint.NewFromUint64(64, 17)
	m, err := bigint.NewModulus(q)
	require.NoError(t, err)

	a := polyFromUint64s([]uint64{5, 1, 3, 2}, 64)
	b := polyFromUint64s([]uint64{7, 7, 0, 2}, 64)

	want := NewPoly(4, 64)
	MulSchoolbook(want, a, b, pm, m)
	require.Equal(t, []uint64{2, 2, 7, 11}, uint64sFromPoly(want))

	psi, ok := bigint.TryPrimitiveRoot(8, m)
	require.True(t, ok)
	table, err := NewNTTTable(4, m, psi)
	require.NoError(t, err)

	aT, bT := a.CopyNew(), b.CopyNew()
	table.Forward(aT)
	table.Forward(bT)
	prodT := NewPoly(4, 64)
	DyadicMul(prodT, aT, bT, m)
	table.Inverse(prodT)

	require.Equal(t, uint64sFromPoly(want), uint64sFromPoly(prodT))
}

func TestCRTComposerRoundTrip(t *testing.T) {
	q, err := bigint.NewModulus(bigint.NewFromUint64(64, 97))
	require.NoError(t, err)
	qp, err := bigint.NewModulus(bigint.NewFromUint64(64, 101))
	require.NoError(t, err)
	composer, err := NewCRTComposer(q, qp)
	require.NoError(t, err)

	x := bigint.NewFromUint64(32, 12345)
	xModQ := q.Reduce(x)
	xModQp := qp.Reduce(x)

	composed := composer.Compose(xModQ, xModQp)
	require.Equal(t, uint64(12345)%(97*101), composed.Limbs()[0])
}

func TestCrossMultiply(t *testing.T) {
	pm, err := NewPolyModulus(4)
	require.NoError(t, err)
	m, err := bigint.NewModulus(bigint.NewFromUint64(64, 27))
	require.NoError(t, err)

	a := polyFromUint64s([]uint64{5, 1, 3, 1}, 64)
	b := polyFromUint64s([]uint64{7, 7, 0, 2}, 64)

	aa, bb, ab := CrossMultiply(a, b, pm, m)

	wantAA := NewPoly(4, 64)
	MulSchoolbook(wantAA, a, a, pm, m)
	wantBB := NewPoly(4, 64)
	MulSchoolbook(wantBB, b, b, pm, m)
	wantAB := NewPoly(4, 64)
	MulSchoolbook(wantAB, a, b, pm, m)

	require.Equal(t, uint64sFromPoly(wantAA), uint64sFromPoly(aa))
	require.Equal(t, uint64sFromPoly(wantBB), uint64sFromPoly(bb))
	require.Equal(t, uint64sFromPoly(wantAB), uint64sFromPoly(ab))
}
