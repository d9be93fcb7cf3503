package bigint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddSub(t *testing.T) {
	a := NewFromUint64(128, 18446744073709551615) // 2^64-1
	b := NewFromUint64(128, 1)
	dst := New(128)
	carry := Add(dst, a, b)
	require.Zero(t, carry)
	require.Equal(t, uint64(0), dst.limbs[0])
	require.Equal(t, uint64(1), dst.limbs[1])

	back := New(128)
	borrow := Sub(back, dst, b)
	require.Zero(t, borrow)
	require.Zero(t, Compare(back, a))
}

func TestMultiplyUintUint(t *testing.T) {
	a := NewFromUint64(64, 123456789)
	b := NewFromUint64(64, 987654321)
	dst := New(128)
	MultiplyUintUint(dst, a, b)
	want := uint64(123456789) * uint64(987654321)
	require.Equal(t, want, dst.limbs[0])
	require.Zero(t, dst.limbs[1])
}

func TestShifts(t *testing.T) {
	a := NewFromUint64(128, 1)
	dst := New(128)
	ShiftLeft(dst, a, 70)
	require.Equal(t, uint64(0), dst.limbs[0])
	require.Equal(t, uint64(1)<<6, dst.limbs[1])

	back := New(128)
	ShiftRight(back, dst, 70)
	require.Zero(t, Compare(back, a))
}

func TestModuloUintInplaceTooFewLimbs(t *testing.T) {
	q := NewFromUint64(128, 97)
	m, err := NewModulus(q)
	require.NoError(t, err)

	x := NewFromUint64(32, 5) // declared width smaller than q's
	err = ModuloUintInplace(x, m)
	require.Error(t, err)
}

func TestModuloUintInplaceNoOpWhenSmaller(t *testing.T) {
	q := NewFromUint64(64, 97)
	m, err := NewModulus(q)
	require.NoError(t, err)

	x := NewFromUint64(64, 5)
	require.NoError(t, ModuloUintInplace(x, m))
	require.Equal(t, uint64(5), x.limbs[0])
}

func TestModulusShapes(t *testing.T) {
	pow2, err := NewModulus(NewFromUint64(64, 1<<16))
	require.NoError(t, err)
	require.Equal(t, ShapePow2, pow2.Shape())

	pow2m1, err := NewModulus(NewFromUint64(64, (1<<17)-1))
	require.NoError(t, err)
	require.Equal(t, ShapePow2M1, pow2m1.Shape())

	generic, err := NewModulus(NewFromUint64(64, 65537))
	require.NoError(t, err)
	require.Equal(t, ShapeGeneric, generic.Shape())
}

func TestBarrettReduceMatchesNaive(t *testing.T) {
	q := NewFromUint64(64, 65537)
	m, err := NewModulus(q)
	require.NoError(t, err)

	for _, v := range []uint64{0, 1, 65536, 65537, 65538, 12345678901234} {
		x := NewFromUint64(128, v)
		r := m.Reduce(x)
		require.Equal(t, v%65537, r.limbs[0])
	}
}

func TestTryInvertUintMod(t *testing.T) {
	// S4: try_invert_uint_mod(2, 5) -> (true, 3).
	q := NewFromUint64(64, 5)
	m, err := NewModulus(q)
	require.NoError(t, err)
	y, ok := TryInvertUintMod(NewFromUint64(64, 2), m)
	require.True(t, ok)
	require.Equal(t, uint64(3), y.limbs[0])

	// gcd(4, 6) = 2, not invertible.
	q2 := NewFromUint64(64, 6)
	m2, err := NewModulus(q2)
	require.NoError(t, err)
	_, ok = TryInvertUintMod(NewFromUint64(64, 4), m2)
	require.False(t, ok)
}

func TestTryInvertUintModRoundTrip(t *testing.T) {
	q := NewFromUint64(64, 65537)
	m, err := NewModulus(q)
	require.NoError(t, err)
	for _, v := range []uint64{1, 2, 3, 1000, 65536} {
		y, ok := TryInvertUintMod(NewFromUint64(64, v), m)
		require.True(t, ok)
		prod := MultiplyUintUintMod(NewFromUint64(64, v), y, m)
		require.Equal(t, uint64(1), prod.limbs[0])
	}
}

func TestPowUintMod(t *testing.T) {
	q := NewFromUint64(64, 17)
	m, err := NewModulus(q)
	require.NoError(t, err)
	r := PowUintMod(NewFromUint64(64, 3), 4, m) // 3^4 = 81 = 13 mod 17
	require.Equal(t, uint64(13), r.limbs[0])
}

func TestTryPrimitiveRoot(t *testing.T) {
	// q=17 has a primitive 8th root of unity (2n=8, n=4), used in S6.
	q := NewFromUint64(64, 17)
	m, err := NewModulus(q)
	require.NoError(t, err)
	root, ok := TryPrimitiveRoot(8, m)
	require.True(t, ok)
	require.True(t, isOrderExactly(root, 8, m))
}
