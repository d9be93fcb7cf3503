package params

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvcore/fv/bigint"
)

func smallParams(t *testing.T) *Parameters {
	t.Helper()
	// n=4, q=17 (S6: a 2n-th root of unity exists for n=4), t=8.
	p, err := NewBuilder().
		SetPolyModulus(4).
		SetCoeffModulus(bigint.NewFromUint64(64, 17), nil).
		SetPlainModulus(bigint.NewFromUint64(64, 8)).
		Build()
	require.NoError(t, err)
	return p
}

func TestBuilderProducesValidParameters(t *testing.T) {
	p := smallParams(t)
	require.Equal(t, 4, p.N())
	require.True(t, p.Qualifiers().EnableNTT)
	require.True(t, p.Qualifiers().Valid())
	require.NotNil(t, p.NTTTable())
}

func TestDeltaAndUpperHalf(t *testing.T) {
	p := smallParams(t)
	// delta = floor(17/8) = 2, upper_half_increment = 17 mod 8 = 1.
	require.Equal(t, uint64(2), p.Delta().Limbs()[0])
	require.Equal(t, uint64(1), p.UpperHalfIncrement().Limbs()[0])
	// upper half threshold = (8+1)/2 = 4 (integer division).
	require.Equal(t, uint64(4), p.UpperHalfThreshold().Limbs()[0])
}

func TestHashStableAndEqual(t *testing.T) {
	p1 := smallParams(t)
	p2 := smallParams(t)
	require.Equal(t, p1.Hash(), p2.Hash())
	require.True(t, p1.Equal(p2))
}

func TestHashChangesWithParameters(t *testing.T) {
	p1 := smallParams(t)
	p2, err := NewBuilder().
		SetPolyModulus(4).
		SetCoeffModulus(bigint.NewFromUint64(64, 17), nil).
		SetPlainModulus(bigint.NewFromUint64(64, 4)). // different t
		Build()
	require.NoError(t, err)
	require.NotEqual(t, p1.Hash(), p2.Hash())
	require.False(t, p1.Equal(p2))
}

func TestRejectsNonCoprimeModuli(t *testing.T) {
	_, err := NewBuilder().
		SetPolyModulus(4).
		SetCoeffModulus(bigint.NewFromUint64(64, 16), nil). // q=16, t=8: gcd=8
		SetPlainModulus(bigint.NewFromUint64(64, 8)).
		Build()
	require.Error(t, err)
}
