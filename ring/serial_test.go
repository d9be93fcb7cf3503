package ring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvcore/fv/bigint"
)

func TestPolyMarshalRoundTrip(t *testing.T) {
	original := polyFromUint64s([]uint64{5, 1, 3, 1}, 64)
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	got := &Poly{}
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, uint64sFromPoly(original), uint64sFromPoly(got))
	require.False(t, got.IsNTT)
}

func TestPolyMarshalRoundTripEmpty(t *testing.T) {
	original := NewPoly(0, 64)
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	got := &Poly{}
	require.NoError(t, got.UnmarshalBinary(data))
	require.Empty(t, got.Coeffs)
}

func TestPolyMarshalRejectsMismatchedCoefficientWidths(t *testing.T) {
	p := NewPoly(2, 64)
	p.Coeffs[0] = bigint.NewFromUint64(64, 1)
	p.Coeffs[1] = bigint.NewFromUint64(128, 2)
	_, err := p.MarshalBinary()
	require.Error(t, err)
}

func TestPolyUnmarshalRejectsTruncatedInput(t *testing.T) {
	original := polyFromUint64s([]uint64{5, 1, 3, 1}, 64)
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	got := &Poly{}
	require.Error(t, got.UnmarshalBinary(data[:len(data)-1]))
}
