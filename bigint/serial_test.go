package bigint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBigUIntMarshalRoundTrip(t *testing.T) {
	original := NewFromUint64(192, 0xDEADBEEFCAFEBABE)
	data, err := original.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, original.BinarySize())

	got := New(0)
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, 0, Compare(original, got))
	require.Equal(t, original.BitWidth(), got.BitWidth())
}

func TestBigUIntMarshalRoundTripZero(t *testing.T) {
	original := New(64)
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	got := New(0)
	require.NoError(t, got.UnmarshalBinary(data))
	require.True(t, got.IsZero())
}

func TestBigUIntUnmarshalRejectsTruncatedInput(t *testing.T) {
	original := NewFromUint64(128, 7)
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	got := New(0)
	require.Error(t, got.UnmarshalBinary(data[:len(data)-1]))
	require.Error(t, got.UnmarshalBinary(data[:2]))
}
