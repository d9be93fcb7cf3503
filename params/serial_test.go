package params

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvcore/fv/bigint"
)

// smallFVParamsWithAux builds a parameter set carrying an auxiliary
// coefficient modulus, so the serializer's "absent vs present" auxiliary
// modulus branch gets exercised by both round-trip tests.
func smallFVParamsWithAux(t *testing.T) *Parameters {
	t.Helper()
	p, err := NewBuilder().
		SetPolyModulus(4).
		SetCoeffModulus(bigint.NewFromUint64(64, 17), bigint.NewFromUint64(64, 97)).
		SetPlainModulus(bigint.NewFromUint64(64, 8)).
		Build()
	require.NoError(t, err)
	return p
}

func TestParametersMarshalRoundTrip(t *testing.T) {
	p := smallParams(t)
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	got, err := UnmarshalParameters(data)
	require.NoError(t, err)

	require.Equal(t, p.N(), got.N())
	require.Equal(t, p.Hash(), got.Hash())
	require.True(t, p.Equal(got))
}

func TestParametersMarshalRoundTripWithAuxiliaryModulus(t *testing.T) {
	p := smallFVParamsWithAux(t)
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	got, err := UnmarshalParameters(data)
	require.NoError(t, err)
	require.Equal(t, p.Hash(), got.Hash())
}

func TestParametersUnmarshalRejectsTruncatedInput(t *testing.T) {
	p := smallParams(t)
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	_, err = UnmarshalParameters(data[:len(data)-1])
	require.Error(t, err)
}
