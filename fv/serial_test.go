package fv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCiphertextMarshalRoundTrip(t *testing.T) {
	p := smallFVParams(t)
	sk, pk, _ := genKeys(t, p)
	enc := NewEncryptor(p, pk)
	dec := NewDecryptor(p, sk)

	pt := plaintextFrom(t, p, 3, 7, 0, 15, 1, 1, 1, 1)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)

	data, err := ct.MarshalBinary()
	require.NoError(t, err)

	got := &Ciphertext{}
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, ct.Size(), got.Size())

	decoded, err := dec.Decrypt(got)
	require.NoError(t, err)
	require.Equal(t, pt.Uint64s(), decoded.Uint64s())
}

func TestCiphertextUnmarshalRejectsTruncatedInput(t *testing.T) {
	p := smallFVParams(t)
	_, pk, _ := genKeys(t, p)
	enc := NewEncryptor(p, pk)
	pt := plaintextFrom(t, p, 1, 2, 3, 4, 5, 6, 7, 8)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)

	data, err := ct.MarshalBinary()
	require.NoError(t, err)

	got := &Ciphertext{}
	require.Error(t, got.UnmarshalBinary(data[:len(data)-1]))
}

func TestEvaluationKeyMarshalRoundTrip(t *testing.T) {
	p := smallFVParams(t)
	_, _, evk := genKeys(t, p)

	var hash [32]byte
	for i := range hash {
		hash[i] = byte(i)
	}
	w := p.DecompositionBitCount()

	data, err := evk.MarshalBinary(hash, w)
	require.NoError(t, err)

	got := &EvaluationKey{}
	gotHash, gotW, err := got.UnmarshalBinary(data)
	require.NoError(t, err)
	require.Equal(t, hash, gotHash)
	require.Equal(t, w, gotW)
	require.Len(t, got.Keys, len(evk.Keys))
	for i, sw := range evk.Keys {
		require.Len(t, got.Keys[i].EK0, len(sw.EK0))
		require.Len(t, got.Keys[i].EK1, len(sw.EK1))
		for j := range sw.EK0 {
			require.Equal(t, sw.EK0[j].Coeffs[0].Limbs(), got.Keys[i].EK0[j].Coeffs[0].Limbs())
			require.Equal(t, sw.EK1[j].Coeffs[0].Limbs(), got.Keys[i].EK1[j].Coeffs[0].Limbs())
		}
	}
}
