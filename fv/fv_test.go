package fv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/params"
)

// smallFVParams builds a Nussbaumer-backed parameter set (no NTT-friendly
// prime required): n=8, t=16, q a large odd modulus giving ample headroom
// above t^2*n for a handful of homomorphic operations.
func smallFVParams(t *testing.T) *params.Parameters {
	t.Helper()
	q := bigint.NewFromUint64(64, (1<<40)+7) // odd, coprime to t=16
	p, err := params.NewBuilder().
		SetPolyModulus(8).
		SetCoeffModulus(q, nil).
		SetPlainModulus(bigint.NewFromUint64(64, 16)).
		SetDecompositionBitCount(8).
		Build()
	require.NoError(t, err)
	require.False(t, p.Qualifiers().EnableNTT)
	require.True(t, p.Qualifiers().EnableNussbaumer)
	return p
}

func plaintextFrom(t *testing.T, p *params.Parameters, vs ...uint64) *Plaintext {
	t.Helper()
	pt, err := NewPlaintextFromUint64s(p, vs)
	require.NoError(t, err)
	return pt
}

func genKeys(t *testing.T, p *params.Parameters) (*SecretKey, *PublicKey, *EvaluationKey) {
	t.Helper()
	kg := NewKeyGenerator(p)
	sk, err := kg.GenSecretKey()
	require.NoError(t, err)
	pk, err := kg.GenPublicKey()
	require.NoError(t, err)
	evk, err := kg.GenEvaluationKeys(p.DecompositionBitCount(), 1)
	require.NoError(t, err)
	return sk, pk, evk
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	p := smallFVParams(t)
	sk, pk, _ := genKeys(t, p)

	enc := NewEncryptor(p, pk)
	dec := NewDecryptor(p, sk)

	pt := plaintextFrom(t, p, 3, 7, 0, 15, 1, 1, 1, 1)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)
	require.Equal(t, 2, ct.Size())

	got, err := dec.Decrypt(ct)
	require.NoError(t, err)
	require.Equal(t, pt.Uint64s(), got.Uint64s())
}

func TestInvariantNoiseBudgetPositive(t *testing.T) {
	p := smallFVParams(t)
	sk, pk, _ := genKeys(t, p)
	enc := NewEncryptor(p, pk)
	dec := NewDecryptor(p, sk)

	pt := plaintextFrom(t, p, 5, 0, 0, 0, 0, 0, 0, 0)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)

	budget, err := dec.InvariantNoiseBudget(ct)
	require.NoError(t, err)
	require.Greater(t, budget, 0)
}

func TestAddHomomorphic(t *testing.T) {
	p := smallFVParams(t)
	sk, pk, _ := genKeys(t, p)
	enc := NewEncryptor(p, pk)
	dec := NewDecryptor(p, sk)
	ev := NewEvaluator(p)

	a := plaintextFrom(t, p, 3, 7, 0, 15, 1, 1, 1, 1)
	b := plaintextFrom(t, p, 9, 2, 0, 1, 0, 0, 0, 0)
	ca, err := enc.Encrypt(a)
	require.NoError(t, err)
	cb, err := enc.Encrypt(b)
	require.NoError(t, err)

	sum, err := ev.Add(ca, cb)
	require.NoError(t, err)
	got, err := dec.Decrypt(sum)
	require.NoError(t, err)

	want := make([]uint64, p.N())
	for i := range want {
		want[i] = (a.Uint64s()[i] + b.Uint64s()[i]) % 16
	}
	require.Equal(t, want, got.Uint64s())
}

func TestSubHomomorphic(t *testing.T) {
	p := smallFVParams(t)
	sk, pk, _ := genKeys(t, p)
	enc := NewEncryptor(p, pk)
	dec := NewDecryptor(p, sk)
	ev := NewEvaluator(p)

	a := plaintextFrom(t, p, 3, 7, 0, 15, 1, 1, 1, 1)
	b := plaintextFrom(t, p, 9, 2, 0, 1, 0, 0, 0, 0)
	ca, err := enc.Encrypt(a)
	require.NoError(t, err)
	cb, err := enc.Encrypt(b)
	require.NoError(t, err)

	diff, err := ev.Sub(ca, cb)
	require.NoError(t, err)
	got, err := dec.Decrypt(diff)
	require.NoError(t, err)

	want := make([]uint64, p.N())
	for i := range want {
		want[i] = ((a.Uint64s()[i] + 16 - b.Uint64s()[i]) % 16)
	}
	require.Equal(t, want, got.Uint64s())
}

func TestMultiplyPlainByConstant(t *testing.T) {
	p := smallFVParams(t)
	sk, pk, _ := genKeys(t, p)
	enc := NewEncryptor(p, pk)
	dec := NewDecryptor(p, sk)
	ev := NewEvaluator(p)

	a := plaintextFrom(t, p, 3, 7, 0, 15, 1, 2, 5, 9)
	c := plaintextFrom(t, p, 3) // constant multiplier (degree-0 polynomial)
	ca, err := enc.Encrypt(a)
	require.NoError(t, err)

	prod, err := ev.MultiplyPlain(ca, c)
	require.NoError(t, err)
	got, err := dec.Decrypt(prod)
	require.NoError(t, err)

	want := make([]uint64, p.N())
	for i := range want {
		want[i] = (a.Uint64s()[i] * 3) % 16
	}
	require.Equal(t, want, got.Uint64s())
}

func TestMultiplyPlainRejectsZero(t *testing.T) {
	p := smallFVParams(t)
	_, pk, _ := genKeys(t, p)
	enc := NewEncryptor(p, pk)
	ev := NewEvaluator(p)

	a := plaintextFrom(t, p, 1, 2, 3)
	ca, err := enc.Encrypt(a)
	require.NoError(t, err)

	zero := NewPlaintext(p)
	_, err = ev.MultiplyPlain(ca, zero)
	require.Error(t, err)
}

func TestMultiplyAndRelinearize(t *testing.T) {
	p := smallFVParams(t)
	sk, pk, evk := genKeys(t, p)
	enc := NewEncryptor(p, pk)
	dec := NewDecryptor(p, sk)
	ev := NewEvaluator(p)

	a := plaintextFrom(t, p, 1, 1, 0, 0, 0, 0, 0, 0)
	b := plaintextFrom(t, p, 1, 1, 0, 0, 0, 0, 0, 0)
	ca, err := enc.Encrypt(a)
	require.NoError(t, err)
	cb, err := enc.Encrypt(b)
	require.NoError(t, err)

	prod, err := ev.Multiply(ca, cb)
	require.NoError(t, err)
	require.Equal(t, 3, prod.Size())

	relin, err := ev.Relinearize(prod, evk)
	require.NoError(t, err)
	require.Equal(t, 2, relin.Size())

	got, err := dec.Decrypt(relin)
	require.NoError(t, err)

	// (1 + x) * (1 + x) = 1 + 2x + x^2, no negacyclic wrap since n=8.
	want := []uint64{1, 2, 1, 0, 0, 0, 0, 0}
	require.Equal(t, want, got.Uint64s())
}

func TestGaloisRotationPreservesStructure(t *testing.T) {
	p := smallFVParams(t)
	kg := NewKeyGenerator(p)
	_, err := kg.GenSecretKey()
	require.NoError(t, err)
	pk, err := kg.GenPublicKey()
	require.NoError(t, err)
	gk, err := kg.GenGaloisKey(p.DecompositionBitCount(), 2*uint64(p.N())-1)
	require.NoError(t, err)

	enc := NewEncryptor(p, pk)
	ev := NewEvaluator(p)

	pt := plaintextFrom(t, p, 1, 2, 3, 4, 5, 6, 7, 8)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)

	rotated, err := ev.RotateColumns(ct, gk)
	require.NoError(t, err)
	require.Equal(t, 2, rotated.Size())
	require.Equal(t, p.N(), rotated.Parts[0].N())
}

func TestSignedCoeffsRecentersUpperHalf(t *testing.T) {
	p := smallFVParams(t)
	pt := plaintextFrom(t, p, 0, 7, 8, 15)
	signed := pt.SignedCoeffs(p)
	require.Equal(t, []int64{0, 7, -8, -1, 0, 0, 0, 0}, signed)
}
