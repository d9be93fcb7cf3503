package rand

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvcore/fv/bigint"
)

func TestKeyedPRNGDeterministic(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	p1, err := NewKeyedPRNG(key)
	require.NoError(t, err)
	p2, err := NewKeyedPRNG(key)
	require.NoError(t, err)

	buf1, buf2 := make([]byte, 128), make([]byte, 128)
	_, err = p1.Read(buf1)
	require.NoError(t, err)
	_, err = p2.Read(buf2)
	require.NoError(t, err)
	require.Equal(t, buf1, buf2)
}

func TestKeyedPRNGClock(t *testing.T) {
	key := make([]byte, 32)
	p, err := NewKeyedPRNG(key)
	require.NoError(t, err)

	block := make([]byte, blockSize)
	require.NoError(t, p.Clock(block))
	require.Equal(t, uint64(1), p.GetClock())

	p2, err := NewKeyedPRNG(key)
	require.NoError(t, err)
	block2 := make([]byte, blockSize)
	require.NoError(t, p2.SetClock(block2, 0))
	require.Equal(t, block, block2)
}

func TestUniformSamplerInRange(t *testing.T) {
	key := make([]byte, 32)
	prng, err := NewKeyedPRNG(key)
	require.NoError(t, err)

	m, err := bigint.NewModulus(bigint.NewFromUint64(64, 17))
	require.NoError(t, err)
	s := NewUniformSampler(prng, m)

	for i := 0; i < 50; i++ {
		v, err := s.Sample(64)
		require.NoError(t, err)
		require.True(t, bigint.Compare(v, m.Q()) < 0)
	}
}

func TestTernarySamplerValues(t *testing.T) {
	key := make([]byte, 32)
	prng, err := NewKeyedPRNG(key)
	require.NoError(t, err)

	m, err := bigint.NewModulus(bigint.NewFromUint64(64, 17))
	require.NoError(t, err)
	s := NewTernarySampler(prng)

	dst := make([]*bigint.BigUInt, 16)
	require.NoError(t, s.SamplePoly(dst, 16, 64, m))

	qMinus1 := bigint.NewFromUint64(64, 16)
	for _, v := range dst {
		isZero := v.IsZero()
		isOne := bigint.Compare(v, bigint.NewFromUint64(64, 1)) == 0
		isMinusOne := bigint.Compare(v, qMinus1) == 0
		require.True(t, isZero || isOne || isMinusOne)
	}
}

func TestClippedGaussianRespectsBound(t *testing.T) {
	key := make([]byte, 32)
	prng, err := NewKeyedPRNG(key)
	require.NoError(t, err)

	g := NewClippedGaussian(prng, 0, 3.2, 10)
	for i := 0; i < 200; i++ {
		x, err := g.Sample()
		require.NoError(t, err)
		require.True(t, x >= -10 && x <= 10)
	}
}

func TestClippedGaussianTailMass(t *testing.T) {
	g := NewClippedGaussian(nil, 0, 3.2, 6*3.2)
	tail := g.TailMass()
	require.True(t, tail >= 0 && tail < 0.01)
}
