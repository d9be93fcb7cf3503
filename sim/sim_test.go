package sim

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/params"
)

func smallSimParams(t *testing.T) *params.Parameters {
	t.Helper()
	q := bigint.NewFromUint64(64, (1<<40)+7)
	p, err := params.NewBuilder().
		SetPolyModulus(8).
		SetCoeffModulus(q, nil).
		SetPlainModulus(bigint.NewFromUint64(64, 16)).
		SetDecompositionBitCount(8).
		Build()
	require.NoError(t, err)
	return p
}

func TestFreshSimulationHasPositiveBudget(t *testing.T) {
	p := smallSimParams(t)
	sm := NewSimulator()

	s, err := sm.Fresh(p, 4, big.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, 2, s.Size())
	require.Greater(t, s.InvariantNoiseBudget(), 0)
}

func TestAddSubSameBoundAndBudgetDecreases(t *testing.T) {
	p := smallSimParams(t)
	sm := NewSimulator()

	a, err := sm.Fresh(p, 4, big.NewInt(7))
	require.NoError(t, err)
	b, err := sm.Fresh(p, 4, big.NewInt(5))
	require.NoError(t, err)

	sum, err := sm.Add(a, b)
	require.NoError(t, err)
	diff, err := sm.Sub(a, b)
	require.NoError(t, err)

	require.Equal(t, sum.InvariantNoiseBudget(), diff.InvariantNoiseBudget())
	require.Less(t, sum.InvariantNoiseBudget(), a.InvariantNoiseBudget())
}

func TestMultiplyThenRelinearizeShrinksSizeAndBudget(t *testing.T) {
	p := smallSimParams(t)
	sm := NewSimulator()

	a, err := sm.Fresh(p, 4, big.NewInt(3))
	require.NoError(t, err)
	b, err := sm.Fresh(p, 4, big.NewInt(3))
	require.NoError(t, err)

	prod, err := sm.Multiply(a, b)
	require.NoError(t, err)
	require.Equal(t, 3, prod.Size())

	relin, err := sm.Relinearize(prod, 2)
	require.NoError(t, err)
	require.Equal(t, 2, relin.Size())
	require.LessOrEqual(t, relin.InvariantNoiseBudget(), prod.InvariantNoiseBudget())
}

// TestChooserSquareSquareFreshSelectsSmallestCandidate is scenario S5:
// chooser with the default table, op = square(square(fresh(1, max=2))),
// gap=10, expects the n=2048 entry.
func TestChooserSquareSquareFreshSelectsSmallestCandidate(t *testing.T) {
	fresh := Fresh(1, big.NewInt(2))
	sq1, err := Square(fresh)
	require.NoError(t, err)
	sq2, err := Square(sq1)
	require.NoError(t, err)

	p, ok, err := SelectParameters([]*ChooserPoly{sq2}, 10, params.DefaultNoiseStandardDeviation, params.DefaultNoiseMaxDeviation, DefaultCandidates())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2048, p.N())

	s, err := Simulate(p, sq2)
	require.NoError(t, err)
	ok2, err := s.Decrypts(10)
	require.NoError(t, err)
	require.True(t, ok2)
}

func TestSelectParametersFailsWhenNoCandidateFits(t *testing.T) {
	fresh := Fresh(4, new(big.Int).Lsh(big.NewInt(1), 200))
	op := fresh
	for i := 0; i < 8; i++ {
		var err error
		op, err = Square(op)
		require.NoError(t, err)
	}

	_, ok, err := SelectParameters([]*ChooserPoly{op}, 10, params.DefaultNoiseStandardDeviation, params.DefaultNoiseMaxDeviation, DefaultCandidates())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestChooserMonotonicityInGap(t *testing.T) {
	fresh := Fresh(1, big.NewInt(2))
	sq1, err := Square(fresh)
	require.NoError(t, err)

	pTight, okTight, err := SelectParameters([]*ChooserPoly{sq1}, 40, params.DefaultNoiseStandardDeviation, params.DefaultNoiseMaxDeviation, DefaultCandidates())
	require.NoError(t, err)
	require.True(t, okTight)

	pLoose, okLoose, err := SelectParameters([]*ChooserPoly{sq1}, 10, params.DefaultNoiseStandardDeviation, params.DefaultNoiseMaxDeviation, DefaultCandidates())
	require.NoError(t, err)
	require.True(t, okLoose)

	require.LessOrEqual(t, pLoose.N(), pTight.N())
}
