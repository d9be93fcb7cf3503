package sim

import (
	"math"
	"math/big"

	"github.com/montanaflynn/stats"
	"golang.org/x/exp/slices"

	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/params"
)

// Kind tags a ChooserPoly's operation-history node. A single enum matched
// on during simulate's post-order traversal stands in for what would
// otherwise be one small type per operation.
type Kind int

const (
	KindFresh Kind = iota
	KindPlain
	KindAdd
	KindSub
	KindMul
	KindMulPlain
	KindSquare
	KindRelin
	KindExp
	KindNegate
)

// Computation is one DAG node in a ChooserPoly's operation history. Only
// the fields relevant to Kind are populated; the rest are zero.
type Computation struct {
	Kind     Kind
	Children []*Computation

	FreshMaxCoeffCount int
	FreshMaxAbsValue   *big.Int

	PlainMaxCoeffCount int
	PlainMaxAbsValue   *big.Int

	RelinDestSize int
	Exponent      uint64
}

// ChooserPoly bounds the shape of a plaintext polynomial that a
// (possibly still unencrypted) value could produce after some sequence of
// homomorphic operations, plus the DAG (Comp) recording that sequence so
// a Simulation can later be derived for a concrete Parameters. A plain
// (never-encrypted) operand, one that only ever appears as a plaintext
// multiplier/addend, carries a KindPlain node that Simulate rejects.
type ChooserPoly struct {
	MaxCoeffCount int
	MaxAbsValue   *big.Int
	Comp          *Computation
}

// NewPlainChooserPoly models a plaintext bound (never simulated on its
// own), for use as the plain operand of MultiplyPlain/AddPlain/SubPlain.
func NewPlainChooserPoly(maxCoeffCount int, maxAbsValue *big.Int) *ChooserPoly {
	return &ChooserPoly{MaxCoeffCount: maxCoeffCount, MaxAbsValue: maxAbsValue, Comp: &Computation{Kind: KindPlain}}
}

// Fresh models the ChooserPoly of a freshly encrypted ciphertext.
func Fresh(maxCoeffCount int, maxAbsValue *big.Int) *ChooserPoly {
	return &ChooserPoly{
		MaxCoeffCount: maxCoeffCount,
		MaxAbsValue:   maxAbsValue,
		Comp: &Computation{
			Kind:               KindFresh,
			FreshMaxCoeffCount: maxCoeffCount,
			FreshMaxAbsValue:   maxAbsValue,
		},
	}
}

func validOperand(cp *ChooserPoly, op string) error {
	if cp.Comp == nil || cp.MaxCoeffCount <= 0 {
		return fverr.New(fverr.InvalidArgument, op, "operand is not correctly initialized")
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Add builds the ChooserPoly of a + b.
func Add(a, b *ChooserPoly) (*ChooserPoly, error) {
	if err := validOperand(a, "sim.Add"); err != nil {
		return nil, err
	}
	if err := validOperand(b, "sim.Add"); err != nil {
		return nil, err
	}
	return &ChooserPoly{
		MaxCoeffCount: maxInt(a.MaxCoeffCount, b.MaxCoeffCount),
		MaxAbsValue:   new(big.Int).Add(a.MaxAbsValue, b.MaxAbsValue),
		Comp:          &Computation{Kind: KindAdd, Children: []*Computation{a.Comp, b.Comp}},
	}, nil
}

// Sub builds the ChooserPoly of a - b; bound growth matches Add (worst
// case magnitude also sums).
func Sub(a, b *ChooserPoly) (*ChooserPoly, error) {
	if err := validOperand(a, "sim.Sub"); err != nil {
		return nil, err
	}
	if err := validOperand(b, "sim.Sub"); err != nil {
		return nil, err
	}
	return &ChooserPoly{
		MaxCoeffCount: maxInt(a.MaxCoeffCount, b.MaxCoeffCount),
		MaxAbsValue:   new(big.Int).Add(a.MaxAbsValue, b.MaxAbsValue),
		Comp:          &Computation{Kind: KindSub, Children: []*Computation{a.Comp, b.Comp}},
	}, nil
}

// Multiply builds the ChooserPoly of a * b.
func Multiply(a, b *ChooserPoly) (*ChooserPoly, error) {
	if err := validOperand(a, "sim.Multiply"); err != nil {
		return nil, err
	}
	if err := validOperand(b, "sim.Multiply"); err != nil {
		return nil, err
	}
	comp := &Computation{Kind: KindMul, Children: []*Computation{a.Comp, b.Comp}}
	if a.MaxAbsValue.Sign() == 0 || b.MaxAbsValue.Sign() == 0 {
		return &ChooserPoly{MaxCoeffCount: 1, MaxAbsValue: big.NewInt(0), Comp: comp}, nil
	}
	growthFactor := int64(math.Min(float64(a.MaxCoeffCount), float64(b.MaxCoeffCount)))
	abs := new(big.Int).Mul(a.MaxAbsValue, b.MaxAbsValue)
	abs.Mul(abs, big.NewInt(growthFactor))
	return &ChooserPoly{
		MaxCoeffCount: a.MaxCoeffCount + b.MaxCoeffCount - 1,
		MaxAbsValue:   abs,
		Comp:          comp,
	}, nil
}

// Square is Multiply(a, a).
func Square(a *ChooserPoly) (*ChooserPoly, error) {
	if err := validOperand(a, "sim.Square"); err != nil {
		return nil, err
	}
	prod, err := Multiply(a, a)
	if err != nil {
		return nil, err
	}
	prod.Comp = &Computation{Kind: KindSquare, Children: []*Computation{a.Comp}}
	return prod, nil
}

// MultiplyPlain builds the ChooserPoly of a * plain.
func MultiplyPlain(a *ChooserPoly, maxCoeffCount int, maxAbsValue *big.Int) (*ChooserPoly, error) {
	if err := validOperand(a, "sim.MultiplyPlain"); err != nil {
		return nil, err
	}
	if maxCoeffCount <= 0 {
		return nil, fverr.New(fverr.InvalidArgument, "sim.MultiplyPlain", "plain_max_coeff_count must be positive")
	}
	if maxAbsValue.Sign() == 0 {
		return nil, fverr.New(fverr.InvalidArgument, "sim.MultiplyPlain", "plain_max_abs_value cannot be zero")
	}
	comp := &Computation{
		Kind: KindMulPlain, Children: []*Computation{a.Comp},
		PlainMaxCoeffCount: maxCoeffCount, PlainMaxAbsValue: maxAbsValue,
	}
	if a.MaxAbsValue.Sign() == 0 {
		return &ChooserPoly{MaxCoeffCount: 1, MaxAbsValue: big.NewInt(0), Comp: comp}, nil
	}
	growthFactor := int64(math.Min(float64(a.MaxCoeffCount), float64(maxCoeffCount)))
	abs := new(big.Int).Mul(a.MaxAbsValue, maxAbsValue)
	abs.Mul(abs, big.NewInt(growthFactor))
	return &ChooserPoly{MaxCoeffCount: a.MaxCoeffCount + maxCoeffCount - 1, MaxAbsValue: abs, Comp: comp}, nil
}

func addSubPlainChooser(a *ChooserPoly, maxCoeffCount int, maxAbsValue *big.Int, kind Kind, op string) (*ChooserPoly, error) {
	if err := validOperand(a, op); err != nil {
		return nil, err
	}
	if maxCoeffCount <= 0 {
		return nil, fverr.New(fverr.InvalidArgument, op, "plain_max_coeff_count must be positive")
	}
	comp := &Computation{
		Kind: kind, Children: []*Computation{a.Comp},
		PlainMaxCoeffCount: maxCoeffCount, PlainMaxAbsValue: maxAbsValue,
	}
	switch {
	case maxAbsValue.Sign() == 0:
		return &ChooserPoly{MaxCoeffCount: a.MaxCoeffCount, MaxAbsValue: a.MaxAbsValue, Comp: comp}, nil
	case a.MaxAbsValue.Sign() == 0:
		return &ChooserPoly{MaxCoeffCount: maxCoeffCount, MaxAbsValue: maxAbsValue, Comp: comp}, nil
	default:
		return &ChooserPoly{
			MaxCoeffCount: maxInt(a.MaxCoeffCount, maxCoeffCount),
			MaxAbsValue:   new(big.Int).Add(a.MaxAbsValue, maxAbsValue),
			Comp:          comp,
		}, nil
	}
}

// AddPlain builds the ChooserPoly of a + plain.
func AddPlain(a *ChooserPoly, maxCoeffCount int, maxAbsValue *big.Int) (*ChooserPoly, error) {
	return addSubPlainChooser(a, maxCoeffCount, maxAbsValue, KindAdd, "sim.AddPlain")
}

// SubPlain builds the ChooserPoly of a - plain; bound growth matches
// AddPlain.
func SubPlain(a *ChooserPoly, maxCoeffCount int, maxAbsValue *big.Int) (*ChooserPoly, error) {
	return addSubPlainChooser(a, maxCoeffCount, maxAbsValue, KindSub, "sim.SubPlain")
}

// Relinearize builds the ChooserPoly of relinearizing a down to destSize.
// Bounds are unchanged; only the DAG records the step, since
// relinearization does not touch plaintext size/magnitude.
func Relinearize(a *ChooserPoly, destSize int) (*ChooserPoly, error) {
	if err := validOperand(a, "sim.Relinearize"); err != nil {
		return nil, err
	}
	return &ChooserPoly{
		MaxCoeffCount: a.MaxCoeffCount,
		MaxAbsValue:   a.MaxAbsValue,
		Comp:          &Computation{Kind: KindRelin, Children: []*Computation{a.Comp}, RelinDestSize: destSize},
	}, nil
}

// Negate builds the ChooserPoly of -a; bounds are unchanged.
func Negate(a *ChooserPoly) (*ChooserPoly, error) {
	if err := validOperand(a, "sim.Negate"); err != nil {
		return nil, err
	}
	return &ChooserPoly{
		MaxCoeffCount: a.MaxCoeffCount,
		MaxAbsValue:   a.MaxAbsValue,
		Comp:          &Computation{Kind: KindNegate, Children: []*Computation{a.Comp}},
	}, nil
}

// Exponentiate builds the ChooserPoly of a^e, using the asymptotic
// coefficient-growth approximation k^e * sqrt(6/((k-1)(k+1)*pi*e)), since
// no closed-form bound is known.
func Exponentiate(a *ChooserPoly, e uint64) (*ChooserPoly, error) {
	if err := validOperand(a, "sim.Exponentiate"); err != nil {
		return nil, err
	}
	if e == 0 {
		return nil, fverr.New(fverr.InvalidArgument, "sim.Exponentiate", "exponent cannot be 0")
	}
	comp := &Computation{Kind: KindExp, Children: []*Computation{a.Comp}, Exponent: e}
	if a.MaxAbsValue.Sign() == 0 {
		return &ChooserPoly{MaxCoeffCount: 1, MaxAbsValue: big.NewInt(0), Comp: comp}, nil
	}
	k := float64(a.MaxCoeffCount)
	var growthFactor uint64 = 1
	if k > 1 {
		growthFactor = uint64(math.Pow(k, float64(e)) * math.Sqrt(6/((k-1)*(k+1)*math.Pi*float64(e))))
		if growthFactor == 0 {
			growthFactor = 1
		}
	}
	abs := new(big.Int).Exp(a.MaxAbsValue, big.NewInt(int64(e)), nil)
	abs.Mul(abs, new(big.Int).SetUint64(growthFactor))
	return &ChooserPoly{
		MaxCoeffCount: int(e)*(a.MaxCoeffCount-1) + 1,
		MaxAbsValue:   abs,
		Comp:          comp,
	}, nil
}

// Simulate derives the Simulation that models the worst case of cp's
// entire operation history under p, by a post-order traversal of the DAG.
func Simulate(p *params.Parameters, cp *ChooserPoly) (*Simulation, error) {
	if cp.Comp == nil {
		return nil, fverr.New(fverr.LogicError, "sim.Simulate", "no operation history to simulate")
	}
	sm := NewSimulator()
	return simulateNode(p, sm, cp.Comp)
}

func simulateNode(p *params.Parameters, sm *Simulator, c *Computation) (*Simulation, error) {
	switch c.Kind {
	case KindFresh:
		return sm.Fresh(p, c.FreshMaxCoeffCount, c.FreshMaxAbsValue)
	case KindPlain:
		return nil, fverr.New(fverr.LogicError, "sim.Simulate", "a plaintext-only operand cannot be simulated")
	case KindAdd:
		left, err := simulateNode(p, sm, c.Children[0])
		if err != nil {
			return nil, err
		}
		if len(c.Children) == 1 {
			return sm.AddPlain(left, c.PlainMaxCoeffCount, c.PlainMaxAbsValue)
		}
		right, err := simulateNode(p, sm, c.Children[1])
		if err != nil {
			return nil, err
		}
		return sm.Add(left, right)
	case KindSub:
		left, err := simulateNode(p, sm, c.Children[0])
		if err != nil {
			return nil, err
		}
		if len(c.Children) == 1 {
			return sm.SubPlain(left, c.PlainMaxCoeffCount, c.PlainMaxAbsValue)
		}
		right, err := simulateNode(p, sm, c.Children[1])
		if err != nil {
			return nil, err
		}
		return sm.Sub(left, right)
	case KindMul:
		left, err := simulateNode(p, sm, c.Children[0])
		if err != nil {
			return nil, err
		}
		right, err := simulateNode(p, sm, c.Children[1])
		if err != nil {
			return nil, err
		}
		return sm.Multiply(left, right)
	case KindSquare:
		operand, err := simulateNode(p, sm, c.Children[0])
		if err != nil {
			return nil, err
		}
		return sm.Square(operand)
	case KindMulPlain:
		operand, err := simulateNode(p, sm, c.Children[0])
		if err != nil {
			return nil, err
		}
		return sm.MultiplyPlain(operand, c.PlainMaxCoeffCount, c.PlainMaxAbsValue)
	case KindRelin:
		operand, err := simulateNode(p, sm, c.Children[0])
		if err != nil {
			return nil, err
		}
		return sm.Relinearize(operand, c.RelinDestSize)
	case KindExp:
		operand, err := simulateNode(p, sm, c.Children[0])
		if err != nil {
			return nil, err
		}
		return sm.Exponentiate(operand, c.Exponent)
	case KindNegate:
		operand, err := simulateNode(p, sm, c.Children[0])
		if err != nil {
			return nil, err
		}
		return sm.Negate(operand)
	default:
		return nil, fverr.New(fverr.LogicError, "sim.Simulate", "unrecognized computation kind")
	}
}

// Candidate is one (n, q) entry of a parameter-selection table.
type Candidate struct {
	N int
	Q *bigint.BigUInt
}

func pow2(bitWidth, exp int) *bigint.BigUInt {
	out := bigint.New(bitWidth)
	bigint.ShiftLeft(out, bigint.NewFromUint64(bitWidth, 1), exp)
	return out
}

// DefaultCandidates returns a default parameter-options table spanning
// n=2048 through n=32768, each paired with a coefficient modulus close to
// the largest value still leaving a comfortable security margin at that
// degree: (2048, 2^60-2^14+1), (4096, 2^116-2^18+1), (8192,
// 2^226-2^26+1), (16384, 2^435-2^33+1), (32768, 2^889-2^54-2^53-2^52+1).
func DefaultCandidates() []Candidate {
	mk := func(n, bitWidth int, terms ...[2]int) Candidate {
		// terms are (sign, exponent) pairs folded left to right starting from 0.
		q := bigint.New(bitWidth)
		for _, t := range terms {
			sign, exp := t[0], t[1]
			term := pow2(bitWidth, exp)
			if sign >= 0 {
				sum := bigint.New(bitWidth)
				bigint.Add(sum, q, term)
				q = sum
			} else {
				diff := bigint.New(bitWidth)
				bigint.Sub(diff, q, term)
				q = diff
			}
		}
		return Candidate{N: n, Q: q}
	}
	return []Candidate{
		mk(2048, 64, [2]int{1, 60}, [2]int{-1, 14}, [2]int{1, 0}),
		mk(4096, 128, [2]int{1, 116}, [2]int{-1, 18}, [2]int{1, 0}),
		mk(8192, 256, [2]int{1, 226}, [2]int{-1, 26}, [2]int{1, 0}),
		mk(16384, 448, [2]int{1, 435}, [2]int{-1, 33}, [2]int{1, 0}),
		mk(32768, 896, [2]int{1, 889}, [2]int{-1, 54}, [2]int{-1, 53}, [2]int{-1, 52}, [2]int{1, 0}),
	}
}

// smallestPow2Above returns the smallest power of two strictly greater
// than a value whose bit length is bitCount (i.e. 2^(bitCount-1) <= v <
// 2^bitCount). Restricting the plain modulus to a power of two keeps the
// parameter search simple and matches the table's fixed-size candidates.
// When bitCount is 0 (v == 0) the result is 1.
func smallestPow2Above(bitCount int) *bigint.BigUInt {
	width := bitCount + 2
	return pow2(width, bitCount)
}

// SelectParameters searches table in ascending n for the smallest
// parameter set under which every operand in ops decrypts with at least
// gap bits of spare noise budget. It additionally searches w downward
// from the coefficient modulus's bit count to max(1, ceil(log2 q / 10)),
// refining to the smallest w preserving ell once a working w is found.
// Returns (nil, false, nil) if no candidate works.
func SelectParameters(ops []*ChooserPoly, gap int, sigma, B float64, table []Candidate) (*params.Parameters, bool, error) {
	if gap < 0 {
		return nil, false, fverr.New(fverr.InvalidArgument, "sim.SelectParameters", "budget_gap cannot be negative")
	}
	if len(table) == 0 {
		return nil, false, fverr.New(fverr.InvalidArgument, "sim.SelectParameters", "parameter_options must contain at least one entry")
	}
	if len(ops) == 0 {
		return nil, false, fverr.New(fverr.InvalidArgument, "sim.SelectParameters", "operands cannot be empty")
	}

	largestBitCount, largestCoeffCount := 0, 0
	for _, op := range ops {
		if op.Comp == nil {
			return nil, false, fverr.New(fverr.LogicError, "sim.SelectParameters", "no operation history to simulate")
		}
		if bc := op.MaxAbsValue.BitLen(); bc > largestBitCount {
			largestBitCount = bc
		}
		if op.MaxCoeffCount > largestCoeffCount {
			largestCoeffCount = op.MaxCoeffCount
		}
	}
	plainModulus := smallestPow2Above(largestBitCount)

	sorted := append([]Candidate(nil), table...)
	slices.SortFunc(sorted, func(a, b Candidate) bool { return a.N < b.N })

	for _, cand := range sorted {
		if cand.N <= largestCoeffCount {
			continue
		}
		if bigint.Compare(plainModulus, cand.Q) >= 0 {
			continue
		}

		qBits := cand.Q.SignificantBitCount()
		w := qBits
		p, err := buildCandidateParams(cand, plainModulus, sigma, B, w)
		if err != nil {
			return nil, false, err
		}
		if allDecrypt(p, ops, gap) {
			// No relinearization is needed at the maximal w; the result is
			// built with w = 0, which buildCandidateParams turns into w = 1.
			p, err = buildCandidateParams(cand, plainModulus, sigma, B, 0)
			if err != nil {
				return nil, false, err
			}
			return p, true, nil
		}

		minW := maxInt(1, (qBits+9)/10)
		for w = qBits - 1; w >= minW; w-- {
			p, err = buildCandidateParams(cand, plainModulus, sigma, B, w)
			if err != nil {
				return nil, false, err
			}
			if allDecrypt(p, ops, gap) {
				ell := (qBits + w - 1) / w
				refinedW := (qBits + ell - 1) / ell
				p, err = buildCandidateParams(cand, plainModulus, sigma, B, refinedW)
				if err != nil {
					return nil, false, err
				}
				return p, true, nil
			}
		}
	}
	return nil, false, nil
}

func buildCandidateParams(cand Candidate, plainModulus *bigint.BigUInt, sigma, B float64, w int) (*params.Parameters, error) {
	if w <= 0 {
		w = 1
	}
	return params.NewBuilder().
		SetPolyModulus(cand.N).
		SetCoeffModulus(cand.Q, nil).
		SetPlainModulus(plainModulus).
		SetNoiseStandardDeviation(sigma).
		SetNoiseMaxDeviation(B).
		SetDecompositionBitCount(w).
		Build()
}

func allDecrypt(p *params.Parameters, ops []*ChooserPoly, gap int) bool {
	for _, op := range ops {
		simVal, err := Simulate(p, op)
		if err != nil {
			return false
		}
		ok, err := simVal.Decrypts(gap)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// TailMassSummary reports descriptive statistics (mean, variance) over a
// set of observed invariant-noise-budget samples, a diagnostic for whether
// spare budget is spread across operands or clustered at the gap boundary.
func TailMassSummary(budgets []int) (mean, variance float64, err error) {
	data := make(stats.Float64Data, len(budgets))
	for i, b := range budgets {
		data[i] = float64(b)
	}
	mean, err = data.Mean()
	if err != nil {
		return 0, 0, fverr.Wrap(fverr.InvalidArgument, "sim.TailMassSummary", err)
	}
	variance, err = data.Variance()
	if err != nil {
		return 0, 0, fverr.Wrap(fverr.InvalidArgument, "sim.TailMassSummary", err)
	}
	return mean, variance, nil
}
