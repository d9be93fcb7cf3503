// Package sim implements a noise-growth simulator: a Simulation models,
// for an abstract (unencrypted) ciphertext, a multi-precision upper bound
// on its invariant noise together with its size and the parameters it was
// built against, and Simulator exposes the same operation set as
// fv.Evaluator so that existing evaluation code can be replayed against
// simulations instead of real ciphertexts. This lets a parameter set be
// checked for a given computation without ever running the real
// encryption scheme.
package sim

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"

	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/params"
)

// Simulation holds an invariant-noise upper bound scaled by the
// coefficient modulus, the modeled ciphertext's size, and the parameters
// it refers to. Values are immutable; every operation below returns a new
// Simulation.
type Simulation struct {
	params *params.Parameters
	noise  *big.Float
	size   int
}

// Size reports the ciphertext size this Simulation models.
func (s *Simulation) Size() int { return s.size }

// Params reports the parameters this Simulation was built against.
func (s *Simulation) Params() *params.Parameters { return s.params }

// precisionFor picks a big.Float precision generous enough that the
// coefficient modulus and several multiplications of it lose no bits.
func precisionFor(p *params.Parameters) uint {
	return uint(p.CoeffModulus().Q().BitWidth())*2 + 128
}

func newFloat(p *params.Parameters) *big.Float {
	return new(big.Float).SetPrec(precisionFor(p))
}

func toFloat(p *params.Parameters, b *bigint.BigUInt) *big.Float {
	limbs := b.Limbs()
	out := newFloat(p)
	base := newFloat(p).SetMantExp(big.NewFloat(1), 64)
	for i := len(limbs) - 1; i >= 0; i-- {
		out.Mul(out, base)
		out.Add(out, newFloat(p).SetUint64(limbs[i]))
	}
	return out
}

func toBigInt(b *bigint.BigUInt) *big.Int {
	limbs := b.Limbs()
	out := new(big.Int)
	base := new(big.Int).Lsh(big.NewInt(1), 64)
	for i := len(limbs) - 1; i >= 0; i-- {
		out.Mul(out, base)
		out.Add(out, new(big.Int).SetUint64(limbs[i]))
	}
	return out
}

func qFloat(p *params.Parameters) *big.Float { return toFloat(p, p.CoeffModulus().Q()) }
func tFloat(p *params.Parameters) *big.Float { return toFloat(p, p.PlainModulus().Q()) }

// clamp caps noise at q/2: a bound exceeding q/2 marks the modeled
// ciphertext dead rather than overflowing further.
func clamp(p *params.Parameters, noise *big.Float) *big.Float {
	half := new(big.Float).Quo(qFloat(p), newFloat(p).SetInt64(2))
	if noise.Cmp(half) > 0 {
		return half
	}
	return noise
}

func sameParams(a, b *Simulation, op string) error {
	if !a.params.Equal(b.params) {
		return fverr.New(fverr.InvalidArgument, op, "mismatch in encryption parameters")
	}
	return nil
}

func checkSize(s *Simulation, op string) error {
	if s.size < 2 {
		return fverr.New(fverr.InvalidArgument, op, "simulation has invalid ciphertext size")
	}
	return nil
}

// InvariantNoiseBudget returns -log2(2v) in whole bits, clamped to
// [0, coeffModulusBits-1].
func (s *Simulation) InvariantNoiseBudget() int {
	qBits := s.params.CoeffModulus().Q().SignificantBitCount()
	if s.noise.Sign() <= 0 {
		return qBits - 1
	}
	exp := s.noise.MantExp(nil)
	budget := qBits - exp - 1
	if budget < 0 {
		return 0
	}
	return budget
}

// Decrypts reports whether the modeled ciphertext's invariant noise
// budget exceeds gap bits.
func (s *Simulation) Decrypts(gap int) (bool, error) {
	if gap < 0 {
		return false, fverr.New(fverr.InvalidArgument, "sim.Decrypts", "budget_gap cannot be negative")
	}
	return s.InvariantNoiseBudget() > gap, nil
}

// Simulator mirrors fv.Evaluator's operation set, acting on Simulation
// values instead of ciphertexts. It carries no state of its own; a single
// instance may be shared freely.
type Simulator struct{}

// NewSimulator builds a Simulator.
func NewSimulator() *Simulator { return &Simulator{} }

// Fresh builds the Simulation of a freshly encrypted ciphertext, whose
// plaintext has at most maxCoeffCount non-zero coefficients each of
// absolute value at most maxAbsValue.
func (*Simulator) Fresh(p *params.Parameters, maxCoeffCount int, maxAbsValue *big.Int) (*Simulation, error) {
	n := p.N()
	if maxCoeffCount <= 0 || maxCoeffCount > n {
		return nil, fverr.New(fverr.OutOfRange, "sim.Fresh", "plain_max_coeff_count is not in the valid range")
	}
	if maxAbsValue.Sign() == 0 {
		maxCoeffCount = 1
	}

	qOverT := new(big.Int).Div(toBigInt(p.CoeffModulus().Q()), toBigInt(p.PlainModulus().Q()))
	first := new(big.Int).Mul(qOverT, maxAbsValue)
	first.Mul(first, big.NewInt(int64(maxCoeffCount)))

	noise := newFloat(p).SetInt(first)

	minBSigma := math.Min(p.NoiseMaxDeviation(), 6*p.NoiseStandardDeviation())
	second := new(big.Float).Mul(tFloat(p), newFloat(p).SetFloat64(7*minBSigma*float64(n)))
	noise.Add(noise, second)

	return &Simulation{params: p, noise: clamp(p, noise), size: 2}, nil
}

// Negate returns a, unchanged: negation does not affect the noise bound.
func (*Simulator) Negate(a *Simulation) (*Simulation, error) {
	if err := checkSize(a, "sim.Negate"); err != nil {
		return nil, err
	}
	return &Simulation{params: a.params, noise: a.noise, size: a.size}, nil
}

// Add sums two Simulations' noise bounds.
func (*Simulator) Add(a, b *Simulation) (*Simulation, error) {
	if err := sameParams(a, b, "sim.Add"); err != nil {
		return nil, err
	}
	if err := checkSize(a, "sim.Add"); err != nil {
		return nil, err
	}
	if err := checkSize(b, "sim.Add"); err != nil {
		return nil, err
	}
	noise := new(big.Float).Add(a.noise, b.noise)
	size := a.size
	if b.size > size {
		size = b.size
	}
	return &Simulation{params: a.params, noise: clamp(a.params, noise), size: size}, nil
}

// Sub has the same noise growth as Add: subtraction does not cancel
// worst-case noise.
func (sm *Simulator) Sub(a, b *Simulation) (*Simulation, error) {
	return sm.Add(a, b)
}

// AddMany folds Add across every operand.
func (sm *Simulator) AddMany(sims []*Simulation) (*Simulation, error) {
	if len(sims) == 0 {
		return nil, fverr.New(fverr.InvalidArgument, "sim.AddMany", "simulations vector cannot be empty")
	}
	acc := sims[0]
	if err := checkSize(acc, "sim.AddMany"); err != nil {
		return nil, err
	}
	for _, s := range sims[1:] {
		var err error
		acc, err = sm.Add(acc, s)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Multiply models the noise growth of a ciphertext-ciphertext product
// using extended-precision fractional exponents via bigfloat.Pow, since
// (s1+s2-2)/2 need not be an integer.
func (*Simulator) Multiply(a, b *Simulation) (*Simulation, error) {
	if err := sameParams(a, b, "sim.Multiply"); err != nil {
		return nil, err
	}
	if err := checkSize(a, "sim.Multiply"); err != nil {
		return nil, err
	}
	if err := checkSize(b, "sim.Multiply"); err != nil {
		return nil, err
	}
	p := a.params
	n := p.N()

	twelveN := newFloat(p).SetInt64(int64(12 * n))
	base := bigfloat.Sqrt(twelveN)

	exp1 := newFloat(p).SetFloat64(float64(a.size-1) / 2)
	exp2 := newFloat(p).SetFloat64(float64(b.size-1) / 2)
	expTotal := newFloat(p).SetFloat64(float64(a.size+b.size-2) / 2)

	sqrtFactor1 := bigfloat.Pow(base, exp1)
	sqrtFactor2 := bigfloat.Pow(base, exp2)
	sqrtFactorTotal := bigfloat.Pow(base, expTotal)

	threeN := newFloat(p).SetInt64(int64(3 * n))
	leadingFactor := new(big.Float).Mul(tFloat(p), bigfloat.Sqrt(threeN))

	noise := new(big.Float).Mul(b.noise, sqrtFactor1)
	noise.Add(noise, new(big.Float).Mul(a.noise, sqrtFactor2))
	noise.Add(noise, sqrtFactorTotal)
	noise.Mul(noise, leadingFactor)

	return &Simulation{params: p, noise: clamp(p, noise), size: a.size + b.size - 1}, nil
}

// Square is Multiply(a, a).
func (sm *Simulator) Square(a *Simulation) (*Simulation, error) {
	if err := checkSize(a, "sim.Square"); err != nil {
		return nil, err
	}
	return sm.Multiply(a, a)
}

// MultiplyPlain models the noise growth of multiplying by a plaintext
// with at most maxCoeffCount non-zero coefficients of absolute value at
// most maxAbsValue.
func (*Simulator) MultiplyPlain(a *Simulation, maxCoeffCount int, maxAbsValue *big.Int) (*Simulation, error) {
	if err := checkSize(a, "sim.MultiplyPlain"); err != nil {
		return nil, err
	}
	n := a.params.N()
	if maxCoeffCount <= 0 || maxCoeffCount > n {
		return nil, fverr.New(fverr.OutOfRange, "sim.MultiplyPlain", "plain_max_coeff_count is not in the valid range")
	}
	if maxAbsValue.Sign() == 0 {
		return nil, fverr.New(fverr.InvalidArgument, "sim.MultiplyPlain", "plaintext multiplier cannot be zero")
	}
	noise := new(big.Float).Mul(a.noise, newFloat(a.params).SetInt(maxAbsValue))
	noise.Mul(noise, newFloat(a.params).SetInt64(int64(maxCoeffCount)))
	return &Simulation{params: a.params, noise: noise, size: a.size}, nil
}

// addSubPlain implements the shared add_plain/sub_plain noise growth:
// v + (q mod t)*ma*mc.
func addSubPlain(a *Simulation, maxCoeffCount int, maxAbsValue *big.Int, op string) (*Simulation, error) {
	if err := checkSize(a, op); err != nil {
		return nil, err
	}
	n := a.params.N()
	if maxCoeffCount <= 0 || maxCoeffCount > n {
		return nil, fverr.New(fverr.OutOfRange, op, "plain_max_coeff_count is not in the valid range")
	}
	p := a.params
	qInt := toBigInt(p.CoeffModulus().Q())
	tInt := toBigInt(p.PlainModulus().Q())
	rModT := new(big.Int).Mod(qInt, tInt)

	summand := new(big.Int).Mul(rModT, maxAbsValue)
	summand.Mul(summand, big.NewInt(int64(maxCoeffCount)))

	noise := new(big.Float).Add(a.noise, newFloat(p).SetInt(summand))
	return &Simulation{params: p, noise: noise, size: a.size}, nil
}

// AddPlain models the noise growth of adding a plaintext.
func (*Simulator) AddPlain(a *Simulation, maxCoeffCount int, maxAbsValue *big.Int) (*Simulation, error) {
	return addSubPlain(a, maxCoeffCount, maxAbsValue, "sim.AddPlain")
}

// SubPlain has the same noise growth as AddPlain.
func (*Simulator) SubPlain(a *Simulation, maxCoeffCount int, maxAbsValue *big.Int) (*Simulation, error) {
	return addSubPlain(a, maxCoeffCount, maxAbsValue, "sim.SubPlain")
}

// Relinearize models the noise growth of switching a ciphertext back down
// to destSize parts (typically 2, the minimum needed for decryption).
func (*Simulator) Relinearize(a *Simulation, destSize int) (*Simulation, error) {
	if err := checkSize(a, "sim.Relinearize"); err != nil {
		return nil, err
	}
	if destSize < 2 || destSize > a.size {
		return nil, fverr.New(fverr.InvalidArgument, "sim.Relinearize", "cannot relinearize to destination size")
	}
	steps := a.size - destSize
	if steps == 0 {
		return &Simulation{params: a.params, noise: a.noise, size: a.size}, nil
	}
	p := a.params
	w := p.DecompositionBitCount()
	qBits := p.CoeffModulus().Q().SignificantBitCount()
	ell := (qBits + w - 1) / w

	minBSigma := math.Min(p.NoiseMaxDeviation(), 6*p.NoiseStandardDeviation())
	twoToW := newFloat(p).SetMantExp(big.NewFloat(1), w) // T = 2^w
	growth := new(big.Float).Mul(tFloat(p), twoToW)
	growth.Mul(growth, newFloat(p).SetFloat64(2*minBSigma*float64(p.N())*float64(ell+1)*float64(steps)))

	noise := new(big.Float).Add(a.noise, growth)
	return &Simulation{params: p, noise: clamp(p, noise), size: destSize}, nil
}

// Exponentiate repeatedly multiplies-and-relinearizes e copies of a
// together via pairwise tree folding.
func (sm *Simulator) Exponentiate(a *Simulation, e uint64) (*Simulation, error) {
	if err := checkSize(a, "sim.Exponentiate"); err != nil {
		return nil, err
	}
	if e == 0 {
		return nil, fverr.New(fverr.InvalidArgument, "sim.Exponentiate", "exponent cannot be zero")
	}
	if e == 1 {
		return a, nil
	}
	sims := make([]*Simulation, e)
	for i := range sims {
		sims[i] = a
	}
	return sm.multiplyMany(sims)
}

// multiplyMany repeatedly folds adjacent pairs with multiply+relinearize
// until a single Simulation remains.
func (sm *Simulator) multiplyMany(sims []*Simulation) (*Simulation, error) {
	if len(sims) == 0 {
		return nil, fverr.New(fverr.InvalidArgument, "sim.multiplyMany", "simulations vector cannot be empty")
	}
	if len(sims) == 1 {
		return sims[0], nil
	}
	work := append([]*Simulation(nil), sims...)
	for i := 0; i+1 < len(work); i += 2 {
		prod, err := sm.Multiply(work[i], work[i+1])
		if err != nil {
			return nil, err
		}
		relin, err := sm.Relinearize(prod, 2)
		if err != nil {
			return nil, err
		}
		work = append(work, relin)
	}
	return work[len(work)-1], nil
}
