// Package params implements EncryptionParameters: the immutable bundle of
// (poly modulus, coefficient modulus, auxiliary modulus, plaintext
// modulus, noise parameters, decomposition width) plus the pre-derived
// helpers every other package consumes (delta, upper-half threshold/
// increment, NTT tables).
package params

import (
	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/rand"
)

// Literal is the unchecked, user-facing specification of a parameter set,
// built with the Builder's setters and turned into a validated, immutable
// Parameters by NewParametersFromLiteral.
type Literal struct {
	PolyModulusDegree      int
	CoeffModulus           *bigint.BigUInt
	AuxCoeffModulus        *bigint.BigUInt // nil selects Nussbaumer-only.
	PlainModulus           *bigint.BigUInt
	NoiseStandardDeviation float64
	NoiseMaxDeviation      float64
	DecompositionBitCount  int
	RandomGenerator        rand.PRNG // nil: a fresh rand.NewPRNG generator is created on first use.
}

// DefaultNoiseStandardDeviation is sigma's default.
const DefaultNoiseStandardDeviation = 3.19

// DefaultNoiseMaxDeviation is B's default, the clipped-Gaussian
// rejection bound.
const DefaultNoiseMaxDeviation = 19.14

// Builder assembles a Literal through named setters (SetPolyModulus,
// SetCoeffModulus, ...) rather than a bare struct literal, so partially
// configured parameter sets can be passed around and completed
// incrementally.
type Builder struct {
	lit Literal
}

// NewBuilder starts a Builder with the documented defaults for sigma and
// B.
func NewBuilder() *Builder {
	return &Builder{lit: Literal{
		NoiseStandardDeviation: DefaultNoiseStandardDeviation,
		NoiseMaxDeviation:      DefaultNoiseMaxDeviation,
	}}
}

// SetPolyModulus sets n, the degree of x^n+1.
func (b *Builder) SetPolyModulus(n int) *Builder {
	b.lit.PolyModulusDegree = n
	return b
}

// SetCoeffModulus sets q and, optionally, the auxiliary modulus q' used by
// the NTT ciphertext-multiplication path. Pass nil for aux to rely solely
// on Nussbaumer.
func (b *Builder) SetCoeffModulus(q, aux *bigint.BigUInt) *Builder {
	b.lit.CoeffModulus = q
	b.lit.AuxCoeffModulus = aux
	return b
}

// SetPlainModulus sets t.
func (b *Builder) SetPlainModulus(t *bigint.BigUInt) *Builder {
	b.lit.PlainModulus = t
	return b
}

// SetNoiseStandardDeviation sets sigma.
func (b *Builder) SetNoiseStandardDeviation(sigma float64) *Builder {
	b.lit.NoiseStandardDeviation = sigma
	return b
}

// SetNoiseMaxDeviation sets B, the clipped-Gaussian rejection bound.
func (b *Builder) SetNoiseMaxDeviation(bound float64) *Builder {
	b.lit.NoiseMaxDeviation = bound
	return b
}

// SetDecompositionBitCount sets w, the evaluation-key digit width.
func (b *Builder) SetDecompositionBitCount(w int) *Builder {
	b.lit.DecompositionBitCount = w
	return b
}

// SetRandomGenerator overrides the PRNG backing every sampler drawn from
// these parameters.
func (b *Builder) SetRandomGenerator(p rand.PRNG) *Builder {
	b.lit.RandomGenerator = p
	return b
}

// Build validates the accumulated Literal and constructs Parameters.
func (b *Builder) Build() (*Parameters, error) {
	return NewParametersFromLiteral(b.lit)
}

func validateLiteral(lit Literal) error {
	if lit.PolyModulusDegree <= 0 || lit.PolyModulusDegree&(lit.PolyModulusDegree-1) != 0 {
		return fverr.New(fverr.InvalidArgument, "params.NewParametersFromLiteral", "poly modulus degree must be a power of two")
	}
	if lit.CoeffModulus == nil {
		return fverr.New(fverr.InvalidArgument, "params.NewParametersFromLiteral", "coeff modulus is required")
	}
	if lit.PlainModulus == nil {
		return fverr.New(fverr.InvalidArgument, "params.NewParametersFromLiteral", "plain modulus is required")
	}
	two := bigint.NewFromUint64(lit.PlainModulus.BitWidth(), 2)
	if bigint.Compare(lit.PlainModulus, two) < 0 {
		return fverr.New(fverr.InvalidArgument, "params.NewParametersFromLiteral", "plain modulus must be >= 2")
	}
	return nil
}
