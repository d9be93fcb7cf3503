package params

import (
	"encoding/binary"
	"io"
	"math"

	"golang.org/x/crypto/sha3"

	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/rand"
	"github.com/fvcore/fv/ring"
)

// Parameters is the immutable, validated parameter set every other
// package consumes. Equality is hash equality: two Parameters built from
// the same canonical fields always compare equal by Hash, even if
// constructed independently.
type Parameters struct {
	lit Literal

	polyModulus *ring.PolyModulus
	q           *bigint.Modulus
	qp          *bigint.Modulus // nil if no auxiliary modulus.
	t           *bigint.Modulus

	qualifiers ring.Qualifiers
	nttQ       *ring.NTTTable
	nttQp      *ring.NTTTable // nil if qp is nil or NTT unavailable mod q'.
	crt        *ring.CRTComposer

	// Pre-derived encode/decode helpers.
	delta              *bigint.BigUInt // floor(q/t)
	upperHalfThreshold *bigint.BigUInt // (t+1)/2, compared against plaintext coefficients
	upperHalfIncrement *bigint.BigUInt // q mod t

	hash [32]byte

	randomGenerator rand.PRNG
}

// NewParametersFromLiteral validates lit and constructs the immutable
// Parameters, computing qualifiers, NTT tables, the CRT composer, and the
// pre-derived encode/decode helpers.
func NewParametersFromLiteral(lit Literal) (*Parameters, error) {
	if err := validateLiteral(lit); err != nil {
		return nil, err
	}

	pm, err := ring.NewPolyModulus(lit.PolyModulusDegree)
	if err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "params.NewParametersFromLiteral", err)
	}
	q, err := bigint.NewModulus(lit.CoeffModulus)
	if err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "params.NewParametersFromLiteral", err)
	}
	t, err := bigint.NewModulus(lit.PlainModulus)
	if err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "params.NewParametersFromLiteral", err)
	}
	tForQ := lit.PlainModulus.Clone()
	tForQ.Resize(q.Q().BitWidth())
	_, gcdOK := bigint.TryInvertUintMod(tForQ, q)
	if !gcdOK {
		return nil, fverr.New(fverr.InvalidArgument, "params.NewParametersFromLiteral", "coeff modulus and plain modulus must be coprime")
	}

	var qp *bigint.Modulus
	if lit.AuxCoeffModulus != nil {
		qp, err = bigint.NewModulus(lit.AuxCoeffModulus)
		if err != nil {
			return nil, fverr.Wrap(fverr.InvalidArgument, "params.NewParametersFromLiteral", err)
		}
	}

	p := &Parameters{
		lit:             lit,
		polyModulus:     pm,
		q:               q,
		qp:              qp,
		t:               t,
		randomGenerator: lit.RandomGenerator,
	}

	p.computeQualifiers()
	if !p.qualifiers.Valid() {
		return nil, fverr.New(fverr.LogicError, "params.NewParametersFromLiteral", "neither NTT-in-multiply nor Nussbaumer is available for this parameter set")
	}

	if err := p.buildNTTAndCRT(); err != nil {
		return nil, err
	}

	p.computeEncodeHelpers()
	p.computeHash()
	return p, nil
}

func (p *Parameters) computeQualifiers() {
	n := uint64(p.polyModulus.N())
	twoN := 2 * n

	psi, enableNTT := bigint.TryPrimitiveRoot(twoN, p.q)
	_ = psi
	enableNTTInMultiply := false
	if enableNTT && p.qp != nil {
		_, ok := bigint.TryPrimitiveRoot(twoN, p.qp)
		enableNTTInMultiply = ok
	}

	p.qualifiers = ring.Qualifiers{
		EnableNTT:           enableNTT,
		EnableNTTInMultiply: enableNTTInMultiply,
		EnableNussbaumer:    p.polyModulus.IsOneZeroOne(),
	}
}

func (p *Parameters) buildNTTAndCRT() error {
	n := p.polyModulus.N()
	twoN := uint64(2 * n)

	if p.qualifiers.EnableNTT {
		psi, ok := bigint.TryPrimitiveRoot(twoN, p.q)
		if !ok {
			return fverr.New(fverr.LogicError, "params.buildNTTAndCRT", "qualifier computation found a root but table construction did not")
		}
		table, err := ring.NewNTTTable(n, p.q, psi)
		if err != nil {
			return fverr.Wrap(fverr.LogicError, "params.buildNTTAndCRT", err)
		}
		p.nttQ = table
	}

	if p.qualifiers.EnableNTTInMultiply {
		psiQp, ok := bigint.TryPrimitiveRoot(twoN, p.qp)
		if ok {
			tableQp, err := ring.NewNTTTable(n, p.qp, psiQp)
			if err == nil {
				p.nttQp = tableQp
			}
		}
		composer, err := ring.NewCRTComposer(p.q, p.qp)
		if err != nil {
			return fverr.Wrap(fverr.LogicError, "params.buildNTTAndCRT", err)
		}
		p.crt = composer
	}
	return nil
}

// computeEncodeHelpers derives delta = floor(q/t), the upper-half
// threshold (t+1)/2, and the upper-half increment q mod t.
func (p *Parameters) computeEncodeHelpers() {
	width := p.q.Q().BitWidth()
	quo, rem := bigint.New(width), bigint.New(width)
	bigint.DivideUint(quo, rem, p.q.Q(), p.t.Q())
	p.delta = quo
	p.upperHalfIncrement = rem

	wideWidth := p.t.Q().BitWidth() + 1
	one := bigint.NewFromUint64(wideWidth, 1)
	tPlus1 := bigint.New(wideWidth)
	tWide := p.t.Q().Clone()
	tWide.Resize(wideWidth)
	bigint.Add(tPlus1, tWide, one)
	half, halfRem := bigint.New(wideWidth), bigint.New(wideWidth)
	two := bigint.NewFromUint64(wideWidth, 2)
	bigint.DivideUint(half, halfRem, tPlus1, two)
	half.Resize(p.t.Q().BitWidth())
	p.upperHalfThreshold = half
}

// computeHash computes the stable 256-bit hash over the canonical
// parameter fields: n, q, q' (or a zero placeholder), t, sigma, B, and w.
func (p *Parameters) computeHash() {
	h := sha3.New256()

	var nBuf [8]byte
	binary.LittleEndian.PutUint64(nBuf[:], uint64(p.polyModulus.N()))
	h.Write(nBuf[:])

	writeBigUInt(h, p.q.Q())
	if p.qp != nil {
		writeBigUInt(h, p.qp.Q())
	} else {
		var zero [4]byte
		h.Write(zero[:])
	}
	writeBigUInt(h, p.t.Q())

	var f [8]byte
	binary.LittleEndian.PutUint64(f[:], math.Float64bits(p.lit.NoiseStandardDeviation))
	h.Write(f[:])
	binary.LittleEndian.PutUint64(f[:], math.Float64bits(p.lit.NoiseMaxDeviation))
	h.Write(f[:])

	var wBuf [4]byte
	binary.LittleEndian.PutUint32(wBuf[:], uint32(p.lit.DecompositionBitCount))
	h.Write(wBuf[:])

	sum := h.Sum(nil)
	copy(p.hash[:], sum)
}

func writeBigUInt(h io.Writer, v *bigint.BigUInt) {
	var szBuf [4]byte
	binary.LittleEndian.PutUint32(szBuf[:], uint32(v.BitWidth()))
	h.Write(szBuf[:])
	for _, limb := range v.Limbs() {
		var lb [8]byte
		binary.LittleEndian.PutUint64(lb[:], limb)
		h.Write(lb[:])
	}
}

// N returns the polynomial degree.
func (p *Parameters) N() int { return p.polyModulus.N() }

// PolyModulus returns the x^n+1 descriptor.
func (p *Parameters) PolyModulus() *ring.PolyModulus { return p.polyModulus }

// CoeffModulus returns q.
func (p *Parameters) CoeffModulus() *bigint.Modulus { return p.q }

// AuxCoeffModulus returns q', or nil if none is configured.
func (p *Parameters) AuxCoeffModulus() *bigint.Modulus { return p.qp }

// PlainModulus returns t.
func (p *Parameters) PlainModulus() *bigint.Modulus { return p.t }

// NoiseStandardDeviation returns sigma.
func (p *Parameters) NoiseStandardDeviation() float64 { return p.lit.NoiseStandardDeviation }

// NoiseMaxDeviation returns B.
func (p *Parameters) NoiseMaxDeviation() float64 { return p.lit.NoiseMaxDeviation }

// DecompositionBitCount returns w.
func (p *Parameters) DecompositionBitCount() int { return p.lit.DecompositionBitCount }

// Qualifiers returns the frozen NTT/Nussbaumer availability flags.
func (p *Parameters) Qualifiers() ring.Qualifiers { return p.qualifiers }

// NTTTable returns the precomputed NTT twiddle table mod q, or nil when
// NTT is unavailable.
func (p *Parameters) NTTTable() *ring.NTTTable { return p.nttQ }

// NTTTableAux returns the precomputed NTT twiddle table mod q', or nil.
func (p *Parameters) NTTTableAux() *ring.NTTTable { return p.nttQp }

// CRTComposer returns the two-modulus composer, or nil when the NTT
// ciphertext-multiplication path is unavailable.
func (p *Parameters) CRTComposer() *ring.CRTComposer { return p.crt }

// Delta returns floor(q/t).
func (p *Parameters) Delta() *bigint.BigUInt { return p.delta }

// UpperHalfThreshold returns (t+1)/2, the plaintext-coefficient cutoff
// past which the upper-half increment is added during lifting.
func (p *Parameters) UpperHalfThreshold() *bigint.BigUInt { return p.upperHalfThreshold }

// UpperHalfIncrement returns q mod t.
func (p *Parameters) UpperHalfIncrement() *bigint.BigUInt { return p.upperHalfIncrement }

// Hash returns the stable 256-bit parameter hash.
func (p *Parameters) Hash() [32]byte { return p.hash }

// Equal reports hash equality.
func (p *Parameters) Equal(other *Parameters) bool {
	return p.hash == other.hash
}

// RandomGenerator returns the configured PRNG. When none was set, the
// first call creates a fresh rand.NewPRNG generator and keeps it for
// later calls; the rand package's default factory is not consulted.
func (p *Parameters) RandomGenerator() rand.PRNG {
	if p.randomGenerator != nil {
		return p.randomGenerator
	}
	prng, err := rand.NewPRNG()
	if err != nil {
		panic(err)
	}
	p.randomGenerator = prng
	return p.randomGenerator
}
