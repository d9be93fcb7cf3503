package fv

import (
	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/rand"
	"github.com/fvcore/fv/ring"
)

// KeyGenerator produces secret, public and evaluation keys for a fixed
// Parameters. It caches the secret key's powers as relinearization keys
// are produced on demand, so generating several keys in sequence doesn't
// recompute them from scratch each time.
type KeyGenerator struct {
	params *params.Parameters
	prng   rand.PRNG

	sk    *SecretKey
	evk   *EvaluationKey
	sPows []*ring.Poly // s^1, s^2, ... cached as evaluation keys are produced on demand.
}

// NewKeyGenerator builds a KeyGenerator drawing randomness from the
// parameters' PRNG (the configured one, or the generator the parameters
// create for themselves when none was set).
func NewKeyGenerator(p *params.Parameters) *KeyGenerator {
	return &KeyGenerator{params: p, prng: p.RandomGenerator()}
}

// GenSecretKey samples a fresh ternary secret key.
func (kg *KeyGenerator) GenSecretKey() (*SecretKey, error) {
	q := kg.params.CoeffModulus()
	width := q.Q().BitWidth()
	n := kg.params.N()

	sampler := rand.NewTernarySampler(kg.prng)
	coeffs := make([]*bigint.BigUInt, n)
	if err := sampler.SamplePoly(coeffs, n, width, q); err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "fv.GenSecretKey", err)
	}
	s := &ring.Poly{Coeffs: coeffs}
	if kg.params.Qualifiers().EnableNTT {
		table := kg.params.NTTTable()
		table.Forward(s)
	}
	kg.sk = &SecretKey{S: s}
	return kg.sk, nil
}

// sPlain returns the secret key polynomial in non-NTT (coefficient)
// form, used by routines that need to multiply by it via mulModQ (which
// itself transforms as needed) or accumulate powers.
func (kg *KeyGenerator) sPlain() *ring.Poly {
	s := kg.sk.S
	if !s.IsNTT {
		return s
	}
	back := s.CopyNew()
	kg.params.NTTTable().Inverse(back)
	return back
}

// GenPublicKey samples a fresh public key for the generator's secret key.
func (kg *KeyGenerator) GenPublicKey() (*PublicKey, error) {
	if kg.sk == nil {
		return nil, fverr.New(fverr.LogicError, "fv.GenPublicKey", "secret key has not been generated")
	}
	q := kg.params.CoeffModulus()
	n := kg.params.N()
	width := q.Q().BitWidth()

	a := ring.NewPoly(n, width)
	uniform := rand.NewUniformSampler(kg.prng, q)
	if err := uniform.SamplePoly(a.Coeffs, width); err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "fv.GenPublicKey", err)
	}

	e := ring.NewPoly(n, width)
	gaussian := rand.NewClippedGaussian(kg.prng, 0, kg.params.NoiseStandardDeviation(), kg.params.NoiseMaxDeviation())
	if err := gaussian.SamplePoly(e.Coeffs, n, width, q); err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "fv.GenPublicKey", err)
	}

	sPlain := kg.sPlain()
	as := mulModQ(kg.params, a, sPlain)
	ase := ring.NewPoly(n, width)
	ring.AddMod(ase, as, e, q)
	pk0 := ring.NewPoly(n, width)
	ring.NegateMod(pk0, ase, q)
	pk1 := a.CopyNew()

	if kg.params.Qualifiers().EnableNTT {
		table := kg.params.NTTTable()
		table.Forward(pk0)
		table.Forward(pk1)
	}

	return &PublicKey{PK0: pk0, PK1: pk1}, nil
}

// GenEvaluationKeys produces count evaluation-key entries (for s^2 through
// s^(count+1)), each with ceil(log2 q / w) decomposition digits. Keys are
// produced in order, each built from the secret-key power cached (or
// extended) by the previous call.
func (kg *KeyGenerator) GenEvaluationKeys(w, count int) (*EvaluationKey, error) {
	if kg.sk == nil {
		return nil, fverr.New(fverr.LogicError, "fv.GenEvaluationKeys", "secret key has not been generated")
	}
	if w <= 0 {
		return nil, fverr.New(fverr.InvalidArgument, "fv.GenEvaluationKeys", "decomposition bit count must be positive")
	}
	q := kg.params.CoeffModulus()
	bitCount := q.Q().SignificantBitCount()
	ell := (bitCount + w - 1) / w

	sPlain := kg.sPlain()
	if kg.sPows == nil {
		kg.sPows = []*ring.Poly{sPlain.CopyNew(), mulModQ(kg.params, sPlain, sPlain)} // s^1, s^2
	}
	for len(kg.sPows) < count+2 {
		next := mulModQ(kg.params, kg.sPows[len(kg.sPows)-1], sPlain)
		kg.sPows = append(kg.sPows, next)
	}

	keys := make([]*SwitchingKey, count)
	for i := 0; i < count; i++ {
		sw, err := kg.genSwitchingKeyForTarget(kg.sPows[i+1], w, ell)
		if err != nil {
			return nil, fverr.Wrap(fverr.InvalidArgument, "fv.GenEvaluationKeys", err)
		}
		keys[i] = sw
	}

	kg.evk = &EvaluationKey{Keys: keys}
	return kg.evk, nil
}

// genSwitchingKeyForTarget builds a SwitchingKey encrypting target under
// the generator's own secret key, with ell base-T = 2^w decomposition
// digits. Used both for relinearization keys (target = s^k) and Galois
// keys (target = sigma(s)).
func (kg *KeyGenerator) genSwitchingKeyForTarget(target *ring.Poly, w, ell int) (*SwitchingKey, error) {
	q := kg.params.CoeffModulus()
	n := kg.params.N()
	width := q.Q().BitWidth()
	sPlain := kg.sPlain()

	sw := &SwitchingKey{EK0: make([]*ring.Poly, ell), EK1: make([]*ring.Poly, ell)}
	tj := bigint.NewFromUint64(width, 1) // T^j, T = 2^w
	tBig := bigint.New(width)
	bigint.ShiftLeft(tBig, bigint.NewFromUint64(width, 1), w)

	for j := 0; j < ell; j++ {
		a := ring.NewPoly(n, width)
		uniform := rand.NewUniformSampler(kg.prng, q)
		if err := uniform.SamplePoly(a.Coeffs, width); err != nil {
			return nil, err
		}
		e := ring.NewPoly(n, width)
		gaussian := rand.NewClippedGaussian(kg.prng, 0, kg.params.NoiseStandardDeviation(), kg.params.NoiseMaxDeviation())
		if err := gaussian.SamplePoly(e.Coeffs, n, width, q); err != nil {
			return nil, err
		}

		as := mulModQ(kg.params, a, sPlain)
		ase := ring.NewPoly(n, width)
		ring.AddMod(ase, as, e, q)
		neg := ring.NewPoly(n, width)
		ring.NegateMod(neg, ase, q)

		tjTarget := ring.NewPoly(n, width)
		for k, c := range target.Coeffs {
			scaled := bigint.MultiplyUintUintMod(c, tj, q)
			tjTarget.Coeffs[k] = scaled
		}

		ek0 := ring.NewPoly(n, width)
		ring.AddMod(ek0, neg, tjTarget, q)
		ek1 := a.CopyNew()

		if kg.params.Qualifiers().EnableNTT {
			table := kg.params.NTTTable()
			table.Forward(ek0)
			table.Forward(ek1)
		}
		sw.EK0[j] = ek0
		sw.EK1[j] = ek1

		tj = bigint.MultiplyUintUintMod(tj, tBig, q)
	}
	return sw, nil
}

// GenGaloisKey builds a key enabling RotateRows/RotateColumns by the
// automorphism x -> x^galoisElt, encrypting sigma(s) under the
// generator's own secret key.
func (kg *KeyGenerator) GenGaloisKey(w int, galoisElt uint64) (*GaloisKey, error) {
	if kg.sk == nil {
		return nil, fverr.New(fverr.LogicError, "fv.GenGaloisKey", "secret key has not been generated")
	}
	if w <= 0 {
		return nil, fverr.New(fverr.InvalidArgument, "fv.GenGaloisKey", "decomposition bit count must be positive")
	}
	q := kg.params.CoeffModulus()
	bitCount := q.Q().SignificantBitCount()
	ell := (bitCount + w - 1) / w

	sigmaS := applyGalois(kg.params, kg.sPlain(), galoisElt)
	sw, err := kg.genSwitchingKeyForTarget(sigmaS, w, ell)
	if err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "fv.GenGaloisKey", err)
	}
	return &GaloisKey{GaloisElement: galoisElt, Key: sw}, nil
}
