package fv

import (
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/rand"
	"github.com/fvcore/fv/ring"
)

// Encryptor encrypts plaintexts under a fixed public key by sampling a
// fresh ternary u and two Gaussian error terms for every call.
type Encryptor struct {
	params *params.Parameters
	pk     *PublicKey
	prng   rand.PRNG
}

// NewEncryptor builds an Encryptor for the given public key.
func NewEncryptor(p *params.Parameters, pk *PublicKey) *Encryptor {
	return &Encryptor{params: p, pk: pk, prng: p.RandomGenerator()}
}

// Encrypt produces a fresh size-2 ciphertext encrypting pt.
func (enc *Encryptor) Encrypt(pt *Plaintext) (*Ciphertext, error) {
	p := enc.params
	q := p.CoeffModulus()
	n := p.N()
	width := q.Q().BitWidth()

	u := ring.NewPoly(n, width)
	ternary := rand.NewTernarySampler(enc.prng)
	if err := ternary.SamplePoly(u.Coeffs, n, width, q); err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "fv.Encrypt", err)
	}

	e0 := ring.NewPoly(n, width)
	e1 := ring.NewPoly(n, width)
	gaussian := rand.NewClippedGaussian(enc.prng, 0, p.NoiseStandardDeviation(), p.NoiseMaxDeviation())
	if err := gaussian.SamplePoly(e0.Coeffs, n, width, q); err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "fv.Encrypt", err)
	}
	if err := gaussian.SamplePoly(e1.Coeffs, n, width, q); err != nil {
		return nil, fverr.Wrap(fverr.InvalidArgument, "fv.Encrypt", err)
	}

	pk0 := enc.pk.PK0
	pk1 := enc.pk.PK1
	if p.Qualifiers().EnableNTT {
		pk0 = pk0.CopyNew()
		pk1 = pk1.CopyNew()
		table := p.NTTTable()
		table.Inverse(pk0)
		table.Inverse(pk1)
	}

	deltaM := liftPlaintext(p, pt)

	pk0u := mulModQ(p, pk0, u)
	c0 := ring.NewPoly(n, width)
	ring.AddMod(c0, pk0u, e0, q)
	ring.AddMod(c0, c0, deltaM, q)

	pk1u := mulModQ(p, pk1, u)
	c1 := ring.NewPoly(n, width)
	ring.AddMod(c1, pk1u, e1, q)

	return &Ciphertext{Parts: []*ring.Poly{c0, c1}}, nil
}
