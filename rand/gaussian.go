package rand

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"

	"github.com/fvcore/fv/bigint"
)

// ClippedGaussian draws samples from N(mu, sigma), rejecting any draw with
// |x - mu| > bound.
type ClippedGaussian struct {
	prng  PRNG
	mu    float64
	sigma float64
	bound float64
}

// NewClippedGaussian builds a clipped Gaussian sampler over the given
// center, standard deviation and clip bound.
func NewClippedGaussian(prng PRNG, mu, sigma, bound float64) *ClippedGaussian {
	return &ClippedGaussian{prng: prng, mu: mu, sigma: sigma, bound: bound}
}

func (g *ClippedGaussian) uniform01() (float64, error) {
	var buf [8]byte
	if _, err := g.prng.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("rand: gaussian: %w", err)
	}
	// top 53 bits give a uniform float64 in [0, 1).
	bitsVal := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(bitsVal) / (1 << 53), nil
}

// Sample draws one clipped Gaussian value via Box-Muller with rejection.
func (g *ClippedGaussian) Sample() (float64, error) {
	for {
		u1, err := g.uniform01()
		if err != nil {
			return 0, err
		}
		u2, err := g.uniform01()
		if err != nil {
			return 0, err
		}
		if u1 == 0 {
			continue
		}
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		x := g.mu + g.sigma*z
		if math.Abs(x-g.mu) <= g.bound {
			return x, nil
		}
	}
}

// TailMass returns an extended-precision estimate of P(|X - mu| > bound)
// for a (non-clipped) N(mu, sigma) variable, via the complementary error
// function evaluated in arbitrary precision. Used to validate that a
// configured bound keeps the rejection rate of Sample negligible.
func (g *ClippedGaussian) TailMass() float64 {
	if g.sigma == 0 {
		return 0
	}
	prec := uint(128)
	z := new(big.Float).SetPrec(prec).SetFloat64(g.bound / (g.sigma * math.Sqrt2))
	erfc := bigfloat.Erfc(z)
	out, _ := erfc.Float64()
	return out
}

// SamplePoly fills dst with n independent clipped-Gaussian draws, rounded
// to the nearest integer and reduced into m. Negative rounded values are
// represented as their positive residue q - |x|.
func (g *ClippedGaussian) SamplePoly(dst []*bigint.BigUInt, n int, width int, m *bigint.Modulus) error {
	for i := 0; i < n; i++ {
		x, err := g.Sample()
		if err != nil {
			return err
		}
		r := int64(math.Round(x))
		if r >= 0 {
			dst[i] = m.Reduce(bigint.NewFromUint64(width, uint64(r)))
			continue
		}
		mag := bigint.NewFromUint64(width, uint64(-r))
		reduced := m.Reduce(mag)
		out := bigint.New(width)
		bigint.Sub(out, m.Q(), reduced)
		if reduced.IsZero() {
			out = bigint.New(width)
		}
		dst[i] = out
	}
	return nil
}
