package rand

import (
	"fmt"

	"github.com/fvcore/fv/bigint"
)

// TernarySampler draws independent coefficients from {-1, 0, 1} with
// probability 1/4, 1/2, 1/4 respectively, packing two bits per draw from
// the underlying byte stream. -1 is represented as q-1 in the target
// modulus.
type TernarySampler struct {
	prng PRNG
}

// NewTernarySampler builds a ternary sampler drawing randomness from prng.
func NewTernarySampler(prng PRNG) *TernarySampler {
	return &TernarySampler{prng: prng}
}

// SamplePoly fills dst with n independent ternary draws reduced into m.
func (s *TernarySampler) SamplePoly(dst []*bigint.BigUInt, n int, width int, m *bigint.Modulus) error {
	nbytes := (n + 3) / 4 // 2 bits per coefficient, 4 per byte
	buf := make([]byte, nbytes)
	if _, err := s.prng.Read(buf); err != nil {
		return fmt.Errorf("rand: ternary sample: %w", err)
	}
	qMinus1 := bigint.New(width)
	one := bigint.NewFromUint64(width, 1)
	bigint.Sub(qMinus1, m.Q(), one)

	for i := 0; i < n; i++ {
		byteIdx, bitOff := i/4, uint((i%4)*2)
		bits := (buf[byteIdx] >> bitOff) & 0x3
		switch {
		case bits == 0: // 25%: -1
			dst[i] = qMinus1.Clone()
		case bits == 1: // 25%: +1
			dst[i] = bigint.NewFromUint64(width, 1)
		default: // 50%: 0
			dst[i] = bigint.New(width)
		}
	}
	return nil
}
