package rand

import (
	"fmt"

	"github.com/fvcore/fv/bigint"
)

// UniformSampler draws values uniformly from [0, modulus) by rejection
// sampling on the minimal byte width: draw the fewest bytes that cover the
// modulus, mask off the high bits of the top byte, and retry on overflow.
type UniformSampler struct {
	prng    PRNG
	modulus *bigint.Modulus
	nbytes  int
	mask    byte
}

// NewUniformSampler builds a sampler over [0, m) drawing bytes from prng.
func NewUniformSampler(prng PRNG, m *bigint.Modulus) *UniformSampler {
	bitLen := m.Q().SignificantBitCount()
	if bitLen == 0 {
		bitLen = 1
	}
	nbytes := (bitLen + 7) / 8
	topBits := bitLen - (nbytes-1)*8
	mask := byte(0xFF)
	if topBits < 8 {
		mask = byte(1<<uint(topBits)) - 1
	}
	return &UniformSampler{prng: prng, modulus: m, nbytes: nbytes, mask: mask}
}

// Sample returns a uniformly random value strictly below the sampler's
// modulus.
func (s *UniformSampler) Sample(width int) (*bigint.BigUInt, error) {
	buf := make([]byte, s.nbytes)
	for {
		if _, err := s.prng.Read(buf); err != nil {
			return nil, fmt.Errorf("rand: uniform sample: %w", err)
		}
		buf[s.nbytes-1] &= s.mask
		v := bigint.New(width)
		limbs := v.Limbs()
		for i := 0; i < s.nbytes; i++ {
			limbs[i/8] |= uint64(buf[i]) << uint((i%8)*8)
		}
		if bigint.Compare(v, s.modulus.Q()) < 0 {
			return v, nil
		}
	}
}

// SamplePoly fills every coefficient of dst with an independent uniform
// draw below the sampler's modulus.
func (s *UniformSampler) SamplePoly(dst []*bigint.BigUInt, width int) error {
	for i := range dst {
		v, err := s.Sample(width)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}
