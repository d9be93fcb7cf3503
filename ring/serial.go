package ring

import (
	"encoding/binary"

	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
)

// MarshalBinary encodes p as coeff_count (i32), coeff_bit_count (i32),
// then coeff_count x ceil(coeff_bit_count/64) little-endian 64-bit limbs.
// Every coefficient must share the same bit width (true of every Poly
// this package constructs).
func (p *Poly) MarshalBinary() ([]byte, error) {
	n := len(p.Coeffs)
	bitWidth := 0
	if n > 0 {
		bitWidth = p.Coeffs[0].BitWidth()
	}
	limbsPerCoeff := bigint.LimbCount(bitWidth)
	out := make([]byte, 8+8*n*limbsPerCoeff)
	binary.LittleEndian.PutUint32(out[0:4], uint32(n))
	binary.LittleEndian.PutUint32(out[4:8], uint32(bitWidth))

	offset := 8
	for _, c := range p.Coeffs {
		if c.BitWidth() != bitWidth {
			return nil, fverr.New(fverr.InvalidArgument, "ring.Poly.MarshalBinary", "coefficients do not share a bit width")
		}
		for _, limb := range c.Limbs() {
			binary.LittleEndian.PutUint64(out[offset:offset+8], limb)
			offset += 8
		}
	}
	return out, nil
}

// UnmarshalBinary decodes p from the layout written by MarshalBinary,
// replacing p.Coeffs with freshly allocated BigUInts of the encoded bit
// width.
func (p *Poly) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fverr.New(fverr.InvalidArgument, "ring.Poly.UnmarshalBinary", "truncated BigPoly header")
	}
	n := int(binary.LittleEndian.Uint32(data[0:4]))
	bitWidth := int(binary.LittleEndian.Uint32(data[4:8]))
	limbsPerCoeff := bigint.LimbCount(bitWidth)
	want := 8 + 8*n*limbsPerCoeff
	if len(data) < want {
		return fverr.New(fverr.InvalidArgument, "ring.Poly.UnmarshalBinary", "truncated BigPoly coefficients")
	}

	coeffs := make([]*bigint.BigUInt, n)
	offset := 8
	for i := range coeffs {
		c := bigint.New(bitWidth)
		limbs := c.Limbs()
		for j := range limbs {
			limbs[j] = binary.LittleEndian.Uint64(data[offset : offset+8])
			offset += 8
		}
		coeffs[i] = c
	}
	p.Coeffs = coeffs
	p.IsNTT = false
	return nil
}
