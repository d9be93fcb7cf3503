package params

import (
	"encoding/binary"
	"math"

	"github.com/fvcore/fv/bigint"
	"github.com/fvcore/fv/fverr"
)

// MarshalBinary encodes p as BigPoly(poly_modulus), BigUInt(coeff_modulus),
// BigUInt(aux_coeff_modulus), BigUInt(plain_modulus), f64(sigma), f64(B),
// i32(w). The hash is never transmitted; the receiver recomputes it after
// loading. poly_modulus is encoded as the literal polynomial x^n+1 (a
// BigPoly of n+1 single-bit coefficients), since this implementation
// tracks only n internally. An absent auxiliary modulus is encoded as a
// zero-bit-width BigUInt.
func (p *Parameters) MarshalBinary() ([]byte, error) {
	polyModBytes, err := polyModulusBigPoly(p.polyModulus.N())
	if err != nil {
		return nil, err
	}
	coeffModBytes, err := p.q.Q().MarshalBinary()
	if err != nil {
		return nil, err
	}
	var auxModBytes []byte
	if p.qp != nil {
		auxModBytes, err = p.qp.Q().MarshalBinary()
	} else {
		auxModBytes, err = bigint.New(0).MarshalBinary()
	}
	if err != nil {
		return nil, err
	}
	plainModBytes, err := p.t.Q().MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(polyModBytes)+len(coeffModBytes)+len(auxModBytes)+len(plainModBytes)+8+8+4)
	out = append(out, polyModBytes...)
	out = append(out, coeffModBytes...)
	out = append(out, auxModBytes...)
	out = append(out, plainModBytes...)

	tail := make([]byte, 20)
	binary.LittleEndian.PutUint64(tail[0:8], math.Float64bits(p.lit.NoiseStandardDeviation))
	binary.LittleEndian.PutUint64(tail[8:16], math.Float64bits(p.lit.NoiseMaxDeviation))
	binary.LittleEndian.PutUint32(tail[16:20], uint32(p.lit.DecompositionBitCount))
	out = append(out, tail...)
	return out, nil
}

// UnmarshalParameters decodes the layout written by MarshalBinary and
// rebuilds a validated Parameters, recomputing qualifiers, NTT tables,
// and the hash from scratch (the hash is never transmitted).
func UnmarshalParameters(data []byte) (*Parameters, error) {
	n, offset, err := readPolyModulusBigPoly(data)
	if err != nil {
		return nil, err
	}
	coeffMod := bigint.New(0)
	consumed, err := unmarshalBigUIntAt(coeffMod, data[offset:])
	if err != nil {
		return nil, err
	}
	offset += consumed

	auxMod := bigint.New(0)
	consumed, err = unmarshalBigUIntAt(auxMod, data[offset:])
	if err != nil {
		return nil, err
	}
	offset += consumed

	plainMod := bigint.New(0)
	consumed, err = unmarshalBigUIntAt(plainMod, data[offset:])
	if err != nil {
		return nil, err
	}
	offset += consumed

	if len(data) < offset+20 {
		return nil, fverr.New(fverr.InvalidArgument, "params.UnmarshalParameters", "truncated tail")
	}
	sigma := math.Float64frombits(binary.LittleEndian.Uint64(data[offset : offset+8]))
	bound := math.Float64frombits(binary.LittleEndian.Uint64(data[offset+8 : offset+16]))
	w := int(binary.LittleEndian.Uint32(data[offset+16 : offset+20]))

	builder := NewBuilder().
		SetPolyModulus(n).
		SetPlainModulus(plainMod).
		SetNoiseStandardDeviation(sigma).
		SetNoiseMaxDeviation(bound).
		SetDecompositionBitCount(w)
	if auxMod.BitWidth() == 0 {
		builder = builder.SetCoeffModulus(coeffMod, nil)
	} else {
		builder = builder.SetCoeffModulus(coeffMod, auxMod)
	}
	return builder.Build()
}

func unmarshalBigUIntAt(b *bigint.BigUInt, data []byte) (int, error) {
	if len(data) < 4 {
		return 0, fverr.New(fverr.InvalidArgument, "params.unmarshalBigUIntAt", "truncated BigUInt header")
	}
	bitWidth := int(binary.LittleEndian.Uint32(data[0:4]))
	limbCount := bigint.LimbCount(bitWidth)
	want := 4 + 8*limbCount
	if len(data) < want {
		return 0, fverr.New(fverr.InvalidArgument, "params.unmarshalBigUIntAt", "truncated BigUInt limbs")
	}
	if err := b.UnmarshalBinary(data[:want]); err != nil {
		return 0, err
	}
	return want, nil
}

// polyModulusBigPoly encodes x^n+1 as a BigPoly: n+1 single-bit
// coefficients, all zero except the constant term and the degree-n term.
func polyModulusBigPoly(n int) ([]byte, error) {
	out := make([]byte, 8+8*(n+1))
	binary.LittleEndian.PutUint32(out[0:4], uint32(n+1))
	binary.LittleEndian.PutUint32(out[4:8], 1)
	out[8] = 1                  // constant term
	out[8+8*n] = 1              // degree-n term
	return out, nil
}

// readPolyModulusBigPoly decodes a BigPoly encoding x^n+1 and returns n
// plus the number of bytes consumed.
func readPolyModulusBigPoly(data []byte) (n, consumed int, err error) {
	if len(data) < 8 {
		return 0, 0, fverr.New(fverr.InvalidArgument, "params.readPolyModulusBigPoly", "truncated BigPoly header")
	}
	coeffCount := int(binary.LittleEndian.Uint32(data[0:4]))
	bitWidth := int(binary.LittleEndian.Uint32(data[4:8]))
	limbsPerCoeff := bigint.LimbCount(bitWidth)
	total := 8 + 8*coeffCount*limbsPerCoeff
	if len(data) < total {
		return 0, 0, fverr.New(fverr.InvalidArgument, "params.readPolyModulusBigPoly", "truncated BigPoly coefficients")
	}
	if coeffCount < 2 {
		return 0, 0, fverr.New(fverr.InvalidArgument, "params.readPolyModulusBigPoly", "poly modulus must have degree >= 1")
	}
	return coeffCount - 1, total, nil
}
