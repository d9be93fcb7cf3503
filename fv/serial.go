package fv

import (
	"encoding/binary"

	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/ring"
)

// MarshalBinary encodes c as size (i32) followed by one self-describing
// BigPoly per part.
func (c *Ciphertext) MarshalBinary() ([]byte, error) {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(c.Parts)))
	for _, part := range c.Parts {
		partBytes, err := part.MarshalBinary()
		if err != nil {
			return nil, fverr.Wrap(fverr.InvalidArgument, "fv.Ciphertext.MarshalBinary", err)
		}
		out = append(out, partBytes...)
	}
	return out, nil
}

// UnmarshalBinary decodes c from the layout written by MarshalBinary,
// replacing c.Parts.
func (c *Ciphertext) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fverr.New(fverr.InvalidArgument, "fv.Ciphertext.UnmarshalBinary", "truncated ciphertext header")
	}
	size := int(binary.LittleEndian.Uint32(data[0:4]))
	parts := make([]*ring.Poly, size)
	offset := 4
	for i := range parts {
		part := &ring.Poly{}
		n, err := polyUnmarshalLen(data[offset:])
		if err != nil {
			return err
		}
		if err := part.UnmarshalBinary(data[offset : offset+n]); err != nil {
			return fverr.Wrap(fverr.InvalidArgument, "fv.Ciphertext.UnmarshalBinary", err)
		}
		offset += n
		parts[i] = part
	}
	c.Parts = parts
	return nil
}

// polyUnmarshalLen reads a BigPoly header (without allocating coefficients)
// to determine how many bytes UnmarshalBinary will consume, so sequential
// BigPoly values can be decoded out of one contiguous buffer.
func polyUnmarshalLen(data []byte) (int, error) {
	if len(data) < 8 {
		return 0, fverr.New(fverr.InvalidArgument, "fv.polyUnmarshalLen", "truncated BigPoly header")
	}
	n := int(binary.LittleEndian.Uint32(data[0:4]))
	bitWidth := int(binary.LittleEndian.Uint32(data[4:8]))
	limbsPerCoeff := (bitWidth + 63) / 64
	if bitWidth <= 0 {
		limbsPerCoeff = 0
	}
	total := 8 + 8*n*limbsPerCoeff
	if len(data) < total {
		return 0, fverr.New(fverr.InvalidArgument, "fv.polyUnmarshalLen", "truncated BigPoly coefficients")
	}
	return total, nil
}

// MarshalBinary encodes ek as a 32-byte hash block identifying the
// Parameters it was generated under, i32(w), i32(outer_size), then for
// each outer (relinearizable power) entry: i32(inner_size) followed by
// inner_size digit ciphertexts (each digit's (ek0, ek1) pair encoded as a
// size-2 Ciphertext).
func (ek *EvaluationKey) MarshalBinary(hash [32]byte, w int) ([]byte, error) {
	out := make([]byte, 32+8)
	copy(out[0:32], hash[:])
	binary.LittleEndian.PutUint32(out[32:36], uint32(w))
	binary.LittleEndian.PutUint32(out[36:40], uint32(len(ek.Keys)))

	for _, sk := range ek.Keys {
		innerSize := len(sk.EK0)
		header := make([]byte, 4)
		binary.LittleEndian.PutUint32(header, uint32(innerSize))
		out = append(out, header...)
		for j := 0; j < innerSize; j++ {
			digit := &Ciphertext{Parts: []*ring.Poly{sk.EK0[j], sk.EK1[j]}}
			digitBytes, err := digit.MarshalBinary()
			if err != nil {
				return nil, fverr.Wrap(fverr.InvalidArgument, "fv.EvaluationKey.MarshalBinary", err)
			}
			out = append(out, digitBytes...)
		}
	}
	return out, nil
}

// UnmarshalBinary decodes ek from the layout written by MarshalBinary,
// returning the embedded parameter hash and decomposition bit count so
// the caller can verify they match the Parameters it intends to use.
func (ek *EvaluationKey) UnmarshalBinary(data []byte) (hash [32]byte, w int, err error) {
	if len(data) < 40 {
		return hash, 0, fverr.New(fverr.InvalidArgument, "fv.EvaluationKey.UnmarshalBinary", "truncated header")
	}
	copy(hash[:], data[0:32])
	w = int(binary.LittleEndian.Uint32(data[32:36]))
	outerSize := int(binary.LittleEndian.Uint32(data[36:40]))

	offset := 40
	keys := make([]*SwitchingKey, outerSize)
	for i := range keys {
		if len(data) < offset+4 {
			return hash, 0, fverr.New(fverr.InvalidArgument, "fv.EvaluationKey.UnmarshalBinary", "truncated switching key header")
		}
		innerSize := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		offset += 4

		ek0 := make([]*ring.Poly, innerSize)
		ek1 := make([]*ring.Poly, innerSize)
		for j := 0; j < innerSize; j++ {
			digit := &Ciphertext{}
			n, lenErr := ciphertextUnmarshalLen(data[offset:])
			if lenErr != nil {
				return hash, 0, lenErr
			}
			if err := digit.UnmarshalBinary(data[offset : offset+n]); err != nil {
				return hash, 0, fverr.Wrap(fverr.InvalidArgument, "fv.EvaluationKey.UnmarshalBinary", err)
			}
			offset += n
			ek0[j], ek1[j] = digit.Parts[0], digit.Parts[1]
		}
		keys[i] = &SwitchingKey{EK0: ek0, EK1: ek1}
	}
	ek.Keys = keys
	return hash, w, nil
}

// ciphertextUnmarshalLen mirrors polyUnmarshalLen for a whole Ciphertext,
// so a sequence of Ciphertexts can be decoded out of one buffer.
func ciphertextUnmarshalLen(data []byte) (int, error) {
	if len(data) < 4 {
		return 0, fverr.New(fverr.InvalidArgument, "fv.ciphertextUnmarshalLen", "truncated ciphertext header")
	}
	size := int(binary.LittleEndian.Uint32(data[0:4]))
	offset := 4
	for i := 0; i < size; i++ {
		n, err := polyUnmarshalLen(data[offset:])
		if err != nil {
			return 0, err
		}
		offset += n
	}
	return offset, nil
}
