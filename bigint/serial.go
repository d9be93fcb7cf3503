package bigint

import (
	"encoding/binary"

	"github.com/fvcore/fv/fverr"
)

// MarshalBinary encodes b as a little-endian bit_count (i32) followed by
// ceil(bit_count/64) little-endian 64-bit limbs.
func (b *BigUInt) MarshalBinary() ([]byte, error) {
	limbs := b.limbs
	out := make([]byte, 4+8*len(limbs))
	binary.LittleEndian.PutUint32(out[0:4], uint32(b.BitWidth()))
	for i, limb := range limbs {
		binary.LittleEndian.PutUint64(out[4+8*i:4+8*(i+1)], limb)
	}
	return out, nil
}

// UnmarshalBinary decodes b from the layout written by MarshalBinary,
// resizing b to the encoded bit width.
func (b *BigUInt) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fverr.New(fverr.InvalidArgument, "bigint.UnmarshalBinary", "truncated BigUInt header")
	}
	bitWidth := int(binary.LittleEndian.Uint32(data[0:4]))
	limbCount := LimbCount(bitWidth)
	want := 4 + 8*limbCount
	if len(data) < want {
		return fverr.New(fverr.InvalidArgument, "bigint.UnmarshalBinary", "truncated BigUInt limbs")
	}
	b.Resize(bitWidth)
	for i := 0; i < limbCount; i++ {
		b.limbs[i] = binary.LittleEndian.Uint64(data[4+8*i : 4+8*(i+1)])
	}
	return nil
}

// BinarySize returns the number of bytes MarshalBinary produces for b.
func (b *BigUInt) BinarySize() int {
	return 4 + 8*len(b.limbs)
}
