// Package bigint implements fixed-width multi-precision unsigned integer
// arithmetic on little-endian 64-bit limb arrays, and the modular-reduction
// machinery built on top of it. It provides the scalar arithmetic used by
// every higher layer of the ring and scheme packages.
package bigint

import (
	"bytes"
	"fmt"
	"math/bits"
)

// BigUInt is a fixed-width unsigned integer stored as a little-endian array
// of 64-bit limbs. Limbs above the significant bit count are always zero.
type BigUInt struct {
	limbs []uint64
}

// New allocates a BigUInt with room for bitWidth bits, initialized to zero.
func New(bitWidth int) *BigUInt {
	return &BigUInt{limbs: make([]uint64, LimbCount(bitWidth))}
}

// NewFromUint64 allocates a BigUInt of the given bit width set to v.
func NewFromUint64(bitWidth int, v uint64) *BigUInt {
	b := New(bitWidth)
	if len(b.limbs) > 0 {
		b.limbs[0] = v
	}
	return b
}

// LimbCount returns ceil(bitWidth / 64), the number of 64-bit limbs needed
// to represent a value of the given bit width.
func LimbCount(bitWidth int) int {
	if bitWidth <= 0 {
		return 0
	}
	return (bitWidth + 63) / 64
}

// Limbs returns the backing little-endian limb slice. Callers must not
// retain it across a resize.
func (b *BigUInt) Limbs() []uint64 {
	return b.limbs
}

// LimbCount returns the number of limbs backing b.
func (b *BigUInt) LimbCount() int {
	return len(b.limbs)
}

// BitWidth returns the declared bit width (limb count * 64).
func (b *BigUInt) BitWidth() int {
	return len(b.limbs) * 64
}

// SignificantBitCount returns the index of the highest set bit plus one,
// or 0 if b is zero.
func (b *BigUInt) SignificantBitCount() int {
	for i := len(b.limbs) - 1; i >= 0; i-- {
		if b.limbs[i] != 0 {
			return i*64 + bits.Len64(b.limbs[i])
		}
	}
	return 0
}

// SignificantLimbCount returns the number of limbs up to and including the
// most significant non-zero limb, or 0 if b is zero.
func (b *BigUInt) SignificantLimbCount() int {
	for i := len(b.limbs) - 1; i >= 0; i-- {
		if b.limbs[i] != 0 {
			return i + 1
		}
	}
	return 0
}

// IsZero reports whether b is the zero value.
func (b *BigUInt) IsZero() bool {
	return b.SignificantLimbCount() == 0
}

// Set copies other into b, resizing b's backing limbs if needed.
func (b *BigUInt) Set(other *BigUInt) {
	if len(b.limbs) != len(other.limbs) {
		b.limbs = make([]uint64, len(other.limbs))
	}
	copy(b.limbs, other.limbs)
}

// SetUint64 sets b to v, zeroing any remaining limbs.
func (b *BigUInt) SetUint64(v uint64) {
	for i := range b.limbs {
		b.limbs[i] = 0
	}
	if len(b.limbs) > 0 {
		b.limbs[0] = v
	}
}

// Clone returns a fresh copy of b.
func (b *BigUInt) Clone() *BigUInt {
	c := &BigUInt{limbs: make([]uint64, len(b.limbs))}
	copy(c.limbs, b.limbs)
	return c
}

// Resize changes the declared bit width of b in place, truncating or
// zero-extending the limb array and preserving the low-order value.
func (b *BigUInt) Resize(bitWidth int) {
	n := LimbCount(bitWidth)
	if n == len(b.limbs) {
		return
	}
	newLimbs := make([]uint64, n)
	copy(newLimbs, b.limbs)
	b.limbs = newLimbs
}

// Compare returns -1, 0, or 1 according to whether a is less than, equal
// to, or greater than b. Operands may have different limb counts.
func Compare(a, b *BigUInt) int {
	n := len(a.limbs)
	if len(b.limbs) > n {
		n = len(b.limbs)
	}
	for i := n - 1; i >= 0; i-- {
		av, bv := limbAt(a.limbs, i), limbAt(b.limbs, i)
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func limbAt(limbs []uint64, i int) uint64 {
	if i < len(limbs) {
		return limbs[i]
	}
	return 0
}

// Add sets dst = a + b and returns the carry out of the top limb. dst must
// have at least max(len(a), len(b)) limbs.
func Add(dst, a, b *BigUInt) (carry uint64) {
	n := len(dst.limbs)
	for i := 0; i < n; i++ {
		av, bv := limbAt(a.limbs, i), limbAt(b.limbs, i)
		var sum uint64
		sum, carry = bits.Add64(av, bv, carry)
		dst.limbs[i] = sum
	}
	return carry
}

// Sub sets dst = a - b and returns the borrow out of the top limb (1 if
// a < b, meaning the result wrapped).
func Sub(dst, a, b *BigUInt) (borrow uint64) {
	n := len(dst.limbs)
	for i := 0; i < n; i++ {
		av, bv := limbAt(a.limbs, i), limbAt(b.limbs, i)
		var diff uint64
		diff, borrow = bits.Sub64(av, bv, borrow)
		dst.limbs[i] = diff
	}
	return borrow
}

// MultiplyUintUint computes the exact wide product a * b into dst, which
// must have at least len(a)+len(b) limbs.
func MultiplyUintUint(dst, a, b *BigUInt) {
	for i := range dst.limbs {
		dst.limbs[i] = 0
	}
	for i, av := range a.limbs {
		if av == 0 {
			continue
		}
		var carry uint64
		for j, bv := range b.limbs {
			hi, lo := bits.Mul64(av, bv)
			var sum uint64
			sum, c0 := bits.Add64(dst.limbs[i+j], lo, 0)
			sum, c1 := bits.Add64(sum, carry, c0)
			dst.limbs[i+j] = sum
			carry = hi + c1
		}
		k := i + len(b.limbs)
		for carry != 0 {
			sum, c := bits.Add64(dst.limbs[k], carry, 0)
			dst.limbs[k] = sum
			carry = c
			k++
		}
	}
}

// ShiftLeft sets dst = a << n, truncating to dst's bit width.
func ShiftLeft(dst, a *BigUInt, n int) {
	limbShift := n / 64
	bitShift := uint(n % 64)
	nl := len(dst.limbs)
	out := make([]uint64, nl)
	for i := nl - 1; i >= 0; i-- {
		srcIdx := i - limbShift
		if srcIdx < 0 {
			continue
		}
		v := limbAt(a.limbs, srcIdx) << bitShift
		if bitShift != 0 && srcIdx-1 >= 0 {
			v |= limbAt(a.limbs, srcIdx-1) >> (64 - bitShift)
		}
		out[i] = v
	}
	copy(dst.limbs, out)
}

// ShiftRight sets dst = a >> n.
func ShiftRight(dst, a *BigUInt, n int) {
	limbShift := n / 64
	bitShift := uint(n % 64)
	nl := len(dst.limbs)
	out := make([]uint64, nl)
	for i := 0; i < nl; i++ {
		srcIdx := i + limbShift
		v := limbAt(a.limbs, srcIdx) >> bitShift
		if bitShift != 0 {
			v |= limbAt(a.limbs, srcIdx+1) << (64 - bitShift)
		}
		out[i] = v
	}
	copy(dst.limbs, out)
}

// String renders b in hexadecimal, most-significant limb first.
func (b *BigUInt) String() string {
	var buf bytes.Buffer
	n := b.SignificantLimbCount()
	if n == 0 {
		return "0"
	}
	fmt.Fprintf(&buf, "%x", b.limbs[n-1])
	for i := n - 2; i >= 0; i-- {
		fmt.Fprintf(&buf, "%016x", b.limbs[i])
	}
	return buf.String()
}
