package bigint

import "crypto/rand"

// TryInvertUintMod runs the extended Euclidean algorithm with two signed
// coefficient trackers and returns (y, true) such that x*y = 1 mod q, or
// (nil, false) when gcd(x, q) != 1. Callers must handle the false case
// (e.g. when inverting a decomposition-bit lookup value).
func TryInvertUintMod(x *BigUInt, m *Modulus) (*BigUInt, bool) {
	width := m.q.BitWidth()

	// Signed values tracked as (magnitude, negative) pairs since BigUInt
	// itself is unsigned.
	type signed struct {
		mag *BigUInt
		neg bool
	}

	r0 := signed{mag: m.q.Clone(), neg: false}
	r1 := signed{mag: New(width), neg: false}
	r1.mag.Set(x)
	for Compare(r1.mag, m.q) >= 0 {
		Sub(r1.mag, r1.mag, m.q)
	}

	t0 := signed{mag: NewFromUint64(width, 0), neg: false}
	t1 := signed{mag: NewFromUint64(width, 1), neg: false}

	for !r1.mag.IsZero() {
		q, rem := New(width), New(width)
		divideUint(q, rem, r0.mag, r1.mag)

		qt := signed{mag: New(width)}
		MultiplyUintUint(qt.mag, q, t1.mag)
		qt.mag.Resize(width)
		qt.neg = t1.neg

		nt := subSigned(t0, signed{mag: qt.mag, neg: qt.neg})

		r0, r1 = r1, signed{mag: rem, neg: false}
		t0, t1 = t1, nt
	}

	// r0 now holds gcd(x, q).
	if !(r0.mag.SignificantLimbCount() == 1 && r0.mag.limbs[0] == 1) {
		return nil, false
	}

	y := t0.mag.Clone()
	if t0.neg && !y.IsZero() {
		Sub(y, m.q, y)
	}
	for Compare(y, m.q) >= 0 {
		Sub(y, y, m.q)
	}
	return y, true
}

func subSigned(a, b struct {
	mag *BigUInt
	neg bool
}) struct {
	mag *BigUInt
	neg bool
} {
	width := a.mag.BitWidth()
	if b.mag.BitWidth() > width {
		width = b.mag.BitWidth()
	}
	am, bm := New(width), New(width)
	am.Set(a.mag)
	bm.Set(b.mag)

	if a.neg == b.neg {
		// |a| - |b| with sign a.neg, magnitude swapped if |b| > |a|.
		if Compare(am, bm) >= 0 {
			d := New(width)
			Sub(d, am, bm)
			return struct {
				mag *BigUInt
				neg bool
			}{d, a.neg}
		}
		d := New(width)
		Sub(d, bm, am)
		return struct {
			mag *BigUInt
			neg bool
		}{d, !a.neg}
	}
	// opposite signs: |a| + |b|, sign of a.
	d := New(width + 1)
	Add(d, am, bm)
	d.Resize(width)
	return struct {
		mag *BigUInt
		neg bool
	}{d, a.neg}
}

// PowUintMod computes base^exp mod q by binary (square-and-multiply)
// exponentiation.
func PowUintMod(base *BigUInt, exp uint64, m *Modulus) *BigUInt {
	width := m.q.BitWidth()
	result := NewFromUint64(width, 1)
	cur := New(width)
	cur.Set(base)
	for Compare(cur, m.q) >= 0 {
		Sub(cur, cur, m.q)
	}
	for exp > 0 {
		if exp&1 == 1 {
			result = MultiplyUintUintMod(result, cur, m)
		}
		cur = MultiplyUintUintMod(cur, cur, m)
		exp >>= 1
	}
	return result
}

// TryPrimitiveRoot seeks a 2n-th root of unity mod q by raising random
// elements of (Z/q)x to the power (q-1)/2n and testing whether the result
// has exact order 2n.
func TryPrimitiveRoot(twoN uint64, m *Modulus) (*BigUInt, bool) {
	width := m.q.BitWidth()
	qMinus1 := New(width)
	one := NewFromUint64(width, 1)
	Sub(qMinus1, m.q, one)

	// exponent = (q-1)/2n; q must be ≡ 1 mod 2n for this to be exact.
	exponent, rem := New(width), New(width)
	twoNBig := NewFromUint64(width, twoN)
	divideUint(exponent, rem, qMinus1, twoNBig)
	if !rem.IsZero() {
		return nil, false
	}
	expU64 := toUint64(exponent)

	for attempt := 0; attempt < 100; attempt++ {
		candidate := randomBelow(m.q, width)
		if candidate.IsZero() {
			continue
		}
		root := PowUintMod(candidate, expU64, m)
		if root.IsZero() {
			continue
		}
		if isOrderExactly(root, twoN, m) {
			return root, true
		}
	}
	return nil, false
}

// TryMinimalPrimitiveRoot additionally iterates candidates and returns the
// lexicographically (numerically) smallest valid 2n-th root of unity.
func TryMinimalPrimitiveRoot(twoN uint64, m *Modulus) (*BigUInt, bool) {
	width := m.q.BitWidth()
	qMinus1 := New(width)
	one := NewFromUint64(width, 1)
	Sub(qMinus1, m.q, one)
	exponent, rem := New(width), New(width)
	twoNBig := NewFromUint64(width, twoN)
	divideUint(exponent, rem, qMinus1, twoNBig)
	if !rem.IsZero() {
		return nil, false
	}
	expU64 := toUint64(exponent)

	var best *BigUInt
	for candU := uint64(2); candU < 100000; candU++ {
		candidate := NewFromUint64(width, candU)
		if Compare(candidate, m.q) >= 0 {
			break
		}
		root := PowUintMod(candidate, expU64, m)
		if root.IsZero() {
			continue
		}
		if isOrderExactly(root, twoN, m) {
			best = root
			break
		}
	}
	if best == nil {
		return nil, false
	}
	// Every primitive 2n-th root is best^k for an odd k < 2n; keep the
	// smallest of them.
	g2 := MultiplyUintUintMod(best, best, m)
	cur, min := best, best
	for k := uint64(3); k < twoN; k += 2 {
		cur = MultiplyUintUintMod(cur, g2, m)
		if Compare(cur, min) < 0 {
			min = cur
		}
	}
	return min, true
}

func isOrderExactly(root *BigUInt, order uint64, m *Modulus) bool {
	// order is a power of two (2n); root has order exactly `order` iff
	// root^(order/2) != 1.
	if order == 1 {
		return root.SignificantLimbCount() == 1 && root.limbs[0] == 1
	}
	half := PowUintMod(root, order/2, m)
	if half.SignificantLimbCount() == 1 && half.limbs[0] == 1 {
		return false
	}
	full := PowUintMod(root, order, m)
	return full.SignificantLimbCount() == 1 && full.limbs[0] == 1
}

func toUint64(b *BigUInt) uint64 {
	if len(b.limbs) == 0 {
		return 0
	}
	return b.limbs[0]
}

func randomBelow(q *BigUInt, width int) *BigUInt {
	buf := make([]byte, width/8)
	_, _ = rand.Read(buf)
	out := New(width)
	for i := 0; i < len(buf) && i/8 < len(out.limbs); i++ {
		out.limbs[i/8] |= uint64(buf[i]) << (8 * uint(i%8))
	}
	for Compare(out, q) >= 0 {
		ShiftRight(out, out, 1)
	}
	return out
}
