package ring

// Qualifiers is the frozen boolean struct computed once at
// parameter-construction time that decides, for the lifetime of the
// parameters, whether the NTT or the Nussbaumer back-end multiplies
// polynomials. Freezing the choice avoids re-checking it on every
// multiplication.
type Qualifiers struct {
	// EnableNTT is true iff 2n | q-1 and a 2n-th primitive root exists mod q.
	EnableNTT bool
	// EnableNTTInMultiply additionally requires a known auxiliary prime q'.
	EnableNTTInMultiply bool
	// EnableNussbaumer is true iff n is a power of two and the polynomial
	// modulus is x^n+1 (always true for PolyModulus as constructed here).
	EnableNussbaumer bool
}

// Valid reports whether at least one fast-multiplication back-end is
// available. A parameter set with neither is rejected during
// construction.
func (q Qualifiers) Valid() bool {
	return q.EnableNTTInMultiply || q.EnableNussbaumer
}
