package fv

import "github.com/fvcore/fv/ring"

// SecretKey is the ternary secret polynomial s in R_q, coefficients
// represented as positive residues mod q.
type SecretKey struct {
	S *ring.Poly
}

// PublicKey is the pair (pk0, pk1) with pk0 = -(pk1*s + e) mod q, pk1
// uniform.
type PublicKey struct {
	PK0, PK1 *ring.Poly
}

// SwitchingKey is the evaluation-key material for one target (a power of
// s, or its Galois image): a parallel array of (ek0, ek1) pairs, one per
// base-T digit.
type SwitchingKey struct {
	EK0, EK1 []*ring.Poly
}

// EvaluationKey holds one SwitchingKey per relinearizable power of s,
// starting at s^2. EvaluationKey[i] encrypts s^(i+2).
type EvaluationKey struct {
	Keys []*SwitchingKey
}

// GaloisKey is a SwitchingKey keyed by the Galois automorphism exponent
// it re-linearizes.
type GaloisKey struct {
	GaloisElement uint64
	Key           *SwitchingKey
}
