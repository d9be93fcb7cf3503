package fv

import (
	"github.com/fvcore/fv/fverr"
	"github.com/fvcore/fv/params"
	"github.com/fvcore/fv/ring"
)

// Ciphertext is an ordered sequence of size >= 2 polynomials in R_q: size
// grows under multiply, shrinks under relinearize.
type Ciphertext struct {
	Parts []*ring.Poly
}

// NewCiphertext allocates a zero ciphertext of the given size (>= 2).
func NewCiphertext(p *params.Parameters, size int) (*Ciphertext, error) {
	if size < 2 {
		return nil, fverr.New(fverr.InvalidArgument, "fv.NewCiphertext", "ciphertext size must be >= 2")
	}
	width := p.CoeffModulus().Q().BitWidth()
	parts := make([]*ring.Poly, size)
	for i := range parts {
		parts[i] = ring.NewPoly(p.N(), width)
	}
	return &Ciphertext{Parts: parts}, nil
}

// Size returns the number of polynomials in the ciphertext.
func (c *Ciphertext) Size() int { return len(c.Parts) }

// CopyNew returns a deep copy of c.
func (c *Ciphertext) CopyNew() *Ciphertext {
	parts := make([]*ring.Poly, len(c.Parts))
	for i, p := range c.Parts {
		parts[i] = p.CopyNew()
	}
	return &Ciphertext{Parts: parts}
}

// validate checks the cheap structural invariants (size >= 2, matching
// degree) that catch a corrupted or mismatched ciphertext early.
// Coefficients < q are assumed maintained by construction and are not
// re-checked here (a scan would be O(n*s) on every call; this
// implementation trusts values produced by its own Encryptor/Evaluator).
func (c *Ciphertext) validate(p *params.Parameters, op string) error {
	if len(c.Parts) < 2 {
		return fverr.New(fverr.InvalidArgument, op, "ciphertext size < 2")
	}
	for _, part := range c.Parts {
		if part.N() != p.N() {
			return fverr.New(fverr.InvalidArgument, op, "ciphertext degree does not match parameters")
		}
	}
	return nil
}
