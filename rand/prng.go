// Package rand implements the pluggable noise sources used by key
// generation and encryption: a keyed, clockable uniform byte stream, a
// ternary {-1,0,1} sampler, and a clipped Gaussian sampler. All samplers
// draw from a PRNG interface so tests can inject deterministic byte
// streams.
package rand

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// PRNG is a seekable, clockable byte stream: each Clock advances the
// stream by one block and fills the caller's buffer. SetClock lets a
// deterministic stream be wound forward to a known tick, which is how
// samplers derived from the same PRNG stay in sync across re-derivations.
type PRNG interface {
	// Read fills buf with the next len(buf) pseudorandom bytes.
	Read(buf []byte) (int, error)
	// Clock advances the stream by exactly one block, writing it to buf.
	Clock(buf []byte) error
	// SetClock winds the stream forward to the given clock tick.
	SetClock(buf []byte, tick uint64) error
	// GetClock returns the current tick counter.
	GetClock() uint64
}

const blockSize = 64

// keyedPRNG is a blake3-backed keyed, seekable CSPRNG: block i of the
// stream is the plain (unkeyed-mode) blake3 hash of key || le64(i).
// Because each block depends only on the key and its index, SetClock
// jumps to any tick in O(1) rather than O(tick).
type keyedPRNG struct {
	key   [32]byte
	tick  uint64
}

// NewKeyedPRNG creates a deterministic PRNG from a 32-byte key. If key is
// nil, a fresh random key is drawn from the OS CSPRNG.
func NewKeyedPRNG(key []byte) (PRNG, error) {
	p := &keyedPRNG{}
	if key == nil {
		if _, err := rand.Read(p.key[:]); err != nil {
			return nil, fmt.Errorf("rand: seeding keyed PRNG: %w", err)
		}
	} else {
		if len(key) != 32 {
			return nil, fmt.Errorf("rand: keyed PRNG requires a 32-byte key, got %d", len(key))
		}
		copy(p.key[:], key)
	}
	return p, nil
}

func (p *keyedPRNG) blockAt(tick uint64, out []byte) {
	var ctr [8]byte
	binary.LittleEndian.PutUint64(ctr[:], tick)
	h := blake3.New()
	_, _ = h.Write(p.key[:])
	_, _ = h.Write(ctr[:])
	d := h.Digest()
	buf := make([]byte, len(out))
	_, _ = d.Read(buf)
	copy(out, buf)
}

func (p *keyedPRNG) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		block := make([]byte, blockSize)
		p.blockAt(p.tick, block)
		p.tick++
		n += copy(buf[n:], block)
	}
	return n, nil
}

func (p *keyedPRNG) Clock(buf []byte) error {
	if len(buf) != blockSize {
		return fmt.Errorf("rand: Clock requires a %d-byte buffer", blockSize)
	}
	p.blockAt(p.tick, buf)
	p.tick++
	return nil
}

func (p *keyedPRNG) SetClock(buf []byte, tick uint64) error {
	if tick < p.tick {
		return fmt.Errorf("rand: SetClock cannot move backward (%d < %d)", tick, p.tick)
	}
	p.tick = tick
	return p.Clock(buf)
}

func (p *keyedPRNG) GetClock() uint64 { return p.tick }

// unkeyedPRNG is the default, process-wide, non-deterministic generator,
// backed by blake2b over an OS-CSPRNG-seeded running state.
type unkeyedPRNG struct {
	state [64]byte
	tick  uint64
}

// NewPRNG creates the default, non-deterministic, process-wide PRNG,
// seeded from the OS CSPRNG.
func NewPRNG() (PRNG, error) {
	p := &unkeyedPRNG{}
	if _, err := rand.Read(p.state[:32]); err != nil {
		return nil, fmt.Errorf("rand: seeding default PRNG: %w", err)
	}
	return p, nil
}

func (p *unkeyedPRNG) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		block := make([]byte, blockSize)
		if err := p.Clock(block); err != nil {
			return n, err
		}
		n += copy(buf[n:], block)
	}
	return n, nil
}

func (p *unkeyedPRNG) Clock(buf []byte) error {
	if len(buf) != blockSize {
		return fmt.Errorf("rand: Clock requires a %d-byte buffer", blockSize)
	}
	var ctr [8]byte
	binary.LittleEndian.PutUint64(ctr[:], p.tick)
	h := blake2b.Sum512(append(append([]byte{}, p.state[:]...), ctr[:]...))
	copy(buf, h[:])
	copy(p.state[:], h[:])
	p.tick++
	return nil
}

func (p *unkeyedPRNG) SetClock(buf []byte, tick uint64) error {
	if tick < p.tick {
		return fmt.Errorf("rand: SetClock cannot move backward (%d < %d)", tick, p.tick)
	}
	for p.tick < tick {
		if err := p.Clock(buf); err != nil {
			return err
		}
	}
	return p.Clock(buf)
}

func (p *unkeyedPRNG) GetClock() uint64 { return p.tick }

// defaultFactory is the process-wide default PRNG: created on first use,
// never explicitly torn down (Go's GC reclaims it at process exit).
// SetDefaultFactory replaces it; a parameter set's own generator
// (SetRandomGenerator) neither reads nor changes it.
var defaultFactory PRNG

func defaultPRNG() PRNG {
	if defaultFactory == nil {
		p, err := NewPRNG()
		if err != nil {
			panic(fmt.Errorf("rand: initializing default factory: %w", err))
		}
		defaultFactory = p
	}
	return defaultFactory
}

// SetDefaultFactory overrides the process-wide default PRNG factory.
func SetDefaultFactory(p PRNG) { defaultFactory = p }
