package replay

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// RngService virtualizes randomness for hooks running under a session.
//
// Not internally thread-safe: a session's RngService is single-owner,
// matching the session ownership model. The draw sequence IS the state;
// interleaved draws from two goroutines would make replay order undefined
// even with locking.
type RngService interface {
	// Float64 returns the next pseudo-random float in [0, 1).
	Float64() float64

	// Seed returns the seed this service was created with.
	Seed() int64
}

// SeededRng is a deterministic RngService backed by a fixed-algorithm
// generator (PCG). Two SeededRng instances created with the same seed
// produce identical draw sequences, across processes and platforms.
type SeededRng struct {
	seed int64
	src  *rand.Rand
}

// NewSeededRng creates an RngService seeded with the given value.
func NewSeededRng(seed int64) *SeededRng {
	return &SeededRng{
		seed: seed,
		src:  rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
	}
}

// Float64 returns the next pseudo-random float in [0, 1).
func (r *SeededRng) Float64() float64 {
	return r.src.Float64()
}

// Seed returns the seed used to create this service.
func (r *SeededRng) Seed() int64 {
	return r.seed
}

// NewRandomSeed draws a fresh seed from the operating system's entropy
// source. Used when a recording session is created without an explicit
// seed; the generated seed is stored on the session so the run stays
// reproducible.
func NewRandomSeed() (int64, error) {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read entropy: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}
