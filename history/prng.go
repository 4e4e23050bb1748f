package history

import (
	"crypto/sha256"
	"math/rand/v2"

	"github.com/google/uuid"
)

// PRNG is a seedable random number generator that counts its draws.
type PRNG struct {
	// Seed is the final seed, including any entropy that was
	// mixed in.  Restoring needs exactly this string.
	Seed string

	// Pull is the number of draws so far.
	Pull int

	r *rand.Rand
}

// NewPRNG makes a PRNG.  With useEntropy, or with an empty seed, a
// random UUID is mixed into the seed.
func NewPRNG(seed string, useEntropy bool) *PRNG {
	if useEntropy || seed == "" {
		seed += uuid.NewString()
	}
	return &PRNG{
		Seed: seed,
		r:    rand.New(rand.NewChaCha8(sha256.Sum256([]byte(seed)))),
	}
}

// RestorePRNG makes a PRNG from a seed and replays pull draws.
//
// Replaying is the only way to get back to the right state.
func RestorePRNG(seed string, pull int) *PRNG {
	p := &PRNG{
		Seed: seed,
		r:    rand.New(rand.NewChaCha8(sha256.Sum256([]byte(seed)))),
	}
	for ; 0 < pull; pull-- {
		p.Random()
	}
	return p
}

// Random returns a number in [0,1).
func (p *PRNG) Random() float64 {
	p.Pull++
	return p.r.Float64()
}
