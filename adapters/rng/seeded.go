// Package rng provides the seeded random stream adapter.
package rng

import (
	"context"
	"math/rand"

	"gocausal/ports"
)

var _ ports.RNGPort = (*Seeded)(nil)

// Seeded derives math/rand streams from a base seed and stream names. The
// same names and seed always produce the same sequence.
type Seeded struct{}

// NewSeeded creates the adapter
func NewSeeded() *Seeded {
	return &Seeded{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (s *Seeded) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name != "" {
		seed += int64(hashString(name))
	}
	return rand.New(rand.NewSource(seed)), nil
}

// Stream creates a deterministic RNG stream for a run stage and work unit
func (s *Seeded) Stream(ctx context.Context, runID, stageName, unitKey string, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := baseSeed
	for _, part := range []string{runID, stageName, unitKey} {
		if part != "" {
			seed = int64(hashString(part)) + seed
		}
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}
