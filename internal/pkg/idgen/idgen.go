// Package idgen generates identifiers for interaction events and stored
// records.
package idgen

import (
	"encoding/hex"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique identifiers
type Generator interface {
	Generate() string
}

// Func adapts a plain function to Generator
type Func func() string

// Generate calls f
func (f Func) Generate() string {
	return f()
}

// Sequential yields prefix_1, prefix_2, ... and is meant for tests
type Sequential struct {
	prefix string
	n      atomic.Uint64
}

// NewSequential creates a sequential generator
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// Generate returns the next ID in sequence
func (g *Sequential) Generate() string {
	return join(g.prefix, strconv.FormatUint(g.n.Add(1), 10))
}

// UUID yields prefix_<32 hex chars>. Dashes are dropped so event IDs stay
// short enough to embed in component custom IDs.
type UUID struct {
	prefix string
}

// NewUUID creates a random ID generator
func NewUUID(prefix string) *UUID {
	return &UUID{prefix: prefix}
}

// Generate returns a new random ID
func (g *UUID) Generate() string {
	id := uuid.New()
	return join(g.prefix, hex.EncodeToString(id[:]))
}

func join(prefix, id string) string {
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
