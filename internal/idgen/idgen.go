package idgen

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/smallbiznis/settletrace/internal/entity/domain"
)

// Generator mints entity IDs of the form <KIND-PREFIX>-<8 hex chars>.
// Injectable so tests can swap in a deterministic sequence; production uses
// collision-resistant random suffixes and treats collision as exceptional.
type Generator interface {
	NewID(kind domain.Kind) string
}

type random struct{}

// NewRandom returns the production generator. Suffixes come from the first
// four bytes of a version-4 UUID.
func NewRandom() Generator {
	return random{}
}

func (random) NewID(kind domain.Kind) string {
	u := uuid.New()
	return kind.Prefix() + "-" + hex.EncodeToString(u[:4])
}

// Sequence is a deterministic generator for tests: ORD-00000001,
// ORD-00000002, and so on, counted per kind.
type Sequence struct {
	mu     sync.Mutex
	counts map[domain.Kind]uint32
}

func NewSequence() *Sequence {
	return &Sequence{counts: make(map[domain.Kind]uint32)}
}

func (s *Sequence) NewID(kind domain.Kind) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[kind]++
	return fmt.Sprintf("%s-%08x", kind.Prefix(), s.counts[kind])
}
