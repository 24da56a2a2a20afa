package idgen

import (
	"regexp"
	"testing"

	"github.com/smallbiznis/settletrace/internal/entity/domain"
)

func TestRandomIDFormat(t *testing.T) {
	gen := NewRandom()
	pattern := regexp.MustCompile(`^(ORD|PAY|ENT|TOT)-[0-9a-f]{8}$`)

	seen := make(map[string]struct{})
	for _, kind := range domain.Kinds() {
		for i := 0; i < 100; i++ {
			id := gen.NewID(kind)
			if !pattern.MatchString(id) {
				t.Fatalf("malformed id %q for kind %s", id, kind)
			}
			if _, ok := seen[id]; ok {
				t.Fatalf("collision on %q", id)
			}
			seen[id] = struct{}{}
		}
	}
}

func TestSequenceDeterministic(t *testing.T) {
	gen := NewSequence()

	if id := gen.NewID(domain.KindOrder); id != "ORD-00000001" {
		t.Fatalf("expected ORD-00000001, got %s", id)
	}
	if id := gen.NewID(domain.KindOrder); id != "ORD-00000002" {
		t.Fatalf("expected ORD-00000002, got %s", id)
	}
	// counters are independent per kind
	if id := gen.NewID(domain.KindPayment); id != "PAY-00000001" {
		t.Fatalf("expected PAY-00000001, got %s", id)
	}
}
