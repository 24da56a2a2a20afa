package store

import (
	"sync"

	"github.com/smallbiznis/settletrace/internal/entity/domain"
)

// Store is pure keyed storage for the four entity kinds. It has no
// relationship awareness; edges live in the relationship index. Reads take
// a shared section, writes an exclusive one, so traversals may run
// concurrently with each other while creations stay serialized.
type Store struct {
	mu      sync.RWMutex
	records map[domain.Kind]map[string]domain.Entity
	// insertion order per kind, kept stable for listing
	order map[domain.Kind][]string
}

// New constructs an empty store. Each store is independent; nothing is held
// in package-level state.
func New() *Store {
	s := &Store{
		records: make(map[domain.Kind]map[string]domain.Entity, len(domain.Kinds())),
		order:   make(map[domain.Kind][]string, len(domain.Kinds())),
	}
	for _, kind := range domain.Kinds() {
		s.records[kind] = make(map[string]domain.Entity)
	}
	return s
}

// Create stores a new entity. It fails with ErrDuplicateID when the ID is
// already taken within the entity's kind; the existing record is never
// merged or replaced.
func (s *Store) Create(e domain.Entity) error {
	kind, id := e.EntityKind(), e.EntityID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[kind][id]; ok {
		return domain.DuplicateID(kind, id)
	}
	s.records[kind][id] = e
	s.order[kind] = append(s.order[kind], id)
	return nil
}

// Get returns the entity with the given kind and ID, or ErrNotFound.
func (s *Store) Get(kind domain.Kind, id string) (domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.records[kind][id]
	if !ok {
		return nil, domain.NotFound(kind, id)
	}
	return e, nil
}

// Exists reports whether the given ID is taken within the kind.
func (s *Store) Exists(kind domain.Kind, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[kind][id]
	return ok
}

// List returns every entity of the kind in insertion order.
func (s *Store) List(kind domain.Kind) []domain.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Entity, 0, len(s.order[kind]))
	for _, id := range s.order[kind] {
		out = append(out, s.records[kind][id])
	}
	return out
}

// IDs returns every ID of the kind in insertion order.
func (s *Store) IDs(kind domain.Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order[kind]))
	copy(out, s.order[kind])
	return out
}

// Count returns how many entities of the kind exist.
func (s *Store) Count(kind domain.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records[kind])
}

// Delete removes an entity. Referential stability is the caller's job: the
// ingestion layer refuses to delete entities that relationships still
// reference. Deleting an absent ID fails with ErrNotFound.
func (s *Store) Delete(kind domain.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[kind][id]; !ok {
		return domain.NotFound(kind, id)
	}
	delete(s.records[kind], id)
	ids := s.order[kind]
	for i, existing := range ids {
		if existing == id {
			s.order[kind] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Replace swaps the full contents of the store, used by snapshot restore.
// Entities must have unique IDs per kind; insertion order follows the
// slice order given.
func (s *Store) Replace(entities []domain.Entity) error {
	records := make(map[domain.Kind]map[string]domain.Entity, len(domain.Kinds()))
	order := make(map[domain.Kind][]string, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		records[kind] = make(map[string]domain.Entity)
	}
	for _, e := range entities {
		kind, id := e.EntityKind(), e.EntityID()
		if _, ok := records[kind][id]; ok {
			return domain.DuplicateID(kind, id)
		}
		records[kind][id] = e
		order[kind] = append(order[kind], id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.order = order
	return nil
}

// EnterpriseID resolves the enterprise an entity belongs to. TotalAmount is
// enterprise-agnostic and unknown IDs resolve to false; the relationship
// index uses this for cross-enterprise consistency checks without gaining
// existence awareness.
func (s *Store) EnterpriseID(kind domain.Kind, id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.records[kind][id]
	if !ok {
		return "", false
	}
	switch typed := e.(type) {
	case domain.Order:
		return typed.EnterpriseID, true
	case domain.Payment:
		return typed.EnterpriseID, true
	case domain.EnterpriseTotal:
		return typed.EnterpriseID, true
	default:
		return "", false
	}
}

// Order returns a typed order record.
func (s *Store) Order(id string) (domain.Order, error) {
	e, err := s.Get(domain.KindOrder, id)
	if err != nil {
		return domain.Order{}, err
	}
	return e.(domain.Order), nil
}

// Payment returns a typed payment record.
func (s *Store) Payment(id string) (domain.Payment, error) {
	e, err := s.Get(domain.KindPayment, id)
	if err != nil {
		return domain.Payment{}, err
	}
	return e.(domain.Payment), nil
}

// EnterpriseTotal returns a typed enterprise total record.
func (s *Store) EnterpriseTotal(id string) (domain.EnterpriseTotal, error) {
	e, err := s.Get(domain.KindEnterpriseTotal, id)
	if err != nil {
		return domain.EnterpriseTotal{}, err
	}
	return e.(domain.EnterpriseTotal), nil
}

// TotalAmount returns a typed total amount record.
func (s *Store) TotalAmount(id string) (domain.TotalAmount, error) {
	e, err := s.Get(domain.KindTotalAmount, id)
	if err != nil {
		return domain.TotalAmount{}, err
	}
	return e.(domain.TotalAmount), nil
}
