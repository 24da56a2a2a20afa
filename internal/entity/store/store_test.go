package store

import (
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/settletrace/internal/entity/domain"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	order := domain.Order{ID: "ORD-00000001", Amount: 1000, EnterpriseID: "ENT-A", CreatedAt: time.Now().UTC()}

	if err := s.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Order("ORD-00000001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != order {
		t.Fatalf("expected %+v, got %+v", order, got)
	}
}

func TestCreateDuplicateID(t *testing.T) {
	s := New()
	order := domain.Order{ID: "ORD-00000001", Amount: 1000, EnterpriseID: "ENT-A"}

	if err := s.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.Create(domain.Order{ID: "ORD-00000001", Amount: 2000, EnterpriseID: "ENT-B"})
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	// the original record must be untouched
	got, err := s.Order("ORD-00000001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount != 1000 || got.EnterpriseID != "ENT-A" {
		t.Fatalf("existing record was replaced: %+v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	s := New()
	if _, err := s.Get(domain.KindPayment, "PAY-missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSameIDAcrossKinds(t *testing.T) {
	s := New()
	if err := s.Create(domain.Order{ID: "X-1", EnterpriseID: "ENT-A", Amount: 1}); err != nil {
		t.Fatalf("create order: %v", err)
	}
	// kinds are separate namespaces
	if err := s.Create(domain.Payment{ID: "X-1", EnterpriseID: "ENT-A", Amount: 1}); err != nil {
		t.Fatalf("create payment: %v", err)
	}
}

func TestListInsertionOrder(t *testing.T) {
	s := New()
	ids := []string{"ORD-c", "ORD-a", "ORD-b"}
	for _, id := range ids {
		if err := s.Create(domain.Order{ID: id, EnterpriseID: "ENT-A", Amount: 1}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	got := s.IDs(domain.KindOrder)
	if len(got) != len(ids) {
		t.Fatalf("expected %d ids, got %d", len(ids), len(got))
	}
	for i, id := range ids {
		if got[i] != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i])
		}
	}
}

func TestDelete(t *testing.T) {
	s := New()
	if err := s.Create(domain.Order{ID: "ORD-1", EnterpriseID: "ENT-A", Amount: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Delete(domain.KindOrder, "ORD-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Exists(domain.KindOrder, "ORD-1") {
		t.Fatal("order still present after delete")
	}
	if err := s.Delete(domain.KindOrder, "ORD-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplace(t *testing.T) {
	s := New()
	if err := s.Create(domain.Order{ID: "ORD-old", EnterpriseID: "ENT-A", Amount: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := s.Replace([]domain.Entity{
		domain.Order{ID: "ORD-1", EnterpriseID: "ENT-A", Amount: 10},
		domain.Payment{ID: "PAY-1", EnterpriseID: "ENT-A", Amount: 10},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	if s.Exists(domain.KindOrder, "ORD-old") {
		t.Fatal("replace kept the old contents")
	}
	if !s.Exists(domain.KindOrder, "ORD-1") || !s.Exists(domain.KindPayment, "PAY-1") {
		t.Fatal("replace dropped new contents")
	}
}

func TestReplaceDuplicate(t *testing.T) {
	s := New()
	err := s.Replace([]domain.Entity{
		domain.Order{ID: "ORD-1", EnterpriseID: "ENT-A", Amount: 10},
		domain.Order{ID: "ORD-1", EnterpriseID: "ENT-B", Amount: 20},
	})
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestEnterpriseID(t *testing.T) {
	s := New()
	if err := s.Create(domain.Payment{ID: "PAY-1", EnterpriseID: "ENT-A", Amount: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(domain.TotalAmount{ID: "TOT-1", TotalAmount: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	ent, ok := s.EnterpriseID(domain.KindPayment, "PAY-1")
	if !ok || ent != "ENT-A" {
		t.Fatalf("expected ENT-A, got %q ok=%v", ent, ok)
	}
	if _, ok := s.EnterpriseID(domain.KindTotalAmount, "TOT-1"); ok {
		t.Fatal("total amount should not resolve to an enterprise")
	}
	if _, ok := s.EnterpriseID(domain.KindPayment, "PAY-missing"); ok {
		t.Fatal("unknown id should not resolve")
	}
}
