package service

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/settletrace/internal/clock"
	entity "github.com/smallbiznis/settletrace/internal/entity/domain"
	"github.com/smallbiznis/settletrace/internal/entity/store"
	"github.com/smallbiznis/settletrace/internal/relationship"
	"github.com/smallbiznis/settletrace/internal/snapshot/domain"
	"github.com/smallbiznis/settletrace/internal/snapshot/repository"
	"github.com/smallbiznis/settletrace/pkg/db"
	"go.uber.org/zap"
)

func newService(t *testing.T, s *store.Store, x *relationship.Index) domain.Service {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("new test db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.ArchiveRecord{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	if err := conn.Exec(`DELETE FROM trace_snapshots`).Error; err != nil {
		t.Fatalf("reset table: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}

	return New(Params{
		Store: s,
		Index: x,
		Repo:  repository.Provide(),
		DB:    conn,
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Log:   zap.NewNop(),
	})
}

func seedState(t *testing.T) (*store.Store, *relationship.Index) {
	t.Helper()

	s := store.New()
	x := relationship.New(s)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	entities := []entity.Entity{
		entity.Order{ID: "ORD-1", Amount: 600, EnterpriseID: "ACME", CreatedAt: now},
		entity.Order{ID: "ORD-2", Amount: 400, EnterpriseID: "ACME", CreatedAt: now},
		entity.Payment{ID: "PAY-1", EnterpriseID: "ACME", Amount: 1000, CreatedAt: now},
		entity.EnterpriseTotal{ID: "ENT-1", EnterpriseID: "ACME", TotalAmount: 1000, CreatedAt: now},
		entity.TotalAmount{ID: "TOT-1", TotalAmount: 1000, CreatedAt: now},
	}
	for _, e := range entities {
		if err := s.Create(e); err != nil {
			t.Fatalf("create %s: %v", e.EntityID(), err)
		}
	}
	for _, err := range []error{
		x.LinkPaymentOrder("PAY-1", "ORD-1"),
		x.LinkPaymentOrder("PAY-1", "ORD-2"),
		x.LinkPaymentEnterpriseTotal("PAY-1", "ENT-1"),
		x.LinkEnterpriseTotalTotal("ENT-1", "TOT-1"),
	} {
		if err != nil {
			t.Fatalf("link: %v", err)
		}
	}
	return s, x
}

func TestSerializeDeterministic(t *testing.T) {
	s, x := seedState(t)
	svc := newService(t, s, x)
	ctx := context.Background()

	first, err := svc.Serialize(ctx)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	second, err := svc.Serialize(ctx)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("identical state serialized to different bytes")
	}
}

func TestRoundTrip(t *testing.T) {
	s, x := seedState(t)
	svc := newService(t, s, x)
	ctx := context.Background()

	doc, err := svc.Capture(ctx)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	original, err := svc.Serialize(ctx)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	freshStore := store.New()
	freshIndex := relationship.New(freshStore)
	fresh := newService(t, freshStore, freshIndex)

	if err := fresh.Restore(ctx, doc); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := fresh.Capture(ctx)
	if err != nil {
		t.Fatalf("capture restored: %v", err)
	}
	if !reflect.DeepEqual(doc, restored) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", doc, restored)
	}

	serialized, err := fresh.Serialize(ctx)
	if err != nil {
		t.Fatalf("serialize restored: %v", err)
	}
	if !bytes.Equal(original, serialized) {
		t.Fatal("restored state serialized to different bytes")
	}
}

func TestRestoreRejectsDanglingEdge(t *testing.T) {
	s, x := seedState(t)
	svc := newService(t, s, x)
	ctx := context.Background()

	doc, err := svc.Capture(ctx)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	doc.Relationships.PaymentToOrders["PAY-1"] = append(doc.Relationships.PaymentToOrders["PAY-1"], "ORD-ghost")

	freshStore := store.New()
	fresh := newService(t, freshStore, relationship.New(freshStore))
	err = fresh.Restore(ctx, doc)
	if !errors.Is(err, entity.ErrConsistencyViolation) {
		t.Fatalf("expected ErrConsistencyViolation, got %v", err)
	}
	if freshStore.Count(entity.KindOrder) != 0 {
		t.Fatal("failed restore mutated the store")
	}
}

func TestRestoreRejectsMismatchedKey(t *testing.T) {
	s, x := seedState(t)
	svc := newService(t, s, x)
	ctx := context.Background()

	doc, err := svc.Capture(ctx)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	order := doc.Entities.Orders["ORD-1"]
	order.ID = "ORD-renamed"
	doc.Entities.Orders["ORD-1"] = order

	freshStore := store.New()
	fresh := newService(t, freshStore, relationship.New(freshStore))
	if err := fresh.Restore(ctx, doc); !errors.Is(err, entity.ErrConsistencyViolation) {
		t.Fatalf("expected ErrConsistencyViolation, got %v", err)
	}
}

func TestArchiveAndRestoreLatest(t *testing.T) {
	s, x := seedState(t)
	svc := newService(t, s, x)
	ctx := context.Background()

	record, err := svc.Archive(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if record.ID == 0 || len(record.Document) == 0 {
		t.Fatalf("empty archive record: %+v", record)
	}

	// wipe the live state, then restore from the archive
	if err := s.Replace(nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := x.Restore(relationship.Edges{}); err != nil {
		t.Fatalf("reset index: %v", err)
	}

	if err := svc.RestoreLatest(ctx); err != nil {
		t.Fatalf("restore latest: %v", err)
	}
	if !s.Exists(entity.KindPayment, "PAY-1") {
		t.Fatal("payment missing after restore")
	}
	if got, _ := x.EnterpriseTotalByPayment("PAY-1"); got != "ENT-1" {
		t.Fatalf("edge missing after restore, got %q", got)
	}
}

func TestRestoreLatestNoSnapshot(t *testing.T) {
	s := store.New()
	svc := newService(t, s, relationship.New(s))

	if err := svc.RestoreLatest(context.Background()); !errors.Is(err, domain.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}
