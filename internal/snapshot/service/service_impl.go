package service

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/settletrace/internal/clock"
	entity "github.com/smallbiznis/settletrace/internal/entity/domain"
	"github.com/smallbiznis/settletrace/internal/entity/store"
	"github.com/smallbiznis/settletrace/internal/relationship"
	"github.com/smallbiznis/settletrace/internal/snapshot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Store *store.Store
	Index *relationship.Index
	Repo  domain.Repository
	DB    *gorm.DB
	GenID *snowflake.Node
	Clock clock.Clock
	Log   *zap.Logger
}

type Service struct {
	store *store.Store
	index *relationship.Index
	repo  domain.Repository
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		store: p.Store,
		index: p.Index,
		repo:  p.Repo,
		db:    p.DB,
		genID: p.GenID,
		clock: p.Clock,
		log:   p.Log.Named("snapshot.service"),
	}
}

// Capture copies the full store and index state into a document.
func (s *Service) Capture(ctx context.Context) (domain.Document, error) {
	doc := domain.Document{
		Entities: domain.Entities{
			Orders:           make(map[string]entity.Order),
			Payments:         make(map[string]entity.Payment),
			EnterpriseTotals: make(map[string]entity.EnterpriseTotal),
			TotalAmounts:     make(map[string]entity.TotalAmount),
		},
		Relationships: s.index.Export(),
	}
	for _, e := range s.store.List(entity.KindOrder) {
		order := e.(entity.Order)
		doc.Entities.Orders[order.ID] = order
	}
	for _, e := range s.store.List(entity.KindPayment) {
		payment := e.(entity.Payment)
		doc.Entities.Payments[payment.ID] = payment
	}
	for _, e := range s.store.List(entity.KindEnterpriseTotal) {
		enterpriseTotal := e.(entity.EnterpriseTotal)
		doc.Entities.EnterpriseTotals[enterpriseTotal.ID] = enterpriseTotal
	}
	for _, e := range s.store.List(entity.KindTotalAmount) {
		totalAmount := e.(entity.TotalAmount)
		doc.Entities.TotalAmounts[totalAmount.ID] = totalAmount
	}
	return doc, nil
}

// Serialize marshals the captured state. Map keys marshal in sorted order,
// so identical state always serializes to identical bytes.
func (s *Service) Serialize(ctx context.Context) ([]byte, error) {
	doc, err := s.Capture(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Restore replaces the store and index with the document's state. The
// document is fully validated first; a bad document leaves both untouched.
func (s *Service) Restore(ctx context.Context, doc domain.Document) error {
	entities, err := collectEntities(doc.Entities)
	if err != nil {
		return err
	}
	if err := validateEdges(doc); err != nil {
		return err
	}
	if err := s.index.Restore(doc.Relationships); err != nil {
		return err
	}
	if err := s.store.Replace(entities); err != nil {
		return err
	}

	s.log.Info("snapshot restored",
		zap.Int("orders", len(doc.Entities.Orders)),
		zap.Int("payments", len(doc.Entities.Payments)),
		zap.Int("enterprise_totals", len(doc.Entities.EnterpriseTotals)),
		zap.Int("total_amounts", len(doc.Entities.TotalAmounts)),
	)
	return nil
}

// Archive serializes the current state and persists it.
func (s *Service) Archive(ctx context.Context) (*domain.ArchiveRecord, error) {
	raw, err := s.Serialize(ctx)
	if err != nil {
		return nil, err
	}
	record := &domain.ArchiveRecord{
		ID:       s.genID.Generate(),
		TakenAt:  s.clock.Now(),
		Document: datatypes.JSON(raw),
	}
	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		return nil, err
	}

	s.log.Info("snapshot archived",
		zap.Int64("snapshot_id", record.ID.Int64()),
		zap.Int("bytes", len(raw)),
	)
	return record, nil
}

// RestoreLatest loads the most recent archive and restores it.
func (s *Service) RestoreLatest(ctx context.Context) error {
	record, err := s.repo.FindLatest(ctx, s.db)
	if err != nil {
		return err
	}
	if record == nil {
		return domain.ErrNoSnapshot
	}

	var doc domain.Document
	if err := json.Unmarshal(record.Document, &doc); err != nil {
		return err
	}
	return s.Restore(ctx, doc)
}

// collectEntities flattens the document's entity maps into one slice sorted
// by ID within each kind, in chain order, so restore produces a stable
// listing order regardless of map iteration.
func collectEntities(e domain.Entities) ([]entity.Entity, error) {
	size := len(e.Orders) + len(e.Payments) + len(e.EnterpriseTotals) + len(e.TotalAmounts)
	out := make([]entity.Entity, 0, size)

	for _, id := range sortedKeys(e.Orders) {
		order := e.Orders[id]
		if order.ID != id {
			return nil, entity.ConsistencyViolation("order keyed %q carries id %q", id, order.ID)
		}
		out = append(out, order)
	}
	for _, id := range sortedKeys(e.Payments) {
		payment := e.Payments[id]
		if payment.ID != id {
			return nil, entity.ConsistencyViolation("payment keyed %q carries id %q", id, payment.ID)
		}
		out = append(out, payment)
	}
	for _, id := range sortedKeys(e.EnterpriseTotals) {
		enterpriseTotal := e.EnterpriseTotals[id]
		if enterpriseTotal.ID != id {
			return nil, entity.ConsistencyViolation("enterprise total keyed %q carries id %q", id, enterpriseTotal.ID)
		}
		out = append(out, enterpriseTotal)
	}
	for _, id := range sortedKeys(e.TotalAmounts) {
		totalAmount := e.TotalAmounts[id]
		if totalAmount.ID != id {
			return nil, entity.ConsistencyViolation("total amount keyed %q carries id %q", id, totalAmount.ID)
		}
		out = append(out, totalAmount)
	}
	return out, nil
}

// validateEdges checks every edge endpoint against the document's own
// entities, so a restored index never references a missing record.
func validateEdges(doc domain.Document) error {
	edges := doc.Relationships
	for paymentID, orderIDs := range edges.PaymentToOrders {
		if _, ok := doc.Entities.Payments[paymentID]; !ok {
			return entity.ConsistencyViolation("edge references missing payment %q", paymentID)
		}
		for _, orderID := range orderIDs {
			if _, ok := doc.Entities.Orders[orderID]; !ok {
				return entity.ConsistencyViolation("edge references missing order %q", orderID)
			}
		}
	}
	for paymentID, entID := range edges.PaymentToEnterpriseTotal {
		if _, ok := doc.Entities.Payments[paymentID]; !ok {
			return entity.ConsistencyViolation("edge references missing payment %q", paymentID)
		}
		if _, ok := doc.Entities.EnterpriseTotals[entID]; !ok {
			return entity.ConsistencyViolation("edge references missing enterprise total %q", entID)
		}
	}
	for entID, totalID := range edges.EnterpriseTotalToTotal {
		if _, ok := doc.Entities.EnterpriseTotals[entID]; !ok {
			return entity.ConsistencyViolation("edge references missing enterprise total %q", entID)
		}
		if _, ok := doc.Entities.TotalAmounts[totalID]; !ok {
			return entity.ConsistencyViolation("edge references missing total amount %q", totalID)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
