package service

import (
	"context"
	"strings"
	"sync"

	"github.com/smallbiznis/settletrace/internal/clock"
	entity "github.com/smallbiznis/settletrace/internal/entity/domain"
	"github.com/smallbiznis/settletrace/internal/entity/store"
	"github.com/smallbiznis/settletrace/internal/idgen"
	"github.com/smallbiznis/settletrace/internal/ingestion/domain"
	"github.com/smallbiznis/settletrace/internal/observability/metrics"
	"github.com/smallbiznis/settletrace/internal/relationship"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *store.Store
	Index   *relationship.Index
	GenID   idgen.Generator
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	// mu serializes logical write operations: validation, creation and
	// linking happen under one critical section, so a failed call never
	// leaves a created entity or half-linked edge behind.
	mu sync.Mutex

	store   *store.Store
	index   *relationship.Index
	genID   idgen.Generator
	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		index:   p.Index,
		genID:   p.GenID,
		clock:   p.Clock,
		log:     p.Log.Named("ingestion.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enterpriseID := strings.TrimSpace(req.EnterpriseID)
	if enterpriseID == "" {
		return entity.Order{}, domain.ErrInvalidEnterprise
	}
	if req.Amount < 0 {
		return entity.Order{}, domain.ErrInvalidAmount
	}

	order := entity.Order{
		ID:           s.genID.NewID(entity.KindOrder),
		Amount:       req.Amount,
		EnterpriseID: enterpriseID,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.Create(order); err != nil {
		return entity.Order{}, err
	}

	s.metrics.RecordEntityCreated(ctx, string(entity.KindOrder))
	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("enterprise_id", order.EnterpriseID),
		zap.Int64("amount", order.Amount),
	)
	return order, nil
}

// DeleteOrder removes an order that no payment references. Linked orders are
// refused so the index never holds an edge to a missing record.
func (s *Service) DeleteOrder(ctx context.Context, req domain.DeleteOrderRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(req.ID)
	if id == "" {
		return domain.ErrInvalidID
	}
	if !s.store.Exists(entity.KindOrder, id) {
		return entity.NotFound(entity.KindOrder, id)
	}
	if s.index.OrderIsLinked(id) {
		return entity.StillReferenced(entity.KindOrder, id)
	}
	if err := s.store.Delete(entity.KindOrder, id); err != nil {
		return err
	}

	s.log.Info("order deleted", zap.String("order_id", id))
	return nil
}

// CreatePayment records a payment settling the given orders and links each
// edge. The payment amount is the sum of the settled orders' amounts.
func (s *Service) CreatePayment(ctx context.Context, req domain.CreatePaymentRequest) (entity.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enterpriseID := strings.TrimSpace(req.EnterpriseID)
	if enterpriseID == "" {
		return entity.Payment{}, domain.ErrInvalidEnterprise
	}
	if len(req.OrderIDs) == 0 {
		return entity.Payment{}, domain.ErrMissingOrderIDs
	}
	if err := uniqueIDs(req.OrderIDs); err != nil {
		return entity.Payment{}, err
	}

	var amount int64
	for _, orderID := range req.OrderIDs {
		order, err := s.store.Order(orderID)
		if err != nil {
			return entity.Payment{}, err
		}
		if order.EnterpriseID != enterpriseID {
			return entity.Payment{}, entity.ConsistencyViolation(
				"order %q belongs to enterprise %q, payment to %q",
				orderID, order.EnterpriseID, enterpriseID)
		}
		amount += order.Amount
	}

	payment := entity.Payment{
		ID:           s.genID.NewID(entity.KindPayment),
		EnterpriseID: enterpriseID,
		Amount:       amount,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.Create(payment); err != nil {
		return entity.Payment{}, err
	}
	for _, orderID := range req.OrderIDs {
		if err := s.index.LinkPaymentOrder(payment.ID, orderID); err != nil {
			return entity.Payment{}, err
		}
		s.metrics.RecordEdgeLinked(ctx, "payment_order")
	}

	s.metrics.RecordEntityCreated(ctx, string(entity.KindPayment))
	s.log.Info("payment created",
		zap.String("payment_id", payment.ID),
		zap.String("enterprise_id", payment.EnterpriseID),
		zap.Int64("amount", payment.Amount),
		zap.Int("orders", len(req.OrderIDs)),
	)
	return payment, nil
}

// CreateEnterpriseTotal rolls up payments of a single enterprise. A payment
// already rolled into another enterprise total fails the whole call before
// anything is written.
func (s *Service) CreateEnterpriseTotal(ctx context.Context, req domain.CreateEnterpriseTotalRequest) (entity.EnterpriseTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enterpriseID := strings.TrimSpace(req.EnterpriseID)
	if enterpriseID == "" {
		return entity.EnterpriseTotal{}, domain.ErrInvalidEnterprise
	}
	if len(req.PaymentIDs) == 0 {
		return entity.EnterpriseTotal{}, domain.ErrMissingPaymentIDs
	}
	if err := uniqueIDs(req.PaymentIDs); err != nil {
		return entity.EnterpriseTotal{}, err
	}

	var total int64
	for _, paymentID := range req.PaymentIDs {
		payment, err := s.store.Payment(paymentID)
		if err != nil {
			return entity.EnterpriseTotal{}, err
		}
		if payment.EnterpriseID != enterpriseID {
			return entity.EnterpriseTotal{}, entity.ConsistencyViolation(
				"payment %q belongs to enterprise %q, enterprise total to %q",
				paymentID, payment.EnterpriseID, enterpriseID)
		}
		if existing, ok := s.index.EnterpriseTotalByPayment(paymentID); ok {
			return entity.EnterpriseTotal{}, entity.ConsistencyViolation(
				"payment %q already rolled into enterprise total %q", paymentID, existing)
		}
		total += payment.Amount
	}

	enterpriseTotal := entity.EnterpriseTotal{
		ID:           s.genID.NewID(entity.KindEnterpriseTotal),
		EnterpriseID: enterpriseID,
		TotalAmount:  total,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.Create(enterpriseTotal); err != nil {
		return entity.EnterpriseTotal{}, err
	}
	for _, paymentID := range req.PaymentIDs {
		if err := s.index.LinkPaymentEnterpriseTotal(paymentID, enterpriseTotal.ID); err != nil {
			return entity.EnterpriseTotal{}, err
		}
		s.metrics.RecordEdgeLinked(ctx, "payment_enterprise_total")
	}

	s.metrics.RecordEntityCreated(ctx, string(entity.KindEnterpriseTotal))
	s.log.Info("enterprise total created",
		zap.String("enterprise_total_id", enterpriseTotal.ID),
		zap.String("enterprise_id", enterpriseTotal.EnterpriseID),
		zap.Int64("total_amount", enterpriseTotal.TotalAmount),
		zap.Int("payments", len(req.PaymentIDs)),
	)
	return enterpriseTotal, nil
}

// CreateTotalAmount rolls up enterprise totals into the global total. An
// enterprise total already rolled into another global total fails the whole
// call before anything is written.
func (s *Service) CreateTotalAmount(ctx context.Context, req domain.CreateTotalAmountRequest) (entity.TotalAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(req.EnterpriseTotalIDs) == 0 {
		return entity.TotalAmount{}, domain.ErrMissingEnterpriseTotalIDs
	}
	if err := uniqueIDs(req.EnterpriseTotalIDs); err != nil {
		return entity.TotalAmount{}, err
	}

	var total int64
	for _, enterpriseTotalID := range req.EnterpriseTotalIDs {
		enterpriseTotal, err := s.store.EnterpriseTotal(enterpriseTotalID)
		if err != nil {
			return entity.TotalAmount{}, err
		}
		if existing, ok := s.index.TotalByEnterpriseTotal(enterpriseTotalID); ok {
			return entity.TotalAmount{}, entity.ConsistencyViolation(
				"enterprise total %q already rolled into total %q", enterpriseTotalID, existing)
		}
		total += enterpriseTotal.TotalAmount
	}

	totalAmount := entity.TotalAmount{
		ID:          s.genID.NewID(entity.KindTotalAmount),
		TotalAmount: total,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.Create(totalAmount); err != nil {
		return entity.TotalAmount{}, err
	}
	for _, enterpriseTotalID := range req.EnterpriseTotalIDs {
		if err := s.index.LinkEnterpriseTotalTotal(enterpriseTotalID, totalAmount.ID); err != nil {
			return entity.TotalAmount{}, err
		}
		s.metrics.RecordEdgeLinked(ctx, "enterprise_total_total")
	}

	s.metrics.RecordEntityCreated(ctx, string(entity.KindTotalAmount))
	s.log.Info("total amount created",
		zap.String("total_amount_id", totalAmount.ID),
		zap.Int64("total_amount", totalAmount.TotalAmount),
		zap.Int("enterprise_totals", len(req.EnterpriseTotalIDs)),
	)
	return totalAmount, nil
}

// ReassignPayment moves a payment's rollup edge to a different enterprise
// total by unlinking the current edge first. Rollup amounts are sums taken
// at creation time and are not rewritten here.
func (s *Service) ReassignPayment(ctx context.Context, req domain.ReassignPaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paymentID := strings.TrimSpace(req.PaymentID)
	enterpriseTotalID := strings.TrimSpace(req.EnterpriseTotalID)
	if paymentID == "" || enterpriseTotalID == "" {
		return domain.ErrInvalidID
	}

	payment, err := s.store.Payment(paymentID)
	if err != nil {
		return err
	}
	target, err := s.store.EnterpriseTotal(enterpriseTotalID)
	if err != nil {
		return err
	}
	if payment.EnterpriseID != target.EnterpriseID {
		return entity.ConsistencyViolation(
			"payment %q belongs to enterprise %q, enterprise total %q to %q",
			paymentID, payment.EnterpriseID, enterpriseTotalID, target.EnterpriseID)
	}

	previous, linked := s.index.EnterpriseTotalByPayment(paymentID)
	if linked && previous == enterpriseTotalID {
		return nil
	}
	if linked {
		s.index.UnlinkPaymentEnterpriseTotal(paymentID, previous)
	}
	if err := s.index.LinkPaymentEnterpriseTotal(paymentID, enterpriseTotalID); err != nil {
		return err
	}
	s.metrics.RecordEdgeLinked(ctx, "payment_enterprise_total")

	s.log.Info("payment reassigned",
		zap.String("payment_id", paymentID),
		zap.String("from", previous),
		zap.String("to", enterpriseTotalID),
	)
	return nil
}

func uniqueIDs(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return domain.ErrInvalidID
		}
		if _, ok := seen[id]; ok {
			return domain.ErrDuplicateReference
		}
		seen[id] = struct{}{}
	}
	return nil
}
