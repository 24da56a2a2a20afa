package trace

import (
	"context"

	entitydomain "github.com/smallbiznis/settletrace/internal/entity/domain"
	"github.com/smallbiznis/settletrace/internal/entity/store"
	"github.com/smallbiznis/settletrace/internal/relationship"
	"go.uber.org/zap"
)

// Engine resolves ancestor chains and descendant trees over the entity
// store and relationship index. Traversals are pure reads: they allocate no
// shared state and may run concurrently with each other and with writers.
type Engine struct {
	store *store.Store
	index *relationship.Index
	log   *zap.Logger
}

func NewEngine(s *store.Store, x *relationship.Index, log *zap.Logger) *Engine {
	return &Engine{
		store: s,
		index: x,
		log:   log.Named("trace.engine"),
	}
}

// ForwardTrace is one payment's full ancestor chain. EnterpriseTotal and
// TotalAmount are nil when the chain has not progressed that far; an
// incomplete chain is the expected, reportable case, not an error.
type ForwardTrace struct {
	Payment         entitydomain.Payment          `json:"payment"`
	Orders          []entitydomain.Order          `json:"orders"`
	EnterpriseTotal *entitydomain.EnterpriseTotal `json:"enterprise_total"`
	TotalAmount     *entitydomain.TotalAmount     `json:"total_amount"`
}

// TraceForward resolves the ancestor chain of one payment: the orders it
// settles and, when linked, the enterprise total and global total it rolled
// into. It fails only when the payment itself is unknown.
func (e *Engine) TraceForward(_ context.Context, paymentID string) (*ForwardTrace, error) {
	payment, err := e.store.Payment(paymentID)
	if err != nil {
		return nil, err
	}

	result := &ForwardTrace{
		Payment: payment,
		Orders:  []entitydomain.Order{},
	}
	for _, orderID := range e.index.OrdersByPayment(paymentID) {
		order, err := e.store.Order(orderID)
		if err != nil {
			// An indexed ID the store no longer knows: skip rather than
			// fail, the trace reports what is resolvable.
			e.log.Warn("dangling order edge", zap.String("payment_id", paymentID), zap.String("order_id", orderID))
			continue
		}
		result.Orders = append(result.Orders, order)
	}

	entID, ok := e.index.EnterpriseTotalByPayment(paymentID)
	if !ok {
		return result, nil
	}
	ent, err := e.store.EnterpriseTotal(entID)
	if err != nil {
		e.log.Warn("dangling enterprise total edge", zap.String("payment_id", paymentID), zap.String("enterprise_total_id", entID))
		return result, nil
	}
	result.EnterpriseTotal = &ent

	totalID, ok := e.index.TotalByEnterpriseTotal(entID)
	if !ok {
		return result, nil
	}
	total, err := e.store.TotalAmount(totalID)
	if err != nil {
		e.log.Warn("dangling total edge", zap.String("enterprise_total_id", entID), zap.String("total_id", totalID))
		return result, nil
	}
	result.TotalAmount = &total

	return result, nil
}

// PaymentNode is one payment with its settled orders.
type PaymentNode struct {
	Payment entitydomain.Payment `json:"payment"`
	Orders  []entitydomain.Order `json:"orders"`
}

// EnterpriseNode is one enterprise total with its payments expanded.
type EnterpriseNode struct {
	EnterpriseTotal entitydomain.EnterpriseTotal `json:"enterprise_total"`
	Payments        []PaymentNode                `json:"payments"`
}

// BackwardTrace is the full descendant tree of one global total, three
// levels deep. Sibling order follows relationship insertion order, so
// identical inputs always produce identical trees. Truncated marks a tree
// cut short by cancellation; a truncated tree is still well formed.
type BackwardTrace struct {
	TotalAmount      entitydomain.TotalAmount `json:"total_amount"`
	EnterpriseTotals []EnterpriseNode         `json:"enterprise_totals"`
	Truncated        bool                     `json:"truncated,omitempty"`
}

// TraceBackward expands the reverse graph under one global total. The walk
// honors ctx: on cancellation it stops emitting and returns the partial
// tree built so far with Truncated set, never a silently incomplete one.
// It fails only when the total itself is unknown.
func (e *Engine) TraceBackward(ctx context.Context, totalID string) (*BackwardTrace, error) {
	total, err := e.store.TotalAmount(totalID)
	if err != nil {
		return nil, err
	}

	result := &BackwardTrace{
		TotalAmount:      total,
		EnterpriseTotals: []EnterpriseNode{},
	}
	for _, entID := range e.index.EnterpriseTotalsByTotal(totalID) {
		if ctx.Err() != nil {
			result.Truncated = true
			return result, nil
		}
		ent, err := e.store.EnterpriseTotal(entID)
		if err != nil {
			e.log.Warn("dangling enterprise total edge", zap.String("total_id", totalID), zap.String("enterprise_total_id", entID))
			continue
		}
		node := EnterpriseNode{EnterpriseTotal: ent, Payments: []PaymentNode{}}
		for _, paymentID := range e.index.PaymentsByEnterpriseTotal(entID) {
			if ctx.Err() != nil {
				result.Truncated = true
				result.EnterpriseTotals = append(result.EnterpriseTotals, node)
				return result, nil
			}
			payment, err := e.store.Payment(paymentID)
			if err != nil {
				e.log.Warn("dangling payment edge", zap.String("enterprise_total_id", entID), zap.String("payment_id", paymentID))
				continue
			}
			child := PaymentNode{Payment: payment, Orders: []entitydomain.Order{}}
			for _, orderID := range e.index.OrdersByPayment(paymentID) {
				order, err := e.store.Order(orderID)
				if err != nil {
					e.log.Warn("dangling order edge", zap.String("payment_id", paymentID), zap.String("order_id", orderID))
					continue
				}
				child.Orders = append(child.Orders, order)
			}
			node.Payments = append(node.Payments, child)
		}
		result.EnterpriseTotals = append(result.EnterpriseTotals, node)
	}
	return result, nil
}

// TraceEnterprise expands the mid-level reverse graph under one enterprise
// total: its payments and each payment's orders.
func (e *Engine) TraceEnterprise(_ context.Context, enterpriseTotalID string) (*EnterpriseNode, error) {
	ent, err := e.store.EnterpriseTotal(enterpriseTotalID)
	if err != nil {
		return nil, err
	}

	node := &EnterpriseNode{EnterpriseTotal: ent, Payments: []PaymentNode{}}
	for _, paymentID := range e.index.PaymentsByEnterpriseTotal(enterpriseTotalID) {
		payment, err := e.store.Payment(paymentID)
		if err != nil {
			continue
		}
		child := PaymentNode{Payment: payment, Orders: []entitydomain.Order{}}
		for _, orderID := range e.index.OrdersByPayment(paymentID) {
			order, err := e.store.Order(orderID)
			if err != nil {
				continue
			}
			child.Orders = append(child.Orders, order)
		}
		node.Payments = append(node.Payments, child)
	}
	return node, nil
}
