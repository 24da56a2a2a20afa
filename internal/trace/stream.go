package trace

import (
	"context"

	entitydomain "github.com/smallbiznis/settletrace/internal/entity/domain"
	"go.uber.org/zap"
)

// Node is one entity emitted by a streamed backward walk. Depth is 0 for
// the total, 1 for enterprise totals, 2 for payments, 3 for orders.
type Node struct {
	Depth  int
	Entity entitydomain.Entity
}

// StreamBackward walks the descendant tree under one global total and
// emits nodes as they are discovered, without materializing the tree
// first. The channel closes when the walk completes or ctx is done, so a
// caller can bound or cancel a pathological fan-out and stop consuming at
// any point. It fails only when the total itself is unknown.
func (e *Engine) StreamBackward(ctx context.Context, totalID string) (<-chan Node, error) {
	total, err := e.store.TotalAmount(totalID)
	if err != nil {
		return nil, err
	}

	out := make(chan Node)
	go func() {
		defer close(out)

		if !emit(ctx, out, Node{Depth: 0, Entity: total}) {
			return
		}
		for _, entID := range e.index.EnterpriseTotalsByTotal(totalID) {
			ent, err := e.store.EnterpriseTotal(entID)
			if err != nil {
				e.log.Warn("dangling enterprise total edge", zap.String("total_id", totalID), zap.String("enterprise_total_id", entID))
				continue
			}
			if !emit(ctx, out, Node{Depth: 1, Entity: ent}) {
				return
			}
			for _, paymentID := range e.index.PaymentsByEnterpriseTotal(entID) {
				payment, err := e.store.Payment(paymentID)
				if err != nil {
					continue
				}
				if !emit(ctx, out, Node{Depth: 2, Entity: payment}) {
					return
				}
				for _, orderID := range e.index.OrdersByPayment(paymentID) {
					order, err := e.store.Order(orderID)
					if err != nil {
						continue
					}
					if !emit(ctx, out, Node{Depth: 3, Entity: order}) {
						return
					}
				}
			}
		}
	}()
	return out, nil
}

func emit(ctx context.Context, out chan<- Node, node Node) bool {
	select {
	case out <- node:
		return true
	case <-ctx.Done():
		return false
	}
}
