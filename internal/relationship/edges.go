package relationship

import (
	"fmt"

	"github.com/smallbiznis/settletrace/internal/entity/domain"
)

// Edges is the serialized form of the five adjacency maps. Sets are ordered
// lists so snapshots round-trip deterministically.
type Edges struct {
	PaymentToOrders          map[string][]string `json:"payment_to_orders"`
	PaymentToEnterpriseTotal map[string]string   `json:"payment_to_enterprise_total"`
	EnterpriseTotalToPayment map[string][]string `json:"enterprise_total_to_payments"`
	EnterpriseTotalToTotal   map[string]string   `json:"enterprise_total_to_total"`
	TotalToEnterpriseTotals  map[string][]string `json:"total_to_enterprise_totals"`
}

// Export copies the adjacency maps under a single shared section, so the
// snapshot never contains a half-applied edge.
func (x *Index) Export() Edges {
	x.mu.RLock()
	defer x.mu.RUnlock()

	edges := Edges{
		PaymentToOrders:          make(map[string][]string, len(x.paymentOrders)),
		PaymentToEnterpriseTotal: make(map[string]string, len(x.paymentEnterpriseTotal)),
		EnterpriseTotalToPayment: make(map[string][]string, len(x.enterpriseTotalPayments)),
		EnterpriseTotalToTotal:   make(map[string]string, len(x.enterpriseTotalTotal)),
		TotalToEnterpriseTotals:  make(map[string][]string, len(x.totalEnterpriseTotals)),
	}
	for id, set := range x.paymentOrders {
		edges.PaymentToOrders[id] = set.values()
	}
	for id, target := range x.paymentEnterpriseTotal {
		edges.PaymentToEnterpriseTotal[id] = target
	}
	for id, set := range x.enterpriseTotalPayments {
		edges.EnterpriseTotalToPayment[id] = set.values()
	}
	for id, target := range x.enterpriseTotalTotal {
		edges.EnterpriseTotalToTotal[id] = target
	}
	for id, set := range x.totalEnterpriseTotals {
		edges.TotalToEnterpriseTotals[id] = set.values()
	}
	return edges
}

// Restore replaces the index contents with the given edges. Forward and
// inverse maps must agree; a snapshot with a one-sided edge is rejected
// with ErrConsistencyViolation and the index is left untouched.
func (x *Index) Restore(edges Edges) error {
	paymentOrders := make(map[string]*orderedSet, len(edges.PaymentToOrders))
	for paymentID, orderIDs := range edges.PaymentToOrders {
		set := newOrderedSet()
		for _, id := range orderIDs {
			set.add(id)
		}
		if !set.empty() {
			paymentOrders[paymentID] = set
		}
	}

	paymentEnt := make(map[string]string, len(edges.PaymentToEnterpriseTotal))
	entPayments := make(map[string]*orderedSet, len(edges.EnterpriseTotalToPayment))
	for paymentID, entID := range edges.PaymentToEnterpriseTotal {
		paymentEnt[paymentID] = entID
	}
	for entID, paymentIDs := range edges.EnterpriseTotalToPayment {
		set := newOrderedSet()
		for _, paymentID := range paymentIDs {
			if paymentEnt[paymentID] != entID {
				return domain.ConsistencyViolation("one-sided edge: enterprise total %q lists payment %q", entID, paymentID)
			}
			set.add(paymentID)
		}
		if !set.empty() {
			entPayments[entID] = set
		}
	}
	if err := mirrorsAgree(paymentEnt, entPayments, "payment", "enterprise total"); err != nil {
		return err
	}

	entTotal := make(map[string]string, len(edges.EnterpriseTotalToTotal))
	totalEnts := make(map[string]*orderedSet, len(edges.TotalToEnterpriseTotals))
	for entID, totalID := range edges.EnterpriseTotalToTotal {
		entTotal[entID] = totalID
	}
	for totalID, entIDs := range edges.TotalToEnterpriseTotals {
		set := newOrderedSet()
		for _, entID := range entIDs {
			if entTotal[entID] != totalID {
				return domain.ConsistencyViolation("one-sided edge: total %q lists enterprise total %q", totalID, entID)
			}
			set.add(entID)
		}
		if !set.empty() {
			totalEnts[totalID] = set
		}
	}
	if err := mirrorsAgree(entTotal, totalEnts, "enterprise total", "total"); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.paymentOrders = paymentOrders
	x.paymentEnterpriseTotal = paymentEnt
	x.enterpriseTotalPayments = entPayments
	x.enterpriseTotalTotal = entTotal
	x.totalEnterpriseTotals = totalEnts
	return nil
}

func mirrorsAgree(forward map[string]string, inverse map[string]*orderedSet, childName, parentName string) error {
	for childID, parentID := range forward {
		if !inverse[parentID].contains(childID) {
			return domain.ConsistencyViolation("one-sided edge: %s %q points at %s %q", childName, childID, parentName, parentID)
		}
	}
	return nil
}

// String implements fmt.Stringer for debugging output.
func (c Counts) String() string {
	return fmt.Sprintf("payment_orders=%d payment_ent=%d ent_payments=%d ent_total=%d totals=%d",
		c.PaymentsWithOrders, c.PaymentsWithEnterpriseTotal, c.EnterpriseTotalsWithPayments, c.EnterpriseTotalsWithTotal, c.Totals)
}
