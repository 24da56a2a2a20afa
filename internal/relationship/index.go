package relationship

import (
	"sync"

	"github.com/smallbiznis/settletrace/internal/entity/domain"
)

// EnterpriseResolver answers which enterprise an ID belongs to. The index
// stays ID-agnostic: an unknown ID resolves to false and is accepted as is,
// it only rejects IDs it can prove belong to different enterprises.
type EnterpriseResolver interface {
	EnterpriseID(kind domain.Kind, id string) (string, bool)
}

// Index holds the five adjacency maps between settlement records. It is the
// only place relationships live. Every link and unlink updates the forward
// and inverse direction under one exclusive section, so a reader can never
// observe a one-sided edge. Links are idempotent; unlinking an absent edge
// is a no-op.
type Index struct {
	mu       sync.RWMutex
	resolver EnterpriseResolver

	paymentOrders           map[string]*orderedSet
	paymentEnterpriseTotal  map[string]string
	enterpriseTotalPayments map[string]*orderedSet
	enterpriseTotalTotal    map[string]string
	totalEnterpriseTotals   map[string]*orderedSet
}

// New constructs an empty index. The resolver may be nil, in which case
// cross-enterprise checks are skipped and callers carry the full burden.
func New(resolver EnterpriseResolver) *Index {
	return &Index{
		resolver:                resolver,
		paymentOrders:           make(map[string]*orderedSet),
		paymentEnterpriseTotal:  make(map[string]string),
		enterpriseTotalPayments: make(map[string]*orderedSet),
		enterpriseTotalTotal:    make(map[string]string),
		totalEnterpriseTotals:   make(map[string]*orderedSet),
	}
}

// LinkPaymentOrder records that the payment settles the order. Re-adding an
// existing edge leaves the set unchanged.
func (x *Index) LinkPaymentOrder(paymentID, orderID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.sameEnterprise(domain.KindPayment, paymentID, domain.KindOrder, orderID); err != nil {
		return err
	}
	setFor(x.paymentOrders, paymentID).add(orderID)
	return nil
}

// UnlinkPaymentOrder removes the payment-order edge. Absent edges are a
// no-op, never an error.
func (x *Index) UnlinkPaymentOrder(paymentID, orderID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if set, ok := x.paymentOrders[paymentID]; ok {
		set.remove(orderID)
		if set.empty() {
			delete(x.paymentOrders, paymentID)
		}
	}
}

// LinkPaymentEnterpriseTotal records the payment's rollup into an
// enterprise total, updating the inverse set in the same exclusive section.
// A payment holds at most one such edge: relinking to a different
// enterprise total without unlinking first is a consistency violation.
func (x *Index) LinkPaymentEnterpriseTotal(paymentID, enterpriseTotalID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if current, ok := x.paymentEnterpriseTotal[paymentID]; ok {
		if current == enterpriseTotalID {
			return nil
		}
		return domain.ConsistencyViolation("payment %q already linked to enterprise total %q", paymentID, current)
	}
	if err := x.sameEnterprise(domain.KindPayment, paymentID, domain.KindEnterpriseTotal, enterpriseTotalID); err != nil {
		return err
	}

	x.paymentEnterpriseTotal[paymentID] = enterpriseTotalID
	setFor(x.enterpriseTotalPayments, enterpriseTotalID).add(paymentID)
	return nil
}

// UnlinkPaymentEnterpriseTotal removes the edge in both directions.
func (x *Index) UnlinkPaymentEnterpriseTotal(paymentID, enterpriseTotalID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if current, ok := x.paymentEnterpriseTotal[paymentID]; !ok || current != enterpriseTotalID {
		return
	}
	delete(x.paymentEnterpriseTotal, paymentID)
	if set, ok := x.enterpriseTotalPayments[enterpriseTotalID]; ok {
		set.remove(paymentID)
		if set.empty() {
			delete(x.enterpriseTotalPayments, enterpriseTotalID)
		}
	}
}

// LinkEnterpriseTotalTotal records the enterprise total's rollup into the
// global total, updating the inverse set atomically. At most one edge per
// enterprise total.
func (x *Index) LinkEnterpriseTotalTotal(enterpriseTotalID, totalID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if current, ok := x.enterpriseTotalTotal[enterpriseTotalID]; ok {
		if current == totalID {
			return nil
		}
		return domain.ConsistencyViolation("enterprise total %q already linked to total %q", enterpriseTotalID, current)
	}

	x.enterpriseTotalTotal[enterpriseTotalID] = totalID
	setFor(x.totalEnterpriseTotals, totalID).add(enterpriseTotalID)
	return nil
}

// UnlinkEnterpriseTotalTotal removes the edge in both directions.
func (x *Index) UnlinkEnterpriseTotalTotal(enterpriseTotalID, totalID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if current, ok := x.enterpriseTotalTotal[enterpriseTotalID]; !ok || current != totalID {
		return
	}
	delete(x.enterpriseTotalTotal, enterpriseTotalID)
	if set, ok := x.totalEnterpriseTotals[totalID]; ok {
		set.remove(enterpriseTotalID)
		if set.empty() {
			delete(x.totalEnterpriseTotals, totalID)
		}
	}
}

// OrdersByPayment returns the orders a payment settles, in link order. The
// result is a copy and never nil: no edges means an empty slice, not an
// error, since the index does not validate existence.
func (x *Index) OrdersByPayment(paymentID string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.paymentOrders[paymentID].values()
}

// EnterpriseTotalByPayment returns the enterprise total a payment rolled
// into, if any.
func (x *Index) EnterpriseTotalByPayment(paymentID string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	id, ok := x.paymentEnterpriseTotal[paymentID]
	return id, ok
}

// PaymentsByEnterpriseTotal returns the payments rolled into an enterprise
// total, in link order.
func (x *Index) PaymentsByEnterpriseTotal(enterpriseTotalID string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.enterpriseTotalPayments[enterpriseTotalID].values()
}

// TotalByEnterpriseTotal returns the global total an enterprise total
// rolled into, if any.
func (x *Index) TotalByEnterpriseTotal(enterpriseTotalID string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	id, ok := x.enterpriseTotalTotal[enterpriseTotalID]
	return id, ok
}

// EnterpriseTotalsByTotal returns the enterprise totals rolled into a
// global total, in link order.
func (x *Index) EnterpriseTotalsByTotal(totalID string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.totalEnterpriseTotals[totalID].values()
}

// OrderIsLinked reports whether any payment settles the order. Orders carry
// no inverse map, so this scans payment edges; it backs the explicit
// orphan-deletion path, not a hot query.
func (x *Index) OrderIsLinked(orderID string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	for _, set := range x.paymentOrders {
		if set.contains(orderID) {
			return true
		}
	}
	return false
}

// Counts reports the size of each adjacency map.
type Counts struct {
	PaymentsWithOrders           int
	PaymentsWithEnterpriseTotal  int
	EnterpriseTotalsWithPayments int
	EnterpriseTotalsWithTotal    int
	Totals                       int
}

// Stats returns adjacency map sizes for completeness summaries.
func (x *Index) Stats() Counts {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return Counts{
		PaymentsWithOrders:           len(x.paymentOrders),
		PaymentsWithEnterpriseTotal:  len(x.paymentEnterpriseTotal),
		EnterpriseTotalsWithPayments: len(x.enterpriseTotalPayments),
		EnterpriseTotalsWithTotal:    len(x.enterpriseTotalTotal),
		Totals:                       len(x.totalEnterpriseTotals),
	}
}

func (x *Index) sameEnterprise(childKind domain.Kind, childID string, parentKind domain.Kind, parentID string) error {
	if x.resolver == nil {
		return nil
	}
	childEnt, okChild := x.resolver.EnterpriseID(childKind, childID)
	parentEnt, okParent := x.resolver.EnterpriseID(parentKind, parentID)
	if !okChild || !okParent {
		return nil
	}
	if childEnt != parentEnt {
		return domain.ConsistencyViolation("%s %q belongs to enterprise %q, %s %q to %q",
			childKind, childID, childEnt, parentKind, parentID, parentEnt)
	}
	return nil
}

func setFor(m map[string]*orderedSet, key string) *orderedSet {
	set, ok := m[key]
	if !ok {
		set = newOrderedSet()
		m[key] = set
	}
	return set
}
