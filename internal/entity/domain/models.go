package domain

import "time"

// Kind identifies one of the four settlement record kinds. IDs are unique
// within a kind's namespace and carry the kind prefix, e.g. PAY-1a2b3c4d.
type Kind string

const (
	KindOrder           Kind = "order"
	KindPayment         Kind = "payment"
	KindEnterpriseTotal Kind = "enterprise_total"
	KindTotalAmount     Kind = "total_amount"
)

// Prefix returns the ID prefix for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindOrder:
		return "ORD"
	case KindPayment:
		return "PAY"
	case KindEnterpriseTotal:
		return "ENT"
	case KindTotalAmount:
		return "TOT"
	default:
		return ""
	}
}

// Kinds lists every entity kind in chain order.
func Kinds() []Kind {
	return []Kind{KindOrder, KindPayment, KindEnterpriseTotal, KindTotalAmount}
}

// Entity is implemented by every settlement record. Records are immutable
// once created; relationships live in the relationship index, never here.
type Entity interface {
	EntityKind() Kind
	EntityID() string
}

// Order is a single settled order. Amount is in minor currency units.
type Order struct {
	ID           string    `json:"id"`
	Amount       int64     `json:"amount"`
	EnterpriseID string    `json:"enterprise_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (o Order) EntityKind() Kind { return KindOrder }
func (o Order) EntityID() string { return o.ID }

// Payment settles one or more orders of the same enterprise. Amount is the
// sum of the settled orders' amounts.
type Payment struct {
	ID           string    `json:"id"`
	EnterpriseID string    `json:"enterprise_id"`
	Amount       int64     `json:"amount"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p Payment) EntityKind() Kind { return KindPayment }
func (p Payment) EntityID() string { return p.ID }

// EnterpriseTotal rolls up one or more payments of a single enterprise.
type EnterpriseTotal struct {
	ID           string    `json:"id"`
	EnterpriseID string    `json:"enterprise_id"`
	TotalAmount  int64     `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

func (e EnterpriseTotal) EntityKind() Kind { return KindEnterpriseTotal }
func (e EnterpriseTotal) EntityID() string { return e.ID }

// TotalAmount is the enterprise-agnostic global rollup.
type TotalAmount struct {
	ID          string    `json:"id"`
	TotalAmount int64     `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t TotalAmount) EntityKind() Kind { return KindTotalAmount }
func (t TotalAmount) EntityID() string { return t.ID }
