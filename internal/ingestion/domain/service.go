package domain

import (
	"context"
	"errors"

	entity "github.com/smallbiznis/settletrace/internal/entity/domain"
)

type CreateOrderRequest struct {
	EnterpriseID string
	Amount       int64
}

type DeleteOrderRequest struct {
	ID string
}

type CreatePaymentRequest struct {
	EnterpriseID string
	OrderIDs     []string
}

type CreateEnterpriseTotalRequest struct {
	EnterpriseID string
	PaymentIDs   []string
}

type CreateTotalAmountRequest struct {
	EnterpriseTotalIDs []string
}

type ReassignPaymentRequest struct {
	PaymentID         string
	EnterpriseTotalID string
}

// Service is the write path. Every operation validates its full input before
// touching the store or the index, so a failed call leaves no partial state
// behind.
type Service interface {
	CreateOrder(context.Context, CreateOrderRequest) (entity.Order, error)
	DeleteOrder(context.Context, DeleteOrderRequest) error
	CreatePayment(context.Context, CreatePaymentRequest) (entity.Payment, error)
	CreateEnterpriseTotal(context.Context, CreateEnterpriseTotalRequest) (entity.EnterpriseTotal, error)
	CreateTotalAmount(context.Context, CreateTotalAmountRequest) (entity.TotalAmount, error)
	ReassignPayment(context.Context, ReassignPaymentRequest) error
}

var (
	ErrInvalidEnterprise         = errors.New("invalid_enterprise")
	ErrInvalidAmount             = errors.New("invalid_amount")
	ErrInvalidID                 = errors.New("invalid_id")
	ErrMissingOrderIDs           = errors.New("missing_order_ids")
	ErrMissingPaymentIDs         = errors.New("missing_payment_ids")
	ErrMissingEnterpriseTotalIDs = errors.New("missing_enterprise_total_ids")
	ErrDuplicateReference        = errors.New("duplicate_reference")
)
