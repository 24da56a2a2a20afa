package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/settletrace/internal/clock"
	entity "github.com/smallbiznis/settletrace/internal/entity/domain"
	"github.com/smallbiznis/settletrace/internal/entity/store"
	"github.com/smallbiznis/settletrace/internal/idgen"
	"github.com/smallbiznis/settletrace/internal/ingestion/domain"
	"github.com/smallbiznis/settletrace/internal/relationship"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	store *store.Store
	index *relationship.Index
	clock *clock.FakeClock
	svc   domain.Service
}

func newEnv(t *testing.T) env {
	t.Helper()

	s := store.New()
	x := relationship.New(s)
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		Store: s,
		Index: x,
		GenID: idgen.NewSequence(),
		Clock: fake,
		Log:   zap.NewNop(),
	})
	return env{store: s, index: x, clock: fake, svc: svc}
}

func (e env) order(t *testing.T, enterpriseID string, amount int64) entity.Order {
	t.Helper()
	order, err := e.svc.CreateOrder(context.Background(), domain.CreateOrderRequest{
		EnterpriseID: enterpriseID,
		Amount:       amount,
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrder(t *testing.T) {
	e := newEnv(t)

	order := e.order(t, "ACME", 1500)

	assert.True(t, strings.HasPrefix(order.ID, "ORD-"))
	assert.Equal(t, int64(1500), order.Amount)
	assert.Equal(t, "ACME", order.EnterpriseID)
	assert.Equal(t, e.clock.Now(), order.CreatedAt)
	assert.True(t, e.store.Exists(entity.KindOrder, order.ID))
}

func TestCreateOrderValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateOrder(ctx, domain.CreateOrderRequest{EnterpriseID: " ", Amount: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidEnterprise)

	_, err = e.svc.CreateOrder(ctx, domain.CreateOrderRequest{EnterpriseID: "ACME", Amount: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	// zero is a valid amount
	_, err = e.svc.CreateOrder(ctx, domain.CreateOrderRequest{EnterpriseID: "ACME", Amount: 0})
	assert.NoError(t, err)
}

func TestCreatePaymentSumsOrders(t *testing.T) {
	e := newEnv(t)
	first := e.order(t, "ACME", 600)
	second := e.order(t, "ACME", 400)

	payment, err := e.svc.CreatePayment(context.Background(), domain.CreatePaymentRequest{
		EnterpriseID: "ACME",
		OrderIDs:     []string{first.ID, second.ID},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(payment.ID, "PAY-"))
	assert.Equal(t, int64(1000), payment.Amount)
	assert.Equal(t, []string{first.ID, second.ID}, e.index.OrdersByPayment(payment.ID))
}

func TestCreatePaymentCrossEnterprise(t *testing.T) {
	e := newEnv(t)
	mine := e.order(t, "ACME", 600)
	theirs := e.order(t, "GLOBEX", 400)

	_, err := e.svc.CreatePayment(context.Background(), domain.CreatePaymentRequest{
		EnterpriseID: "ACME",
		OrderIDs:     []string{mine.ID, theirs.ID},
	})
	assert.ErrorIs(t, err, entity.ErrConsistencyViolation)

	// the failed call left nothing behind
	assert.Equal(t, 0, e.store.Count(entity.KindPayment))
	assert.Equal(t, relationship.Counts{}, e.index.Stats())
}

func TestCreatePaymentUnknownOrder(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreatePayment(context.Background(), domain.CreatePaymentRequest{
		EnterpriseID: "ACME",
		OrderIDs:     []string{"ORD-missing"},
	})
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Equal(t, 0, e.store.Count(entity.KindPayment))
}

func TestCreatePaymentValidation(t *testing.T) {
	e := newEnv(t)
	order := e.order(t, "ACME", 100)
	ctx := context.Background()

	_, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{EnterpriseID: "ACME"})
	assert.ErrorIs(t, err, domain.ErrMissingOrderIDs)

	_, err = e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{
		EnterpriseID: "ACME",
		OrderIDs:     []string{order.ID, order.ID},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
}

func TestCreateEnterpriseTotal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := e.order(t, "ACME", 600)
	second := e.order(t, "ACME", 400)

	p1, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{EnterpriseID: "ACME", OrderIDs: []string{first.ID}})
	require.NoError(t, err)
	p2, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{EnterpriseID: "ACME", OrderIDs: []string{second.ID}})
	require.NoError(t, err)

	ent, err := e.svc.CreateEnterpriseTotal(ctx, domain.CreateEnterpriseTotalRequest{
		EnterpriseID: "ACME",
		PaymentIDs:   []string{p1.ID, p2.ID},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ent.ID, "ENT-"))
	assert.Equal(t, int64(1000), ent.TotalAmount)

	linked, ok := e.index.EnterpriseTotalByPayment(p1.ID)
	assert.True(t, ok)
	assert.Equal(t, ent.ID, linked)

	// a payment rolls into at most one enterprise total
	_, err = e.svc.CreateEnterpriseTotal(ctx, domain.CreateEnterpriseTotalRequest{
		EnterpriseID: "ACME",
		PaymentIDs:   []string{p1.ID},
	})
	assert.ErrorIs(t, err, entity.ErrConsistencyViolation)
	assert.Equal(t, 1, e.store.Count(entity.KindEnterpriseTotal))
}

func TestCreateEnterpriseTotalConcurrent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.order(t, "ACME", 500)

	payment, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{
		EnterpriseID: "ACME",
		OrderIDs:     []string{order.ID},
	})
	require.NoError(t, err)

	// many writers race to roll up the same payment; exactly one may win,
	// the losers must fail without leaving an orphan enterprise total
	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.CreateEnterpriseTotal(ctx, domain.CreateEnterpriseTotalRequest{
				EnterpriseID: "ACME",
				PaymentIDs:   []string{payment.ID},
			})
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, entity.ErrConsistencyViolation)
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, e.store.Count(entity.KindEnterpriseTotal))

	linked, ok := e.index.EnterpriseTotalByPayment(payment.ID)
	assert.True(t, ok)
	assert.True(t, e.store.Exists(entity.KindEnterpriseTotal, linked))
}

func TestCreateTotalAmount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.order(t, "ACME", 700)

	payment, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{EnterpriseID: "ACME", OrderIDs: []string{order.ID}})
	require.NoError(t, err)
	ent, err := e.svc.CreateEnterpriseTotal(ctx, domain.CreateEnterpriseTotalRequest{EnterpriseID: "ACME", PaymentIDs: []string{payment.ID}})
	require.NoError(t, err)

	total, err := e.svc.CreateTotalAmount(ctx, domain.CreateTotalAmountRequest{EnterpriseTotalIDs: []string{ent.ID}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(total.ID, "TOT-"))
	assert.Equal(t, int64(700), total.TotalAmount)

	linked, ok := e.index.TotalByEnterpriseTotal(ent.ID)
	assert.True(t, ok)
	assert.Equal(t, total.ID, linked)

	_, err = e.svc.CreateTotalAmount(ctx, domain.CreateTotalAmountRequest{EnterpriseTotalIDs: []string{ent.ID}})
	assert.ErrorIs(t, err, entity.ErrConsistencyViolation)
}

func TestReassignPayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := e.order(t, "ACME", 600)
	second := e.order(t, "ACME", 400)

	p1, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{EnterpriseID: "ACME", OrderIDs: []string{first.ID}})
	require.NoError(t, err)
	p2, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{EnterpriseID: "ACME", OrderIDs: []string{second.ID}})
	require.NoError(t, err)

	entA, err := e.svc.CreateEnterpriseTotal(ctx, domain.CreateEnterpriseTotalRequest{EnterpriseID: "ACME", PaymentIDs: []string{p1.ID}})
	require.NoError(t, err)
	entB, err := e.svc.CreateEnterpriseTotal(ctx, domain.CreateEnterpriseTotalRequest{EnterpriseID: "ACME", PaymentIDs: []string{p2.ID}})
	require.NoError(t, err)

	require.NoError(t, e.svc.ReassignPayment(ctx, domain.ReassignPaymentRequest{
		PaymentID:         p1.ID,
		EnterpriseTotalID: entB.ID,
	}))

	linked, ok := e.index.EnterpriseTotalByPayment(p1.ID)
	assert.True(t, ok)
	assert.Equal(t, entB.ID, linked)
	assert.NotContains(t, e.index.PaymentsByEnterpriseTotal(entA.ID), p1.ID)
	assert.Contains(t, e.index.PaymentsByEnterpriseTotal(entB.ID), p1.ID)

	// reassigning to the current target is a no-op
	require.NoError(t, e.svc.ReassignPayment(ctx, domain.ReassignPaymentRequest{
		PaymentID:         p1.ID,
		EnterpriseTotalID: entB.ID,
	}))
}

func TestReassignPaymentCrossEnterprise(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mine := e.order(t, "ACME", 600)
	theirs := e.order(t, "GLOBEX", 400)

	p1, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{EnterpriseID: "ACME", OrderIDs: []string{mine.ID}})
	require.NoError(t, err)
	p2, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{EnterpriseID: "GLOBEX", OrderIDs: []string{theirs.ID}})
	require.NoError(t, err)

	entA, err := e.svc.CreateEnterpriseTotal(ctx, domain.CreateEnterpriseTotalRequest{EnterpriseID: "ACME", PaymentIDs: []string{p1.ID}})
	require.NoError(t, err)

	err = e.svc.ReassignPayment(ctx, domain.ReassignPaymentRequest{
		PaymentID:         p2.ID,
		EnterpriseTotalID: entA.ID,
	})
	assert.ErrorIs(t, err, entity.ErrConsistencyViolation)
	_, ok := e.index.EnterpriseTotalByPayment(p2.ID)
	assert.False(t, ok)
}

func TestDeleteOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	linked := e.order(t, "ACME", 600)
	orphan := e.order(t, "ACME", 400)

	payment, err := e.svc.CreatePayment(ctx, domain.CreatePaymentRequest{EnterpriseID: "ACME", OrderIDs: []string{linked.ID}})
	require.NoError(t, err)

	err = e.svc.DeleteOrder(ctx, domain.DeleteOrderRequest{ID: linked.ID})
	assert.ErrorIs(t, err, entity.ErrStillReferenced)
	assert.True(t, e.store.Exists(entity.KindOrder, linked.ID))

	require.NoError(t, e.svc.DeleteOrder(ctx, domain.DeleteOrderRequest{ID: orphan.ID}))
	assert.False(t, e.store.Exists(entity.KindOrder, orphan.ID))

	err = e.svc.DeleteOrder(ctx, domain.DeleteOrderRequest{ID: "ORD-missing"})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	// unlink frees the order for deletion
	e.index.UnlinkPaymentOrder(payment.ID, linked.ID)
	require.NoError(t, e.svc.DeleteOrder(ctx, domain.DeleteOrderRequest{ID: linked.ID}))
}
