package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"
	"dev3-backend/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testMemo = "784ff1e4bb85ed5475a1ff5d"

func pendingPayment() *domain.Payment {
	now := time.Now().UTC().Add(-time.Hour)
	return &domain.Payment{
		ID:               uuid.New(),
		CorrelationToken: testMemo,
		Amount:           "12",
		Status:           domain.PaymentStatusPending,
		OwnerUID:         "rimatikdev.testnet",
		ProjectID:        uuid.New(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

type reconcileMocks struct {
	payments *mocks.MockPaymentRepository
	cache    *mocks.MockReconciledCache
	events   *mocks.MockEventPublisher
}

func setupReconcileService(t *testing.T) (*ReconcileServiceImpl, reconcileMocks) {
	ctrl := gomock.NewController(t)
	m := reconcileMocks{
		payments: mocks.NewMockPaymentRepository(ctrl),
		cache:    mocks.NewMockReconciledCache(ctrl),
		events:   mocks.NewMockEventPublisher(ctrl),
	}
	svc := NewReconcileService(m.payments, m.cache, m.events, time.Hour, newTestLogger())
	return svc, m
}

func TestReconcile_MarksPendingPaymentPaid(t *testing.T) {
	svc, m := setupReconcileService(t)
	p := pendingPayment()
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	m.cache.EXPECT().Get(gomock.Any(), testMemo).Return(nil, nil)
	m.payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(p, nil)
	m.payments.EXPECT().MarkPaid(gomock.Any(), p.ID, fixed).Return(true, nil)
	m.cache.EXPECT().Set(gomock.Any(), testMemo, gomock.Any(), time.Hour).Return(nil)
	m.events.EXPECT().PublishPaymentPaid(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e domain.PaymentPaidEvent) error {
			assert.Equal(t, p.ID, e.PaymentID)
			assert.Equal(t, testMemo, e.CorrelationToken)
			assert.Equal(t, "rimatikdev.testnet", e.Sender)
			assert.Equal(t, "bob.rimatikdev.testnet", e.Receiver)
			assert.Equal(t, fixed, e.PaidAt)
			return nil
		})

	got, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, got.Status)
	assert.Equal(t, fixed, got.UpdatedAt)
}

func TestReconcile_AlreadyPaidIsNoOp(t *testing.T) {
	svc, m := setupReconcileService(t)
	p := pendingPayment()
	p.Status = domain.PaymentStatusPaid
	paidAt := p.UpdatedAt

	m.cache.EXPECT().Get(gomock.Any(), testMemo).Return(nil, nil)
	m.payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(p, nil)
	m.cache.EXPECT().Set(gomock.Any(), testMemo, gomock.Any(), time.Hour).Return(nil)

	got, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, got.Status)
	assert.Equal(t, paidAt, got.UpdatedAt, "updated time must not move on a duplicate")
}

func TestReconcile_CacheHitSkipsStore(t *testing.T) {
	svc, m := setupReconcileService(t)
	p := pendingPayment()
	p.Status = domain.PaymentStatusPaid
	raw, _ := json.Marshal(p)

	m.cache.EXPECT().Get(gomock.Any(), testMemo).Return(raw, nil)

	got, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestReconcile_CacheErrorFallsBackToStore(t *testing.T) {
	svc, m := setupReconcileService(t)
	p := pendingPayment()
	p.Status = domain.PaymentStatusPaid

	m.cache.EXPECT().Get(gomock.Any(), testMemo).Return(nil, errors.New("redis down"))
	m.payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(p, nil)
	m.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	_, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
	require.NoError(t, err)
}

func TestReconcile_UnknownMemo(t *testing.T) {
	svc, m := setupReconcileService(t)

	m.cache.EXPECT().Get(gomock.Any(), testMemo).Return(nil, nil)
	m.payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(nil, nil)

	got, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
	assert.Nil(t, got)
	requireAppErrorCode(t, err, "PAY_004")
}

func TestReconcile_MalformedPayloadTouchesNothing(t *testing.T) {
	svc, _ := setupReconcileService(t)

	_, err := svc.Reconcile(context.Background(), []byte(`{"payload":{"Events":{"data":"[]"}}}`))
	requireAppErrorCode(t, err, "WH_002")
}

func TestReconcile_LostRaceReturnsCurrentRecord(t *testing.T) {
	svc, m := setupReconcileService(t)
	p := pendingPayment()
	winner := *p
	winner.Status = domain.PaymentStatusPaid
	winner.UpdatedAt = time.Now().UTC()

	m.cache.EXPECT().Get(gomock.Any(), testMemo).Return(nil, nil)
	m.payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(p, nil)
	m.payments.EXPECT().MarkPaid(gomock.Any(), p.ID, gomock.Any()).Return(false, nil)
	m.payments.EXPECT().GetByID(gomock.Any(), p.ID).Return(&winner, nil)
	m.cache.EXPECT().Set(gomock.Any(), testMemo, gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
	require.NoError(t, err)
	assert.Equal(t, winner.UpdatedAt, got.UpdatedAt)
}

func TestReconcile_StoreErrors(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		svc, m := setupReconcileService(t)
		m.cache.EXPECT().Get(gomock.Any(), testMemo).Return(nil, nil)
		m.payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(nil, errors.New("db down"))

		_, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
		requireAppErrorCode(t, err, "SYS_001")
	})

	t.Run("mark paid", func(t *testing.T) {
		svc, m := setupReconcileService(t)
		p := pendingPayment()
		m.cache.EXPECT().Get(gomock.Any(), testMemo).Return(nil, nil)
		m.payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(p, nil)
		m.payments.EXPECT().MarkPaid(gomock.Any(), p.ID, gomock.Any()).Return(false, errors.New("db down"))

		_, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
		requireAppErrorCode(t, err, "SYS_001")
	})
}

func TestReconcile_PublishFailureStillSucceeds(t *testing.T) {
	svc, m := setupReconcileService(t)
	p := pendingPayment()

	m.cache.EXPECT().Get(gomock.Any(), testMemo).Return(nil, nil)
	m.payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(p, nil)
	m.payments.EXPECT().MarkPaid(gomock.Any(), p.ID, gomock.Any()).Return(true, nil)
	m.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.events.EXPECT().PublishPaymentPaid(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	got, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
	require.NoError(t, err)
	assert.True(t, got.IsPaid())
}

func TestReconcile_AmountMismatchIsAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	payments := mocks.NewMockPaymentRepository(ctrl)
	svc := NewReconcileService(payments, nil, nil, 0, newTestLogger())
	p := pendingPayment()
	p.Amount = "12.5"

	payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(p, nil)
	payments.EXPECT().MarkPaid(gomock.Any(), p.ID, gomock.Any()).Return(true, nil)

	got, err := svc.Reconcile(context.Background(), []byte(sampleDelivery))
	require.NoError(t, err)
	assert.True(t, got.IsPaid())
}

func deliveryFor(memo, amount string) []byte {
	return []byte(`{"payload":{"Events":{"block_hash":"7Hk","receipt_id":"r-` + memo + `","transaction_hash":"tx-` + memo + `",` +
		`"event":"ft_transfer","standard":"nep141","version":"1.0.0",` +
		`"data":"[{'amount':'` + amount + `','memo':'` + memo + `','new_owner_id':'bob.rimatikdev.testnet','old_owner_id':'rimatikdev.testnet'}]"}}}`)
}

func TestReconcile_LaterPaymentSettlesAlone(t *testing.T) {
	svc, m := setupReconcileService(t)
	first := pendingPayment()
	second := pendingPayment()
	second.CorrelationToken = "0a1b2c3d4e5f60718293a4b5"
	second.CreatedAt = first.CreatedAt.Add(time.Minute)

	// Only the second payment's token may be looked up or written; any call
	// touching the first fails the controller.
	m.cache.EXPECT().Get(gomock.Any(), second.CorrelationToken).Return(nil, nil)
	m.payments.EXPECT().GetByCorrelationToken(gomock.Any(), second.CorrelationToken).Return(second, nil)
	m.payments.EXPECT().MarkPaid(gomock.Any(), second.ID, gomock.Any()).Return(true, nil)
	m.cache.EXPECT().Set(gomock.Any(), second.CorrelationToken, gomock.Any(), time.Hour).Return(nil)
	m.events.EXPECT().PublishPaymentPaid(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.Reconcile(context.Background(), deliveryFor(second.CorrelationToken, "12"))
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.True(t, got.IsPaid())
	assert.Equal(t, domain.PaymentStatusPending, first.Status)
}

// memPayments is a PaymentRepository whose MarkPaid is a compare-and-set,
// mirroring the conditional UPDATE in the PostgreSQL store.
type memPayments struct {
	ports.PaymentRepository
	mu     sync.Mutex
	p      domain.Payment
	writes atomic.Int32
}

func (r *memPayments) GetByCorrelationToken(_ context.Context, token string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.p.CorrelationToken {
		return nil, nil
	}
	cp := r.p
	return &cp, nil
}

func (r *memPayments) GetByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.p
	return &cp, nil
}

func (r *memPayments) MarkPaid(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.p.Status != domain.PaymentStatusPending {
		return false, nil
	}
	r.p.Status = domain.PaymentStatusPaid
	r.p.UpdatedAt = at
	r.writes.Add(1)
	return true, nil
}

func TestReconcile_ConcurrentDeliveriesWriteOnce(t *testing.T) {
	repo := &memPayments{p: *pendingPayment()}
	svc := NewReconcileService(repo, nil, nil, 0, newTestLogger())

	const deliveries = 20
	var wg sync.WaitGroup
	results := make([]*domain.Payment, deliveries)
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Reconcile(context.Background(), []byte(sampleDelivery))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), repo.writes.Load())
	for i := 0; i < deliveries; i++ {
		require.NoError(t, errs[i])
		assert.True(t, results[i].IsPaid())
		assert.Equal(t, repo.p.UpdatedAt, results[i].UpdatedAt)
	}
}
