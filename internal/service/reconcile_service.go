package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"
	"dev3-backend/pkg/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReconcileServiceImpl implements ports.ReconcileService.
type ReconcileServiceImpl struct {
	payments ports.PaymentRepository
	cache    ports.ReconciledCache // nil = no fast path
	events   ports.EventPublisher  // nil = no events
	cacheTTL time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewReconcileService creates a new ReconcileServiceImpl.
func NewReconcileService(
	payments ports.PaymentRepository,
	cache ports.ReconciledCache,
	events ports.EventPublisher,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		payments: payments,
		cache:    cache,
		events:   events,
		cacheTTL: cacheTTL,
		log:      log,
		now:      time.Now,
	}
}

// Reconcile marks the payment named by the first transfer's memo as PAID.
// Redeliveries and already-paid payments return the stored record unchanged.
func (s *ReconcileServiceImpl) Reconcile(ctx context.Context, body []byte) (*domain.Payment, error) {
	timer := prometheus.NewTimer(reconcileDuration)
	defer timer.ObserveDuration()

	n, err := ParseTransferEvents(body)
	if err != nil {
		reconcileTotal.WithLabelValues(outcomeMalformed).Inc()
		s.log.Warn().Err(err).Msg("rejected transfer notification")
		return nil, err
	}
	ev := n.Events[0]
	if len(n.Events) > 1 {
		s.log.Warn().Int("events", len(n.Events)).Str("memo", ev.Memo).Msg("only the first transfer event is reconciled")
	}

	if p := s.cachedPaid(ctx, ev.Memo); p != nil {
		reconcileTotal.WithLabelValues(outcomeDuplicate).Inc()
		return p, nil
	}

	payment, err := s.payments.GetByCorrelationToken(ctx, ev.Memo)
	if err != nil {
		reconcileTotal.WithLabelValues(outcomeError).Inc()
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find payment by token: %w", err))
	}
	if payment == nil {
		reconcileTotal.WithLabelValues(outcomeNotFound).Inc()
		s.log.Warn().Str("memo", ev.Memo).Str("tx", n.TransactionHash).Msg("transfer memo matches no payment")
		return nil, apperror.ErrNotFound("Payment")
	}

	if payment.IsPaid() {
		reconcileTotal.WithLabelValues(outcomeDuplicate).Inc()
		s.remember(ctx, payment)
		return payment, nil
	}

	s.checkAmount(payment, ev)

	paidAt := s.now().UTC()
	changed, err := s.payments.MarkPaid(ctx, payment.ID, paidAt)
	if err != nil {
		reconcileTotal.WithLabelValues(outcomeError).Inc()
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mark payment paid: %w", err))
	}
	if !changed {
		// A concurrent delivery won the transition; report its result.
		current, err := s.payments.GetByID(ctx, payment.ID)
		if err != nil {
			reconcileTotal.WithLabelValues(outcomeError).Inc()
			return nil, apperror.ErrDatabaseError(fmt.Errorf("reload payment: %w", err))
		}
		if current == nil {
			reconcileTotal.WithLabelValues(outcomeNotFound).Inc()
			return nil, apperror.ErrNotFound("Payment")
		}
		reconcileTotal.WithLabelValues(outcomeDuplicate).Inc()
		s.remember(ctx, current)
		return current, nil
	}

	payment.Status = domain.PaymentStatusPaid
	payment.UpdatedAt = paidAt
	reconcileTotal.WithLabelValues(outcomePaid).Inc()

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("memo", ev.Memo).
		Str("sender", ev.OldOwnerID).
		Str("tx", n.TransactionHash).
		Msg("payment marked paid")

	s.remember(ctx, payment)
	s.publish(ctx, payment, ev)
	return payment, nil
}

// checkAmount logs transfers whose amount differs from the requested amount.
// The transfer is still accepted.
func (s *ReconcileServiceImpl) checkAmount(p *domain.Payment, ev domain.TransferEvent) {
	if ev.Amount == "" {
		return
	}
	want, err1 := decimal.NewFromString(p.Amount)
	got, err2 := decimal.NewFromString(ev.Amount)
	if err := errors.Join(err1, err2); err != nil {
		s.log.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("cannot compare transfer amount")
		return
	}
	if !want.Equal(got) {
		amountMismatchTotal.Inc()
		s.log.Warn().
			Str("payment_id", p.ID.String()).
			Str("expected", want.String()).
			Str("received", got.String()).
			Msg("transfer amount differs from payment amount")
	}
}

func (s *ReconcileServiceImpl) cachedPaid(ctx context.Context, token string) *domain.Payment {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, token)
	if err != nil {
		s.log.Warn().Err(err).Msg("reconciled cache read failed")
		return nil
	}
	if raw == nil {
		return nil
	}
	var p domain.Payment
	if err := json.Unmarshal(raw, &p); err != nil || !p.IsPaid() {
		return nil
	}
	return &p
}

// remember caches a PAID payment (best-effort).
func (s *ReconcileServiceImpl) remember(ctx context.Context, p *domain.Payment) {
	if s.cache == nil || !p.IsPaid() {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, p.CorrelationToken, raw, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("failed to cache reconciled payment")
	}
}

// publish emits payment.paid (best-effort; the PAID row is the source of truth).
func (s *ReconcileServiceImpl) publish(ctx context.Context, p *domain.Payment, ev domain.TransferEvent) {
	if s.events == nil {
		return
	}
	err := s.events.PublishPaymentPaid(ctx, domain.PaymentPaidEvent{
		PaymentID:        p.ID,
		CorrelationToken: p.CorrelationToken,
		ProjectID:        p.ProjectID,
		Owner:            p.OwnerUID,
		Amount:           p.Amount,
		TransferAmount:   ev.Amount,
		Sender:           ev.OldOwnerID,
		Receiver:         ev.NewOwnerID,
		PaidAt:           p.UpdatedAt,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("failed to publish payment.paid")
	}
}
