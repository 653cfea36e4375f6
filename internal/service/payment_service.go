package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"
	"dev3-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	correlationTokenBytes = 12 // 24 hex chars
	tokenAttempts         = 3
)

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	payments ports.PaymentRepository
	projects ports.ProjectRepository
	log      zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(payments ports.PaymentRepository, projects ports.ProjectRepository, log zerolog.Logger) *PaymentServiceImpl {
	return &PaymentServiceImpl{payments: payments, projects: projects, log: log}
}

// Create registers a PENDING payment under a project the caller owns.
// The returned CorrelationToken is what the payer puts in the transfer memo.
func (s *PaymentServiceImpl) Create(ctx context.Context, req ports.CreatePaymentRequest) (*domain.Payment, error) {
	amount, ok := domain.ParseAmount(req.Amount)
	if !ok {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Receiver != nil && !domain.IsNearAccountID(*req.Receiver) {
		return nil, apperror.Validation("receiver must be a NEAR wallet")
	}
	if req.ReceiverFungible != nil && !domain.IsNearAccountID(*req.ReceiverFungible) {
		return nil, apperror.Validation("receiver_fungible must be a NEAR contract account")
	}

	if err := s.checkProjectOwner(ctx, req.ProjectID, req.OwnerUID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:               uuid.New(),
		Memo:             req.Memo,
		Amount:           amount.String(),
		Receiver:         req.Receiver,
		ReceiverFungible: req.ReceiverFungible,
		Status:           domain.PaymentStatusPending,
		OwnerUID:         req.OwnerUID,
		ProjectID:        req.ProjectID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var err error
	for attempt := 1; ; attempt++ {
		payment.CorrelationToken, err = generateRandomHex(correlationTokenBytes)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("generate correlation token: %w", err))
		}
		err = s.payments.Create(ctx, payment)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicate) || attempt == tokenAttempts {
			return nil, apperror.InternalError(fmt.Errorf("create payment: %w", err))
		}
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("project_id", payment.ProjectID.String()).
		Str("amount", payment.Amount).
		Msg("payment created")

	return payment, nil
}

// Get returns a payment owned by ownerUID.
func (s *PaymentServiceImpl) Get(ctx context.Context, id uuid.UUID, ownerUID string) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get payment: %w", err))
	}
	if p == nil {
		return nil, apperror.ErrNotFound("Payment")
	}
	if p.OwnerUID != ownerUID {
		return nil, apperror.ErrForbidden()
	}
	return p, nil
}

// GetByCorrelationToken returns a payment by its public token.
func (s *PaymentServiceImpl) GetByCorrelationToken(ctx context.Context, token string) (*domain.Payment, error) {
	p, err := s.payments.GetByCorrelationToken(ctx, token)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get payment by token: %w", err))
	}
	if p == nil {
		return nil, apperror.ErrNotFound("Payment")
	}
	return p, nil
}

// List pages through the caller's payments, optionally within one project.
func (s *PaymentServiceImpl) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
	if params.Status != nil && !params.Status.Valid() {
		return nil, 0, apperror.Validation("unknown payment status")
	}
	params = params.Normalized()
	if params.ProjectID != uuid.Nil {
		if err := s.checkProjectOwner(ctx, params.ProjectID, params.OwnerUID); err != nil {
			return nil, 0, err
		}
	}

	items, total, err := s.payments.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list payments: %w", err))
	}
	return items, total, nil
}

func (s *PaymentServiceImpl) checkProjectOwner(ctx context.Context, projectID uuid.UUID, ownerUID string) error {
	return checkProjectOwner(ctx, s.projects, projectID, ownerUID)
}

// checkProjectOwner hides foreign projects behind NotFound.
func checkProjectOwner(ctx context.Context, projects ports.ProjectRepository, projectID uuid.UUID, ownerUID string) error {
	project, err := projects.GetByID(ctx, projectID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get project: %w", err))
	}
	if project == nil || project.OwnerUID != ownerUID {
		return apperror.ErrNotFound("Project")
	}
	return nil
}

// generateRandomHex generates a random hex string of n bytes.
func generateRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
