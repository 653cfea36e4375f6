package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"
	"dev3-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransactionRequestServiceImpl implements ports.TransactionRequestService.
type TransactionRequestServiceImpl struct {
	requests ports.TransactionRequestRepository
	projects ports.ProjectRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewTransactionRequestService creates a new TransactionRequestServiceImpl.
func NewTransactionRequestService(requests ports.TransactionRequestRepository, projects ports.ProjectRepository, log zerolog.Logger) *TransactionRequestServiceImpl {
	return &TransactionRequestServiceImpl{requests: requests, projects: projects, log: log, now: time.Now}
}

// Create stores a PENDING request under a project the caller owns.
func (s *TransactionRequestServiceImpl) Create(ctx context.Context, req ports.CreateTransactionRequest) (*domain.TransactionRequest, error) {
	if !domain.IsNearAccountID(req.ContractID) {
		return nil, apperror.Validation("contractId must be a NEAR contract account")
	}
	if req.Method == "" {
		return nil, apperror.Validation("method can't be empty")
	}
	if err := checkProjectOwner(ctx, s.projects, req.ProjectID, req.OwnerUID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	tr := &domain.TransactionRequest{
		ID:         uuid.New(),
		UUID:       uuid.New(),
		ContractID: req.ContractID,
		Method:     req.Method,
		Args:       req.Args,
		Gas:        req.Gas,
		Deposit:    req.Deposit,
		Status:     domain.TransactionRequestPending,
		OwnerUID:   req.OwnerUID,
		ProjectID:  req.ProjectID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.requests.Create(ctx, tr); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperror.InternalError(fmt.Errorf("transaction request uuid collision: %w", err))
		}
		return nil, apperror.InternalError(fmt.Errorf("create transaction request: %w", err))
	}

	s.log.Info().
		Str("uuid", tr.UUID.String()).
		Str("contract_id", tr.ContractID).
		Str("method", tr.Method).
		Msg("transaction request created")
	return tr, nil
}

// Get returns a request owned by ownerUID.
func (s *TransactionRequestServiceImpl) Get(ctx context.Context, id uuid.UUID, ownerUID string) (*domain.TransactionRequest, error) {
	tr, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction request: %w", err))
	}
	if tr == nil {
		return nil, apperror.ErrNotFound("Transaction request")
	}
	if tr.OwnerUID != ownerUID {
		return nil, apperror.ErrForbidden()
	}
	return tr, nil
}

// GetByUUID returns a request by its public handle.
func (s *TransactionRequestServiceImpl) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.TransactionRequest, error) {
	tr, err := s.requests.GetByUUID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction request by uuid: %w", err))
	}
	if tr == nil {
		return nil, apperror.ErrNotFound("Transaction request")
	}
	return tr, nil
}

// List pages through the caller's requests.
func (s *TransactionRequestServiceImpl) List(ctx context.Context, params ports.TransactionRequestListParams) ([]domain.TransactionRequest, int64, error) {
	if params.Status != nil && !params.Status.Valid() {
		return nil, 0, apperror.Validation("unknown transaction request status")
	}
	params = params.Normalized()

	items, total, err := s.requests.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transaction requests: %w", err))
	}
	return items, total, nil
}

// UpdateStatus records a wallet's report on a request. EXECUTED is applied
// at most once; repeats return the stored record. An executed request
// cannot go back to PENDING.
func (s *TransactionRequestServiceImpl) UpdateStatus(ctx context.Context, req ports.UpdateTransactionRequest) (*domain.TransactionRequest, error) {
	if !req.Status.Valid() {
		return nil, apperror.Validation("unknown transaction request status")
	}

	tr, err := s.GetByUUID(ctx, req.UUID)
	if err != nil {
		return nil, err
	}

	if req.Status == domain.TransactionRequestPending {
		if tr.IsExecuted() {
			return nil, apperror.Validation("transaction request already executed")
		}
		return tr, nil
	}
	if tr.IsExecuted() {
		return tr, nil
	}

	details := domain.ExecutionDetails{
		TxHash:    req.TxHash,
		ReceiptID: req.ReceiptID,
		TxDetails: req.TxDetails,
	}
	if req.CallerUID != "" {
		caller := req.CallerUID
		details.CallerAddress = &caller
	}

	at := s.now().UTC()
	won, err := s.requests.MarkExecuted(ctx, tr.UUID, details, at)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark transaction request executed: %w", err))
	}
	if !won {
		// Another report got there first.
		return s.GetByUUID(ctx, tr.UUID)
	}

	tr.Status = domain.TransactionRequestExecuted
	tr.TxHash = details.TxHash
	tr.ReceiptID = details.ReceiptID
	tr.CallerAddress = details.CallerAddress
	tr.TxDetails = details.TxDetails
	tr.UpdatedAt = at

	s.log.Info().
		Str("uuid", tr.UUID.String()).
		Str("caller", req.CallerUID).
		Msg("transaction request executed")
	return tr, nil
}
