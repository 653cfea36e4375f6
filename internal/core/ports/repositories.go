package ports

import (
	"context"
	"time"

	"dev3-backend/internal/core/domain"

	"github.com/google/uuid"
)

// AccountRepository defines persistence operations for wallet accounts.
// Lookups return (nil, nil) when no record matches.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	// FindByIdentifier matches uid or the legacy near_wallet_account_id column.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
}

// ProjectRepository exposes the project lookups payments need.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
}

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByCorrelationToken(ctx context.Context, token string) (*domain.Payment, error)
	List(ctx context.Context, params PaymentListParams) ([]domain.Payment, int64, error)
	// MarkPaid moves a PENDING payment to PAID in one conditional write.
	// Returns false when the row was not PENDING (already paid or missing).
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// PaymentListParams holds filter + pagination for listing payments.
type PaymentListParams struct {
	OwnerUID         string
	ProjectID        uuid.UUID
	Status           *domain.PaymentStatus
	Receiver         *string
	ReceiverFungible *string
	Offset           int
	Limit            int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalized clamps Offset to >= 0 and Limit to 1..MaxPageLimit,
// substituting DefaultPageLimit for a missing limit.
func (p PaymentListParams) Normalized() PaymentListParams {
	p.Offset, p.Limit = normalizePage(p.Offset, p.Limit)
	return p
}

func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return offset, limit
}

// TransactionRequestRepository defines persistence operations for
// transaction requests.
type TransactionRequestRepository interface {
	Create(ctx context.Context, req *domain.TransactionRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionRequest, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*domain.TransactionRequest, error)
	List(ctx context.Context, params TransactionRequestListParams) ([]domain.TransactionRequest, int64, error)
	// MarkExecuted moves a PENDING request to EXECUTED in one conditional
	// write. Returns false when the row was not PENDING.
	MarkExecuted(ctx context.Context, id uuid.UUID, details domain.ExecutionDetails, at time.Time) (bool, error)
}

// TransactionRequestListParams holds filter + pagination for listing
// transaction requests. ContractID and Method match case-insensitive substrings.
type TransactionRequestListParams struct {
	OwnerUID   string
	ProjectID  uuid.UUID
	ContractID string
	Method     string
	Status     *domain.TransactionRequestStatus
	Offset     int
	Limit      int
}

// Normalized applies the same page bounds as PaymentListParams.
func (p TransactionRequestListParams) Normalized() TransactionRequestListParams {
	p.Offset, p.Limit = normalizePage(p.Offset, p.Limit)
	return p
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
