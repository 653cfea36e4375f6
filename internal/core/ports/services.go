package ports

import (
	"context"
	"encoding/json"
	"time"

	"dev3-backend/internal/core/domain"

	"github.com/google/uuid"
)

// SignatureVerifier checks a wallet-signed payload and returns the signer's
// public key as "ed25519:<base58>". Pure; no I/O.
type SignatureVerifier interface {
	Verify(accountID string, signedPayload string) (string, error)
}

// KeyOracle asks the chain which public keys may act for an account.
// An account unknown to the chain yields an empty list and no error.
type KeyOracle interface {
	FetchAuthorizedKeys(ctx context.Context, accountID string) ([]string, error)
}

// WebhookSignatureService handles HMAC-SHA256 body signatures for webhook callers.
type WebhookSignatureService interface {
	Sign(secret string, body []byte) string
	Verify(secret string, body []byte, signature string) bool
}

// TokenService handles JWT session tokens.
type TokenService interface {
	Generate(account *domain.Account) (string, time.Time, error)
	Validate(tokenString string) (*SessionClaims, error)
}

// SessionClaims holds the parsed JWT claims.
type SessionClaims struct {
	UID         string
	Username    string
	AccountType domain.AccountType
	Roles       []domain.Role
}

// NonceStore remembers single-use values for replay prevention.
type NonceStore interface {
	// CheckAndSet atomically records nonce under scope.
	// Returns true if the nonce is new, false if already used.
	CheckAndSet(ctx context.Context, scope string, nonce string, ttl time.Duration) (bool, error)
}

// ReconciledCache is the Redis fast path for payments already marked PAID.
type ReconciledCache interface {
	Get(ctx context.Context, token string) ([]byte, error) // nil when absent
	Set(ctx context.Context, token string, value []byte, ttl time.Duration) error
}

// EventPublisher emits payment lifecycle events to the message broker.
type EventPublisher interface {
	PublishPaymentPaid(ctx context.Context, event domain.PaymentPaidEvent) error
}

// --- Service Ports (Business Logic) ---

// AuthService issues sessions for wallet-signed requests.
type AuthService interface {
	Login(ctx context.Context, username, signedJSON string) (string, time.Time, error) // token, expiry, error
	Register(ctx context.Context, req RegisterRequest) (*domain.Account, error)
}

// RegisterRequest holds input for wallet account registration.
type RegisterRequest struct {
	Username   string
	SignedJSON string
	Roles      []domain.Role
}

// PaymentService defines payment creation and reads.
type PaymentService interface {
	Create(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error)
	Get(ctx context.Context, id uuid.UUID, ownerUID string) (*domain.Payment, error)
	GetByCorrelationToken(ctx context.Context, token string) (*domain.Payment, error)
	List(ctx context.Context, params PaymentListParams) ([]domain.Payment, int64, error)
}

// CreatePaymentRequest holds validated input for payment creation.
type CreatePaymentRequest struct {
	OwnerUID         string
	ProjectID        uuid.UUID
	Amount           string
	Memo             string
	Receiver         *string
	ReceiverFungible *string
}

// ReconcileService applies indexer transfer notifications to payments.
type ReconcileService interface {
	Reconcile(ctx context.Context, body []byte) (*domain.Payment, error)
}

// TransactionRequestService manages contract calls prepared for wallets.
type TransactionRequestService interface {
	Create(ctx context.Context, req CreateTransactionRequest) (*domain.TransactionRequest, error)
	Get(ctx context.Context, id uuid.UUID, ownerUID string) (*domain.TransactionRequest, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*domain.TransactionRequest, error)
	List(ctx context.Context, params TransactionRequestListParams) ([]domain.TransactionRequest, int64, error)
	UpdateStatus(ctx context.Context, req UpdateTransactionRequest) (*domain.TransactionRequest, error)
}

// CreateTransactionRequest holds validated input for a new transaction request.
type CreateTransactionRequest struct {
	OwnerUID   string
	ProjectID  uuid.UUID
	ContractID string
	Method     string
	Args       json.RawMessage
	Gas        *string
	Deposit    *string
}

// UpdateTransactionRequest reports a wallet's progress on a request.
// CallerUID is the authenticated account sending the update.
type UpdateTransactionRequest struct {
	UUID      uuid.UUID
	Status    domain.TransactionRequestStatus
	CallerUID string
	TxHash    *string
	ReceiptID *string
	TxDetails json.RawMessage
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
