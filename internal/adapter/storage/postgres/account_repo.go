package postgres

import (
	"context"
	"errors"
	"fmt"

	"dev3-backend/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, uid, account_type, username, near_wallet_account_id, roles, is_censored, is_active, created_at, updated_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account. A taken uid or wallet id yields domain.ErrDuplicate.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.UID, string(a.AccountType), a.Username, a.NearWalletAccountID,
		rolesToStrings(a.Roles), a.IsCensored, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// FindByIdentifier fetches an account whose uid or near_wallet_account_id equals identifier.
func (r *AccountRepo) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts WHERE uid = $1 OR near_wallet_account_id = $1
		ORDER BY created_at LIMIT 1`

	var (
		a           domain.Account
		accountType string
		roles       []string
	)
	err := r.pool.QueryRow(ctx, query, identifier).Scan(
		&a.ID, &a.UID, &accountType, &a.Username, &a.NearWalletAccountID,
		&roles, &a.IsCensored, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account by identifier: %w", err)
	}
	a.AccountType = domain.AccountType(accountType)
	a.Roles = stringsToRoles(roles)
	return &a, nil
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func stringsToRoles(in []string) []domain.Role {
	out := make([]domain.Role, len(in))
	for i, s := range in {
		out[i] = domain.Role(s)
	}
	return out
}
