package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, correlation_token, memo, amount::text, receiver, receiver_fungible, status, owner_uid, project_id, created_at, updated_at`

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create inserts a new payment. A correlation token collision yields domain.ErrDuplicate.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, correlation_token, memo, amount, receiver, receiver_fungible, status, owner_uid, project_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.CorrelationToken, p.Memo, p.Amount, p.Receiver, p.ReceiverFungible,
		string(p.Status), p.OwnerUID, p.ProjectID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID fetches a payment by UUID.
func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get payment by id")
}

// GetByCorrelationToken fetches a payment by the token carried in transfer memos.
func (r *PaymentRepo) GetByCorrelationToken(ctx context.Context, token string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE correlation_token = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, token), "get payment by correlation token")
}

// MarkPaid flips a PENDING payment to PAID. Only one concurrent caller can win.
func (r *PaymentRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE payments SET status = 'PAID', updated_at = $2 WHERE id = $1 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("mark payment paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List fetches an owner's payments with filtering and pagination.
func (r *PaymentRepo) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("owner_uid = $%d", argIdx))
	args = append(args, params.OwnerUID)
	argIdx++

	if params.ProjectID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argIdx))
		args = append(args, params.ProjectID)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*params.Status))
		argIdx++
	}
	if params.Receiver != nil {
		conditions = append(conditions, fmt.Sprintf("receiver = $%d", argIdx))
		args = append(args, *params.Receiver)
		argIdx++
	}
	if params.ReceiverFungible != nil {
		conditions = append(conditions, fmt.Sprintf("receiver_fungible = $%d", argIdx))
		args = append(args, *params.ReceiverFungible)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM payments %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, where, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0, params.Limit)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, total, nil
}

func (r *PaymentRepo) scanOne(row pgx.Row, op string) (*domain.Payment, error) {
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		status string
	)
	err := row.Scan(
		&p.ID, &p.CorrelationToken, &p.Memo, &p.Amount, &p.Receiver, &p.ReceiverFungible,
		&status, &p.OwnerUID, &p.ProjectID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PaymentStatus(status)
	// NUMERIC(78, 24) renders with the full scale; drop the padding.
	if d, err := decimal.NewFromString(p.Amount); err == nil {
		p.Amount = d.String()
	}
	return &p, nil
}
