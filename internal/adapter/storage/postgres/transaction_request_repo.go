package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionRequestColumns = `id, uuid, contract_id, method, args::text, gas::text, deposit::text, status,
	tx_hash, receipt_id, caller_address, tx_details::text, owner_uid, project_id, created_at, updated_at`

// TransactionRequestRepo implements ports.TransactionRequestRepository.
type TransactionRequestRepo struct {
	pool Pool
}

// NewTransactionRequestRepo creates a new TransactionRequestRepo.
func NewTransactionRequestRepo(pool Pool) *TransactionRequestRepo {
	return &TransactionRequestRepo{pool: pool}
}

// Create inserts a new transaction request. A uuid collision yields domain.ErrDuplicate.
func (r *TransactionRequestRepo) Create(ctx context.Context, req *domain.TransactionRequest) error {
	query := `INSERT INTO transaction_requests (id, uuid, contract_id, method, args, gas, deposit, status, owner_uid, project_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::numeric, $7::numeric, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		req.ID, req.UUID, req.ContractID, req.Method, jsonText(req.Args), req.Gas, req.Deposit,
		string(req.Status), req.OwnerUID, req.ProjectID, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert transaction request: %w", err)
	}
	return nil
}

// GetByID fetches a transaction request by its primary key.
func (r *TransactionRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionRequest, error) {
	query := `SELECT ` + transactionRequestColumns + ` FROM transaction_requests WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get transaction request by id")
}

// GetByUUID fetches a transaction request by its public handle.
func (r *TransactionRequestRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.TransactionRequest, error) {
	query := `SELECT ` + transactionRequestColumns + ` FROM transaction_requests WHERE uuid = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get transaction request by uuid")
}

// MarkExecuted flips a PENDING request to EXECUTED. Only one concurrent caller can win.
func (r *TransactionRequestRepo) MarkExecuted(ctx context.Context, id uuid.UUID, d domain.ExecutionDetails, at time.Time) (bool, error) {
	query := `UPDATE transaction_requests
		SET status = 'EXECUTED', tx_hash = $2, receipt_id = $3, caller_address = $4, tx_details = $5::jsonb, updated_at = $6
		WHERE uuid = $1 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, query, id, d.TxHash, d.ReceiptID, d.CallerAddress, jsonText(d.TxDetails), at)
	if err != nil {
		return false, fmt.Errorf("mark transaction request executed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List fetches an owner's transaction requests with filtering and pagination.
func (r *TransactionRequestRepo) List(ctx context.Context, params ports.TransactionRequestListParams) ([]domain.TransactionRequest, int64, error) {
	conditions := []string{"owner_uid = $1"}
	args := []any{params.OwnerUID}
	argIdx := 2

	if params.ProjectID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argIdx))
		args = append(args, params.ProjectID)
		argIdx++
	}
	if params.ContractID != "" {
		conditions = append(conditions, fmt.Sprintf("contract_id ILIKE $%d", argIdx))
		args = append(args, containsPattern(params.ContractID))
		argIdx++
	}
	if params.Method != "" {
		conditions = append(conditions, fmt.Sprintf("method ILIKE $%d", argIdx))
		args = append(args, containsPattern(params.Method))
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*params.Status))
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transaction_requests %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transaction requests: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM transaction_requests %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionRequestColumns, where, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transaction requests: %w", err)
	}
	defer rows.Close()

	items := make([]domain.TransactionRequest, 0, params.Limit)
	for rows.Next() {
		tr, err := scanTransactionRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction request: %w", err)
		}
		items = append(items, *tr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction requests: %w", err)
	}
	return items, total, nil
}

func (r *TransactionRequestRepo) scanOne(row pgx.Row, op string) (*domain.TransactionRequest, error) {
	tr, err := scanTransactionRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tr, nil
}

func scanTransactionRequest(row pgx.Row) (*domain.TransactionRequest, error) {
	var (
		tr              domain.TransactionRequest
		status          string
		args, txDetails *string
	)
	err := row.Scan(
		&tr.ID, &tr.UUID, &tr.ContractID, &tr.Method, &args, &tr.Gas, &tr.Deposit, &status,
		&tr.TxHash, &tr.ReceiptID, &tr.CallerAddress, &txDetails, &tr.OwnerUID, &tr.ProjectID,
		&tr.CreatedAt, &tr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tr.Status = domain.TransactionRequestStatus(status)
	if args != nil {
		tr.Args = json.RawMessage(*args)
	}
	if txDetails != nil {
		tr.TxDetails = json.RawMessage(*txDetails)
	}
	return &tr, nil
}

// jsonText maps an empty document to SQL NULL.
func jsonText(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	s := string(raw)
	return &s
}

// containsPattern builds an ILIKE pattern matching s anywhere, with s's
// own wildcards taken literally.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
