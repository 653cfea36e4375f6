package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment() *domain.Payment {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Payment{
		ID:               uuid.New(),
		CorrelationToken: "784ff1e4bb85ed5475a1ff5d",
		Memo:             "order #42",
		Amount:           "12",
		Receiver:         strPtr("bob.testnet"),
		ReceiverFungible: strPtr("usdc.testnet"),
		Status:           domain.PaymentStatusPending,
		OwnerUID:         "alice.testnet",
		ProjectID:        uuid.New(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func paymentColumnNames() []string {
	return []string{"id", "correlation_token", "memo", "amount", "receiver", "receiver_fungible", "status", "owner_uid", "project_id", "created_at", "updated_at"}
}

func paymentRows(ps ...*domain.Payment) *pgxmock.Rows {
	rows := pgxmock.NewRows(paymentColumnNames())
	for _, p := range ps {
		rows.AddRow(p.ID, p.CorrelationToken, p.Memo, p.Amount, p.Receiver, p.ReceiverFungible,
			string(p.Status), p.OwnerUID, p.ProjectID, p.CreatedAt, p.UpdatedAt)
	}
	return rows
}

func TestPaymentRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment()

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(p.ID, p.CorrelationToken, p.Memo, p.Amount, p.Receiver, p.ReceiverFungible,
			"PENDING", p.OwnerUID, p.ProjectID, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_Create_DuplicateToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(anyArgs(11)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "payments_correlation_token_key"})

	assert.ErrorIs(t, repo.Create(context.Background(), newTestPayment()), domain.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByCorrelationToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment()

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE correlation_token = \$1`).
		WithArgs(p.CorrelationToken).
		WillReturnRows(paymentRows(p))

	got, err := repo.GetByCorrelationToken(context.Background(), p.CorrelationToken)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
	assert.Equal(t, "bob.testnet", *got.Receiver)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByID_TrimsAmountScale(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment()
	p.Amount = "12.500000000000000000000000"

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE id = \$1`).
		WithArgs(p.ID).
		WillReturnRows(paymentRows(p))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "12.5", got.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE id = \$1`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(paymentColumnNames()))

	got, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestPaymentRepo_MarkPaid(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"pending row flipped", 1, true},
		{"already paid", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			repo := NewPaymentRepo(mock)
			id := uuid.New()
			at := time.Now().UTC()

			mock.ExpectExec(`UPDATE payments SET status = 'PAID', updated_at = \$2 WHERE id = \$1 AND status = 'PENDING'`).
				WithArgs(id, at).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			ok, err := repo.MarkPaid(context.Background(), id, at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepo_MarkPaid_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectExec("UPDATE payments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("deadlock"))

	ok, err := repo.MarkPaid(context.Background(), uuid.New(), time.Now())
	assert.False(t, ok)
	assert.ErrorContains(t, err, "deadlock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p1, p2 := newTestPayment(), newTestPayment()
	p2.CorrelationToken = "0a0b0c0d0e0f101112131415"
	status := domain.PaymentStatusPending

	params := ports.PaymentListParams{
		OwnerUID:  "alice.testnet",
		ProjectID: p1.ProjectID,
		Status:    &status,
		Receiver:  strPtr("bob.testnet"),
		Offset:    10,
		Limit:     2,
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments WHERE owner_uid = \$1 AND project_id = \$2 AND status = \$3 AND receiver = \$4`).
		WithArgs("alice.testnet", p1.ProjectID, "PENDING", "bob.testnet").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery(`SELECT .+ FROM payments WHERE .+ ORDER BY created_at DESC LIMIT \$5 OFFSET \$6`).
		WithArgs("alice.testnet", p1.ProjectID, "PENDING", "bob.testnet", 2, 10).
		WillReturnRows(paymentRows(p1, p2))

	items, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, items, 2)
	assert.Equal(t, p2.CorrelationToken, items[1].CorrelationToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_List_OwnerOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments WHERE owner_uid = \$1$`).
		WithArgs("alice.testnet").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`LIMIT \$2 OFFSET \$3`).
		WithArgs("alice.testnet", 10, 0).
		WillReturnRows(pgxmock.NewRows(paymentColumnNames()))

	items, total, err := repo.List(context.Background(), ports.PaymentListParams{OwnerUID: "alice.testnet", Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
