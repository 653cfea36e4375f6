package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"
	"dev3-backend/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var tokenRe = regexp.MustCompile(`^[0-9a-f]{24}$`)

type paymentTestDeps struct {
	svc      *PaymentServiceImpl
	payments *mocks.MockPaymentRepository
	projects *mocks.MockProjectRepository
}

func setupPaymentService(t *testing.T) *paymentTestDeps {
	ctrl := gomock.NewController(t)
	d := &paymentTestDeps{
		payments: mocks.NewMockPaymentRepository(ctrl),
		projects: mocks.NewMockProjectRepository(ctrl),
	}
	d.svc = NewPaymentService(d.payments, d.projects, zerolog.Nop())
	return d
}

func ownedProject(owner string) *domain.Project {
	return &domain.Project{ID: uuid.New(), Name: "Shop", Slug: "shop", OwnerUID: owner}
}

func strPtr(s string) *string { return &s }

func TestPaymentService_Create_Success(t *testing.T) {
	d := setupPaymentService(t)
	ctx := context.Background()
	project := ownedProject("alice.testnet")

	d.projects.EXPECT().GetByID(ctx, project.ID).Return(project, nil)
	d.payments.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	p, err := d.svc.Create(ctx, ports.CreatePaymentRequest{
		OwnerUID:  "alice.testnet",
		ProjectID: project.ID,
		Amount:    "12.50",
		Memo:      "order #1",
		Receiver:  strPtr("shop.testnet"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, "12.5", p.Amount)
	assert.Regexp(t, tokenRe, p.CorrelationToken)
	assert.Equal(t, project.ID, p.ProjectID)
	assert.Equal(t, "alice.testnet", p.OwnerUID)
}

func TestPaymentService_Create_RetriesTokenCollision(t *testing.T) {
	d := setupPaymentService(t)
	project := ownedProject("alice.testnet")
	var tokens []string

	d.projects.EXPECT().GetByID(gomock.Any(), project.ID).Return(project, nil)
	d.payments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *domain.Payment) error {
			tokens = append(tokens, p.CorrelationToken)
			if len(tokens) == 1 {
				return domain.ErrDuplicate
			}
			return nil
		}).Times(2)

	_, err := d.svc.Create(context.Background(), ports.CreatePaymentRequest{
		OwnerUID: "alice.testnet", ProjectID: project.ID, Amount: "1",
	})
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.NotEqual(t, tokens[0], tokens[1])
}

func TestPaymentService_Create_FractionalAmountsKeptExact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.50", "12.5"},
		{"1.5", "1.5"},
		{"0.4", "0.4"},
		{"0.000000000000000000000001", "0.000000000000000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := setupPaymentService(t)
			project := ownedProject("alice.testnet")
			d.projects.EXPECT().GetByID(gomock.Any(), project.ID).Return(project, nil)

			var stored string
			d.payments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, p *domain.Payment) error {
					stored = p.Amount
					return nil
				})

			p, err := d.svc.Create(context.Background(), ports.CreatePaymentRequest{
				OwnerUID: "alice.testnet", ProjectID: project.ID, Amount: tt.in,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Amount)
			assert.Equal(t, tt.want, stored)
		})
	}
}

func TestPaymentService_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  ports.CreatePaymentRequest
		code string
	}{
		{"empty amount", ports.CreatePaymentRequest{Amount: ""}, "PAY_002"},
		{"non numeric amount", ports.CreatePaymentRequest{Amount: "ten"}, "PAY_002"},
		{"zero amount", ports.CreatePaymentRequest{Amount: "0"}, "PAY_002"},
		{"negative amount", ports.CreatePaymentRequest{Amount: "-3"}, "PAY_002"},
		{"below one yocto", ports.CreatePaymentRequest{Amount: "0.0000000000000000000000001"}, "PAY_002"},
		{"too many integer digits", ports.CreatePaymentRequest{Amount: "1" + strings.Repeat("0", 54)}, "PAY_002"},
		{"bad receiver", ports.CreatePaymentRequest{Amount: "1", Receiver: strPtr("alice")}, "PAY_002"},
		{"bad fungible", ports.CreatePaymentRequest{Amount: "1", ReceiverFungible: strPtr("usdc")}, "PAY_002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupPaymentService(t)
			_, err := d.svc.Create(context.Background(), tt.req)
			requireAppErrorCode(t, err, tt.code)
		})
	}
}

func TestPaymentService_Create_ForeignProject(t *testing.T) {
	d := setupPaymentService(t)
	project := ownedProject("mallory.testnet")

	d.projects.EXPECT().GetByID(gomock.Any(), project.ID).Return(project, nil)

	_, err := d.svc.Create(context.Background(), ports.CreatePaymentRequest{
		OwnerUID: "alice.testnet", ProjectID: project.ID, Amount: "1",
	})
	requireAppErrorCode(t, err, "PAY_004")
}

func TestPaymentService_Create_MissingProject(t *testing.T) {
	d := setupPaymentService(t)
	id := uuid.New()

	d.projects.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	_, err := d.svc.Create(context.Background(), ports.CreatePaymentRequest{
		OwnerUID: "alice.testnet", ProjectID: id, Amount: "1",
	})
	requireAppErrorCode(t, err, "PAY_004")
}

func TestPaymentService_Get(t *testing.T) {
	p := pendingPayment()

	t.Run("owner", func(t *testing.T) {
		d := setupPaymentService(t)
		d.payments.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)
		got, err := d.svc.Get(context.Background(), p.ID, p.OwnerUID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("someone else", func(t *testing.T) {
		d := setupPaymentService(t)
		d.payments.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)
		_, err := d.svc.Get(context.Background(), p.ID, "mallory.testnet")
		requireAppErrorCode(t, err, "AUTH_005")
	})

	t.Run("missing", func(t *testing.T) {
		d := setupPaymentService(t)
		d.payments.EXPECT().GetByID(gomock.Any(), p.ID).Return(nil, nil)
		_, err := d.svc.Get(context.Background(), p.ID, p.OwnerUID)
		requireAppErrorCode(t, err, "PAY_004")
	})
}

func TestPaymentService_GetByCorrelationToken(t *testing.T) {
	d := setupPaymentService(t)
	p := pendingPayment()

	d.payments.EXPECT().GetByCorrelationToken(gomock.Any(), testMemo).Return(p, nil)
	d.payments.EXPECT().GetByCorrelationToken(gomock.Any(), "nope").Return(nil, nil)
	d.payments.EXPECT().GetByCorrelationToken(gomock.Any(), "boom").Return(nil, errors.New("db"))

	got, err := d.svc.GetByCorrelationToken(context.Background(), testMemo)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = d.svc.GetByCorrelationToken(context.Background(), "nope")
	requireAppErrorCode(t, err, "PAY_004")

	_, err = d.svc.GetByCorrelationToken(context.Background(), "boom")
	requireAppErrorCode(t, err, "SYS_001")
}

func TestPaymentService_List_ClampsPaging(t *testing.T) {
	d := setupPaymentService(t)
	project := ownedProject("alice.testnet")

	d.projects.EXPECT().GetByID(gomock.Any(), project.ID).Return(project, nil)
	d.payments.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
			assert.Equal(t, 0, params.Offset)
			assert.Equal(t, 100, params.Limit)
			return []domain.Payment{*pendingPayment()}, 1, nil
		})

	items, total, err := d.svc.List(context.Background(), ports.PaymentListParams{
		OwnerUID: "alice.testnet", ProjectID: project.ID, Offset: -5, Limit: 1000,
	})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), total)
}

func TestPaymentService_List_DefaultLimitWithoutProject(t *testing.T) {
	d := setupPaymentService(t)

	d.payments.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
			assert.Equal(t, 10, params.Limit)
			return nil, 0, nil
		})

	_, _, err := d.svc.List(context.Background(), ports.PaymentListParams{OwnerUID: "alice.testnet"})
	require.NoError(t, err)
}

func TestPaymentService_List_UnknownStatus(t *testing.T) {
	d := setupPaymentService(t)
	status := domain.PaymentStatus("REFUNDED")

	_, _, err := d.svc.List(context.Background(), ports.PaymentListParams{OwnerUID: "a.testnet", Status: &status})
	requireAppErrorCode(t, err, "PAY_002")
}
