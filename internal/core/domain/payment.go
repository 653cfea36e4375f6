package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits an amount may carry
// (one yoctoNEAR). It matches the scale of the payments.amount column.
const AmountScale = 24

// amountLimit is the first value too large for NUMERIC(78, AmountScale).
var amountLimit = decimal.New(1, 78-AmountScale)

// PaymentStatus represents the lifecycle state of a payment.
// The only transition is PENDING -> PAID.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// Payment is a payment request awaiting an on-chain transfer. The transfer's
// memo carries CorrelationToken back to us through the indexer webhook.
type Payment struct {
	ID               uuid.UUID     `json:"id"`
	CorrelationToken string        `json:"uid"`
	Memo             string        `json:"memo,omitempty"`
	Amount           string        `json:"amount"`
	Receiver         *string       `json:"receiver,omitempty"`
	ReceiverFungible *string       `json:"receiver_fungible,omitempty"`
	Status           PaymentStatus `json:"status"`
	OwnerUID         string        `json:"owner"`
	ProjectID        uuid.UUID     `json:"project"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// IsPaid returns true once the payment has been reconciled.
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// PaymentPaidEvent is published after a payment transitions to PAID.
type PaymentPaidEvent struct {
	PaymentID        uuid.UUID `json:"payment_id"`
	CorrelationToken string    `json:"uid"`
	ProjectID        uuid.UUID `json:"project_id"`
	Owner            string    `json:"owner"`
	Amount           string    `json:"amount"`
	TransferAmount   string    `json:"transfer_amount"`
	Sender           string    `json:"sender"`
	Receiver         string    `json:"receiver"`
	PaidAt           time.Time `json:"paid_at"`
}

// ParseAmount reads a positive decimal amount that the store can hold
// exactly: at most AmountScale fractional digits and below amountLimit.
func ParseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	if !d.Equal(d.Truncate(AmountScale)) || d.GreaterThanOrEqual(amountLimit) {
		return decimal.Zero, false
	}
	return d, true
}
