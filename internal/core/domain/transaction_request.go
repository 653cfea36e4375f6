package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionRequestStatus is the lifecycle state of a transaction request.
// The only transition is PENDING -> EXECUTED.
type TransactionRequestStatus string

const (
	TransactionRequestPending  TransactionRequestStatus = "PENDING"
	TransactionRequestExecuted TransactionRequestStatus = "EXECUTED"
)

// Valid reports whether s is a known status.
func (s TransactionRequestStatus) Valid() bool {
	return s == TransactionRequestPending || s == TransactionRequestExecuted
}

// TransactionRequest is a contract call prepared by a project owner for a
// wallet to sign. UUID is the public handle shared with the wallet.
type TransactionRequest struct {
	ID            uuid.UUID                `json:"id"`
	UUID          uuid.UUID                `json:"uuid"`
	ContractID    string                   `json:"contractId"`
	Method        string                   `json:"method"`
	Args          json.RawMessage          `json:"args,omitempty"`
	Gas           *string                  `json:"gas,omitempty"`
	Deposit       *string                  `json:"deposit,omitempty"`
	Status        TransactionRequestStatus `json:"status"`
	TxHash        *string                  `json:"txHash,omitempty"`
	ReceiptID     *string                  `json:"receiptId,omitempty"`
	CallerAddress *string                  `json:"caller_address,omitempty"`
	TxDetails     json.RawMessage          `json:"txDetails,omitempty"`
	OwnerUID      string                   `json:"owner"`
	ProjectID     uuid.UUID                `json:"project_id"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// IsExecuted returns true once the wallet reported the call as sent.
func (r *TransactionRequest) IsExecuted() bool {
	return r.Status == TransactionRequestExecuted
}

// ExecutionDetails is what the wallet reports back when a request executes.
type ExecutionDetails struct {
	TxHash        *string
	ReceiptID     *string
	CallerAddress *string
	TxDetails     json.RawMessage
}
