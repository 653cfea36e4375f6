package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionLogin         AuditAction = "LOGIN"
	AuditActionRegister      AuditAction = "REGISTER"
	AuditActionPaymentCreate AuditAction = "PAYMENT_CREATE"
	AuditActionWebhook       AuditAction = "WEBHOOK_TRANSFER"

	AuditActionTxRequestCreate AuditAction = "TX_REQUEST_CREATE"
	AuditActionTxRequestUpdate AuditAction = "TX_REQUEST_UPDATE"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	AccountUID   *string     `json:"account_uid,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
