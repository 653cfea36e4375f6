package dto

import (
	"encoding/json"

	"dev3-backend/internal/core/domain"
)

// NearAuthRequest is the request body for wallet login.
// SignedJSONString is verified byte-for-byte and must not be rewritten.
type NearAuthRequest struct {
	Username         string `json:"username" binding:"required,near_account"`
	SignedJSONString string `json:"signedJsonString" binding:"required,max=8192" sanitize:"-"`
}

// NearRegisterRequest is the request body for wallet registration.
type NearRegisterRequest struct {
	Username         string        `json:"username" binding:"required,near_account"`
	SignedJSONString string        `json:"signedJsonString" binding:"required,max=8192" sanitize:"-"`
	Roles            []domain.Role `json:"roles" binding:"omitempty,max=3,dive,oneof=customer user admin"`
}

// TokenResponse is the bare login response body.
type TokenResponse struct {
	Token string `json:"token"`
}

// CreatePaymentRequest is the request body for payment creation.
type CreatePaymentRequest struct {
	Project          string  `json:"project" binding:"required,uuid"`
	Amount           string  `json:"amount" binding:"required,decimal_amount"`
	Memo             string  `json:"memo" binding:"max=256"`
	Receiver         *string `json:"receiver,omitempty" binding:"omitempty,near_account"`
	ReceiverFungible *string `json:"receiver_fungible,omitempty" binding:"omitempty,near_account"`
}

// PaymentListQuery binds the query string of GET /payment.
type PaymentListQuery struct {
	Project          string  `form:"project" binding:"omitempty,uuid"`
	Status           *string `form:"status" binding:"omitempty,oneof=PENDING PAID"`
	Receiver         *string `form:"receiver" binding:"omitempty,near_account"`
	ReceiverFungible *string `form:"receiver_fungible" binding:"omitempty,near_account"`
	Offset           int     `form:"offset" binding:"omitempty,min=0"`
	Limit            int     `form:"limit" binding:"omitempty,min=0,max=100"`
}

// CreateTransactionRequestRequest is the request body for a new transaction request.
// Gas and Deposit are integer strings (gas units and yoctoNEAR).
type CreateTransactionRequestRequest struct {
	Project    string          `json:"project_id" binding:"required,uuid"`
	ContractID string          `json:"contractId" binding:"required,near_account"`
	Method     string          `json:"method" binding:"required,max=256"`
	Args       json.RawMessage `json:"args,omitempty" sanitize:"-"`
	Gas        *string         `json:"gas,omitempty" binding:"omitempty,number,max=78"`
	Deposit    *string         `json:"deposit,omitempty" binding:"omitempty,number,max=78"`
}

// UpdateTransactionRequestRequest is the body of PATCH /transaction-request/:uuid.
type UpdateTransactionRequestRequest struct {
	Status    string          `json:"status" binding:"required,oneof=EXECUTED PENDING"`
	TxHash    *string         `json:"txHash,omitempty" binding:"omitempty,max=128"`
	ReceiptID *string         `json:"receiptId,omitempty" binding:"omitempty,max=128"`
	TxDetails json.RawMessage `json:"txDetails,omitempty" sanitize:"-"`
}

// TransactionRequestListQuery binds the query string of GET /transaction-request.
type TransactionRequestListQuery struct {
	Project    string  `form:"project_id" binding:"omitempty,uuid"`
	ContractID string  `form:"contractId" binding:"max=64"`
	Method     string  `form:"method" binding:"max=256"`
	Status     *string `form:"status" binding:"omitempty,oneof=PENDING EXECUTED"`
	Offset     int     `form:"offset" binding:"omitempty,min=0"`
	Limit      int     `form:"limit" binding:"omitempty,min=0,max=100"`
}
