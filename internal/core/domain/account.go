package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AccountType identifies how an account authenticates.
type AccountType string

const (
	AccountTypeNear AccountType = "near"
)

// Role is an authorization role carried in the session token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleUser     Role = "user"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleUser:
		return true
	}
	return false
}

// Account is a wallet-backed user. UID is the NEAR account ID.
type Account struct {
	ID                  uuid.UUID   `json:"id"`
	UID                 string      `json:"uid"`
	AccountType         AccountType `json:"accountType"`
	Username            string      `json:"username"`
	NearWalletAccountID *string     `json:"nearWalletAccountId"`
	Roles               []Role      `json:"roles"`
	IsCensored          bool        `json:"isCensored"`
	IsActive            bool        `json:"isActive"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// ErrDuplicate is returned by stores when a unique key is already taken.
var ErrDuplicate = errors.New("duplicate record")
