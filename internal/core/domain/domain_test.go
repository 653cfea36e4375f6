package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleUser))
	assert.False(t, ValidRole(Role("root")))
}

func TestPayment_IsPaid(t *testing.T) {
	tests := []struct {
		name   string
		status PaymentStatus
		want   bool
	}{
		{"pending", PaymentStatusPending, false},
		{"paid", PaymentStatusPaid, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Status: tt.status}
			assert.Equal(t, tt.want, p.IsPaid())
		})
	}
}

func TestPaymentStatus_Valid(t *testing.T) {
	assert.True(t, PaymentStatusPending.Valid())
	assert.True(t, PaymentStatusPaid.Valid())
	assert.False(t, PaymentStatus("REFUNDED").Valid())
}

func TestIsNearAccountID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"alice.testnet", true},
		{"rimatikdev.testnet", true},
		{"bob.rimatikdev.testnet", true},
		{"shop_1.near", true},
		{strings.Repeat("a1", 32), true},
		{"alice", false},
		{"alice..testnet", false},
		{".alice.testnet", false},
		{"alice.testnet.", false},
		{"alice.eth", false},
		{"", false},
		{strings.Repeat("a", 63), false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNearAccountID(tt.id))
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12", "12", true},
		{" 12.50 ", "12.5", true},
		{"0.4", "0.4", true},
		{"0.000000000000000000000001", "0.000000000000000000000001", true},
		{"1.000000000000000000000000000", "1", true},
		{strings.Repeat("9", 54), strings.Repeat("9", 54), true},
		{"0.0000000000000000000000001", "", false},
		{"1" + strings.Repeat("0", 54), "", false},
		{"0", "", false},
		{"-1", "", false},
		{"", "", false},
		{"1e", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, d.String())
			}
		})
	}
}
