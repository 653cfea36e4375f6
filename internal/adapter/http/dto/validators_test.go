package dto

import (
	"testing"

	"dev3-backend/internal/core/domain"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidators(v)
	return v
}

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreatePaymentRequest{
		Project: "  3b241101-e2bb-4255-8caf-4136c566a962 ",
		Amount:  " 12 ",
		Memo:    "  order 42  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "3b241101-e2bb-4255-8caf-4136c566a962", req.Project)
	assert.Equal(t, "12", req.Amount)
	assert.Equal(t, "order 42", req.Memo)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := CreatePaymentRequest{Memo: "thanks <script>alert('x')</script>"}
	SanitizeStruct(&req)

	assert.Contains(t, req.Memo, "&lt;script&gt;")
	assert.NotContains(t, req.Memo, "<script>")
}

func TestSanitizeStruct_SkipsSignedPayload(t *testing.T) {
	signed := ` {"accountId":"alice.testnet","message":"<login>","publicKey":"ed25519:abc","signature":"c2ln"} `
	req := NearAuthRequest{Username: " alice.testnet ", SignedJSONString: signed}
	SanitizeStruct(&req)

	assert.Equal(t, "alice.testnet", req.Username)
	assert.Equal(t, signed, req.SignedJSONString, "signed payload must reach the verifier byte-for-byte")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	receiver := "  bob.testnet  "
	req := CreatePaymentRequest{Receiver: &receiver}
	SanitizeStruct(&req)

	assert.Equal(t, "bob.testnet", *req.Receiver)
	assert.Nil(t, req.ReceiverFungible)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	SanitizeStruct("hello") // should not panic
}

// --- Custom Validator tests ---

func TestNearAccountValidator(t *testing.T) {
	v := newValidator()

	valid := []string{
		"alice.testnet",
		"dev_3.near",
		"sub.alice.testnet",
		"98793cd91a3f870fb126f66285808c7e094afcfc4eda8a970f6648cdf0dbd6de",
	}
	for _, s := range valid {
		assert.NoError(t, v.Var(s, "near_account"), "expected valid: %s", s)
	}

	invalid := []string{
		"",
		"alice",
		"alice.betanet",
		"alice testnet",
		"alice.testnet<script>",
	}
	for _, s := range invalid {
		assert.Error(t, v.Var(s, "near_account"), "expected invalid: %q", s)
	}
}

func TestDecimalAmountValidator(t *testing.T) {
	v := newValidator()

	for _, s := range []string{"1", "12", "0.5", "12.50", "1000000000000000000000000", "0.000000000000000000000001"} {
		assert.NoError(t, v.Var(s, "decimal_amount"), "expected valid: %s", s)
	}
	for _, s := range []string{"", "0", "-3", "abc", "1e", "0.0000000000000000000000001"} {
		assert.Error(t, v.Var(s, "decimal_amount"), "expected invalid: %q", s)
	}
}

func TestNearRegisterRequest_Roles(t *testing.T) {
	v := newValidator()

	ok := NearRegisterRequest{Username: "alice.testnet", SignedJSONString: "{}", Roles: nil}
	assert.NoError(t, v.Struct(ok))

	ok.Roles = []domain.Role{"customer", "user"}
	assert.NoError(t, v.Struct(ok))

	bad := ok
	bad.Roles = []domain.Role{"root"}
	assert.Error(t, v.Struct(bad))
}
