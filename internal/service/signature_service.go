package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HMACSignatureService implements ports.WebhookSignatureService using HMAC-SHA256.
type HMACSignatureService struct{}

// NewHMACSignatureService creates a new HMAC-SHA256 signature service.
func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

// Sign computes HMAC-SHA256 of body using secret.
// Returns the header form "sha256=<lowercase hex>".
func (s *HMACSignatureService) Sign(secret string, body []byte) string {
	return "sha256=" + hex.EncodeToString(s.mac(secret, body))
}

// Verify checks signature against HMAC-SHA256(secret, body).
// Accepts "sha256=<hex>", "0x<hex>" or bare hex. Comparison is constant-time.
func (s *HMACSignatureService) Verify(secret string, body []byte, signature string) bool {
	if secret == "" {
		return false
	}
	sig := strings.TrimSpace(signature)
	if len(sig) > 7 && strings.EqualFold(sig[:7], "sha256=") {
		sig = sig[7:]
	}
	sig = strings.TrimPrefix(strings.TrimPrefix(sig, "0x"), "0X")

	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(s.mac(secret, body), got)
}

func (s *HMACSignatureService) mac(secret string, body []byte) []byte {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(body)
	return m.Sum(nil)
}
