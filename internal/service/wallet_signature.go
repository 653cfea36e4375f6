package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dev3-backend/pkg/apperror"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/nacl/sign"
)

const (
	ed25519Prefix        = "ed25519:"
	ed25519PublicKeySize = 32
	ed25519SignatureSize = 64
)

var (
	errMissingField    = errors.New("signed payload is missing a required field")
	errAccountMismatch = errors.New("signed payload names a different account")
	errKeyCurve        = errors.New("unsupported public key curve")
	errKeyLength       = errors.New("public key must be 32 bytes")
	errSignatureLength = errors.New("signature must be 64 bytes")
	errBadSignature    = errors.New("signature does not match message")
)

// SignedPayload is the JSON a NEAR wallet returns from a message-signing request.
type SignedPayload struct {
	AccountID string `json:"accountId"`
	Message   string `json:"message"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

// NearSignatureVerifier implements ports.SignatureVerifier for ed25519 wallet keys.
type NearSignatureVerifier struct{}

// NewNearSignatureVerifier creates a new verifier.
func NewNearSignatureVerifier() *NearSignatureVerifier {
	return &NearSignatureVerifier{}
}

// Verify checks signedPayload and returns the signer's key as "ed25519:<base58>".
// The signature must cover sha256(message), as wallets produce, or the raw message.
// Every failure is reported as an InvalidSignature application error.
func (v *NearSignatureVerifier) Verify(accountID string, signedPayload string) (string, error) {
	var p SignedPayload
	if err := json.Unmarshal([]byte(signedPayload), &p); err != nil {
		return "", apperror.ErrInvalidSignature(fmt.Errorf("decode signed payload: %w", err))
	}
	if p.Message == "" || p.PublicKey == "" || p.Signature == "" {
		return "", apperror.ErrInvalidSignature(errMissingField)
	}
	if p.AccountID != "" && p.AccountID != accountID {
		return "", apperror.ErrInvalidSignature(errAccountMismatch)
	}

	key, err := decodePublicKey(p.PublicKey)
	if err != nil {
		return "", apperror.ErrInvalidSignature(err)
	}

	sig, err := decodeBase64(p.Signature)
	if err != nil {
		return "", apperror.ErrInvalidSignature(fmt.Errorf("decode signature: %w", err))
	}
	if len(sig) != ed25519SignatureSize {
		return "", apperror.ErrInvalidSignature(errSignatureLength)
	}

	digest := sha256.Sum256([]byte(p.Message))
	if !openSigned(sig, digest[:], key) && !openSigned(sig, []byte(p.Message), key) {
		return "", apperror.ErrInvalidSignature(errBadSignature)
	}

	return ed25519Prefix + base58.Encode(key[:]), nil
}

// decodePublicKey parses "ed25519:<base58>". A bare base58 key is read as ed25519.
func decodePublicKey(s string) (*[ed25519PublicKeySize]byte, error) {
	raw := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if s[:i] != "ed25519" {
			return nil, errKeyCurve
		}
		raw = s[i+1:]
	}

	b, err := base58.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(b) != ed25519PublicKeySize {
		return nil, errKeyLength
	}

	var key [ed25519PublicKeySize]byte
	copy(key[:], b)
	return &key, nil
}

// openSigned reports whether sig is a valid signature of msg under key.
func openSigned(sig, msg []byte, key *[ed25519PublicKeySize]byte) bool {
	signed := make([]byte, 0, len(sig)+len(msg))
	signed = append(signed, sig...)
	signed = append(signed, msg...)
	_, ok := sign.Open(nil, signed, key)
	return ok
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
