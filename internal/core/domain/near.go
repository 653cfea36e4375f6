package domain

import "regexp"

var (
	// name.testnet, sub.name.near; no leading, trailing or doubled dots.
	namedAccountRe = regexp.MustCompile(`^\w+(\.\w+)*\.(testnet|near)$`)
	// 64 lowercase hex characters derived from an ed25519 key.
	implicitAccountRe = regexp.MustCompile(`^[a-z0-9]{64,}$`)
)

// IsNearAccountID reports whether id is a named or implicit NEAR account.
func IsNearAccountID(id string) bool {
	if implicitAccountRe.MatchString(id) {
		return true
	}
	return len(id) <= 64 && namedAccountRe.MatchString(id)
}
