package auth

import "crypto/subtle"

// VerifyAdminKey checks a presented admin key against the configured one
// in constant time. Returns false when no admin key is configured, so an
// empty configuration never grants access.
func VerifyAdminKey(presented, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}
