// Package credstore provides platform-routed persistence for cached auth
// metadata. Stores are a cache, never the source of truth: the backend
// session is authoritative and every store here is allowed to lose data.
package credstore

import "strings"

// Well-known keys persisted by the auth client. Keys matching the
// sensitive-key predicate are routed to secure storage.
const (
	KeyLastSignIn        = "lastSignIn"
	KeyLastSignUpAttempt = "lastSignUpAttempt"
	KeyUserEmail         = "userEmail"
	KeyAuthProvider      = "authProvider"
	KeyUserPreferences   = "userPreferences"
	KeySession           = "authSession" // sensitive: cached session tokens
)

// Store is the minimal key-value contract used by the auth client.
// Get returns ("", nil) for a missing key. Remove and RemoveMany are
// idempotent: removing an absent key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	RemoveMany(keys []string) error
}

var sensitiveFragments = []string{"auth", "token", "refresh"}

// IsSensitiveKey classifies a key by naming convention: anything that looks
// like it could hold credentials goes to the secure backend.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range sensitiveFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
