package models

import "time"

// Token is the registry row backing one issued bearer token. Rows are kept
// until expiry for the audit window; revocation only flips the Revoked flag.
type Token struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Expired reports whether the token's TTL has elapsed at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
