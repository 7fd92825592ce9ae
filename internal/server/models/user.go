// Package models holds the server-side data records persisted by the
// repositories.
package models

import "time"

// User is an identity record. Password hashes are the only credential
// material stored; plaintext passwords never reach this struct.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
