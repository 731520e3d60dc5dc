// Package identity resolves callers to stable user records.
//
// A caller is either anonymous (recognized across requests by an opaque
// session token) or registered (username + credential). Registration
// upgrades the anonymous record in place so the record id — and every turn
// hanging off it — survives the transition.
package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for identity operations, checked with errors.Is().
var (
	// ErrUserNotFound indicates no record matches the given token or username.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateIdentity indicates the requested username is already
	// claimed by a different record.
	ErrDuplicateIdentity = errors.New("username already taken")

	// ErrInvalidCredential indicates the username/password pair does not
	// match a registered record.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrAlreadyRegistered indicates the record has already completed the
	// anonymous-to-registered transition.
	ErrAlreadyRegistered = errors.New("user already registered")
)

// User is the identity anchor for a caller.
//
// SessionToken is always present; Username and PasswordHash are set only
// once the record is registered. PasswordHash never leaves this package's
// consumers — it exists so Authenticate can compare credentials.
type User struct {
	ID           int64
	SessionToken string
	Username     string
	PasswordHash string
	Registered   bool
	CreatedAt    time.Time
}

// MintToken generates a new globally-unique opaque session token.
func MintToken() string {
	return uuid.NewString()
}
