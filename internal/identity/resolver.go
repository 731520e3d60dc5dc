package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Store defines the durable operations the resolver needs.
// Interfaces are defined by the consumer; the PostgreSQL implementation
// lives in store.go and test fakes implement the same contract.
type Store interface {
	// FindByToken returns the record holding the session token, or
	// ErrUserNotFound.
	FindByToken(ctx context.Context, token string) (*User, error)

	// FindByUsername returns the registered record for the username, or
	// ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// Create persists a new anonymous record for the token. Concurrent
	// creates for the same token must converge on one record.
	Create(ctx context.Context, token string) (*User, error)

	// Upgrade attaches username and credential hash to an existing record
	// and flips its registered flag. Returns ErrDuplicateIdentity when the
	// username is claimed by a different record.
	Upgrade(ctx context.Context, userID int64, username, passwordHash string) (*User, error)
}

// Resolver maps request-level identity evidence to exactly one User.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger falls back to slog.Default().
func NewResolver(store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve returns the record for the given session token, creating an
// anonymous one on first contact. Creation is persisted immediately so
// concurrent requests presenting the same token converge on one record.
func (r *Resolver) Resolve(ctx context.Context, token string) (*User, error) {
	user, err := r.store.FindByToken(ctx, token)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("looking up session token: %w", err)
	}

	user, err = r.store.Create(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("creating user record: %w", err)
	}

	r.logger.Debug("created anonymous user", "user_id", user.ID)
	return user, nil
}

// Register upgrades the caller's anonymous record with a username and
// credential. The record keeps its id, so accumulated turns carry over.
func (r *Resolver) Register(ctx context.Context, user *User, username, password string) (*User, error) {
	if user.Registered {
		return nil, ErrAlreadyRegistered
	}
	if username == "" || password == "" {
		return nil, ErrInvalidCredential
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	upgraded, err := r.store.Upgrade(ctx, user.ID, username, string(hash))
	if err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("upgrading user record: %w", err)
	}

	r.logger.Info("user registered", "user_id", upgraded.ID, "username", username)
	return upgraded, nil
}

// Authenticate resolves a username/password pair to a registered record.
// Unknown usernames and credential mismatches are indistinguishable to the
// caller: both surface as ErrInvalidCredential.
func (r *Resolver) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := r.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("looking up username: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	return user, nil
}
