package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userCols is the standard SELECT column list for scanUser.
const userCols = `id, session_token, username, password_hash, is_registered, created_at`

// PostgresStore is the PostgreSQL-backed Store implementation.
//
// PostgresStore is safe for concurrent use by multiple goroutines.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// FindByToken returns the record holding the session token.
func (s *PostgresStore) FindByToken(ctx context.Context, token string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE session_token = $1`, token)
	return scanUser(row)
}

// FindByUsername returns the registered record for the username.
func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// Create inserts an anonymous record for the token and returns it.
// ON CONFLICT DO NOTHING plus the follow-up read makes concurrent creates
// for the same token converge on a single record instead of duplicating.
func (s *PostgresStore) Create(ctx context.Context, token string) (*User, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (session_token) VALUES ($1)
		 ON CONFLICT (session_token) DO NOTHING`, token)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	user, err := s.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("reading back created user: %w", err)
	}

	s.logger.Debug("user record ensured", "user_id", user.ID)
	return user, nil
}

// Upgrade attaches username and credential to an existing record in place.
func (s *PostgresStore) Upgrade(ctx context.Context, userID int64, username, passwordHash string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET username = $2, password_hash = $3, is_registered = TRUE
		 WHERE id = $1
		 RETURNING `+userCols, userID, username, passwordHash)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrDuplicateIdentity
		}
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("upgrading user %d: %w", userID, err)
	}

	return user, nil
}

// rowScanner abstracts pgx.Row for scanUser.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser scans one users row, mapping nullable columns to zero values.
func scanUser(row rowScanner) (*User, error) {
	var (
		u            User
		sessionToken *string
		username     *string
		passwordHash *string
	)

	err := row.Scan(&u.ID, &sessionToken, &username, &passwordHash, &u.Registered, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user row: %w", err)
	}

	if sessionToken != nil {
		u.SessionToken = *sessionToken
	}
	if username != nil {
		u.Username = *username
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return &u, nil
}
