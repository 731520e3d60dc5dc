package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// turnCols is the standard SELECT column list for scanTurns.
const turnCols = `id, user_id, role, content, created_at`

// PostgresStore persists turns in PostgreSQL.
//
// PostgresStore is safe for concurrent use by multiple goroutines. Appends
// for the same user are serialized with a transaction-scoped advisory lock
// so concurrently streaming requests can never interleave their turn pairs.
type PostgresStore struct {
	pool   *pgxpool.Pool
	window int32
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore.
//
// window bounds how many recent turns Recent loads; range validation is the
// config layer's job. window <= 0 falls back to DefaultWindow.
func NewPostgresStore(pool *pgxpool.Pool, window int32, logger *slog.Logger) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, window: window, logger: logger}, nil
}

// DefaultWindow is the fallback history window when none is configured.
const DefaultWindow int32 = 200

// Recent returns the most recent turns for a user, oldest first.
//
// The read is windowed: only the newest `window` rows are loaded, then
// reversed into chronological order. A user with no turns yields an empty
// slice, which downstream treats as "no prior context". Pure read — running
// it twice without intervening writes yields identical results.
func (s *PostgresStore) Recent(ctx context.Context, userID int64) ([]Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+turnCols+` FROM turns
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, userID, s.window)
	if err != nil {
		return nil, fmt.Errorf("querying turns for user %d: %w", userID, err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turn rows: %w", err)
	}

	reverseTurns(turns)
	s.logger.Debug("reconstructed history", "user_id", userID, "turns", len(turns))
	return turns, nil
}

// AppendPair durably records one user turn and one model turn as a single
// unit. modelContent may be empty (a stream that produced nothing still
// completes the pair).
//
// The transaction takes a per-user advisory lock before inserting, and the
// timestamps come from clock_timestamp() (statement time, not transaction
// start), so pairs appended by concurrently streaming requests for the same
// user land in strict chronological order.
func (s *PostgresStore) AppendPair(ctx context.Context, userID int64, userContent, modelContent string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning append transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			s.logger.Debug("append transaction rollback (may be already committed)", "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return fmt.Errorf("locking user %d: %w", userID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO turns (user_id, role, content, created_at)
		 VALUES ($1, $2, $3, clock_timestamp())`,
		userID, RoleUser, userContent); err != nil {
		return fmt.Errorf("inserting user turn: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO turns (user_id, role, content, created_at)
		 VALUES ($1, $2, $3, clock_timestamp())`,
		userID, RoleModel, modelContent); err != nil {
		return fmt.Errorf("inserting model turn: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing turn pair: %w", err)
	}

	s.logger.Debug("appended turn pair", "user_id", userID)
	return nil
}

// reverseTurns flips a newest-first result set into chronological order.
func reverseTurns(turns []Turn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
