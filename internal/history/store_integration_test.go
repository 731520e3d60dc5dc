//go:build integration

package history_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinnieai/vinnie/internal/history"
	"github.com/vinnieai/vinnie/internal/identity"
	"github.com/vinnieai/vinnie/internal/log"
	"github.com/vinnieai/vinnie/internal/testutil"
)

func newUser(t *testing.T, db *testutil.TestDB) int64 {
	t.Helper()
	store, err := identity.NewPostgresStore(db.Pool, log.NewNop())
	require.NoError(t, err)
	u, err := store.Create(t.Context(), identity.MintToken())
	require.NoError(t, err)
	return u.ID
}

func TestPostgresStore_AppendAndRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := newUser(t, db)

	store, err := history.NewPostgresStore(db.Pool, 0, log.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.AppendPair(t.Context(), userID, "hello", "hi there! 👍"))
	require.NoError(t, store.AppendPair(t.Context(), userID, "how are you?", ""))

	turns, err := store.Recent(t.Context(), userID)
	require.NoError(t, err)
	require.Len(t, turns, 4)

	assert.Equal(t, history.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, history.RoleModel, turns[1].Role)
	assert.Equal(t, "hi there! 👍", turns[1].Content)
	assert.Equal(t, "how are you?", turns[2].Content)
	assert.Empty(t, turns[3].Content, "an empty model turn still completes the pair")

	for i := 1; i < len(turns); i++ {
		assert.False(t, turns[i].CreatedAt.Before(turns[i-1].CreatedAt),
			"turns must come back in chronological order")
	}
}

func TestPostgresStore_RecentIsWindowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := newUser(t, db)

	store, err := history.NewPostgresStore(db.Pool, 4, log.NewNop())
	require.NoError(t, err)

	for i := range 5 {
		require.NoError(t, store.AppendPair(t.Context(), userID,
			fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	turns, err := store.Recent(t.Context(), userID)
	require.NoError(t, err)
	require.Len(t, turns, 4, "only the newest window is loaded")

	// The window keeps the two most recent pairs, oldest first.
	assert.Equal(t, "q3", turns[0].Content)
	assert.Equal(t, "a4", turns[3].Content)
}

func TestPostgresStore_RecentEmptyUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := newUser(t, db)

	store, err := history.NewPostgresStore(db.Pool, 0, log.NewNop())
	require.NoError(t, err)

	turns, err := store.Recent(t.Context(), userID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestPostgresStore_ConcurrentAppendsDoNotInterleave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := newUser(t, db)

	store, err := history.NewPostgresStore(db.Pool, 0, log.NewNop())
	require.NoError(t, err)

	const pairs = 10
	errs := make([]error, pairs)
	var wg sync.WaitGroup
	for i := range pairs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.AppendPair(t.Context(), userID,
				fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	turns, err := store.Recent(t.Context(), userID)
	require.NoError(t, err)
	require.Len(t, turns, 2*pairs)

	// Every user turn must be immediately followed by its own model turn.
	for i := 0; i < len(turns); i += 2 {
		require.Equal(t, history.RoleUser, turns[i].Role)
		require.Equal(t, history.RoleModel, turns[i+1].Role)
		assert.Equal(t, "a"+turns[i].Content[1:], turns[i+1].Content,
			"pairs from concurrent appends must stay contiguous")
	}
}
