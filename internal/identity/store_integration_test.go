//go:build integration

package identity_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinnieai/vinnie/internal/identity"
	"github.com/vinnieai/vinnie/internal/log"
	"github.com/vinnieai/vinnie/internal/testutil"
)

func TestPostgresStore_CreateAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store, err := identity.NewPostgresStore(db.Pool, log.NewNop())
	require.NoError(t, err)

	token := identity.MintToken()

	created, err := store.Create(t.Context(), token)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, token, created.SessionToken)
	assert.False(t, created.Registered)

	found, err := store.FindByToken(t.Context(), token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = store.FindByToken(t.Context(), identity.MintToken())
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestPostgresStore_ConcurrentCreateConverges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store, err := identity.NewPostgresStore(db.Pool, log.NewNop())
	require.NoError(t, err)

	token := identity.MintToken()
	const workers = 8

	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := store.Create(t.Context(), token)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = u.ID
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id, "all creates for one token must converge on one record")
	}
}

func TestPostgresStore_Upgrade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store, err := identity.NewPostgresStore(db.Pool, log.NewNop())
	require.NoError(t, err)

	first, err := store.Create(t.Context(), identity.MintToken())
	require.NoError(t, err)

	upgraded, err := store.Upgrade(t.Context(), first.ID, "vincent", "hash")
	require.NoError(t, err)
	assert.Equal(t, first.ID, upgraded.ID, "upgrade keeps the record id")
	assert.True(t, upgraded.Registered)
	assert.Equal(t, "vincent", upgraded.Username)

	found, err := store.FindByUsername(t.Context(), "vincent")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	// A different record cannot claim the same username.
	second, err := store.Create(t.Context(), identity.MintToken())
	require.NoError(t, err)
	_, err = store.Upgrade(t.Context(), second.ID, "vincent", "otherhash")
	assert.ErrorIs(t, err, identity.ErrDuplicateIdentity)
}
