package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vinnieai/vinnie/internal/log"
)

// fakeStore is an in-memory Store implementation with call tracking.
type fakeStore struct {
	byToken    map[string]*User
	byUsername map[string]*User
	nextID     int64

	createCalls  int
	upgradeCalls int

	findByTokenErr error
	createErr      error
	upgradeErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byToken:    make(map[string]*User),
		byUsername: make(map[string]*User),
		nextID:     1,
	}
}

func (f *fakeStore) FindByToken(ctx context.Context, token string) (*User, error) {
	if f.findByTokenErr != nil {
		return nil, f.findByTokenErr
	}
	u, ok := f.byToken[token]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) Create(ctx context.Context, token string) (*User, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	// Converge like ON CONFLICT DO NOTHING + re-read.
	if u, ok := f.byToken[token]; ok {
		copied := *u
		return &copied, nil
	}
	u := &User{ID: f.nextID, SessionToken: token}
	f.nextID++
	f.byToken[token] = u
	copied := *u
	return &copied, nil
}

func (f *fakeStore) Upgrade(ctx context.Context, userID int64, username, passwordHash string) (*User, error) {
	f.upgradeCalls++
	if f.upgradeErr != nil {
		return nil, f.upgradeErr
	}
	if other, ok := f.byUsername[username]; ok && other.ID != userID {
		return nil, ErrDuplicateIdentity
	}
	for _, u := range f.byToken {
		if u.ID == userID {
			u.Username = username
			u.PasswordHash = passwordHash
			u.Registered = true
			f.byUsername[username] = u
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func TestResolve_CreatesOnFirstContact(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, log.NewNop())

	token := MintToken()
	user, err := r.Resolve(t.Context(), token)
	require.NoError(t, err)

	assert.Equal(t, token, user.SessionToken)
	assert.False(t, user.Registered)
	assert.Equal(t, 1, store.createCalls)
}

func TestResolve_SameTokenSameRecord(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, log.NewNop())

	token := MintToken()
	first, err := r.Resolve(t.Context(), token)
	require.NoError(t, err)

	second, err := r.Resolve(t.Context(), token)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.createCalls, "second resolve must reuse the record")
}

func TestRegister_UpgradesInPlace(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, log.NewNop())

	anon, err := r.Resolve(t.Context(), MintToken())
	require.NoError(t, err)

	registered, err := r.Register(t.Context(), anon, "vincent", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, anon.ID, registered.ID, "registration must keep the record id")
	assert.True(t, registered.Registered)
	assert.Equal(t, "vincent", registered.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(registered.PasswordHash), []byte("s3cret")))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, log.NewNop())

	first, err := r.Resolve(t.Context(), MintToken())
	require.NoError(t, err)
	_, err = r.Register(t.Context(), first, "vincent", "pw1")
	require.NoError(t, err)

	second, err := r.Resolve(t.Context(), MintToken())
	require.NoError(t, err)

	_, err = r.Register(t.Context(), second, "vincent", "pw2")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, log.NewNop())

	user, err := r.Resolve(t.Context(), MintToken())
	require.NoError(t, err)
	registered, err := r.Register(t.Context(), user, "vincent", "pw")
	require.NoError(t, err)

	_, err = r.Register(t.Context(), registered, "vincent2", "pw")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegister_RejectsEmptyFields(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, log.NewNop())

	user, err := r.Resolve(t.Context(), MintToken())
	require.NoError(t, err)

	_, err = r.Register(t.Context(), user, "", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = r.Register(t.Context(), user, "vincent", "")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Equal(t, 0, store.upgradeCalls)
}

func TestAuthenticate(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, log.NewNop())

	user, err := r.Resolve(t.Context(), MintToken())
	require.NoError(t, err)
	_, err = r.Register(t.Context(), user, "vincent", "correct horse")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		got, err := r.Authenticate(t.Context(), "vincent", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := r.Authenticate(t.Context(), "vincent", "battery staple")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := r.Authenticate(t.Context(), "nobody", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})
}

func TestMintToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		token := MintToken()
		assert.False(t, seen[token], "token collision: %s", token)
		seen[token] = true
	}
}
