package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	byID map[int64]user.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

type fakeTokens struct {
	mu      sync.Mutex
	byKey   map[string]auth.Token
	created time.Time
	lookups int
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byKey: map[string]auth.Token{}, created: time.Now().UTC()}
}

func (f *fakeTokens) GetOrCreate(_ context.Context, userID int64, newKey string) (auth.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.byKey {
		if t.UserID == userID {
			return t, nil
		}
	}
	t := auth.Token{Key: newKey, UserID: userID, CreatedAt: f.created}
	f.byKey[newKey] = t
	return t, nil
}

func (f *fakeTokens) GetByKey(_ context.Context, key string) (auth.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups++
	t, ok := f.byKey[key]
	if !ok {
		return auth.Token{}, auth.ErrTokenNotFound
	}
	return t, nil
}

func (f *fakeTokens) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.byKey, key)
	return nil
}

type mapCache struct {
	m map[string]int64
}

func (c *mapCache) GetUserID(_ context.Context, key string) (int64, bool) {
	v, ok := c.m[key]
	return v, ok
}
func (c *mapCache) SetUserID(_ context.Context, key string, id int64) { c.m[key] = id }
func (c *mapCache) Delete(_ context.Context, key string)              { delete(c.m, key) }

func newUsers(t *testing.T) *fakeUsers {
	t.Helper()

	hash, err := security.HashPassword("testpass123")
	require.NoError(t, err)

	active, err := user.New("user@example.com", hash, "User")
	require.NoError(t, err)
	active.ID = 1

	inactive, err := user.New("gone@example.com", hash, "Gone")
	require.NoError(t, err)
	inactive.ID = 2
	inactive.IsActive = false

	return &fakeUsers{byID: map[int64]user.User{1: active, 2: inactive}}
}

func TestManager_SignParseRoundTrip(t *testing.T) {
	m := auth.NewManager("secret", 0)
	tok := auth.Token{Key: "k1", UserID: 9, CreatedAt: time.Now().UTC()}

	raw, err := m.Sign(tok)
	require.NoError(t, err)

	again, err := m.Sign(tok)
	require.NoError(t, err)
	assert.Equal(t, raw, again, "signing is deterministic for a stored token")

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "k1", claims.ID)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Nil(t, claims.ExpiresAt)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	raw, err := auth.NewManager("other", 0).Sign(auth.Token{Key: "k", UserID: 1, CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = auth.NewManager("secret", 0).Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.NewManager("secret", 0).Parse("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestManager_Expiry(t *testing.T) {
	m := auth.NewManager("secret", time.Hour)
	old := auth.Token{Key: "k", UserID: 1, CreatedAt: time.Now().Add(-2 * time.Hour)}

	assert.True(t, m.Expired(old, time.Now()))

	raw, err := m.Sign(old)
	require.NoError(t, err)

	_, err = m.Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestService_AuthenticateReusesToken(t *testing.T) {
	tokens := newFakeTokens()
	svc := auth.NewService(auth.NewManager("secret", 0), tokens, newUsers(t), nil)
	ctx := context.Background()

	first, err := svc.Authenticate(ctx, "user@EXAMPLE.com", "testpass123")
	require.NoError(t, err)

	second, err := svc.Authenticate(ctx, "user@example.com", "testpass123")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, tokens.byKey, 1)
}

func TestService_AuthenticateFailures(t *testing.T) {
	svc := auth.NewService(auth.NewManager("secret", 0), newFakeTokens(), newUsers(t), nil)
	ctx := context.Background()

	cases := map[string][2]string{
		"wrong_password": {"user@example.com", "nope"},
		"unknown_email":  {"nobody@example.com", "testpass123"},
		"inactive_user":  {"gone@example.com", "testpass123"},
		"empty_password": {"user@example.com", ""},
	}

	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, creds[0], creds[1])
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}
}

func TestService_AuthenticateRotatesExpiredToken(t *testing.T) {
	tokens := newFakeTokens()
	tokens.created = time.Now().Add(-48 * time.Hour)
	tokens.byKey["stale"] = auth.Token{Key: "stale", UserID: 1, CreatedAt: tokens.created}

	svc := auth.NewService(auth.NewManager("secret", 24*time.Hour), tokens, newUsers(t), nil)

	tokens.created = time.Now().UTC()
	raw, err := svc.Authenticate(context.Background(), "user@example.com", "testpass123")
	require.NoError(t, err)

	_, ok := tokens.byKey["stale"]
	assert.False(t, ok)

	u, err := svc.Resolve(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
}

func TestService_ResolveUsesCache(t *testing.T) {
	tokens := newFakeTokens()
	cache := &mapCache{m: map[string]int64{}}
	svc := auth.NewService(auth.NewManager("secret", 0), tokens, newUsers(t), cache)
	ctx := context.Background()

	raw, err := svc.Authenticate(ctx, "user@example.com", "testpass123")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		u, err := svc.Resolve(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", u.Email)
	}

	assert.Equal(t, 1, tokens.lookups)
	assert.Len(t, cache.m, 1)
}

func TestService_ResolveRejectsDeletedToken(t *testing.T) {
	tokens := newFakeTokens()
	svc := auth.NewService(auth.NewManager("secret", 0), tokens, newUsers(t), nil)
	ctx := context.Background()

	raw, err := svc.Authenticate(ctx, "user@example.com", "testpass123")
	require.NoError(t, err)

	for k := range tokens.byKey {
		require.NoError(t, tokens.Delete(ctx, k))
	}

	_, err = svc.Resolve(ctx, raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestService_ResolveRejectsInactiveUser(t *testing.T) {
	tokens := newFakeTokens()
	users := newUsers(t)
	svc := auth.NewService(auth.NewManager("secret", 0), tokens, users, nil)

	tok, err := tokens.GetOrCreate(context.Background(), 2, "inactive-key")
	require.NoError(t, err)
	raw, err := auth.NewManager("secret", 0).Sign(tok)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
