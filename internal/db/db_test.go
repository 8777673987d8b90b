package db_test

import (
	"context"
	"testing"

	"github.com/geocoder89/recipehub/internal/db"
	"github.com/geocoder89/recipehub/internal/repo/memory"
	"github.com/geocoder89/recipehub/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_RejectsBadURL(t *testing.T) {
	_, err := db.NewPool(context.Background(), "postgres://%zz", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database url")
}

func TestEnsureSuperuser(t *testing.T) {
	ctx := context.Background()
	users := memory.NewStore().Users()

	created, err := db.EnsureSuperuser(ctx, users, "Root@EXAMPLE.com", "rootpass", "Root")
	require.NoError(t, err)
	assert.True(t, created)

	u, err := users.GetByEmail(ctx, "Root@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsSuperuser)
	assert.NoError(t, security.CheckPassword(u.PasswordHash, "rootpass"))

	created, err = db.EnsureSuperuser(ctx, users, "Root@example.com", "other", "Root")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureSuperuser_SkipsWithoutCredentials(t *testing.T) {
	created, err := db.EnsureSuperuser(context.Background(), memory.NewStore().Users(), "", "", "")
	require.NoError(t, err)
	assert.False(t, created)
}
