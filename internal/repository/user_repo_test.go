package repository

import (
	"testing"
	"time"

	"dream/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestUserLookups(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db)
	u := createUser(t, db, "alice")

	got, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	got, err = repo.GetByUsername("alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	got, err = repo.GetByEmail("alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = repo.GetByID(9999)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetByUsername("nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRefreshTokenLifecycle(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db)
	u := createUser(t, db, "bob")

	now := time.Now()
	expiry := now.Add(7 * 24 * time.Hour)
	require.NoError(t, repo.UpdateRefreshToken(u.ID, "raw-token", expiry, now))

	got, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshToken)
	require.Equal(t, "raw-token", *got.RefreshToken)
	require.WithinDuration(t, expiry, *got.RefreshTokenExpiresAt, time.Second)
	require.WithinDuration(t, now, *got.LastActiveAt, time.Second)

	newExpiry := expiry.Add(48 * time.Hour)
	require.NoError(t, repo.UpdateRefreshTokenExpiry(u.ID, newExpiry))
	got, err = repo.GetByID(u.ID)
	require.NoError(t, err)
	require.WithinDuration(t, newExpiry, *got.RefreshTokenExpiresAt, time.Second)
	// Token value untouched by an expiry extension.
	require.Equal(t, "raw-token", *got.RefreshToken)

	require.NoError(t, repo.ClearRefreshToken(u.ID))
	got, err = repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Nil(t, got.RefreshToken)
	require.Nil(t, got.RefreshTokenExpiresAt)
}

func TestUserUpdates(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db)
	u := createUser(t, db, "carol")

	require.NoError(t, repo.UpdatePasswordHash(u.ID, "new-hash"))
	require.NoError(t, repo.UpdateProfile(u.ID, "Carol C", "https://example.com/a.png"))
	require.NoError(t, repo.SetActive(u.ID, false))

	got, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Equal(t, "Carol C", got.FullName)
	require.False(t, got.IsActive)
}
