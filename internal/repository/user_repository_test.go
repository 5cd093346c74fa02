package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hr-assistant/internal/model"
	sqliteClient "hr-assistant/internal/platform/sqlite"
)

func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()
	db, err := sqliteClient.New(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	return NewUserRepository(db)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)

	first := &model.User{Email: "alice@example.com", PasswordHash: "hash-1"}
	require.NoError(t, repo.Create(first))

	second := &model.User{Email: "alice@example.com", PasswordHash: "hash-2"}
	err := repo.Create(second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetByEmail_CaseSensitiveKey(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Create(&model.User{Email: "Bob@example.com", PasswordHash: "h"}))

	user, err := repo.GetByEmail("Bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Bob@example.com", user.Email)

	missing, err := repo.GetByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSetResetToken_UnknownEmail(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.SetResetToken("ghost@example.com", "tok", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestResetToken_SingleUse(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Create(&model.User{Email: "carol@example.com", PasswordHash: "old"}))

	expiry := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.SetResetToken("carol@example.com", "token-1", expiry))

	user, err := repo.GetByResetToken("token-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.HasValidResetToken(time.Now().UTC()))

	require.NoError(t, repo.UpdatePasswordAndClearToken(user.ID, "new"))

	// Token and expiry were cleared together; reuse finds nothing.
	reused, err := repo.GetByResetToken("token-1")
	require.NoError(t, err)
	assert.Nil(t, reused)

	updated, err := repo.GetByEmail("carol@example.com")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "new", updated.PasswordHash)
	assert.Nil(t, updated.ResetToken)
	assert.Nil(t, updated.TokenExpiry)
}

func TestResetToken_ExpiredTreatedAsAbsent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Create(&model.User{Email: "dave@example.com", PasswordHash: "h"}))

	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, repo.SetResetToken("dave@example.com", "stale", past))

	user, err := repo.GetByResetToken("stale")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.False(t, user.HasValidResetToken(time.Now().UTC()))
}

func TestGetByResetToken_EmptyToken(t *testing.T) {
	repo := newTestRepo(t)

	user, err := repo.GetByResetToken("")
	require.NoError(t, err)
	assert.Nil(t, user)
}
