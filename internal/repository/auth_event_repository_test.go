package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-assistant/internal/model"
	sqliteClient "hr-assistant/internal/platform/sqlite"
)

func newTestEventRepo(t *testing.T) *AuthEventRepository {
	t.Helper()
	db, err := sqliteClient.New(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.AuthEvent{}))
	return NewAuthEventRepository(db)
}

func TestListByEmail_NewestFirstAndFiltered(t *testing.T) {
	repo := newTestEventRepo(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Create(&model.AuthEvent{Email: "kate@example.com", Kind: model.EventRegistered, CreatedAt: base}))
	require.NoError(t, repo.Create(&model.AuthEvent{Email: "kate@example.com", Kind: model.EventOTPSent, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(&model.AuthEvent{Email: "other@example.com", Kind: model.EventRegistered, CreatedAt: base.Add(2 * time.Minute)}))

	events, err := repo.ListByEmail("kate@example.com", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventOTPSent, events[0].Kind)
	assert.Equal(t, model.EventRegistered, events[1].Kind)
}

func TestListByEmail_HonorsLimit(t *testing.T) {
	repo := newTestEventRepo(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(&model.AuthEvent{
			Email:     "kate@example.com",
			Kind:      model.EventOTPSent,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := repo.ListByEmail("kate@example.com", 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestListByEmail_UnknownEmailIsEmpty(t *testing.T) {
	repo := newTestEventRepo(t)

	events, err := repo.ListByEmail("ghost@example.com", 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}
