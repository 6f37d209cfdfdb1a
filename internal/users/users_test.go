package users

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucasTS-42034/Progint/internal/models"
	"github.com/LucasTS-42034/Progint/internal/storage"
	"github.com/LucasTS-42034/Progint/internal/storage/memory"
)

type recordingPublisher struct {
	events []models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e models.Event) error {
	p.events = append(p.events, e)
	return nil
}

type failingRepo struct{}

func (failingRepo) UserByID(context.Context, int64) (models.User, error) {
	return models.User{}, errors.New("io error")
}

func (failingRepo) Users(context.Context) ([]models.User, error) {
	return nil, errors.New("io error")
}

func (failingRepo) UpdateUser(context.Context, int64, models.UserPatch) (models.User, error) {
	return models.User{}, errors.New("io error")
}

func (failingRepo) DeleteUser(context.Context, int64) error {
	return errors.New("io error")
}

func newService(t *testing.T) (*Users, *memory.Storage, *recordingPublisher) {
	t.Helper()

	store := memory.New()
	pub := &recordingPublisher{}

	return New(slog.New(slog.DiscardHandler), store, pub), store, pub
}

func ptr(s string) *string { return &s }

func TestList(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = store.SaveUser(ctx, "ana@x.com", "Ana", "h")
	require.NoError(t, err)

	users, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].Name)
}

func TestUpdate(t *testing.T) {
	svc, store, pub := newService(t)
	ctx := context.Background()

	ana, err := store.SaveUser(ctx, "ana@x.com", "Ana", "h")
	require.NoError(t, err)

	got, err := svc.Update(ctx, ana.ID, models.UserPatch{Name: ptr("  Ana Maria ")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)

	got, err = svc.Update(ctx, ana.ID, models.UserPatch{Name: ptr("   ")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name, "blank name keeps the current one")

	got, err = svc.Update(ctx, ana.ID, models.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)

	got, err = svc.Update(ctx, ana.ID, models.UserPatch{Name: ptr("Ana Maria")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)

	require.Len(t, pub.events, 1, "only the effective change is published")
	assert.Equal(t, models.EventUserUpdated, pub.events[0].Type)

	_, err = svc.Update(ctx, ana.ID+100, models.UserPatch{Name: ptr("X")})
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestRemove_Idempotent(t *testing.T) {
	svc, store, pub := newService(t)
	ctx := context.Background()

	ana, err := store.SaveUser(ctx, "ana@x.com", "Ana", "h")
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Remove(ctx, ana.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = svc.Remove(ctx, 99999)
	require.NoError(t, err)
	assert.False(t, removed)

	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventUserDeleted, pub.events[0].Type)
	assert.Equal(t, ana.ID, pub.events[0].UserID)
}

func TestStorageFailures(t *testing.T) {
	svc := New(slog.New(slog.DiscardHandler), failingRepo{}, nil)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.Error(t, err)

	_, err = svc.Update(ctx, 1, models.UserPatch{Name: ptr("x")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrUserNotFound)

	_, err = svc.Remove(ctx, 1)
	require.Error(t, err)
}

type countingRepo struct {
	*memory.Storage
	writes int
}

func (r *countingRepo) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error) {
	r.writes++
	return r.Storage.UpdateUser(ctx, id, patch)
}

func TestUpdate_NoChangeSkipsWrite(t *testing.T) {
	repo := &countingRepo{Storage: memory.New()}
	svc := New(slog.New(slog.DiscardHandler), repo, nil)
	ctx := context.Background()

	ana, err := repo.SaveUser(ctx, "ana@x.com", "Ana", "h")
	require.NoError(t, err)

	for _, patch := range []models.UserPatch{{}, {Name: ptr("  ")}, {Name: ptr("Ana")}} {
		got, err := svc.Update(ctx, ana.ID, patch)
		require.NoError(t, err)
		assert.Equal(t, "Ana", got.Name)
	}
	assert.Zero(t, repo.writes)

	_, err = svc.Update(ctx, ana.ID, models.UserPatch{Name: ptr("Bea")})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.writes)

	_, err = svc.Update(ctx, ana.ID+100, models.UserPatch{})
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}
