// Package storagetest holds the behaviour every user store backend must share.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucasTS-42034/Progint/internal/models"
	"github.com/LucasTS-42034/Progint/internal/storage"
)

type Store interface {
	SaveUser(ctx context.Context, email, name string, passHash string) (models.User, error)
	User(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Run executes the shared suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndFind", func(t *testing.T) { testSaveAndFind(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("ListOrdered", func(t *testing.T) { testListOrdered(t, newStore(t)) })
	t.Run("PartialUpdate", func(t *testing.T) { testPartialUpdate(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("IDsNotReused", func(t *testing.T) { testIDsNotReused(t, newStore(t)) })
	t.Run("ConcurrentSaves", func(t *testing.T) { testConcurrentSaves(t, newStore(t)) })
}

func testSaveAndFind(t *testing.T, s Store) {
	ctx := context.Background()

	u, err := s.SaveUser(ctx, "Ana@X.com ", "Ana", "hash")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "hash", u.PassHash)

	got, err := s.User(ctx, "ANA@x.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = s.User(ctx, "nobody@x.com")
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.UserByID(ctx, u.ID+1000)
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func testDuplicateEmail(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.SaveUser(ctx, "ana@x.com", "Ana", "hash")
	require.NoError(t, err)

	_, err = s.SaveUser(ctx, "ANA@x.com", "Other", "hash2")
	require.ErrorIs(t, err, storage.ErrUserExists)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].Name)
}

func testListOrdered(t *testing.T, s Store) {
	ctx := context.Background()

	for i := range 3 {
		_, err := s.SaveUser(ctx, fmt.Sprintf("u%d@x.com", i), fmt.Sprintf("U%d", i), "hash")
		require.NoError(t, err)
	}

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	for i := 1; i < len(users); i++ {
		assert.Less(t, users[i-1].ID, users[i].ID)
	}
}

func testPartialUpdate(t *testing.T, s Store) {
	ctx := context.Background()

	u, err := s.SaveUser(ctx, "ana@x.com", "Ana", "hash")
	require.NoError(t, err)

	same, err := s.UpdateUser(ctx, u.ID, models.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, u, same)

	name := "Ana Maria"
	updated, err := s.UpdateUser(ctx, u.ID, models.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, u.Email, updated.Email)
	assert.Equal(t, u.PassHash, updated.PassHash)

	got, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = s.UpdateUser(ctx, u.ID+1000, models.UserPatch{Name: &name})
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func testDelete(t *testing.T, s Store) {
	ctx := context.Background()

	u, err := s.SaveUser(ctx, "ana@x.com", "Ana", "hash")
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	require.ErrorIs(t, s.DeleteUser(ctx, u.ID), storage.ErrUserNotFound)

	_, err = s.User(ctx, "ana@x.com")
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	again, err := s.SaveUser(ctx, "ana@x.com", "Ana", "hash")
	require.NoError(t, err)
	assert.NotEqual(t, u.ID, again.ID)
}

func testIDsNotReused(t *testing.T, s Store) {
	ctx := context.Background()

	first, err := s.SaveUser(ctx, "a@x.com", "A", "hash")
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, first.ID))

	second, err := s.SaveUser(ctx, "b@x.com", "B", "hash")
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func testConcurrentSaves(t *testing.T, s Store) {
	ctx := context.Background()

	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SaveUser(ctx, fmt.Sprintf("user%d@x.com", i), "U", "hash")
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, n)

	ids := make(map[int64]struct{}, n)
	for _, u := range users {
		ids[u.ID] = struct{}{}
	}
	assert.Len(t, ids, n)
}
