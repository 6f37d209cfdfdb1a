// Package memory implements an in-process user store for tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/LucasTS-42034/Progint/internal/models"
	"github.com/LucasTS-42034/Progint/internal/storage"
)

type Storage struct {
	mu      sync.RWMutex
	users   map[int64]models.User
	byEmail map[string]int64
	lastID  int64
}

func New() *Storage {
	return &Storage{
		users:   make(map[int64]models.User),
		byEmail: make(map[string]int64),
	}
}

func (s *Storage) SaveUser(_ context.Context, email, name string, passHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = storage.NormalizeEmail(email)
	if _, ok := s.byEmail[email]; ok {
		return models.User{}, storage.ErrUserExists
	}

	s.lastID++

	u := models.User{
		ID:       s.lastID,
		Email:    email,
		Name:     name,
		PassHash: passHash,
	}

	s.users[u.ID] = u
	s.byEmail[email] = u.ID

	return u, nil
}

func (s *Storage) User(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[storage.NormalizeEmail(email)]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return s.users[id], nil
}

func (s *Storage) UserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

func (s *Storage) Users(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users, nil
}

func (s *Storage) UpdateUser(_ context.Context, id int64, patch models.UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	if patch.Name != nil {
		u.Name = *patch.Name
	}

	s.users[id] = u

	return u, nil
}

func (s *Storage) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}

	delete(s.users, id)
	delete(s.byEmail, u.Email)

	return nil
}

func (s *Storage) Close() error {
	return nil
}
