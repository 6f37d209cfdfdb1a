// Package file keeps the user collection as a single JSON array on disk.
//
// Every mutation rewrites the whole array into a temporary file in the same
// directory and renames it over the old one, so readers of the file never see
// a partially written collection. One lock serializes each read-modify-write
// cycle; concurrent registrations and updates cannot lose each other's writes.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/LucasTS-42034/Progint/internal/models"
	"github.com/LucasTS-42034/Progint/internal/storage"
)

type record struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PassHash string `json:"password_hash"`
}

type Storage struct {
	mu     sync.RWMutex
	path   string
	users  []record
	lastID int64
	now    func() time.Time
}

func New(path string) (*Storage, error) {
	const op = "storage.file.New"

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	users, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{
		path:  path,
		users: users,
		now:   time.Now,
	}

	for _, u := range users {
		if u.ID > s.lastID {
			s.lastID = u.ID
		}
	}

	return s, nil
}

func load(path string) ([]record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []record{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return []record{}, nil
	}

	var users []record
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if users == nil {
		users = []record{}
	}

	return users, nil
}

func (s *Storage) SaveUser(_ context.Context, email, name string, passHash string) (models.User, error) {
	const op = "storage.file.SaveUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	email = storage.NormalizeEmail(email)
	if s.indexByEmail(email) >= 0 {
		return models.User{}, storage.ErrUserExists
	}

	// Millisecond timestamps keep ids increasing across restarts even after the
	// newest record was deleted.
	id := max(s.lastID+1, s.now().UnixMilli())

	rec := record{
		ID:       id,
		Name:     name,
		Email:    email,
		PassHash: passHash,
	}

	next := make([]record, len(s.users), len(s.users)+1)
	copy(next, s.users)
	next = append(next, rec)

	if err := s.commit(next); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.lastID = id

	return rec.toModel(), nil
}

func (s *Storage) User(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexByEmail(storage.NormalizeEmail(email))
	if i < 0 {
		return models.User{}, storage.ErrUserNotFound
	}

	return s.users[i].toModel(), nil
}

func (s *Storage) UserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexByID(id)
	if i < 0 {
		return models.User{}, storage.ErrUserNotFound
	}

	return s.users[i].toModel(), nil
}

func (s *Storage) Users(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.toModel())
	}

	return users, nil
}

func (s *Storage) UpdateUser(_ context.Context, id int64, patch models.UserPatch) (models.User, error) {
	const op = "storage.file.UpdateUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		return models.User{}, storage.ErrUserNotFound
	}

	next := make([]record, len(s.users))
	copy(next, s.users)

	if patch.Name != nil {
		next[i].Name = *patch.Name
	}

	if err := s.commit(next); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return next[i].toModel(), nil
}

func (s *Storage) DeleteUser(_ context.Context, id int64) error {
	const op = "storage.file.DeleteUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		return storage.ErrUserNotFound
	}

	next := make([]record, 0, len(s.users)-1)
	next = append(next, s.users[:i]...)
	next = append(next, s.users[i+1:]...)

	if err := s.commit(next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error {
	return nil
}

// commit persists next and only then makes it the current collection.
// Callers must hold the write lock.
func (s *Storage) commit(next []record) error {
	if err := writeAtomic(s.path, next); err != nil {
		return err
	}

	s.users = next

	return nil
}

func writeAtomic(path string, users []record) (err error) {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func (s *Storage) indexByEmail(email string) int {
	for i, u := range s.users {
		if u.Email == email {
			return i
		}
	}

	return -1
}

func (s *Storage) indexByID(id int64) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}

	return -1
}

func (r record) toModel() models.User {
	return models.User{
		ID:       r.ID,
		Email:    r.Email,
		Name:     r.Name,
		PassHash: r.PassHash,
	}
}
