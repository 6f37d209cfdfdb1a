package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LucasTS-42034/Progint/internal/events"
	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
	"github.com/LucasTS-42034/Progint/internal/models"
	"github.com/LucasTS-42034/Progint/internal/storage"
)

type Repository interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type Users struct {
	log       *slog.Logger
	repo      Repository
	publisher events.Publisher
}

func New(log *slog.Logger, repo Repository, publisher events.Publisher) *Users {
	if publisher == nil {
		publisher = events.Noop{}
	}

	return &Users{
		log:       log,
		repo:      repo,
		publisher: publisher,
	}
}

func (u *Users) List(ctx context.Context) ([]models.User, error) {
	const op = "users.List"

	users, err := u.repo.Users(ctx)
	if err != nil {
		u.log.Error("failed to list users", slog.String("op", op), sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// Update applies patch to the user. A blank name counts as absent and keeps the
// current one. A patch that changes nothing is neither written nor published.
func (u *Users) Update(ctx context.Context, id int64, patch models.UserPatch) (models.User, error) {
	const op = "users.Update"

	log := u.log.With(
		slog.String("op", op),
		slog.Int64("uid", id),
	)

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			patch.Name = nil
		} else {
			patch.Name = &name
		}
	}

	current, err := u.repo.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")

			return models.User{}, fmt.Errorf("%s: %w", op, err)
		}

		log.Error("failed to get user", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Name == nil || *patch.Name == current.Name {
		log.Debug("nothing to update")

		return current, nil
	}

	user, err := u.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")

			return models.User{}, fmt.Errorf("%s: %w", op, err)
		}

		log.Error("failed to update user", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user updated")

	events.Emit(ctx, log, u.publisher, models.NewEvent(models.EventUserUpdated, user))

	return user, nil
}

// Remove deletes the user. Removing an unknown id is not an error; removed
// reports whether anything was deleted.
func (u *Users) Remove(ctx context.Context, id int64) (removed bool, err error) {
	const op = "users.Remove"

	log := u.log.With(
		slog.String("op", op),
		slog.Int64("uid", id),
	)

	if err := u.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("nothing to remove")

			return false, nil
		}

		log.Error("failed to remove user", sl.Err(err))

		return false, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user removed")

	events.Emit(ctx, log, u.publisher, models.NewEvent(models.EventUserDeleted, models.User{ID: id}))

	return true, nil
}
