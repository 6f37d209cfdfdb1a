package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LucasTS-42034/Progint/internal/events"
	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
	"github.com/LucasTS-42034/Progint/internal/models"
	"github.com/LucasTS-42034/Progint/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	hasher      PasswordHasher
	tokens      TokenIssuer
	publisher   events.Publisher
	tokenTTL    time.Duration
	unified     bool
}

type UserSaver interface {
	SaveUser(ctx context.Context, email, name string, passHash string) (models.User, error)
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

type TokenIssuer interface {
	Issue(userID int64, email string, ttl time.Duration) (string, error)
}

type Option func(*Auth)

// WithUnifiedLoginErrors makes Login answer ErrInvalidCredentials for unknown
// emails too, so callers cannot probe which accounts exist.
func WithUnifiedLoginErrors(enabled bool) Option {
	return func(a *Auth) {
		a.unified = enabled
	}
}

func WithPublisher(pub events.Publisher) Option {
	return func(a *Auth) {
		a.publisher = pub
	}
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	hasher PasswordHasher,
	tokens TokenIssuer,
	tokenTTL time.Duration,
	opts ...Option,
) *Auth {
	a := &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		hasher:      hasher,
		tokens:      tokens,
		publisher:   events.Noop{},
		tokenTTL:    tokenTTL,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Login checks the credentials and returns a signed access token.
func (a *Auth) Login(ctx context.Context, email, password string) (string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")

			if a.unified {
				return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
			}

			return "", fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}

		log.Error("failed to get user", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !a.hasher.Verify(password, user.PassHash) {
		log.Info("invalid credentials", slog.Int64("uid", user.ID))

		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := a.tokens.Issue(user.ID, user.Email, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return token, nil
}

func (a *Auth) RegisterNewUser(ctx context.Context, email, name, pass string) (models.User, error) {
	const op = "auth.RegisterNewUser"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("Registering new user")

	passHash, err := a.hasher.Hash(pass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrSaver.SaveUser(ctx, email, name, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("User already exists")

			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		log.Error("Failed to save user", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("User registered", slog.Int64("uid", user.ID))

	events.Emit(ctx, log, a.publisher, models.NewEvent(models.EventUserRegistered, user))

	return user, nil
}
