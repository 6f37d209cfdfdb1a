package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LucasTS-42034/Progint/internal/auth"
	"github.com/LucasTS-42034/Progint/internal/config"
	"github.com/LucasTS-42034/Progint/internal/events"
	httpserver "github.com/LucasTS-42034/Progint/internal/http_server"
	"github.com/LucasTS-42034/Progint/internal/lib/hasher"
	"github.com/LucasTS-42034/Progint/internal/lib/jwt"
	"github.com/LucasTS-42034/Progint/internal/lib/logger"
	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
	"github.com/LucasTS-42034/Progint/internal/models"
	"github.com/LucasTS-42034/Progint/internal/rabbitmq"
	"github.com/LucasTS-42034/Progint/internal/storage"
	"github.com/LucasTS-42034/Progint/internal/storage/file"
	"github.com/LucasTS-42034/Progint/internal/storage/memory"
	"github.com/LucasTS-42034/Progint/internal/storage/postgres"
	"github.com/LucasTS-42034/Progint/internal/users"
)

type userStore interface {
	SaveUser(ctx context.Context, email, name string, passHash string) (models.User, error)
	User(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	Close() error
}

func main() {
	cfg := config.MustLoad(config.FetchConfigPath())

	log := logger.Setup(cfg.Env)

	if err := cfg.ValidateAPI(); err != nil {
		log.Error("invalid config", sl.Err(err))
		os.Exit(1)
	}

	log.Info("starting users service",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	passwords, err := hasher.New(hasherParams(cfg.Hashing))
	if err != nil {
		log.Error("failed to init password hasher", sl.Err(err))
		os.Exit(1)
	}

	tokens, err := jwt.NewIssuer(cfg.Tokens.Secret)
	if err != nil {
		log.Error("failed to init token issuer", sl.Err(err))
		os.Exit(1)
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Error("failed to open storage", sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQ.URL != "" {
		msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
		if err != nil {
			log.Error("failed to connect rabbitmq", sl.Err(err))
			os.Exit(1)
		}
		defer msgBroker.Close()

		publisher = msgBroker
	} else {
		log.Info("rabbitmq url not set, user events are not published")
	}

	authService := auth.New(log, store, store, passwords, tokens, cfg.Tokens.AccessTokenTTL,
		auth.WithUnifiedLoginErrors(cfg.Auth.UnifiedLoginErrors),
		auth.WithPublisher(publisher),
	)
	userService := users.New(log, store, publisher)

	router := httpserver.NewRouter(log, authService, userService, tokens)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func openStorage(ctx context.Context, cfg *config.Config) (userStore, error) {
	switch cfg.Storage.Driver {
	case storage.DriverMemory:
		return memory.New(), nil
	case storage.DriverPostgres:
		repo, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}

		return repo, nil
	default:
		s, err := file.New(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}

		return s, nil
	}
}

func hasherParams(cfg config.Hashing) hasher.Params {
	argon := hasher.DefaultArgon2Params()
	argon.Memory = cfg.Argon2.Memory
	argon.Iterations = cfg.Argon2.Iterations
	argon.Parallelism = cfg.Argon2.Parallelism

	return hasher.Params{
		Algorithm:  hasher.Algorithm(cfg.Algorithm),
		BcryptCost: cfg.BcryptCost,
		Argon2:     argon,
	}
}
