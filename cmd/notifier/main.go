package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/LucasTS-42034/Progint/internal/config"
	"github.com/LucasTS-42034/Progint/internal/lib/logger"
	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
	"github.com/LucasTS-42034/Progint/internal/mailer"
	"github.com/LucasTS-42034/Progint/internal/notifier"
	"github.com/LucasTS-42034/Progint/internal/rabbitmq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad(config.FetchConfigPath())
	log := logger.Setup(cfg.Env)

	log.Info("starting notifier", slog.String("env", cfg.Env))

	if cfg.RabbitMQ.URL == "" {
		log.Error("rabbitmq url is not set, nothing to consume")
		os.Exit(1)
	}

	startConsumer(ctx, cfg, log)
}

func startConsumer(ctx context.Context, cfg *config.Config, log *slog.Logger) {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to init rabbitmq", sl.Err(err))
		return
	}
	defer r.Close()

	n := notifier.New(log, &mailer.Mailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	done := make(chan struct{})

	go func() {
		defer close(done)

		err := r.StartReading(ctx, func(ctx context.Context, body []byte) error {
			if err := n.Handle(ctx, body); err != nil {
				log.Error("failed to handle message", sl.Err(err))
				return err
			}

			return nil
		})
		if err != nil {
			log.Error("failed to read queue", sl.Err(err))
		}
	}()

	log.Info("consumer successfully started", slog.String("queue", cfg.RabbitMQ.QueueName))

	select {
	case <-ctx.Done():
		log.Info("shutting down consumer...")
		<-done
	case <-done:
		log.Info("consumer finished the work")
	}

	log.Info("service gracefully stopped")
}
