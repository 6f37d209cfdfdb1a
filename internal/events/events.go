package events

import (
	"context"
	"log/slog"

	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
	"github.com/LucasTS-42034/Progint/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, models.Event) error {
	return nil
}

// Emit publishes event and only logs a failure: the user change it describes is
// already persisted and must not be reported as failed.
func Emit(ctx context.Context, log *slog.Logger, pub Publisher, event models.Event) {
	if err := pub.Publish(ctx, event); err != nil {
		log.Error("failed to publish event",
			slog.String("type", event.Type),
			slog.Int64("uid", event.UserID),
			sl.Err(err),
		)
	}
}
