// Package notifier turns user events from the broker into mail.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
	"github.com/LucasTS-42034/Progint/internal/models"
)

const welcomeSubject = "Welcome"

type Sender interface {
	Send(to, subject, body string) error
}

type Notifier struct {
	log    *slog.Logger
	sender Sender
}

func New(log *slog.Logger, sender Sender) *Notifier {
	return &Notifier{
		log:    log,
		sender: sender,
	}
}

// Handle processes one broker message. Undecodable messages are dropped
// (nil error) because redelivering them cannot succeed.
func (n *Notifier) Handle(_ context.Context, body []byte) error {
	const op = "notifier.Handle"

	log := n.log.With(slog.String("op", op))

	var event models.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("dropping undecodable message", sl.Err(err))

		return nil
	}

	log = log.With(
		slog.String("type", event.Type),
		slog.Int64("uid", event.UserID),
	)

	if event.Type != models.EventUserRegistered {
		log.Info("event acknowledged")

		return nil
	}

	if event.Email == "" {
		log.Warn("registered event without email")

		return nil
	}

	if err := n.sender.Send(event.Email, welcomeSubject, welcomeBody(event)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("welcome mail sent")

	return nil
}

func welcomeBody(event models.Event) string {
	name := event.Name
	if name == "" {
		name = event.Email
	}

	return fmt.Sprintf("Hello %s,\n\nyour account %s was created.\n", name, event.Email)
}
