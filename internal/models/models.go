package models

import "time"

type User struct {
	ID       int64
	Email    string
	Name     string
	PassHash string
}

// UserPatch carries the mutable fields of a user. Nil fields are left as is.
type UserPatch struct {
	Name *string
}

// UserView is the externally visible projection of a user. It never carries the password hash.
type UserView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) View() UserView {
	return UserView{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

func Views(users []User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}

	return views
}

const (
	EventUserRegistered = "user.registered"
	EventUserUpdated    = "user.updated"
	EventUserDeleted    = "user.deleted"
)

// Event is published to the message broker after a user mutation is persisted.
type Event struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(eventType string, u User) Event {
	return Event{
		Type:       eventType,
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		OccurredAt: time.Now().UTC(),
	}
}
