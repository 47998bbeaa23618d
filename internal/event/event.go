package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeUserRegistered Type = "user.registered"
	TypeUserLoggedIn   Type = "user.logged_in"
	TypeUserLoggedOut  Type = "user.logged_out"
	TypeMediaOrphaned  Type = "media.orphaned"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

// UserPayload accompanies the user.* events.
type UserPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// MediaOrphanedPayload names a remote object that no user document points at
// anymore and should be removed from the media host.
type MediaOrphanedPayload struct {
	PublicID string `json:"public_id"`
	Reason   string `json:"reason"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}

// New stamps an event with an id and an RFC3339 timestamp.
func New(t Type, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ActorID:   actorID,
	}
}
