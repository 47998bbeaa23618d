package service

import (
	"context"
	"log/slog"

	"teahouse/internal/event"
)

// MediaJanitor drains the event bus: orphaned media is deleted from the host
// and user lifecycle events are logged.
type MediaJanitor struct {
	media  *MediaService
	events <-chan event.Event
	cancel func()
	logger *slog.Logger
}

// NewMediaJanitor subscribes right away so no event published after it
// returns is missed.
func NewMediaJanitor(bus event.Bus, media *MediaService, logger *slog.Logger) *MediaJanitor {
	if logger == nil {
		logger = slog.Default()
	}
	events, cancel := bus.Subscribe()
	return &MediaJanitor{media: media, events: events, cancel: cancel, logger: logger}
}

// Run blocks until ctx is done or the subscription is closed.
func (j *MediaJanitor) Run(ctx context.Context) {
	defer j.cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-j.events:
			if !ok {
				return
			}
			j.handle(ctx, e)
		}
	}
}

func (j *MediaJanitor) handle(ctx context.Context, e event.Event) {
	switch e.Type {
	case event.TypeMediaOrphaned:
		payload, ok := e.Payload.(event.MediaOrphanedPayload)
		if !ok {
			j.logger.Warn("malformed media event", "event_id", e.ID)
			return
		}
		j.media.deleteNow(context.WithoutCancel(ctx), payload.PublicID, payload.Reason)
	case event.TypeUserRegistered, event.TypeUserLoggedIn, event.TypeUserLoggedOut:
		attrs := []any{"event_type", e.Type, "event_id", e.ID, "actor_id", e.ActorID}
		if payload, ok := e.Payload.(event.UserPayload); ok {
			attrs = append(attrs, "username", payload.Username)
		}
		j.logger.Info("user event", attrs...)
	}
}
