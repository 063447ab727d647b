package cancellation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/lifecycle"
	"github.com/geocoder89/eventmanager/internal/policy"
	"github.com/geocoder89/eventmanager/internal/queue"
)

// EventReader returns an event the actor is allowed to see.
type EventReader interface {
	Get(ctx context.Context, id string, actor user.User) (event.Event, error)
}

// Requester authorizes cancel requests and puts them on the bus.
type Requester struct {
	events  EventReader
	pub     queue.Publisher
	channel string
	log     *slog.Logger
}

func NewRequester(events EventReader, pub queue.Publisher, channel string, log *slog.Logger) *Requester {
	if log == nil {
		log = slog.Default()
	}
	return &Requester{events: events, pub: pub, channel: channel, log: log}
}

// Request enqueues a cancellation of event id on behalf of actor. The event
// changes state later, when the consumer applies the message.
func (r *Requester) Request(ctx context.Context, id string, actor user.User) error {
	if err := policy.RequirePermission(actor, policy.EventCancel); err != nil {
		return err
	}

	e, err := r.events.Get(ctx, id, actor)
	if err != nil {
		return err
	}

	if actor.Role != user.RoleAdmin && !actor.Organizes(e.ID) {
		return apperr.Permission(apperr.CodeNotEventOrganizer, "you can only cancel events you have organized")
	}

	switch e.Status {
	case event.StatusPublished:
	case event.StatusCancelled:
		return apperr.InvalidState(apperr.CodeAlreadyInState, "event "+id+" is already cancelled")
	default:
		return apperr.InvalidState(lifecycle.CodeCancelNotPublished, "only published events can be cancelled, event is "+string(e.Status))
	}

	payload, err := EncodePayload(e)
	if err != nil {
		return fmt.Errorf("encode cancellation: %w", err)
	}

	if err := r.pub.Publish(ctx, r.channel, payload, WithRetries(nil, 0)); err != nil {
		return apperr.Transient(apperr.CodeBusUnavailable, "cancellation could not be queued", err)
	}

	r.log.InfoContext(ctx, "cancellation requested",
		"event_id", id,
		"actor", actor.Email,
		"channel", r.channel,
	)
	return nil
}
