package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/policy"
	"github.com/geocoder89/eventmanager/internal/validation/publish"
)

// Publish moves a draft to PUBLISHED once every publish rule passes.
func (s *Service) Publish(ctx context.Context, id string, actor user.User) (ev event.Event, err error) {
	ctx, done := s.begin(ctx, "publish", id)
	defer func() { done(err) }()

	if err := policy.RequirePermission(actor, policy.EventPublish); err != nil {
		return event.Event{}, err
	}

	saved, err := s.mutate(ctx, id, func(e event.Event) (event.Event, error) {
		if e.Status != event.StatusDraft {
			return e, apperr.InvalidState(CodePublishNotDraft, "only draft events can be published, event is "+string(e.Status))
		}
		if err := policy.ValidateModification(e, actor); err != nil {
			return e, err
		}
		if err := s.gate.Validate(ctx, e); err != nil {
			if rule, ok := publish.FailedRule(err); ok {
				s.log.WarnContext(ctx, "publish rejected", "event_id", id, "rule", rule, "err", err)
			}
			return e, err
		}
		if err := validateSchedule(e.StartDate, e.EndDate, s.now()); err != nil {
			return e, err
		}

		e.Status = event.StatusPublished
		return e, nil
	})
	if err != nil {
		return event.Event{}, err
	}

	s.log.InfoContext(ctx, "event published", "event_id", id, "actor", actor.Email)
	return saved, nil
}

// Cancel moves a published event to CANCELLED. It carries no actor: callers
// authorize the request before it reaches the bus. Cancelling an event that is
// already cancelled fails with code apperr.CodeAlreadyInState so a redelivery
// can be told apart from a real state conflict.
func (s *Service) Cancel(ctx context.Context, id string) (ev event.Event, err error) {
	ctx, done := s.begin(ctx, "cancel", id)
	defer func() { done(err) }()

	saved, err := s.mutate(ctx, id, func(e event.Event) (event.Event, error) {
		switch e.Status {
		case event.StatusPublished:
		case event.StatusCancelled:
			return e, apperr.InvalidState(apperr.CodeAlreadyInState, "event "+id+" is already cancelled")
		default:
			return e, apperr.InvalidState(CodeCancelNotPublished, "only published events can be cancelled, event is "+string(e.Status))
		}

		e.Status = event.StatusCancelled
		return e, nil
	})
	if err != nil {
		return event.Event{}, err
	}

	s.log.InfoContext(ctx, "event cancelled", "event_id", id)
	return saved, nil
}

var errSkip = errors.New("skip")

// CompleteExpired marks every published event whose end date has passed as
// COMPLETED and returns how many it changed. Failures on one event do not
// stop the sweep; they are joined into the returned error.
func (s *Service) CompleteExpired(ctx context.Context) (completed int, err error) {
	ctx, done := s.begin(ctx, "complete_expired", "")
	defer func() { done(err) }()

	published, err := s.events.FindByStatus(ctx, event.StatusPublished)
	if err != nil {
		return 0, storeErr("list published events", err)
	}

	now := s.now()
	var errs []error

	for _, candidate := range published {
		if !candidate.EndDate.Before(now) {
			continue
		}
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		_, err := s.mutate(ctx, candidate.ID, func(e event.Event) (event.Event, error) {
			// re-checked on the fresh read; it may have been cancelled or moved meanwhile
			if e.Status != event.StatusPublished || !e.EndDate.Before(now) {
				return e, errSkip
			}
			e.Status = event.StatusCompleted
			return e, nil
		})

		switch {
		case err == nil:
			completed++
			s.log.InfoContext(ctx, "event completed", "event_id", candidate.ID)
		case errors.Is(err, errSkip), apperr.IsKind(err, apperr.KindNotFound):
		default:
			s.log.ErrorContext(ctx, "complete event failed",
				"event_id", candidate.ID,
				"err", err,
			)
			errs = append(errs, fmt.Errorf("complete %s: %w", candidate.ID, err))
		}
	}

	return completed, errors.Join(errs...)
}
