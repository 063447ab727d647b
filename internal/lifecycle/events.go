package lifecycle

import (
	"context"
	"errors"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/policy"
)

// Create stores a new draft owned by actor and links it to the actor's
// organized events.
func (s *Service) Create(ctx context.Context, req event.CreateEventRequest, actor user.User) (ev event.Event, err error) {
	ctx, done := s.begin(ctx, "create", "")
	defer func() { done(err) }()

	if err := policy.RequirePermission(actor, policy.EventCreate); err != nil {
		return event.Event{}, err
	}

	now := s.now()
	if err := validateSchedule(req.StartDate, req.EndDate, now); err != nil {
		return event.Event{}, err
	}
	if err := validateTags(req.Tags); err != nil {
		return event.Event{}, err
	}

	draft := event.NewDraft(req, actor.Email, now)

	saved, err := s.events.Save(ctx, draft)
	if err != nil {
		return event.Event{}, storeErr("insert event", err)
	}

	if err := s.users.AddOrganizedEvent(ctx, actor.ID, saved.ID); err != nil {
		// without the back-reference nobody but an admin could ever touch the draft
		if delErr := s.events.Delete(ctx, saved.ID); delErr != nil {
			s.log.ErrorContext(ctx, "orphaned draft after failed organizer link",
				"event_id", saved.ID,
				"err", delErr,
			)
		}
		return event.Event{}, storeErr("link organizer", err)
	}

	s.log.InfoContext(ctx, "event created",
		"event_id", saved.ID,
		"organizer", actor.Email,
	)
	return saved, nil
}

func (s *Service) Get(ctx context.Context, id string, actor user.User) (ev event.Event, err error) {
	ctx, done := s.begin(ctx, "get", id)
	defer func() { done(err) }()

	if err := policy.RequirePermission(actor, policy.EventRead); err != nil {
		return event.Event{}, err
	}

	e, err := s.load(ctx, id)
	if err != nil {
		return event.Event{}, err
	}
	if err := policy.ValidateVisibility(e, actor); err != nil {
		return event.Event{}, err
	}
	return e, nil
}

// List returns the events matching filter that actor is allowed to see.
func (s *Service) List(ctx context.Context, filter event.ListFilter, actor user.User) (out []event.Event, err error) {
	ctx, done := s.begin(ctx, "list", "")
	defer func() { done(err) }()

	if err := policy.RequirePermission(actor, policy.EventRead); err != nil {
		return nil, err
	}

	all, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list events", err)
	}

	out = make([]event.Event, 0, len(all))
	for _, e := range all {
		if policy.CanView(e, actor) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Update merges req into the event. Terminal events are frozen, and a
// published event may not have its start moved into the past.
func (s *Service) Update(ctx context.Context, id string, req event.UpdateEventRequest, actor user.User) (ev event.Event, err error) {
	ctx, done := s.begin(ctx, "update", id)
	defer func() { done(err) }()

	if err := policy.RequirePermission(actor, policy.EventUpdate); err != nil {
		return event.Event{}, err
	}

	return s.mutate(ctx, id, func(e event.Event) (event.Event, error) {
		if err := policy.ValidateModification(e, actor); err != nil {
			return e, err
		}
		if e.Status.IsTerminal() {
			return e, apperr.InvalidState(CodeTerminalUpdate, "cannot update a "+string(e.Status)+" event")
		}

		now := s.now()
		if e.Status == event.StatusPublished && req.StartDate != nil && req.StartDate.Before(now) {
			return e, apperr.Validation(CodePublishedStartInPast, "cannot move the start of a published event into the past")
		}

		if req.StartDate != nil && req.StartDate.Before(now) {
			return e, apperr.Validation(CodeStartInPast, "start date must be in the future")
		}

		next := event.ApplyUpdate(e, req)

		if err := validateDuration(next.StartDate, next.EndDate); err != nil {
			return e, err
		}
		if err := validateTags(next.Tags); err != nil {
			return e, err
		}
		if err := validateCapacity(next); err != nil {
			return e, err
		}
		return next, nil
	})
}

// Delete removes the event and the organizer's back-reference to it.
func (s *Service) Delete(ctx context.Context, id string, actor user.User) (err error) {
	ctx, done := s.begin(ctx, "delete", id)
	defer func() { done(err) }()

	if err := policy.RequirePermission(actor, policy.EventDelete); err != nil {
		return err
	}

	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	var organizerID string
	if e.OrganizerID != "" {
		organizer, err := s.users.FindByEmail(ctx, e.OrganizerID)
		switch {
		case errors.Is(err, user.ErrNotFound):
			s.log.WarnContext(ctx, "organizer of deleted event no longer exists",
				"event_id", id,
				"organizer", e.OrganizerID,
			)
		case err != nil:
			return storeErr("find organizer", err)
		default:
			if err := s.users.RemoveOrganizedEvent(ctx, organizer.ID, id); err != nil {
				return storeErr("unlink organizer", err)
			}
			organizerID = organizer.ID
		}
	}

	if err := s.events.Delete(ctx, id); err != nil {
		// the event survives, so its organizer must keep it
		if organizerID != "" {
			if relinkErr := s.users.AddOrganizedEvent(ctx, organizerID, id); relinkErr != nil {
				s.log.ErrorContext(ctx, "could not restore organizer after failed delete",
					"event_id", id,
					"organizer", e.OrganizerID,
					"err", relinkErr,
				)
			}
		}
		if errors.Is(err, event.ErrNotFound) {
			return apperr.NotFound(CodeEventNotFound, "event "+id+" not found")
		}
		return storeErr("delete event", err)
	}

	s.log.InfoContext(ctx, "event deleted", "event_id", id, "actor", actor.Email)
	return nil
}
