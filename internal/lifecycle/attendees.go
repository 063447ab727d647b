package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/policy"
	"github.com/geocoder89/eventmanager/internal/validation"
	"github.com/geocoder89/eventmanager/internal/validation/publish"
)

// AttendeeResult reports a registration attempt. A rule rejection is a
// normal result with Success=false, not an error.
type AttendeeResult struct {
	EventID         string     `json:"eventId"`
	EventTitle      string     `json:"eventTitle"`
	UserID          string     `json:"userId"`
	Success         bool       `json:"success"`
	Message         string     `json:"message"`
	RegisteredAt    *time.Time `json:"registeredAt,omitempty"`
	CurrentCapacity int        `json:"currentCapacity"`
	MaxCapacity     int        `json:"maxCapacity"`
	RemainingSpots  int        `json:"remainingSpots"`
}

const MsgRegistered = "successfully registered for event"

type chainRejection struct {
	event   event.Event
	outcome validation.Outcome
}

func (r *chainRejection) Error() string { return r.outcome.Message }

// AddAttendee registers userID for the event when the attendee chain allows it.
func (s *Service) AddAttendee(ctx context.Context, id, userID string, actor user.User) (res AttendeeResult, err error) {
	ctx, done := s.begin(ctx, "add_attendee", id)
	defer func() { done(err) }()

	if strings.TrimSpace(userID) == "" {
		return AttendeeResult{}, apperr.Validation(publish.CodeMissingField, "userId is required")
	}

	saved, err := s.mutate(ctx, id, func(e event.Event) (event.Event, error) {
		if err := policy.ValidateModification(e, actor); err != nil {
			return e, err
		}

		if out := s.chain.Validate(e, userID); !out.Passed() {
			return e, &chainRejection{event: e, outcome: out}
		}

		e.Attendees = append(e.Attendees, userID)
		e.CurrentCapacity++
		if e.CurrentCapacity > e.MaxCapacity {
			return e, apperr.InvalidState(CodeCapacityBelowAttendance, "registration would exceed max capacity")
		}
		return e, nil
	})

	var rejected *chainRejection
	if errors.As(err, &rejected) {
		return AttendeeResult{
			EventID:         id,
			EventTitle:      rejected.event.Title,
			UserID:          userID,
			Success:         false,
			Message:         rejected.outcome.Message,
			CurrentCapacity: rejected.outcome.CurrentCapacity,
			MaxCapacity:     rejected.outcome.MaxCapacity,
			RemainingSpots:  rejected.outcome.RemainingSpots,
		}, nil
	}
	if err != nil {
		return AttendeeResult{}, err
	}

	registeredAt := saved.UpdatedAt
	s.log.InfoContext(ctx, "attendee registered",
		"event_id", id,
		"user_id", userID,
		"current_capacity", saved.CurrentCapacity,
	)

	return AttendeeResult{
		EventID:         saved.ID,
		EventTitle:      saved.Title,
		UserID:          userID,
		Success:         true,
		Message:         MsgRegistered,
		RegisteredAt:    &registeredAt,
		CurrentCapacity: saved.CurrentCapacity,
		MaxCapacity:     saved.MaxCapacity,
		RemainingSpots:  saved.RemainingSpots(),
	}, nil
}
