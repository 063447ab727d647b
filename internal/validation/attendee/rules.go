package attendee

import (
	"time"

	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/validation"
)

const (
	MsgNotPublished     = "event is not published; only published events accept registrations"
	MsgAlreadyAttending = "user is already registered for this event"
	MsgEventFull        = "event has reached its maximum capacity"
	MsgRegistrationOver = "registration is closed; the event starts in less than 1 hour"
)

// RegistrationCutoff is how long before the start registrations close.
const RegistrationCutoff = time.Hour

type StatusRule struct{}

func (StatusRule) Priority() int { return 1 }

func (StatusRule) CanHandle(event.Event, string) bool { return true }

func (StatusRule) Evaluate(e event.Event, _ string) validation.Outcome {
	if e.Status != event.StatusPublished {
		return validation.Fail(e, MsgNotPublished)
	}
	return validation.Pass()
}

type DuplicateRule struct{}

func (DuplicateRule) Priority() int { return 2 }

func (DuplicateRule) CanHandle(e event.Event, _ string) bool {
	return e.Status == event.StatusPublished && !e.IsFull()
}

func (DuplicateRule) Evaluate(e event.Event, userID string) validation.Outcome {
	if e.HasAttendee(userID) {
		return validation.Fail(e, MsgAlreadyAttending)
	}
	return validation.Pass()
}

type CapacityRule struct{}

func (CapacityRule) Priority() int { return 3 }

func (CapacityRule) CanHandle(e event.Event, _ string) bool {
	return e.Status == event.StatusPublished
}

func (CapacityRule) Evaluate(e event.Event, _ string) validation.Outcome {
	if e.IsFull() {
		return validation.Fail(e, MsgEventFull)
	}
	return validation.Pass()
}

type DeadlineRule struct {
	Now func() time.Time
}

func (DeadlineRule) Priority() int { return 4 }

func (DeadlineRule) CanHandle(e event.Event, _ string) bool {
	return !e.IsFull()
}

func (r DeadlineRule) Evaluate(e event.Event, _ string) validation.Outcome {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	if now.After(e.StartDate.Add(-RegistrationCutoff)) {
		return validation.Fail(e, MsgRegistrationOver)
	}
	return validation.Pass()
}
