package lifecycle

import (
	"fmt"
	"time"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
)

const (
	CodeStartInPast          = "EM-0001"
	CodeEndBeforeStart       = "EM-0002"
	CodeTooShort             = "EM-0003"
	CodeTooLong              = "EM-0004"
	CodeTooManyTags          = "EM-0005"
	CodePublishedStartInPast = "EM-0006"
	CodeTerminalUpdate       = "EM-0007"
	CodeEventNotFound        = "EM-0008"
	CodePublishNotDraft      = "EM-0012"
	CodeCancelNotPublished   = "EM-0013"
	CodeUserNotFound         = "EM-0022"

	CodeCapacityBelowAttendance = "capacity_below_attendance"
)

const (
	MinDuration     = time.Hour
	MaxDurationDays = 7
	MaxDuration     = MaxDurationDays * 24 * time.Hour
)

// validateSchedule checks the creation-time date invariants: a future start
// plus the duration bounds.
func validateSchedule(start, end, now time.Time) error {
	if start.Before(now) {
		return apperr.Validation(CodeStartInPast, "start date must be in the future")
	}
	return validateDuration(start, end)
}

// validateDuration bounds end - start to [MinDuration, MaxDuration]. An end
// before the start is reported as a too-short event; EM-0002 is left for a
// missing end.
func validateDuration(start, end time.Time) error {
	if end.IsZero() {
		return apperr.Validation(CodeEndBeforeStart, "end date must be after start date")
	}

	d := end.Sub(start)
	if d < MinDuration {
		return apperr.Validation(CodeTooShort, "event must last at least 1 hour")
	}
	if d > MaxDuration {
		return apperr.Validation(CodeTooLong, fmt.Sprintf("event cannot last more than %d days", MaxDurationDays))
	}
	return nil
}

func validateTags(tags []string) error {
	if len(tags) > event.MaxTags {
		return apperr.Validation(CodeTooManyTags, fmt.Sprintf("an event can have at most %d tags", event.MaxTags))
	}
	return nil
}

func validateCapacity(e event.Event) error {
	if e.CurrentCapacity > e.MaxCapacity {
		return apperr.Validation(CodeCapacityBelowAttendance,
			fmt.Sprintf("max capacity %d is below current attendance %d", e.MaxCapacity, e.CurrentCapacity))
	}
	return nil
}
