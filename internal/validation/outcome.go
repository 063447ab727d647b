package validation

import "github.com/geocoder89/eventmanager/internal/domain/event"

// Outcome is the result of one rule. The zero value is a pass.
type Outcome struct {
	Failed          bool   `json:"failed"`
	Message         string `json:"message,omitempty"`
	CurrentCapacity int    `json:"currentCapacity"`
	MaxCapacity     int    `json:"maxCapacity"`
	RemainingSpots  int    `json:"remainingSpots"`
}

func Pass() Outcome {
	return Outcome{}
}

// Fail captures message with the capacity numbers of e at evaluation time.
func Fail(e event.Event, message string) Outcome {
	return Outcome{
		Failed:          true,
		Message:         message,
		CurrentCapacity: e.CurrentCapacity,
		MaxCapacity:     e.MaxCapacity,
		RemainingSpots:  e.RemainingSpots(),
	}
}

func (o Outcome) Passed() bool {
	return !o.Failed
}
