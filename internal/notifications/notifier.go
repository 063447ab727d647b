package notifications

import "context"

type EventCancelledInput struct {
	EventID        string
	EventTitle     string
	OrganizerEmail string
	// Attendees are user ids; the delivery layer resolves addresses.
	Attendees []string
}

type Notifier interface {
	SendEventCancelled(ctx context.Context, input EventCancelledInput) error
}
