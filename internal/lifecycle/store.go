package lifecycle

import (
	"context"

	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
)

// EventStore persists events. Save is a compare-and-swap on Event.Version:
// a zero version inserts, any other version must match the stored record or
// the store returns event.ErrVersionConflict. Missing records yield event.ErrNotFound.
type EventStore interface {
	FindByID(ctx context.Context, id string) (event.Event, error)
	Save(ctx context.Context, e event.Event) (event.Event, error)
	Delete(ctx context.Context, id string) error
	FindByStatus(ctx context.Context, status event.Status) ([]event.Event, error)
	List(ctx context.Context, filter event.ListFilter) ([]event.Event, error)
}

// UserStore resolves actors and keeps the organizer back-references. Missing
// users yield user.ErrNotFound.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	AddOrganizedEvent(ctx context.Context, userID, eventID string) error
	RemoveOrganizedEvent(ctx context.Context, userID, eventID string) error
}

// Recorder receives one observation per lifecycle operation.
type Recorder interface {
	ObserveTransition(op, result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTransition(string, string) {}
