package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/eventmanager/internal/domain/event"
)

// EventsRepo keeps events in a map. The mutex makes every Save an atomic
// compare-and-swap on Version.
type EventsRepo struct {
	mu    sync.RWMutex
	items map[string]event.Event
}

func NewEventsRepo() *EventsRepo {
	return &EventsRepo{
		items: make(map[string]event.Event),
	}
}

func (r *EventsRepo) FindByID(_ context.Context, id string) (event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return e.Clone(), nil
}

func (r *EventsRepo) Save(_ context.Context, e event.Event) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.items[e.ID]
	switch {
	case e.Version == 0 && exists:
		return event.Event{}, event.ErrVersionConflict
	case e.Version != 0 && !exists:
		return event.Event{}, event.ErrNotFound
	case exists && current.Version != e.Version:
		return event.Event{}, event.ErrVersionConflict
	}

	stored := e.Clone()
	stored.Version++
	r.items[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *EventsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return event.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *EventsRepo) FindByStatus(ctx context.Context, status event.Status) ([]event.Event, error) {
	return r.List(ctx, event.ListFilter{Status: &status})
}

// List returns matching events ordered by start date, then id.
func (r *EventsRepo) List(_ context.Context, filter event.ListFilter) ([]event.Event, error) {
	r.mu.RLock()
	out := make([]event.Event, 0, len(r.items))
	for _, e := range r.items {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.CategoryCode != nil && e.CategoryCode != *filter.CategoryCode {
			continue
		}
		out = append(out, e.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
