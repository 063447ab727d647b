package event

import (
	"errors"
	"slices"
	"time"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

const MaxTags = 10

type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	CategoryCode    string    `json:"categoryCode"`
	LocationCode    string    `json:"locationCode"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	MaxCapacity     int       `json:"maxCapacity"`
	CurrentCapacity int       `json:"currentCapacity"`
	Price           float64   `json:"price"`
	OrganizerID     string    `json:"organizerId"`
	Status          Status    `json:"status"`
	Tags            []string  `json:"tags"`
	Attendees       []string  `json:"attendees"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	// Version is bumped on every successful save; stores reject stale writes.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy that shares no slices with e.
func (e Event) Clone() Event {
	e.Tags = slices.Clone(e.Tags)
	e.Attendees = slices.Clone(e.Attendees)
	return e
}

func (e Event) HasAttendee(userID string) bool {
	return slices.Contains(e.Attendees, userID)
}

func (e Event) IsFull() bool {
	return e.CurrentCapacity >= e.MaxCapacity
}

func (e Event) RemainingSpots() int {
	if r := e.MaxCapacity - e.CurrentCapacity; r > 0 {
		return r
	}
	return 0
}

type ListFilter struct {
	Status       *Status
	CategoryCode *string
}

var (
	ErrNotFound        = errors.New("event not found")
	ErrVersionConflict = errors.New("event was modified concurrently")
)

type CreateEventRequest struct {
	Title        string    `json:"title" binding:"required,min=3,max=120"`
	Description  string    `json:"description" binding:"omitempty,max=1000"`
	CategoryCode string    `json:"categoryCode" binding:"omitempty,max=40"`
	LocationCode string    `json:"locationCode" binding:"omitempty,max=40"`
	StartDate    time.Time `json:"startDate" binding:"required"`
	EndDate      time.Time `json:"endDate" binding:"required"`
	MaxCapacity  int       `json:"maxCapacity" binding:"omitempty,min=0,max=50000"`
	Price        float64   `json:"price" binding:"omitempty,min=0"`
	Tags         []string  `json:"tags" binding:"omitempty,dive,min=1,max=40"`
	ImageURL     string    `json:"imageUrl" binding:"omitempty,url"`
}

// a partial update: nil fields keep the stored value.
type UpdateEventRequest struct {
	Title        *string    `json:"title" binding:"omitempty,min=3,max=120"`
	Description  *string    `json:"description" binding:"omitempty,max=1000"`
	CategoryCode *string    `json:"categoryCode" binding:"omitempty,max=40"`
	LocationCode *string    `json:"locationCode" binding:"omitempty,max=40"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	MaxCapacity  *int       `json:"maxCapacity" binding:"omitempty,min=0,max=50000"`
	Price        *float64   `json:"price" binding:"omitempty,min=0"`
	Tags         []string   `json:"tags" binding:"omitempty,dive,min=1,max=40"`
	ImageURL     *string    `json:"imageUrl" binding:"omitempty,url"`
}
