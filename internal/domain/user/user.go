package user

import (
	"errors"
	"slices"
	"time"
)

type Role string

const (
	RoleUser      Role = "USER"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	// Status is informational here; suspension is enforced by the identity layer.
	Status Status `json:"status"`
	// back-references only; events are owned by the event store
	OrganizedEvents []string  `json:"organizedEvents"`
	AttendedEvents  []string  `json:"attendedEvents"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (u User) Organizes(eventID string) bool {
	return slices.Contains(u.OrganizedEvents, eventID)
}

func (u User) Clone() User {
	u.OrganizedEvents = slices.Clone(u.OrganizedEvents)
	u.AttendedEvents = slices.Clone(u.AttendedEvents)
	return u
}

var ErrNotFound = errors.New("user not found")
