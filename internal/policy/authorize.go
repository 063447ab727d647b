// Package policy decides who may see or change an event. Every function is
// pure: it reads the snapshots it is given and returns a decision.
package policy

import (
	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
)

func RequirePermission(actor user.User, p Permission) error {
	if !HasPermission(actor.Role, p) {
		return apperr.Permission(apperr.CodeMissingPermission, "insufficient permissions, required: "+string(p))
	}
	return nil
}

// ValidateVisibility returns nil when actor may read e.
func ValidateVisibility(e event.Event, actor user.User) error {
	if actor.Role == user.RoleAdmin {
		return nil
	}

	switch e.Status {
	case event.StatusDraft:
		if actor.Role == user.RoleOrganizer && actor.Organizes(e.ID) {
			return nil
		}
		return apperr.Permission(apperr.CodeDraftNotVisible, "draft events are only visible to their organizer")
	case event.StatusCancelled:
		return apperr.Permission(apperr.CodeCancelledNotVisible, "cancelled events are not visible")
	}

	return nil
}

func CanView(e event.Event, actor user.User) bool {
	return ValidateVisibility(e, actor) == nil
}

// ValidateModification returns nil when actor may mutate e.
func ValidateModification(e event.Event, actor user.User) error {
	switch actor.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleOrganizer:
		if !actor.Organizes(e.ID) {
			return apperr.Permission(apperr.CodeNotEventOrganizer, "you can only modify events you have organized")
		}
		if e.Status == event.StatusPublished {
			return apperr.Permission(apperr.CodePublishedLocked, "published events cannot be modified by organizers")
		}
		return nil
	default:
		return apperr.Permission(apperr.CodeUserCannotModify, "users cannot modify events")
	}
}
