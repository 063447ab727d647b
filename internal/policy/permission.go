package policy

import (
	"slices"

	"github.com/geocoder89/eventmanager/internal/domain/user"
)

type Permission string

const (
	EventCreate  Permission = "EVENT_CREATE"
	EventRead    Permission = "EVENT_READ"
	EventUpdate  Permission = "EVENT_UPDATE"
	EventDelete  Permission = "EVENT_DELETE"
	EventPublish Permission = "EVENT_PUBLISH"
	EventCancel  Permission = "EVENT_CANCEL"
	UserRead     Permission = "USER_READ"
	UserUpdate   Permission = "USER_UPDATE"
	UserDelete   Permission = "USER_DELETE"
	UserSuspend  Permission = "USER_SUSPEND"
)

type permissionSet map[Permission]struct{}

func setOf(perms ...Permission) permissionSet {
	s := make(permissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// fixed at startup, never mutated
var rolePermissions = map[user.Role]permissionSet{
	user.RoleUser: setOf(EventRead),
	user.RoleOrganizer: setOf(
		EventCreate,
		EventRead,
		EventUpdate,
		EventPublish,
		EventCancel,
		UserRead,
	),
	user.RoleAdmin: setOf(
		EventCreate,
		EventRead,
		EventUpdate,
		EventDelete,
		EventPublish,
		EventCancel,
		UserRead,
		UserUpdate,
		UserDelete,
		UserSuspend,
	),
}

// PermissionsFor returns the permissions granted to role in sorted order.
// Unknown roles get none.
func PermissionsFor(role user.Role) []Permission {
	set := rolePermissions[role]
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func HasPermission(role user.Role, p Permission) bool {
	_, ok := rolePermissions[role][p]
	return ok
}
