package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/eventmanager/internal/domain/user"
)

type UsersRepo struct {
	mu      sync.RWMutex
	byID    map[string]user.User
	byEmail map[string]string
}

func NewUsersRepo(users ...user.User) *UsersRepo {
	r := &UsersRepo{
		byID:    make(map[string]user.User),
		byEmail: make(map[string]string),
	}
	for _, u := range users {
		r.Put(u)
	}
	return r
}

// Put inserts or replaces u. Emails are matched case-insensitively.
func (r *UsersRepo) Put(u user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[u.ID] = u.Clone()
	r.byEmail[strings.ToLower(u.Email)] = u.ID
}

func (r *UsersRepo) FindByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *UsersRepo) FindByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UsersRepo) AddOrganizedEvent(_ context.Context, userID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return user.ErrNotFound
	}
	if !slices.Contains(u.OrganizedEvents, eventID) {
		u.OrganizedEvents = append(slices.Clone(u.OrganizedEvents), eventID)
		u.UpdatedAt = time.Now()
		r.byID[userID] = u
	}
	return nil
}

func (r *UsersRepo) RemoveOrganizedEvent(_ context.Context, userID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.OrganizedEvents = slices.DeleteFunc(slices.Clone(u.OrganizedEvents), func(id string) bool {
		return id == eventID
	})
	u.UpdatedAt = time.Now()
	r.byID[userID] = u
	return nil
}
