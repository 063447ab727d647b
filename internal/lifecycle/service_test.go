package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/catalog"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/repo/memory"
)

const (
	adminEmail  = "admin@example.com"
	aliceEmail  = "alice@example.com"
	bobEmail    = "bob@example.com"
	memberEmail = "carol@example.com"
)

type testEnv struct {
	t       *testing.T
	svc     *Service
	events  *memory.EventsRepo
	users   *memory.UsersRepo
	catalog *memory.CatalogRepo
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		t:       t,
		events:  memory.NewEventsRepo(),
		catalog: memory.NewCatalogRepo(),
		now:     time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC),
		users: memory.NewUsersRepo(
			user.User{ID: "u-admin", Email: adminEmail, Role: user.RoleAdmin},
			user.User{ID: "u-alice", Email: aliceEmail, Role: user.RoleOrganizer},
			user.User{ID: "u-bob", Email: bobEmail, Role: user.RoleOrganizer},
			user.User{ID: "u-carol", Email: memberEmail, Role: user.RoleUser},
		),
	}
	env.catalog.PutCategory(catalog.Category{Code: "TECH", Active: true})
	env.catalog.PutCategory(catalog.Category{Code: "OLD", Active: false})
	env.catalog.PutLocation(catalog.Location{Code: "TOR-1", Active: true})

	env.svc = env.newService(env.events)
	return env
}

func (env *testEnv) newService(events EventStore) *Service {
	return New(Deps{
		Events:  events,
		Users:   env.users,
		Catalog: env.catalog,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return env.now },
	})
}

// actor re-reads the user so organized-event back-references are current.
func (env *testEnv) actor(email string) user.User {
	env.t.Helper()
	u, err := env.svc.ResolveActor(context.Background(), email)
	if err != nil {
		env.t.Fatalf("resolve %s: %v", email, err)
	}
	return u
}

func (env *testEnv) createRequest() event.CreateEventRequest {
	start := env.now.Add(48 * time.Hour)
	return event.CreateEventRequest{
		Title:        "Go Meetup",
		CategoryCode: "TECH",
		LocationCode: "TOR-1",
		StartDate:    start,
		EndDate:      start.Add(3 * time.Hour),
		MaxCapacity:  2,
		Price:        10,
		Tags:         []string{"go"},
	}
}

func (env *testEnv) createDraft(email string) event.Event {
	env.t.Helper()
	e, err := env.svc.Create(context.Background(), env.createRequest(), env.actor(email))
	if err != nil {
		env.t.Fatalf("create: %v", err)
	}
	return e
}

func (env *testEnv) createPublished() event.Event {
	env.t.Helper()
	e := env.createDraft(aliceEmail)
	published, err := env.svc.Publish(context.Background(), e.ID, env.actor(aliceEmail))
	if err != nil {
		env.t.Fatalf("publish: %v", err)
	}
	return published
}

func (env *testEnv) stored(id string) event.Event {
	env.t.Helper()
	e, err := env.events.FindByID(context.Background(), id)
	if err != nil {
		env.t.Fatalf("find %s: %v", id, err)
	}
	return e
}

func assertAppErr(t *testing.T, err error, kind apperr.Kind, code string) {
	t.Helper()
	if !apperr.IsKind(err, kind) {
		t.Fatalf("want %s error, got %v", kind, err)
	}
	if code != "" && apperr.CodeOf(err) != code {
		t.Fatalf("code = %q, want %q (%v)", apperr.CodeOf(err), code, err)
	}
}

func TestResolveActorUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ResolveActor(context.Background(), "ghost@example.com")

	assertAppErr(t, err, apperr.KindNotFound, CodeUserNotFound)
}

func TestGetMissingEvent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Get(context.Background(), "nope", env.actor(adminEmail))

	assertAppErr(t, err, apperr.KindNotFound, CodeEventNotFound)
}
