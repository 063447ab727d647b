package cancellation

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/catalog"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/lifecycle"
	"github.com/geocoder89/eventmanager/internal/queue/membus"
	"github.com/geocoder89/eventmanager/internal/repo/memory"
)

type pipeline struct {
	svc       *lifecycle.Service
	events    *memory.EventsRepo
	bus       *membus.Bus
	requester *Requester
	consumer  *Consumer
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	events := memory.NewEventsRepo()
	users := memory.NewUsersRepo(
		user.User{ID: "u-admin", Email: "admin@example.com", Role: user.RoleAdmin},
		user.User{ID: "u-alice", Email: "alice@example.com", Role: user.RoleOrganizer},
		user.User{ID: "u-bob", Email: "bob@example.com", Role: user.RoleOrganizer},
	)
	cat := memory.NewCatalogRepo()
	cat.PutCategory(catalog.Category{Code: "TECH", Active: true})
	cat.PutLocation(catalog.Location{Code: "TOR-1", Active: true})

	svc := lifecycle.New(lifecycle.Deps{Events: events, Users: users, Catalog: cat, Logger: quietLogger()})
	bus := membus.New(quietLogger())
	t.Cleanup(func() { _ = bus.Close() })

	return &pipeline{
		svc:       svc,
		events:    events,
		bus:       bus,
		requester: NewRequester(svc, bus, cancelChannel, quietLogger()),
		consumer:  NewConsumer(Config{Channel: cancelChannel, DeadLetterChannel: dlqChannel}, svc, bus, quietLogger()),
	}
}

func (p *pipeline) actor(t *testing.T, email string) user.User {
	t.Helper()
	u, err := p.svc.ResolveActor(context.Background(), email)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return u
}

func (p *pipeline) publishedEvent(t *testing.T) event.Event {
	t.Helper()
	ctx := context.Background()
	start := time.Now().Add(72 * time.Hour)

	e, err := p.svc.Create(ctx, event.CreateEventRequest{
		Title:        "Go Meetup",
		CategoryCode: "TECH",
		LocationCode: "TOR-1",
		StartDate:    start,
		EndDate:      start.Add(2 * time.Hour),
		MaxCapacity:  10,
	}, p.actor(t, "alice@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := p.svc.Publish(ctx, e.ID, p.actor(t, "alice@example.com")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	return e
}

func TestRequestThroughBusCancelsEvent(t *testing.T) {
	p := newPipeline(t)
	e := p.publishedEvent(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.requester.Request(ctx, e.ID, p.actor(t, "alice@example.com")); err != nil {
		t.Fatalf("request: %v", err)
	}

	queued := p.bus.Published(cancelChannel)
	if len(queued) != 1 || queued[0].Headers[RetriesHeader] != "0" {
		t.Fatalf("queued = %+v", queued)
	}

	go func() { _ = p.bus.Subscribe(ctx, cancelChannel, p.consumer.Handle) }()

	for {
		got, _ := p.events.FindByID(ctx, e.ID)
		if got.Status == event.StatusCancelled {
			break
		}
		select {
		case <-ctx.Done():
			t.Fatalf("event never cancelled, status=%s", got.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	// a redelivery of the same request settles without a retry
	if err := p.consumer.Handle(ctx, queued[0]); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if n := len(p.bus.Published(cancelChannel)); n != 1 {
		t.Fatalf("redelivery was requeued, %d messages on channel", n)
	}
}

func TestRequestAuthorization(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	e := p.publishedEvent(t)

	err := p.requester.Request(ctx, e.ID, p.actor(t, "bob@example.com"))
	if !apperr.IsKind(err, apperr.KindPermission) || apperr.CodeOf(err) != apperr.CodeNotEventOrganizer {
		t.Fatalf("other organizer: got %v", err)
	}

	if err := p.requester.Request(ctx, e.ID, p.actor(t, "admin@example.com")); err != nil {
		t.Fatalf("admin: %v", err)
	}

	if n := len(p.bus.Published(cancelChannel)); n != 1 {
		t.Fatalf("queued %d messages, want 1", n)
	}
}

func TestRequestRefusesDrafts(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	start := time.Now().Add(72 * time.Hour)
	alice := p.actor(t, "alice@example.com")

	e, err := p.svc.Create(ctx, event.CreateEventRequest{
		Title: "Draft", StartDate: start, EndDate: start.Add(2 * time.Hour),
	}, alice)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = p.requester.Request(ctx, e.ID, p.actor(t, "alice@example.com"))

	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Fatalf("want invalid state, got %v", err)
	}
	if len(p.bus.Published(cancelChannel)) != 0 {
		t.Fatalf("draft cancellation was queued")
	}
}
