// Package lifecycle owns every state change of an event: creation, publishing,
// updates, cancellation, deletion, attendee registration and the expiry sweep.
//
// Each mutation re-reads the event, applies its checks to that fresh snapshot
// and saves it with a version compare-and-swap. A lost race is retried from a
// new read, so no decision is ever made on stale data.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/validation/attendee"
	"github.com/geocoder89/eventmanager/internal/validation/publish"
)

// MaxCASAttempts bounds the read-modify-save loop of a single mutation.
const MaxCASAttempts = 5

type Deps struct {
	Events  EventStore
	Users   UserStore
	Catalog publish.CatalogLookup
	Logger  *slog.Logger
	Metrics Recorder
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

type Service struct {
	events  EventStore
	users   UserStore
	gate    *publish.Gate
	chain   *attendee.Chain
	log     *slog.Logger
	metrics Recorder
	tracer  trace.Tracer
	now     func() time.Time
}

func New(d Deps) *Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	var metrics Recorder = nopRecorder{}
	if d.Metrics != nil {
		metrics = d.Metrics
	}

	return &Service{
		events:  d.Events,
		users:   d.Users,
		gate:    publish.NewDefaultGate(d.Catalog),
		chain:   attendee.NewDefaultChain(now),
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("github.com/geocoder89/eventmanager/internal/lifecycle"),
		now:     now,
	}
}

// ResolveActor loads the user behind an authenticated email.
func (s *Service) ResolveActor(ctx context.Context, email string) (user.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, apperr.NotFound(CodeUserNotFound, fmt.Sprintf("user %s not found", email))
		}
		return user.User{}, storeErr("find user", err)
	}
	return u, nil
}

// begin opens a span for op and returns a func that ends it and records the result.
func (s *Service) begin(ctx context.Context, op, eventID string) (context.Context, func(err error)) {
	ctx, span := s.tracer.Start(ctx, "lifecycle."+op, trace.WithAttributes(attribute.String("event.id", eventID)))

	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = resultLabel(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("result", result))
		span.End()
		s.metrics.ObserveTransition(op, result)
	}
}

func resultLabel(err error) string {
	if k := apperr.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}

func (s *Service) load(ctx context.Context, id string) (event.Event, error) {
	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return event.Event{}, apperr.NotFound(CodeEventNotFound, fmt.Sprintf("event %s not found", id))
		}
		return event.Event{}, storeErr("find event", err)
	}
	return e, nil
}

// mutate reads id, hands a private copy to fn and saves what fn returns.
// On a version conflict it starts over from a fresh read. Errors from fn
// abort without writing.
func (s *Service) mutate(ctx context.Context, id string, fn func(e event.Event) (event.Event, error)) (event.Event, error) {
	for attempt := 1; attempt <= MaxCASAttempts; attempt++ {
		current, err := s.load(ctx, id)
		if err != nil {
			return event.Event{}, err
		}

		next, err := fn(current.Clone())
		if err != nil {
			return event.Event{}, err
		}
		next.Version = current.Version
		next.UpdatedAt = s.now()

		saved, err := s.events.Save(ctx, next)
		if err == nil {
			return saved, nil
		}
		if errors.Is(err, event.ErrNotFound) {
			return event.Event{}, apperr.NotFound(CodeEventNotFound, fmt.Sprintf("event %s not found", id))
		}
		if !errors.Is(err, event.ErrVersionConflict) {
			return event.Event{}, storeErr("save event", err)
		}

		s.log.DebugContext(ctx, "event version conflict, retrying",
			"event_id", id,
			"attempt", attempt,
		)
	}

	return event.Event{}, apperr.Transient(apperr.CodeConcurrentUpdate,
		fmt.Sprintf("event %s kept changing after %d attempts", id, MaxCASAttempts), event.ErrVersionConflict)
}

func storeErr(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Transient(apperr.CodeStoreUnavailable, op+" timed out", err)
	}
	return apperr.Transient(apperr.CodeStoreUnavailable, op+" failed", err)
}
