package cancellation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/notifications"
	"github.com/geocoder89/eventmanager/internal/queue"
	"github.com/geocoder89/eventmanager/internal/queue/membus"
)

const (
	cancelChannel = "event.cancel"
	dlqChannel    = "event.cancel.dlq"
)

type fakeCanceller struct {
	results []error
	calls   int
	ids     []string
}

func (f *fakeCanceller) Cancel(_ context.Context, id string) (event.Event, error) {
	f.calls++
	f.ids = append(f.ids, id)
	if f.calls <= len(f.results) && f.results[f.calls-1] != nil {
		return event.Event{}, f.results[f.calls-1]
	}
	return event.Event{ID: id, Status: event.StatusCancelled, Attendees: []string{"u-1"}}, nil
}

type countingRecorder map[string]int

func (r countingRecorder) ObserveCancellation(result string) { r[result]++ }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func transient() error {
	return apperr.Transient(apperr.CodeStoreUnavailable, "store down", errors.New("dial tcp: refused"))
}

func newConsumer(svc Canceller, pub queue.Publisher) (*Consumer, countingRecorder) {
	rec := countingRecorder{}
	c := NewConsumer(Config{Channel: cancelChannel, DeadLetterChannel: dlqChannel}, svc, pub, quietLogger()).
		WithMetrics(rec)
	return c, rec
}

// drive plays the bus: it hands msg to the consumer and then keeps feeding
// it whatever the consumer republished, until nothing new shows up.
func drive(t *testing.T, c *Consumer, bus *membus.Bus, msg queue.Message) (deliveries int, last error) {
	t.Helper()
	ctx := context.Background()

	for deliveries < 10 {
		deliveries++
		last = c.Handle(ctx, msg)

		published := bus.Published(cancelChannel)
		if last != nil || len(published) < deliveries {
			return deliveries, last
		}
		msg = published[len(published)-1]
	}
	t.Fatalf("consumer kept republishing")
	return deliveries, last
}

func firstMessage() queue.Message {
	return queue.Message{
		ID:      "m-1",
		Channel: cancelChannel,
		Payload: []byte(`{"id":"ev-1","title":"Go Meetup","status":"PUBLISHED"}`),
		Headers: map[string]string{"trace_id": "t-1"},
	}
}

func TestThreeFailuresThenSuccess(t *testing.T) {
	bus := membus.New(quietLogger())
	svc := &fakeCanceller{results: []error{transient(), transient(), transient()}}
	c, rec := newConsumer(svc, bus)

	deliveries, err := drive(t, c, bus, firstMessage())

	if err != nil {
		t.Fatalf("final delivery: %v", err)
	}
	if deliveries != 4 || svc.calls != 4 {
		t.Fatalf("deliveries=%d calls=%d, want 4/4", deliveries, svc.calls)
	}

	republished := bus.Published(cancelChannel)
	if len(republished) != 3 {
		t.Fatalf("republished %d times, want 3", len(republished))
	}
	for i, m := range republished {
		if got := Retries(m.Headers); got != i+1 {
			t.Fatalf("republish %d: retries=%d, want %d", i, got, i+1)
		}
		if m.Headers["trace_id"] != "t-1" {
			t.Fatalf("republish %d lost headers: %v", i, m.Headers)
		}
		if string(m.Payload) != string(firstMessage().Payload) {
			t.Fatalf("republish %d changed payload: %s", i, m.Payload)
		}
	}

	if len(bus.Published(dlqChannel)) != 0 {
		t.Fatalf("nothing should be dead-lettered")
	}
	if rec[ResultRetried] != 3 || rec[ResultCancelled] != 1 {
		t.Fatalf("metrics = %v", rec)
	}
}

func TestFourFailuresDeadLetter(t *testing.T) {
	bus := membus.New(quietLogger())
	svc := &fakeCanceller{results: []error{transient(), transient(), transient(), transient(), transient()}}
	c, rec := newConsumer(svc, bus)

	deliveries, err := drive(t, c, bus, firstMessage())

	if !errors.Is(err, ErrDeadLettered) || !errors.Is(err, queue.ErrReject) {
		t.Fatalf("want ErrDeadLettered, got %v", err)
	}
	if deliveries != MaxAttempts || svc.calls != MaxAttempts {
		t.Fatalf("deliveries=%d calls=%d, want %d", deliveries, svc.calls, MaxAttempts)
	}
	if n := len(bus.Published(cancelChannel)); n != MaxAttempts-1 {
		t.Fatalf("republished %d times, want %d", n, MaxAttempts-1)
	}

	dead := bus.Published(dlqChannel)
	if len(dead) != 1 {
		t.Fatalf("dead-lettered %d messages, want 1", len(dead))
	}
	if Retries(dead[0].Headers) != MaxAttempts || dead[0].Headers[ErrorHeader] == "" || dead[0].Headers["trace_id"] != "t-1" {
		t.Fatalf("dead-letter headers = %v", dead[0].Headers)
	}
	if rec[ResultDeadLettered] != 1 {
		t.Fatalf("metrics = %v", rec)
	}
}

func TestAlreadyCancelledIsNotRetried(t *testing.T) {
	bus := membus.New(quietLogger())
	svc := &fakeCanceller{results: []error{
		apperr.InvalidState(apperr.CodeAlreadyInState, "event ev-1 is already cancelled"),
	}}
	c, rec := newConsumer(svc, bus)

	msg := firstMessage()
	msg.Headers[RetriesHeader] = "2"

	if err := c.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(bus.Published(cancelChannel)) != 0 || len(bus.Published(dlqChannel)) != 0 {
		t.Fatalf("already-cancelled message was resubmitted")
	}
	if rec[ResultAlreadyCancelled] != 1 {
		t.Fatalf("metrics = %v", rec)
	}
}

func TestOtherInvalidStateIsRetried(t *testing.T) {
	bus := membus.New(quietLogger())
	svc := &fakeCanceller{results: []error{
		apperr.InvalidState("EM-0013", "only published events can be cancelled"),
	}}
	c, _ := newConsumer(svc, bus)

	if err := c.Handle(context.Background(), firstMessage()); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := bus.Published(cancelChannel); len(got) != 1 || Retries(got[0].Headers) != 1 {
		t.Fatalf("republished = %+v", got)
	}
}

func TestUndecodablePayloadCountsAsFailure(t *testing.T) {
	bus := membus.New(quietLogger())
	svc := &fakeCanceller{}
	c, _ := newConsumer(svc, bus)

	msg := firstMessage()
	msg.Payload = []byte("not json")
	msg.Headers[RetriesHeader] = "garbage"

	if err := c.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if svc.calls != 0 {
		t.Fatalf("service called for a bad payload")
	}
	if got := bus.Published(cancelChannel); len(got) != 1 || got[0].Headers[RetriesHeader] != "1" {
		t.Fatalf("republished = %+v", got)
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, []byte, map[string]string) error {
	return errors.New("broker unreachable")
}

func TestRepublishFailureLeavesMessageUnsettled(t *testing.T) {
	svc := &fakeCanceller{results: []error{transient()}}
	c, _ := newConsumer(svc, failingPublisher{})

	err := c.Handle(context.Background(), firstMessage())

	if err == nil || errors.Is(err, queue.ErrReject) {
		t.Fatalf("want an unsettled error, got %v", err)
	}
}

type recordingNotifier struct {
	got []notifications.EventCancelledInput
}

func (r *recordingNotifier) SendEventCancelled(_ context.Context, in notifications.EventCancelledInput) error {
	r.got = append(r.got, in)
	return errors.New("smtp down")
}

func TestNotifierFailureDoesNotAffectOutcome(t *testing.T) {
	bus := membus.New(quietLogger())
	n := &recordingNotifier{}
	c, _ := newConsumer(&fakeCanceller{}, bus)
	c.WithNotifier(n)

	if err := c.Handle(context.Background(), firstMessage()); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(n.got) != 1 || n.got[0].EventID != "ev-1" {
		t.Fatalf("notifications = %+v", n.got)
	}
	if len(bus.Published(cancelChannel)) != 0 {
		t.Fatalf("notification failure caused a retry")
	}
}

func TestRetriesHeader(t *testing.T) {
	tests := []struct {
		headers map[string]string
		want    int
	}{
		{nil, 0},
		{map[string]string{}, 0},
		{map[string]string{RetriesHeader: "3"}, 3},
		{map[string]string{RetriesHeader: " 2 "}, 2},
		{map[string]string{RetriesHeader: "-1"}, 0},
		{map[string]string{RetriesHeader: "x"}, 0},
	}
	for _, tt := range tests {
		if got := Retries(tt.headers); got != tt.want {
			t.Fatalf("Retries(%v) = %d, want %d", tt.headers, got, tt.want)
		}
	}
}
