// Package cancellation moves cancel requests through the message bus. The
// Requester authorizes and enqueues them; the Consumer applies them with a
// bounded number of redeliveries before dead-lettering.
package cancellation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/notifications"
	"github.com/geocoder89/eventmanager/internal/queue"
)

// MaxAttempts is the number of deliveries a cancellation gets. The attempt
// that brings the retry counter to MaxAttempts is dead-lettered.
const MaxAttempts = 4

const CodeDeadLettered = "EM-0023"

// ErrDeadLettered wraps queue.ErrReject so buses settle the message.
var ErrDeadLettered = fmt.Errorf("cancellation dead-lettered after %d attempts: %w", MaxAttempts, queue.ErrReject)

const (
	ResultCancelled        = "cancelled"
	ResultAlreadyCancelled = "already_cancelled"
	ResultRetried          = "retried"
	ResultDeadLettered     = "dead_lettered"
)

type Canceller interface {
	Cancel(ctx context.Context, id string) (event.Event, error)
}

type Recorder interface {
	ObserveCancellation(result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCancellation(string) {}

type Config struct {
	// Channel is where retries are republished; it is the channel consumed.
	Channel           string
	DeadLetterChannel string
}

type Consumer struct {
	cfg      Config
	svc      Canceller
	pub      queue.Publisher
	notifier notifications.Notifier
	log      *slog.Logger
	metrics  Recorder
	now      func() time.Time
}

func NewConsumer(cfg Config, svc Canceller, pub queue.Publisher, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		cfg:     cfg,
		svc:     svc,
		pub:     pub,
		log:     log,
		metrics: nopRecorder{},
		now:     time.Now,
	}
}

// WithNotifier makes the consumer tell attendees after a successful cancel.
func (c *Consumer) WithNotifier(n notifications.Notifier) *Consumer {
	c.notifier = n
	return c
}

func (c *Consumer) WithMetrics(r Recorder) *Consumer {
	if r != nil {
		c.metrics = r
	}
	return c
}

// Handle is a queue.Handler. It returns nil when the message is settled,
// ErrDeadLettered when it has been given up on, and any other error when the
// message could not be settled and must be delivered again.
func (c *Consumer) Handle(ctx context.Context, msg queue.Message) error {
	retries := Retries(msg.Headers)

	ev, err := c.cancel(ctx, msg.Payload)
	switch {
	case err == nil:
		c.metrics.ObserveCancellation(ResultCancelled)
		c.log.InfoContext(ctx, "cancellation applied",
			"event_id", ev.ID,
			"retries", retries,
		)
		c.notify(ctx, ev)
		return nil

	case apperr.IsKind(err, apperr.KindInvalidState) && apperr.CodeOf(err) == apperr.CodeAlreadyInState:
		c.metrics.ObserveCancellation(ResultAlreadyCancelled)
		c.log.InfoContext(ctx, "cancellation redelivered for cancelled event",
			"message_id", msg.ID,
			"retries", retries,
		)
		return nil
	}

	next := retries + 1
	if next >= MaxAttempts {
		return c.deadLetter(ctx, msg, next, err)
	}

	if pubErr := c.pub.Publish(ctx, c.cfg.Channel, msg.Payload, WithRetries(msg.Headers, next)); pubErr != nil {
		return fmt.Errorf("republish cancellation (retries=%d): %w", next, errors.Join(pubErr, err))
	}

	c.metrics.ObserveCancellation(ResultRetried)
	c.log.WarnContext(ctx, "cancellation failed, requeued",
		"message_id", msg.ID,
		"retries", next,
		"err", err,
	)
	return nil
}

func (c *Consumer) cancel(ctx context.Context, payload []byte) (event.Event, error) {
	id, err := DecodeEventID(payload)
	if err != nil {
		return event.Event{}, err
	}
	return c.svc.Cancel(ctx, id)
}

func (c *Consumer) deadLetter(ctx context.Context, msg queue.Message, retries int, cause error) error {
	if c.cfg.DeadLetterChannel != "" {
		headers := WithRetries(msg.Headers, retries)
		headers[ErrorHeader] = cause.Error()
		headers[DeadLetteredAtHeader] = c.now().UTC().Format(time.RFC3339)

		if err := c.pub.Publish(ctx, c.cfg.DeadLetterChannel, msg.Payload, headers); err != nil {
			// not settled: the bus hands it back and we try the dead-letter again
			return fmt.Errorf("publish to dead-letter channel: %w", errors.Join(err, cause))
		}
	}

	c.metrics.ObserveCancellation(ResultDeadLettered)
	c.log.ErrorContext(ctx, "cancellation dead-lettered",
		"code", CodeDeadLettered,
		"message_id", msg.ID,
		"retries", retries,
		"err", cause,
	)
	return fmt.Errorf("%w: %v", ErrDeadLettered, cause)
}

// notify is best effort; the cancellation already stands.
func (c *Consumer) notify(ctx context.Context, ev event.Event) {
	if c.notifier == nil || len(ev.Attendees) == 0 {
		return
	}

	err := c.notifier.SendEventCancelled(ctx, notifications.EventCancelledInput{
		EventID:        ev.ID,
		EventTitle:     ev.Title,
		OrganizerEmail: ev.OrganizerID,
		Attendees:      ev.Attendees,
	})
	if err != nil {
		c.log.WarnContext(ctx, "cancel notification not sent", "event_id", ev.ID, "err", err)
	}
}
