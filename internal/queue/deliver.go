package queue

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff returns the wait before redelivery attempt n (0-based):
// 500ms, 1s, 2s ... capped at 30s, plus up to 250ms of jitter.
func ExponentialBackoff(attempt int) time.Duration {
	base := 500 * time.Millisecond
	capDelay := 30 * time.Second

	delay := capDelay
	if d := float64(base) * math.Pow(2, float64(attempt)); d < float64(capDelay) {
		delay = time.Duration(d)
	}

	// jitter keeps consumers that failed together from retrying together
	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}

// Deliver hands msg to h until h settles it. Unsettled failures are retried
// in place with ExponentialBackoff. It returns nil once the message may be
// acknowledged, or ctx's error if the context ended first, in which case the
// message must stay unacknowledged.
func Deliver(ctx context.Context, log *slog.Logger, h Handler, msg Message) error {
	for attempt := 0; ; attempt++ {
		err := h(ctx, msg.Clone())
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrReject) {
			log.WarnContext(ctx, "message rejected",
				"channel", msg.Channel,
				"message_id", msg.ID,
				"err", err,
			)
			return nil
		}

		wait := ExponentialBackoff(attempt)
		log.ErrorContext(ctx, "message handler failed, redelivering",
			"channel", msg.Channel,
			"message_id", msg.ID,
			"attempt", attempt+1,
			"backoff", wait.String(),
			"err", err,
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
