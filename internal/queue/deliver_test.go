package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		min     time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{3, 4 * time.Second},
		{20, 30 * time.Second},
		{200, 30 * time.Second},
	}

	for _, tt := range tests {
		got := ExponentialBackoff(tt.attempt)
		if got < tt.min || got >= tt.min+250*time.Millisecond {
			t.Fatalf("attempt %d: backoff %v outside [%v, %v)", tt.attempt, got, tt.min, tt.min+250*time.Millisecond)
		}
	}
}

func TestDeliverSettles(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	msg := Message{Channel: "c", Payload: []byte("p"), Headers: map[string]string{"k": "v"}}

	t.Run("ack", func(t *testing.T) {
		calls := 0
		err := Deliver(context.Background(), log, func(context.Context, Message) error {
			calls++
			return nil
		}, msg)
		if err != nil || calls != 1 {
			t.Fatalf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("reject", func(t *testing.T) {
		calls := 0
		err := Deliver(context.Background(), log, func(context.Context, Message) error {
			calls++
			return fmt.Errorf("poison: %w", ErrReject)
		}, msg)
		if err != nil || calls != 1 {
			t.Fatalf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("retry then ack", func(t *testing.T) {
		calls := 0
		err := Deliver(context.Background(), log, func(context.Context, Message) error {
			calls++
			if calls == 1 {
				return errors.New("flaky")
			}
			return nil
		}, msg)
		if err != nil || calls != 2 {
			t.Fatalf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("context ends while failing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		err := Deliver(ctx, log, func(context.Context, Message) error {
			cancel()
			return errors.New("down")
		}, msg)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	})

	t.Run("handler gets a private copy", func(t *testing.T) {
		_ = Deliver(context.Background(), log, func(_ context.Context, m Message) error {
			m.Headers["k"] = "changed"
			return nil
		}, msg)
		if msg.Headers["k"] != "v" {
			t.Fatalf("handler mutated caller headers")
		}
	})
}
