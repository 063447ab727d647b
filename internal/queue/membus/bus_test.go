package membus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/eventmanager/internal/queue"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishSubscribe(t *testing.T) {
	bus := New(quietLogger())
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	headers := map[string]string{"retries": "2", "trace": "abc"}
	if err := bus.Publish(ctx, "cancel", []byte(`{"id":"ev-1"}`), headers); err != nil {
		t.Fatalf("publish: %v", err)
	}
	headers["retries"] = "mutated"

	got := make(chan queue.Message, 1)
	go func() {
		_ = bus.Subscribe(ctx, "cancel", func(_ context.Context, msg queue.Message) error {
			got <- msg
			cancel()
			return nil
		})
	}()

	select {
	case msg := <-got:
		if string(msg.Payload) != `{"id":"ev-1"}` {
			t.Fatalf("payload = %s", msg.Payload)
		}
		if msg.Headers["retries"] != "2" || msg.Headers["trace"] != "abc" {
			t.Fatalf("headers = %v", msg.Headers)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("message not delivered")
	}
}

func TestRejectedMessagesAreSettled(t *testing.T) {
	bus := New(quietLogger())
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_ = bus.Publish(ctx, "c", []byte("1"), nil)
	_ = bus.Publish(ctx, "c", []byte("2"), nil)

	seen := make(chan string, 4)
	go func() {
		_ = bus.Subscribe(ctx, "c", func(_ context.Context, msg queue.Message) error {
			seen <- string(msg.Payload)
			if string(msg.Payload) == "1" {
				return fmt.Errorf("bad payload: %w", queue.ErrReject)
			}
			cancel()
			return nil
		})
	}()

	for _, want := range []string{"1", "2"} {
		select {
		case got := <-seen:
			if got != want {
				t.Fatalf("delivered %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestPublishAfterClose(t *testing.T) {
	bus := New(quietLogger())
	_ = bus.Close()

	err := bus.Publish(context.Background(), "c", nil, nil)
	if !errors.Is(err, queue.ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestPublishedHistory(t *testing.T) {
	bus := New(quietLogger())
	defer bus.Close()
	ctx := context.Background()

	_ = bus.Publish(ctx, "a", []byte("x"), map[string]string{"k": "v"})
	_ = bus.Publish(ctx, "b", []byte("y"), nil)

	got := bus.Published("a")
	if len(got) != 1 || got[0].Headers["k"] != "v" || got[0].Channel != "a" {
		t.Fatalf("history = %+v", got)
	}
}
