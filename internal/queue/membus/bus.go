// Package membus is an in-process queue.Bus for tests and single-binary runs.
package membus

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/geocoder89/eventmanager/internal/queue"
)

const defaultBuffer = 1024

type Bus struct {
	mu       sync.Mutex
	channels map[string]chan queue.Message
	history  map[string][]queue.Message
	seq      int64
	closed   bool
	done     chan struct{}
	log      *slog.Logger
}

func New(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		channels: make(map[string]chan queue.Message),
		history:  make(map[string][]queue.Message),
		done:     make(chan struct{}),
		log:      log,
	}
}

func (b *Bus) channel(name string) (chan queue.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, queue.ErrClosed
	}
	ch, ok := b.channels[name]
	if !ok {
		ch = make(chan queue.Message, defaultBuffer)
		b.channels[name] = ch
	}
	return ch, nil
}

func (b *Bus) Publish(ctx context.Context, channel string, payload []byte, headers map[string]string) error {
	ch, err := b.channel(channel)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.seq++
	msg := queue.Message{
		ID:      strconv.FormatInt(b.seq, 10),
		Channel: channel,
		Payload: payload,
		Headers: headers,
	}.Clone()
	b.history[channel] = append(b.history[channel], msg.Clone())
	b.mu.Unlock()

	select {
	case ch <- msg:
		return nil
	case <-b.done:
		return queue.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) Subscribe(ctx context.Context, channel string, h queue.Handler) error {
	ch, err := b.channel(channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.done:
			return nil
		case msg := <-ch:
			if err := queue.Deliver(ctx, b.log, h, msg); err != nil {
				// put it back for the next subscriber
				select {
				case ch <- msg:
				default:
					b.log.Error("membus dropped unacknowledged message", "channel", channel, "message_id", msg.ID)
				}
				return nil
			}
		}
	}
}

// Published returns every message ever published to channel, oldest first.
func (b *Bus) Published(channel string) []queue.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]queue.Message, 0, len(b.history[channel]))
	for _, m := range b.history[channel] {
		out = append(out, m.Clone())
	}
	return out
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.done)
	}
	return nil
}
