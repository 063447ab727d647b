// Package queue is the message bus seam: a channel-addressed publisher and a
// subscriber that delivers each message at least once to a Handler.
package queue

import (
	"context"
	"errors"
	"maps"
)

type Message struct {
	// ID is transport specific (stream entry id, partition/offset, sequence).
	ID      string
	Channel string
	Payload []byte
	Headers map[string]string
}

// Clone returns a copy that shares no memory with m.
func (m Message) Clone() Message {
	m.Payload = append([]byte(nil), m.Payload...)
	m.Headers = maps.Clone(m.Headers)
	if m.Headers == nil {
		m.Headers = map[string]string{}
	}
	return m
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte, headers map[string]string) error
}

// Handler processes one delivery. Returning nil acknowledges the message.
// An error wrapping ErrReject also acknowledges it, since the handler has
// settled it for good. Any other error leaves it unacknowledged and it is
// delivered again.
type Handler func(ctx context.Context, msg Message) error

type Subscriber interface {
	// Subscribe blocks, feeding messages from channel to h until ctx ends.
	Subscribe(ctx context.Context, channel string, h Handler) error
}

type Bus interface {
	Publisher
	Subscriber
	Close() error
}

var (
	ErrClosed = errors.New("queue: bus closed")
	ErrReject = errors.New("queue: message rejected")
)
