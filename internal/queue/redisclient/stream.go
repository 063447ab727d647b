package redisclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geocoder89/eventmanager/internal/queue"
)

const (
	payloadField = "payload"
	headerPrefix = "h:"

	readCount = 10
	readBlock = 2 * time.Second
)

var consumerSeq atomic.Int64

func (c *Client) Publish(ctx context.Context, channel string, payload []byte, headers map[string]string) error {
	values := make(map[string]any, len(headers)+1)
	values[payloadField] = payload
	for k, v := range headers {
		values[headerPrefix+k] = v
	}

	err := c.redisdb.XAdd(ctx, &redis.XAddArgs{
		Stream: channel,
		Values: values,
	}).Err()
	if errors.Is(err, redis.ErrClosed) {
		return queue.ErrClosed
	}
	if err != nil {
		return fmt.Errorf("xadd %s: %w", channel, err)
	}
	return nil
}

// Subscribe reads channel through the client's consumer group. Entries left
// pending by an earlier run of this consumer are replayed before new ones.
func (c *Client) Subscribe(ctx context.Context, channel string, h queue.Handler) error {
	if err := c.ensureGroup(ctx, channel); err != nil {
		return err
	}

	host, _ := os.Hostname()
	consumer := fmt.Sprintf("%s-%d-%d", host, os.Getpid(), consumerSeq.Add(1))

	c.log.InfoContext(ctx, "redis stream consumer started",
		"channel", channel,
		"group", c.group,
		"consumer", consumer,
	)

	// "0" replays our own pending entries; ">" asks for never-delivered ones.
	cursor := "0"
	attempt := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := c.redisdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: consumer,
			Streams:  []string{channel, cursor},
			Count:    readCount,
			Block:    readBlock,
		}).Result()

		switch {
		case errors.Is(err, redis.Nil):
			cursor = ">"
			continue
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, redis.ErrClosed):
			return queue.ErrClosed
		case err != nil:
			wait := queue.ExponentialBackoff(attempt)
			attempt++
			c.log.ErrorContext(ctx, "xreadgroup failed", "channel", channel, "backoff", wait.String(), "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		attempt = 0

		delivered := 0
		for _, s := range streams {
			for _, entry := range s.Messages {
				delivered++
				if err := c.dispatch(ctx, channel, entry, h); err != nil {
					return nil
				}
			}
		}
		if cursor == "0" && delivered == 0 {
			cursor = ">"
		}
	}
}

func (c *Client) dispatch(ctx context.Context, channel string, entry redis.XMessage, h queue.Handler) error {
	msg := decodeEntry(channel, entry)

	if err := queue.Deliver(ctx, c.log, h, msg); err != nil {
		return err
	}

	if err := c.redisdb.XAck(ctx, channel, c.group, entry.ID).Err(); err != nil {
		c.log.ErrorContext(ctx, "xack failed", "channel", channel, "message_id", entry.ID, "err", err)
	}
	return nil
}

func decodeEntry(channel string, entry redis.XMessage) queue.Message {
	msg := queue.Message{
		ID:      entry.ID,
		Channel: channel,
		Headers: make(map[string]string, len(entry.Values)),
	}
	for k, v := range entry.Values {
		s := fmt.Sprint(v)
		switch {
		case k == payloadField:
			msg.Payload = []byte(s)
		case strings.HasPrefix(k, headerPrefix):
			msg.Headers[strings.TrimPrefix(k, headerPrefix)] = s
		}
	}
	return msg
}

func (c *Client) ensureGroup(ctx context.Context, channel string) error {
	err := c.redisdb.XGroupCreateMkStream(ctx, channel, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on %s: %w", c.group, channel, err)
	}
	return nil
}
