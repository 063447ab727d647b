// Package kafkabus implements queue.Bus on Kafka topics. Message headers map
// one-to-one onto Kafka record headers.
package kafkabus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/geocoder89/eventmanager/internal/queue"
)

type Config struct {
	Brokers []string
	GroupID string
}

type Bus struct {
	cfg    Config
	writer *kafka.Writer
	log    *slog.Logger
}

func New(cfg Config, log *slog.Logger) (*Bus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafkabus: at least one broker is required")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "eventmanager"
	}
	if log == nil {
		log = slog.Default()
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}

	return &Bus{cfg: cfg, writer: w, log: log}, nil
}

func (b *Bus) Publish(ctx context.Context, channel string, payload []byte, headers map[string]string) error {
	err := b.writer.WriteMessages(ctx, toRecord(channel, payload, headers))
	if errors.Is(err, io.ErrClosedPipe) {
		return queue.ErrClosed
	}
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", channel, err)
	}
	return nil
}

// Subscribe joins the configured consumer group on topic channel. Offsets are
// committed only after the handler settles a message.
func (b *Bus) Subscribe(ctx context.Context, channel string, h queue.Handler) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.cfg.Brokers,
		GroupID:  b.cfg.GroupID,
		Topic:    channel,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	defer func() {
		if err := r.Close(); err != nil {
			b.log.Error("kafka reader close failed", "topic", channel, "err", err)
		}
	}()

	b.log.InfoContext(ctx, "kafka consumer started", "topic", channel, "group", b.cfg.GroupID)

	for {
		rec, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return queue.ErrClosed
			}
			return fmt.Errorf("kafka fetch %s: %w", channel, err)
		}

		if err := queue.Deliver(ctx, b.log, h, fromRecord(rec)); err != nil {
			return nil
		}

		if err := r.CommitMessages(ctx, rec); err != nil && ctx.Err() == nil {
			b.log.ErrorContext(ctx, "kafka commit failed",
				"topic", channel,
				"partition", rec.Partition,
				"offset", rec.Offset,
				"err", err,
			)
		}
	}
}

func (b *Bus) Close() error {
	return b.writer.Close()
}

func toRecord(channel string, payload []byte, headers map[string]string) kafka.Message {
	rec := kafka.Message{
		Topic:   channel,
		Value:   payload,
		Headers: make([]kafka.Header, 0, len(headers)),
	}
	for k, v := range headers {
		rec.Headers = append(rec.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return rec
}

func fromRecord(rec kafka.Message) queue.Message {
	msg := queue.Message{
		ID:      strconv.Itoa(rec.Partition) + "/" + strconv.FormatInt(rec.Offset, 10),
		Channel: rec.Topic,
		Payload: rec.Value,
		Headers: make(map[string]string, len(rec.Headers)),
	}
	for _, h := range rec.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}
