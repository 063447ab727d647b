package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the log instead of a provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendEventCancelled(ctx context.Context, in EventCancelledInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.event_cancelled",
		"event_id", in.EventID,
		"title", in.EventTitle,
		"organizer", in.OrganizerEmail,
		"recipients", len(in.Attendees),
	)
	return nil
}
