package cancellation

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/geocoder89/eventmanager/internal/domain/event"
)

// RetriesHeader carries how many times a cancellation has already failed.
const RetriesHeader = "retries"

// Extra headers stamped on dead-lettered messages.
const (
	ErrorHeader          = "error"
	DeadLetteredAtHeader = "dead_lettered_at"
)

var ErrInvalidPayload = errors.New("invalid cancellation payload")

// EncodePayload serializes the event snapshot that is being cancelled.
func EncodePayload(e event.Event) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEventID reads the event reference out of a payload. Only the id is
// trusted; the rest of the snapshot may be stale by the time it arrives.
func DecodeEventID(payload []byte) (string, error) {
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &ref); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(ref.ID) == "" {
		return "", fmt.Errorf("%w: missing event id", ErrInvalidPayload)
	}
	return ref.ID, nil
}

// Retries returns the retry counter, treating a missing or malformed header as 0.
func Retries(headers map[string]string) int {
	n, err := strconv.Atoi(strings.TrimSpace(headers[RetriesHeader]))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// WithRetries copies headers and sets the retry counter to n.
func WithRetries(headers map[string]string, n int) map[string]string {
	out := maps.Clone(headers)
	if out == nil {
		out = make(map[string]string, 1)
	}
	out[RetriesHeader] = strconv.Itoa(n)
	return out
}
