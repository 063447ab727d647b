package attendee

import (
	"testing"
	"time"

	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/validation"
)

var fixedNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func publishedEvent() event.Event {
	return event.Event{
		ID:              "ev-1",
		Title:           "Go Meetup",
		Status:          event.StatusPublished,
		StartDate:       fixedNow.Add(48 * time.Hour),
		EndDate:         fixedNow.Add(50 * time.Hour),
		MaxCapacity:     2,
		CurrentCapacity: 1,
		Attendees:       []string{"u-existing"},
	}
}

func TestChainReportsFirstApplicableFailure(t *testing.T) {
	chain := NewDefaultChain(clock)

	tests := []struct {
		name    string
		mutate  func(e *event.Event)
		userID  string
		wantMsg string
	}{
		{
			name: "unpublished full duplicate reports status",
			mutate: func(e *event.Event) {
				e.Status = event.StatusDraft
				e.CurrentCapacity = e.MaxCapacity
				e.StartDate = fixedNow.Add(10 * time.Minute)
			},
			userID:  "u-existing",
			wantMsg: MsgNotPublished,
		},
		{
			name: "published full duplicate reports capacity",
			mutate: func(e *event.Event) {
				e.CurrentCapacity = e.MaxCapacity
			},
			userID:  "u-existing",
			wantMsg: MsgEventFull,
		},
		{
			name:    "published duplicate with room reports duplicate",
			mutate:  func(e *event.Event) {},
			userID:  "u-existing",
			wantMsg: MsgAlreadyAttending,
		},
		{
			name: "starting within the hour reports deadline",
			mutate: func(e *event.Event) {
				e.StartDate = fixedNow.Add(30 * time.Minute)
			},
			userID:  "u-new",
			wantMsg: MsgRegistrationOver,
		},
		{
			name:    "all rules pass",
			mutate:  func(e *event.Event) {},
			userID:  "u-new",
			wantMsg: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := publishedEvent()
			tt.mutate(&e)

			out := chain.Validate(e, tt.userID)

			if tt.wantMsg == "" {
				if !out.Passed() {
					t.Fatalf("expected pass, got %q", out.Message)
				}
				return
			}
			if out.Passed() {
				t.Fatalf("expected failure %q, got pass", tt.wantMsg)
			}
			if out.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", out.Message, tt.wantMsg)
			}
		})
	}
}

func TestFailureCarriesCapacitySnapshot(t *testing.T) {
	e := publishedEvent()
	e.CurrentCapacity = 2

	out := NewDefaultChain(clock).Validate(e, "u-new")

	if out.CurrentCapacity != 2 || out.MaxCapacity != 2 || out.RemainingSpots != 0 {
		t.Fatalf("unexpected snapshot: %+v", out)
	}
}

type stubRule struct {
	prio int
	name string
	log  *[]string
}

func (r stubRule) Priority() int                      { return r.prio }
func (r stubRule) CanHandle(event.Event, string) bool { return true }
func (r stubRule) Evaluate(e event.Event, _ string) validation.Outcome {
	*r.log = append(*r.log, r.name)
	return validation.Pass()
}

func TestChainOrdersByPriorityStable(t *testing.T) {
	var log []string
	chain := NewChain(
		stubRule{prio: DefaultPriority, name: "late", log: &log},
		stubRule{prio: 2, name: "second-a", log: &log},
		stubRule{prio: 1, name: "first", log: &log},
		stubRule{prio: 2, name: "second-b", log: &log},
	)

	chain.Validate(publishedEvent(), "u")

	want := []string{"first", "second-a", "second-b", "late"}
	if len(log) != len(want) {
		t.Fatalf("evaluated %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("evaluated %v, want %v", log, want)
		}
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	e := publishedEvent()
	before := len(e.Attendees)

	NewDefaultChain(clock).Validate(e, "u-new")

	if len(e.Attendees) != before || e.CurrentCapacity != 1 {
		t.Fatalf("chain mutated the event: %+v", e)
	}
}
