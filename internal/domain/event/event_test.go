package event

import (
	"testing"
	"time"
)

func TestCloneDoesNotShareSlices(t *testing.T) {
	e := Event{Tags: []string{"go"}, Attendees: []string{"u1"}}
	c := e.Clone()

	c.Tags[0] = "rust"
	c.Attendees = append(c.Attendees, "u2")

	if e.Tags[0] != "go" {
		t.Fatalf("clone mutated original tags: %v", e.Tags)
	}
	if len(e.Attendees) != 1 {
		t.Fatalf("clone mutated original attendees: %v", e.Attendees)
	}
}

func TestApplyUpdateOnlyTouchesProvidedFields(t *testing.T) {
	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	e := Event{
		Title:       "Go Meetup",
		Description: "monthly",
		StartDate:   start,
		EndDate:     start.Add(2 * time.Hour),
		MaxCapacity: 50,
		Tags:        []string{"go"},
	}

	title := "Go Meetup #2"
	capacity := 80
	got := ApplyUpdate(e, UpdateEventRequest{Title: &title, MaxCapacity: &capacity})

	if got.Title != title || got.MaxCapacity != capacity {
		t.Fatalf("expected title/capacity applied, got %+v", got)
	}
	if got.Description != "monthly" || !got.StartDate.Equal(start) {
		t.Fatalf("expected untouched fields kept, got %+v", got)
	}
	if e.Title != "Go Meetup" {
		t.Fatalf("ApplyUpdate mutated its input")
	}
}

func TestNewDraftDefaults(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewDraft(CreateEventRequest{Title: "Gophercon", MaxCapacity: 10}, "org@example.com", now)

	if e.ID == "" {
		t.Fatalf("expected generated id")
	}
	if e.Status != StatusDraft || e.CurrentCapacity != 0 {
		t.Fatalf("expected draft with zero capacity, got %s/%d", e.Status, e.CurrentCapacity)
	}
	if e.OrganizerID != "org@example.com" {
		t.Fatalf("unexpected organizer %q", e.OrganizerID)
	}
	if e.Tags == nil || e.Attendees == nil {
		t.Fatalf("expected non-nil collections")
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusCancelled, StatusCompleted} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusDraft, StatusPublished} {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
