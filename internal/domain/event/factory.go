package event

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// NewDraft builds a fresh draft owned by organizerEmail.
func NewDraft(req CreateEventRequest, organizerEmail string, now time.Time) Event {
	tags := slices.Clone(req.Tags)
	if tags == nil {
		tags = []string{}
	}

	return Event{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		CategoryCode:    req.CategoryCode,
		LocationCode:    req.LocationCode,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MaxCapacity:     req.MaxCapacity,
		CurrentCapacity: 0,
		Price:           req.Price,
		OrganizerID:     organizerEmail,
		Status:          StatusDraft,
		Tags:            tags,
		Attendees:       []string{},
		ImageURL:        req.ImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ApplyUpdate merges the non-nil fields of req into a copy of e.
func ApplyUpdate(e Event, req UpdateEventRequest) Event {
	out := e.Clone()

	if req.Title != nil {
		out.Title = *req.Title
	}
	if req.Description != nil {
		out.Description = *req.Description
	}
	if req.CategoryCode != nil {
		out.CategoryCode = *req.CategoryCode
	}
	if req.LocationCode != nil {
		out.LocationCode = *req.LocationCode
	}
	if req.StartDate != nil {
		out.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		out.EndDate = *req.EndDate
	}
	if req.MaxCapacity != nil {
		out.MaxCapacity = *req.MaxCapacity
	}
	if req.Price != nil {
		out.Price = *req.Price
	}
	if req.Tags != nil {
		out.Tags = slices.Clone(req.Tags)
	}
	if req.ImageURL != nil {
		out.ImageURL = *req.ImageURL
	}

	return out
}
