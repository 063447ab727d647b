package catalog

import (
	"errors"
	"time"
)

type Category struct {
	ID          string    `json:"id"`
	Code        string    `json:"categoryCode"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Location struct {
	ID        string    `json:"id"`
	Code      string    `json:"locationCode"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	Capacity  int       `json:"capacity"`
	Active    bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrLocationNotFound = errors.New("location not found")
)
