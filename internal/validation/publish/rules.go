package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/eventmanager/internal/apperr"
	"github.com/geocoder89/eventmanager/internal/domain/event"
)

const (
	CodeMissingField    = "EM-0011"
	CodeUnknownCategory = "EM-0009"
	CodeUnknownLocation = "EM-0010"
)

func missing(field, value string) error {
	return apperr.Validation(CodeMissingField, fmt.Sprintf("field %s is required to publish (got %q)", field, value))
}

type TitleRule struct{}

func (TitleRule) Name() string { return "title" }

func (TitleRule) Check(_ context.Context, e event.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return missing("title", e.Title)
	}
	return nil
}

type CategoryRule struct {
	Lookup CatalogLookup
}

func (CategoryRule) Name() string { return "category" }

func (r CategoryRule) Check(ctx context.Context, e event.Event) error {
	if strings.TrimSpace(e.CategoryCode) == "" {
		return missing("categoryCode", e.CategoryCode)
	}

	ok, err := r.Lookup.CategoryExists(ctx, e.CategoryCode)
	if err != nil {
		return apperr.Transient(apperr.CodeStoreUnavailable, "category lookup failed", err)
	}
	if !ok {
		return apperr.Validation(CodeUnknownCategory, fmt.Sprintf("category %s does not exist or is inactive", e.CategoryCode))
	}
	return nil
}

type LocationRule struct {
	Lookup CatalogLookup
}

func (LocationRule) Name() string { return "location" }

func (r LocationRule) Check(ctx context.Context, e event.Event) error {
	if strings.TrimSpace(e.LocationCode) == "" {
		return missing("locationCode", e.LocationCode)
	}

	ok, err := r.Lookup.LocationExists(ctx, e.LocationCode)
	if err != nil {
		return apperr.Transient(apperr.CodeStoreUnavailable, "location lookup failed", err)
	}
	if !ok {
		return apperr.Validation(CodeUnknownLocation, fmt.Sprintf("location %s does not exist or is inactive", e.LocationCode))
	}
	return nil
}

type EndDateRule struct{}

func (EndDateRule) Name() string { return "end_date" }

func (EndDateRule) Check(_ context.Context, e event.Event) error {
	if e.EndDate.IsZero() {
		return missing("endDate", "")
	}
	return nil
}

type MaxCapacityRule struct{}

func (MaxCapacityRule) Name() string { return "max_capacity" }

func (MaxCapacityRule) Check(_ context.Context, e event.Event) error {
	if e.MaxCapacity <= 0 {
		return missing("maxCapacity", fmt.Sprint(e.MaxCapacity))
	}
	return nil
}

type PriceRule struct{}

func (PriceRule) Name() string { return "price" }

func (PriceRule) Check(_ context.Context, e event.Event) error {
	if e.Price < 0 {
		return missing("price", fmt.Sprint(e.Price))
	}
	return nil
}
