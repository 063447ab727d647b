// Package publish holds the checks an event must pass before it leaves draft.
// Every rule must pass; the first failure aborts the publish.
package publish

import (
	"context"
	"errors"

	"github.com/geocoder89/eventmanager/internal/domain/event"
)

// CatalogLookup answers whether an active category/location exists for a code.
type CatalogLookup interface {
	CategoryExists(ctx context.Context, code string) (bool, error)
	LocationExists(ctx context.Context, code string) (bool, error)
}

type Rule interface {
	Name() string
	Check(ctx context.Context, e event.Event) error
}

type Gate struct {
	rules []Rule
}

func NewGate(rules ...Rule) *Gate {
	return &Gate{rules: rules}
}

// NewDefaultGate wires the fixed publish rule set in evaluation order.
func NewDefaultGate(lookup CatalogLookup) *Gate {
	return NewGate(
		TitleRule{},
		CategoryRule{Lookup: lookup},
		LocationRule{Lookup: lookup},
		EndDateRule{},
		MaxCapacityRule{},
		PriceRule{},
	)
}

func (g *Gate) Validate(ctx context.Context, e event.Event) error {
	snapshot := e.Clone()

	for _, r := range g.rules {
		if err := r.Check(ctx, snapshot); err != nil {
			return &RuleError{Rule: r.Name(), Err: err}
		}
	}
	return nil
}

// RuleError names the rule that rejected an event. It reads and unwraps as the
// rule's own error.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string { return e.Err.Error() }

func (e *RuleError) Unwrap() error { return e.Err }

// FailedRule reports which publish rule produced err, if any.
func FailedRule(err error) (string, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Rule, true
	}
	return "", false
}
