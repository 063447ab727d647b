// Package attendee decides whether a user may join an event. Rules run in
// priority order and the first failing rule is the only one reported.
package attendee

import (
	"sort"
	"time"

	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/validation"
)

// DefaultPriority puts a rule after every explicitly prioritised one.
const DefaultPriority = 999

type Rule interface {
	Priority() int
	CanHandle(e event.Event, userID string) bool
	Evaluate(e event.Event, userID string) validation.Outcome
}

type Chain struct {
	rules []Rule
}

// NewChain orders rules once; ties keep registration order.
func NewChain(rules ...Rule) *Chain {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	return &Chain{rules: ordered}
}

// DefaultRules is the fixed registration table used in production.
func DefaultRules(now func() time.Time) []Rule {
	return []Rule{
		StatusRule{},
		DuplicateRule{},
		CapacityRule{},
		DeadlineRule{Now: now},
	}
}

func NewDefaultChain(now func() time.Time) *Chain {
	return NewChain(DefaultRules(now)...)
}

// Validate runs the chain against a snapshot of e. A pass means the user may be added.
func (c *Chain) Validate(e event.Event, userID string) validation.Outcome {
	snapshot := e.Clone()

	for _, r := range c.rules {
		if !r.CanHandle(snapshot, userID) {
			continue
		}
		if out := r.Evaluate(snapshot, userID); !out.Passed() {
			return out
		}
	}

	return validation.Pass()
}
