package postgres

import "github.com/geocoder89/eventmanager/internal/observability"

// DBObserver times a logical store operation. observability.Prom satisfies it.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type nopObserver struct{}

func (nopObserver) ObserveDB(_ string, fn func() error) error { return fn() }

var _ DBObserver = (*observability.Prom)(nil)

func observerOrNop(o DBObserver) DBObserver {
	if o == nil {
		return nopObserver{}
	}
	return o
}
