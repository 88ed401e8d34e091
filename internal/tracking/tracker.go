package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Tracker applies stage commands to a Store
type Tracker struct {
	store Store
	now   func() time.Time

	// serializes read-modify-write cycles
	mu sync.Mutex
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock replaces the wall clock used for history stamps
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a tracker over store
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get returns the record for key, or the default record when none was
// stored. It never writes.
func (t *Tracker) Get(ctx context.Context, key Key) (Record, error) {
	r, ok, err := t.store.Get(ctx, key)
	if err != nil {
		return Record{}, errors.Wrapf(err, "failed to load tracking record %s", key)
	}
	if !ok {
		return Default(), nil
	}
	return r, nil
}

// ListOrder returns the records of every sub-item of orderID in unit order,
// with the default record standing in for units never stored. It never writes.
func (t *Tracker) ListOrder(ctx context.Context, orderID string) ([]Record, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	stored, err := t.store.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tracking records of %s", orderID)
	}

	out := make([]Record, 0, SubItemsPerUnit)
	for unit := 1; unit <= SubItemsPerUnit; unit++ {
		r, ok := stored[unit]
		if !ok {
			r = Default()
		}
		out = append(out, r)
	}
	return out, nil
}

// Commit stores the default record for key if nothing is stored yet
func (t *Tracker) Commit(ctx context.Context, key Key) (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.commitLocked(ctx, key)
}

func (t *Tracker) commitLocked(ctx context.Context, key Key) (Record, error) {
	r, ok, err := t.store.Get(ctx, key)
	if err != nil {
		return Record{}, errors.Wrapf(err, "failed to load tracking record %s", key)
	}
	if ok {
		return r, nil
	}

	r = Default()
	if err := t.store.Put(ctx, key, r); err != nil {
		return Record{}, errors.Wrapf(err, "failed to commit tracking record %s", key)
	}
	return r, nil
}

// Advance moves key to target, stamped with the current time
func (t *Tracker) Advance(ctx context.Context, key Key, target int) (Record, error) {
	return t.apply(ctx, key, func(r Record, at Stamp) (Record, error) {
		return Advance(r, target, at)
	})
}

// ConfirmDelivery marks key as delivered
func (t *Tracker) ConfirmDelivery(ctx context.Context, key Key) (Record, error) {
	return t.apply(ctx, key, ConfirmDelivery)
}

func (t *Tracker) apply(ctx context.Context, key Key, transition func(Record, Stamp) (Record, error)) (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, err := t.commitLocked(ctx, key)
	if err != nil {
		return Record{}, err
	}

	next, err := transition(current, StampAt(t.now()))
	if err != nil {
		return current, err
	}

	if err := t.store.Put(ctx, key, next); err != nil {
		return current, errors.Wrapf(err, "failed to save tracking record %s", key)
	}
	return next, nil
}
