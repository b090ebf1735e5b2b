package services

import (
	"context"
	"sync"
	"time"

	"courtwatch/internal/domain"
	applog "courtwatch/internal/log"
)

type SnapshotSource interface {
	Available(ctx context.Context, now time.Time) ([]domain.Slot, error)
}

type ChangeNotifier interface {
	Deliver(ctx context.Context, added, removed []domain.Slot) error
}

// Change is the outcome of one monitor cycle.
type Change struct {
	Added   []domain.Slot
	Removed []domain.Slot
}

func (c Change) Empty() bool { return len(c.Added) == 0 && len(c.Removed) == 0 }

// Snapshot is a set of available slots keyed by slot identity.
type Snapshot map[domain.SlotKey]domain.Slot

func NewSnapshot(slots []domain.Slot) Snapshot {
	s := make(Snapshot, len(slots))
	for _, slot := range slots {
		s[slot.Key()] = slot
	}
	return s
}

// Diff compares two snapshots by key only: added = fresh - cached, removed = cached - fresh.
// A capacity change on a key present in both is not a change.
func Diff(cached, fresh Snapshot) Change {
	var c Change
	for k, s := range fresh {
		if _, ok := cached[k]; !ok {
			c.Added = append(c.Added, s)
		}
	}
	for k, s := range cached {
		if _, ok := fresh[k]; !ok {
			c.Removed = append(c.Removed, s)
		}
	}
	sortSlots(c.Added)
	sortSlots(c.Removed)
	return c
}

// Monitor holds the last observed availability snapshot and reports transitions.
type Monitor struct {
	source   SnapshotSource
	notifier ChangeNotifier
	loc      *time.Location
	clock    func() time.Time

	mu     sync.Mutex
	cached Snapshot
	seeded bool
}

func NewMonitor(source SnapshotSource, notifier ChangeNotifier, loc *time.Location) *Monitor {
	if loc == nil {
		loc = time.Local
	}
	return &Monitor{source: source, notifier: notifier, loc: loc, clock: time.Now}
}

func (m *Monitor) WithClock(clock func() time.Time) *Monitor {
	m.clock = clock
	return m
}

// Seed replaces the cached snapshot without notifying anyone.
func (m *Monitor) Seed(ctx context.Context) error {
	slots, err := m.source.Available(ctx, m.clock().In(m.loc))
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.cached = NewSnapshot(slots)
	m.seeded = true
	m.mu.Unlock()
	applog.Info(nil, "monitor.seed", map[string]any{"available": len(slots)})
	return nil
}

// Check runs one monitor cycle. If the cache was never seeded, this cycle only seeds it.
// Otherwise the cache is replaced by the fresh snapshot, even when nothing changed, and
// a non-empty change is handed to the notifier. Delivery errors are returned but do not
// roll the cache back.
func (m *Monitor) Check(ctx context.Context) (Change, error) {
	m.mu.Lock()
	seeded := m.seeded
	m.mu.Unlock()
	if !seeded {
		return Change{}, m.Seed(ctx)
	}

	slots, err := m.source.Available(ctx, m.clock().In(m.loc))
	if err != nil {
		return Change{}, err
	}
	fresh := NewSnapshot(slots)

	m.mu.Lock()
	change := Diff(m.cached, fresh)
	m.cached = fresh
	m.mu.Unlock()

	if change.Empty() {
		applog.Info(nil, "monitor.unchanged", map[string]any{"available": len(fresh)})
		return change, nil
	}
	applog.Info(nil, "monitor.changed", map[string]any{
		"available": len(fresh), "added": len(change.Added), "removed": len(change.Removed),
	})
	return change, m.notifier.Deliver(ctx, change.Added, change.Removed)
}

// Cached returns a copy of the current snapshot.
func (m *Monitor) Cached() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(Snapshot, len(m.cached))
	for k, v := range m.cached {
		out[k] = v
	}
	return out
}
