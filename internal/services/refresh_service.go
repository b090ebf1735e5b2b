package services

import (
	"context"
	"sync"
	"time"

	"courtwatch/internal/domain"
	applog "courtwatch/internal/log"
)

type SlotFetcher interface {
	FetchAll(ctx context.Context, venue string, categories []string) ([]domain.Slot, error)
}

type SlotStore interface {
	Upsert(ctx context.Context, slots []domain.Slot) (int64, error)
	Available(ctx context.Context, now time.Time) ([]domain.Slot, error)
}

// RefreshService is the fetch -> persist pipeline. Scheduled and manual refreshes go
// through Refresh, which lets only one of them write at a time.
type RefreshService struct {
	fetcher    SlotFetcher
	store      SlotStore
	calendar   *CalendarService
	venue      string
	categories []string
	loc        *time.Location
	clock      func() time.Time

	run sync.Mutex

	mu          sync.RWMutex
	lastUpdated time.Time
}

func NewRefreshService(fetcher SlotFetcher, store SlotStore, venue string, categories []string, loc *time.Location) *RefreshService {
	if loc == nil {
		loc = time.Local
	}
	return &RefreshService{
		fetcher:    fetcher,
		store:      store,
		venue:      venue,
		categories: categories,
		loc:        loc,
		clock:      time.Now,
	}
}

// WithCalendar exports the available slots after every successful refresh.
func (s *RefreshService) WithCalendar(c *CalendarService) *RefreshService {
	s.calendar = c
	return s
}

func (s *RefreshService) WithClock(clock func() time.Time) *RefreshService {
	s.clock = clock
	return s
}

// Refresh fetches the whole look-ahead window and upserts it as one batch.
// A fetch error leaves the store untouched.
func (s *RefreshService) Refresh(ctx context.Context) (int, error) {
	s.run.Lock()
	defer s.run.Unlock()

	applog.Info(nil, "refresh.start", map[string]any{"venue": s.venue, "categories": s.categories})
	slots, err := s.fetcher.FetchAll(ctx, s.venue, s.categories)
	if err != nil {
		return 0, err
	}
	affected, err := s.store.Upsert(ctx, slots)
	if err != nil {
		return 0, err
	}

	now := s.clock().In(s.loc)
	s.mu.Lock()
	s.lastUpdated = now
	s.mu.Unlock()
	applog.Info(nil, "refresh.done", map[string]any{"fetched": len(slots), "rows_affected": affected})

	if s.calendar != nil {
		s.exportCalendar(ctx, now)
	}
	return len(slots), nil
}

func (s *RefreshService) exportCalendar(ctx context.Context, now time.Time) {
	available, err := s.store.Available(ctx, now)
	if err != nil {
		applog.Error(nil, "calendar.query.fail", err, nil)
		return
	}
	if err := s.calendar.Export(available, s.LastUpdated()); err != nil {
		applog.Error(nil, "calendar.export.fail", err, map[string]any{"path": s.calendar.Path()})
		return
	}
	applog.Debug(nil, "calendar.export", map[string]any{"events": len(available), "path": s.calendar.Path()})
}

// LastUpdated renders the last successful refresh as HH:MM:SS, or "never".
func (s *RefreshService) LastUpdated() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdated.IsZero() {
		return "never"
	}
	return s.lastUpdated.Format("15:04:05")
}
