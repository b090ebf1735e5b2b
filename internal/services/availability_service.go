package services

import (
	"context"
	"fmt"
	"time"

	"courtwatch/internal/domain"
)

// Period is a named start-time window used by the period query.
type Period struct {
	Name string
	From string // HH:MM, inclusive
	To   string // HH:MM, inclusive
}

var periods = map[string]Period{
	"morning":   {Name: "morning", From: "07:00", To: "12:00"},
	"afternoon": {Name: "afternoon", From: "12:00", To: "17:00"},
	"evening":   {Name: "evening", From: "17:00", To: "22:00"},
}

func LookupPeriod(name string) (Period, bool) {
	p, ok := periods[name]
	return p, ok
}

// NoneMessage is the text rendering of an empty period result.
func (p Period) NoneMessage() string {
	return fmt.Sprintf("❌ No courts available for the time range %s - %s.", p.From, p.To)
}

type AvailabilityReader interface {
	Available(ctx context.Context, now time.Time) ([]domain.Slot, error)
	AvailableByDate(ctx context.Context, date string, now time.Time) ([]domain.Slot, error)
	AvailableByTimeRange(ctx context.Context, from, to string, now time.Time) ([]domain.Slot, error)
}

// AvailabilityService answers read-only availability queries relative to the venue clock.
type AvailabilityService struct {
	Slots AvailabilityReader
	loc   *time.Location
	clock func() time.Time
}

func NewAvailabilityService(slots AvailabilityReader, loc *time.Location) *AvailabilityService {
	if loc == nil {
		loc = time.Local
	}
	return &AvailabilityService{Slots: slots, loc: loc, clock: time.Now}
}

func (s *AvailabilityService) WithClock(clock func() time.Time) *AvailabilityService {
	s.clock = clock
	return s
}

func (s *AvailabilityService) now() time.Time { return s.clock().In(s.loc) }

// Today is the current date in the venue timezone.
func (s *AvailabilityService) Today() string { return s.now().Format(domain.DateLayout) }

func (s *AvailabilityService) All(ctx context.Context) ([]domain.Slot, error) {
	return s.Slots.Available(ctx, s.now())
}

func (s *AvailabilityService) ByDate(ctx context.Context, date string) ([]domain.Slot, error) {
	return s.Slots.AvailableByDate(ctx, date, s.now())
}

func (s *AvailabilityService) ByPeriod(ctx context.Context, p Period) ([]DayGroup, error) {
	slots, err := s.Slots.AvailableByTimeRange(ctx, p.From, p.To, s.now())
	if err != nil {
		return nil, err
	}
	return GroupByDate(slots), nil
}
