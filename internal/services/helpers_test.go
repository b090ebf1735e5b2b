package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courtwatch/internal/domain"
	"courtwatch/internal/repos"
)

const (
	venue = "sugden-sports-centre"
	cat40 = "badminton-40min"
	cat60 = "badminton-60min"
)

var noon = time.Date(2030, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return noon }

func memRepo(t *testing.T) *repos.SlotRepo {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return repos.NewSlotRepo(db)
}

func slot(date, start, end string, spaces int) domain.Slot {
	s := domain.Slot{
		VenueSlug:    venue,
		CategorySlug: cat60,
		Name:         "Badminton",
		Date:         date,
		StartsAt:     start,
		EndsAt:       end,
		Duration:     "60min",
		Price:        "£10.00",
		Spaces:       spaces,
	}
	s.CompositeKey = s.Key().String()
	return s
}

// stubFetcher returns whatever batch the test last set.
type stubFetcher struct {
	mu    sync.Mutex
	slots []domain.Slot
	err   error
}

func (f *stubFetcher) set(slots []domain.Slot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots, f.err = slots, err
}

func (f *stubFetcher) FetchAll(_ context.Context, _ string, _ []string) ([]domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Slot(nil), f.slots...), nil
}

type sentMessage struct {
	To   string
	Text string
}

// recordingSender keeps every message and fails for the ids in fail.
type recordingSender struct {
	mu   sync.Mutex
	fail map[string]bool
	sent []sentMessage
}

func (s *recordingSender) ProviderID() string { return "test" }

func (s *recordingSender) Send(_ context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[to] {
		return errors.New("recipient blocked the bot")
	}
	s.sent = append(s.sent, sentMessage{To: to, Text: text})
	return nil
}

func (s *recordingSender) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

type staticSubs []string

func (s staticSubs) Subscribers() []string { return s }
