package services

import (
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"courtwatch/internal/domain"
)

// CalendarService renders available slots as an iCalendar file for calendar subscriptions.
type CalendarService struct {
	path string
	loc  *time.Location
}

func NewCalendarService(path string, loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarService{path: path, loc: loc}
}

func (s *CalendarService) Path() string { return s.path }

// Render builds the calendar. Event UIDs are derived from the slot key so a slot keeps
// its UID across exports.
func (s *CalendarService) Render(slots []domain.Slot, lastUpdated string) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//courtwatch//court availability//EN")

	stamp := time.Now().UTC()
	for _, slot := range slots {
		start, end, err := slot.Span(s.loc)
		if err != nil {
			return "", err
		}
		venue := domain.VenueName(slot.VenueSlug)
		uid := uuid.NewSHA1(uuid.NameSpaceURL, []byte(slot.Key().String())).String()

		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(slot.Name + " (" + venue + ")")
		ev.SetLocation(venue)
		ev.SetDescription("Last updated: " + lastUpdated)
	}
	return cal.Serialize(), nil
}

// Export renders slots and atomically replaces the file at Path.
func (s *CalendarService) Export(slots []domain.Slot, lastUpdated string) error {
	body, err := s.Render(slots, lastUpdated)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
