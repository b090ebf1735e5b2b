package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"courtwatch/internal/domain"
)

// DayGroup is the slots of one date, ordered by start time.
type DayGroup struct {
	Date  string        `json:"date"`
	Label string        `json:"label"` // e.g. "Monday (20/10)"
	Slots []domain.Slot `json:"slots"`
}

// GroupByDate buckets slots per date, dates ascending and slots by start (then end) time.
func GroupByDate(slots []domain.Slot) []DayGroup {
	byDate := map[string][]domain.Slot{}
	for _, s := range slots {
		byDate[s.Date] = append(byDate[s.Date], s)
	}
	out := make([]DayGroup, 0, len(byDate))
	for date, day := range byDate {
		sortSlots(day)
		out = append(out, DayGroup{Date: date, Label: DayLabel(date), Slots: day})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DayLabel renders a YYYY-MM-DD date as "Monday (20/10)".
func DayLabel(date string) string {
	d, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("Monday (02/01)")
}

func SlotLine(s domain.Slot, withSpaces bool) string {
	line := fmt.Sprintf("🏸 %s - %s (%s)", s.StartsAt, s.EndsAt, s.Duration)
	if withSpaces {
		line += fmt.Sprintf(", %d space(s) left", s.Spaces)
	}
	return line
}

// FormatChange renders a notification body: the header, then one section per date.
func FormatChange(header string, slots []domain.Slot, withSpaces bool) string {
	sections := []string{header}
	for _, g := range GroupByDate(slots) {
		lines := []string{"📅 " + g.Label + ":"}
		for _, s := range g.Slots {
			lines = append(lines, SlotLine(s, withSpaces))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// FormatAvailability renders query results for humans, or noneMessage when empty.
func FormatAvailability(slots []domain.Slot, noneMessage string) string {
	groups := GroupByDate(slots)
	if len(groups) == 0 {
		return noneMessage
	}
	sections := make([]string, 0, len(groups))
	for _, g := range groups {
		lines := []string{"✅ Courts available on " + g.Label + ":", ""}
		for _, s := range g.Slots {
			lines = append(lines, SlotLine(s, true))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func sortSlots(slots []domain.Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].SortKey() < slots[j].SortKey() })
}
