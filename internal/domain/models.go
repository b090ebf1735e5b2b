package domain

import (
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// SlotKey is the identity of a slot. Two slots are the same slot iff their keys match,
// whatever their capacity says.
type SlotKey struct {
	Venue    string
	Category string
	Date     string // YYYY-MM-DD
	StartsAt string // HH:MM
}

func (k SlotKey) String() string {
	return strings.Join([]string{k.Venue, k.Category, k.Date, k.StartsAt}, "|")
}

// Slot is one bookable time window as persisted in the courts table.
type Slot struct {
	CompositeKey string `db:"composite_key" json:"composite_key"`
	VenueSlug    string `db:"venue_slug" json:"venue_slug"`
	CategorySlug string `db:"category_slug" json:"category_slug"`
	Name         string `db:"name" json:"name"`
	Date         string `db:"date" json:"date"`           // YYYY-MM-DD
	StartsAt     string `db:"starts_at" json:"starts_at"` // HH:MM
	EndsAt       string `db:"ends_at" json:"ends_at"`     // HH:MM
	Duration     string `db:"duration" json:"duration"`
	Price        string `db:"price" json:"price"`
	Spaces       int    `db:"spaces" json:"spaces"`
}

func (s Slot) Key() SlotKey {
	return SlotKey{Venue: s.VenueSlug, Category: s.CategorySlug, Date: s.Date, StartsAt: s.StartsAt}
}

// Day parses the slot date as a calendar day in loc.
func (s Slot) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s.Date, loc)
}

// Span returns the wall-clock start and end of the slot in loc.
func (s Slot) Span(loc *time.Location) (start, end time.Time, err error) {
	start, err = time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.StartsAt, loc)
	if err != nil {
		return
	}
	end, err = time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.EndsAt, loc)
	return
}

// SortKey orders slots by (date, start time, end time, key).
func (s Slot) SortKey() string {
	return s.Date + " " + s.StartsAt + " " + s.EndsAt + " " + s.CompositeKey
}

var venueNames = map[string]string{
	"sugden-sports-centre": "Sugden Sports Centre",
	"ardwick-sports-hall":  "Ardwick Sports Hall",
}

// VenueName maps a venue slug to its display name; unknown slugs are returned as-is.
func VenueName(slug string) string {
	if n, ok := venueNames[slug]; ok {
		return n
	}
	return slug
}
