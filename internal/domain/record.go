package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// upstreamRecord is one slot as the venue API returns it. The time and price
// fields come either as plain strings or as small objects, so they are decoded lazily.
type upstreamRecord struct {
	Name     string          `json:"name"`
	Date     string          `json:"date"`
	StartsAt json.RawMessage `json:"starts_at"`
	EndsAt   json.RawMessage `json:"ends_at"`
	Duration string          `json:"duration"`
	Price    json.RawMessage `json:"price"`
	Spaces   *int            `json:"spaces"`
}

type clockTime struct {
	Format24Hour string `json:"format_24_hour"`
}

type money struct {
	FormattedAmount string `json:"formatted_amount"`
}

// NormalizeRecords turns the `data` field of an upstream response into a list of raw
// records. The API answers with either a JSON array or an object keyed by slot id.
func NormalizeRecords(data json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrMalformedRecord)
	}
	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: data list: %v", ErrMalformedRecord, err)
		}
		return list, nil
	case '{':
		var byID map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &byID); err != nil {
			return nil, fmt.Errorf("%w: data object: %v", ErrMalformedRecord, err)
		}
		list := make([]json.RawMessage, 0, len(byID))
		for _, rec := range byID {
			list = append(list, rec)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%w: data is neither a list nor an object", ErrMalformedRecord)
	}
}

// ParseRecords normalizes and parses every record of one (venue, category) response.
func ParseRecords(venue, category string, data json.RawMessage) ([]Slot, error) {
	raws, err := NormalizeRecords(data)
	if err != nil {
		return nil, err
	}
	out := make([]Slot, 0, len(raws))
	for _, raw := range raws {
		s, err := ParseRecord(venue, category, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseRecord parses a single upstream record into a Slot keyed under venue/category.
func ParseRecord(venue, category string, raw json.RawMessage) (Slot, error) {
	var rec upstreamRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Slot{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	day, err := time.Parse(DateLayout, rec.Date)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: date %q", ErrMalformedRecord, rec.Date)
	}
	start, err := parseClock(rec.StartsAt)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: starts_at: %v", ErrMalformedRecord, err)
	}
	end, err := parseClock(rec.EndsAt)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: ends_at: %v", ErrMalformedRecord, err)
	}
	price, err := parsePrice(rec.Price)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: price: %v", ErrMalformedRecord, err)
	}
	if rec.Spaces == nil || *rec.Spaces < 0 {
		return Slot{}, fmt.Errorf("%w: spaces missing or negative", ErrMalformedRecord)
	}

	s := Slot{
		VenueSlug:    venue,
		CategorySlug: category,
		Name:         rec.Name,
		Date:         day.Format(DateLayout),
		StartsAt:     start,
		EndsAt:       end,
		Duration:     rec.Duration,
		Price:        price,
		Spaces:       *rec.Spaces,
	}
	s.CompositeKey = s.Key().String()
	return s, nil
}

// parseClock accepts "HH:MM", "HH:MM:SS" or {"format_24_hour": "..."} and renders HH:MM.
func parseClock(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var obj clockTime
		if err := json.Unmarshal(raw, &obj); err != nil || obj.Format24Hour == "" {
			return "", fmt.Errorf("unrecognised time %s", string(raw))
		}
		text = obj.Format24Hour
	}
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognised time %q", text)
}

func parsePrice(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("missing price")
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var obj money
	if err := json.Unmarshal(raw, &obj); err != nil || obj.FormattedAmount == "" {
		return "", fmt.Errorf("unrecognised price %s", string(raw))
	}
	return obj.FormattedAmount, nil
}
