package services_test

import (
	"testing"

	"courtwatch/internal/domain"
	"courtwatch/internal/services"
)

func TestFormatChange_GroupsByDate(t *testing.T) {
	slots := []domain.Slot{
		slot("2030-05-11", "09:00", "10:00", 1),
		slot("2030-05-10", "19:00", "20:00", 2),
		slot("2030-05-10", "18:00", "19:00", 3),
	}
	got := services.FormatChange("✅ Now available:", slots, true)
	want := "✅ Now available:\n\n" +
		"📅 Friday (10/05):\n" +
		"🏸 18:00 - 19:00 (60min), 3 space(s) left\n" +
		"🏸 19:00 - 20:00 (60min), 2 space(s) left\n\n" +
		"📅 Saturday (11/05):\n" +
		"🏸 09:00 - 10:00 (60min), 1 space(s) left"
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestFormatAvailability(t *testing.T) {
	if got := services.FormatAvailability(nil, "none"); got != "none" {
		t.Fatalf("empty = %q", got)
	}
	got := services.FormatAvailability([]domain.Slot{slot("2030-05-10", "18:00", "19:00", 3)}, "none")
	want := "✅ Courts available on Friday (10/05):\n\n🏸 18:00 - 19:00 (60min), 3 space(s) left"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDayLabel_BadDatePassesThrough(t *testing.T) {
	if got := services.DayLabel("soon"); got != "soon" {
		t.Fatalf("got %q", got)
	}
}
