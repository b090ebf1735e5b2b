package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"courtwatch/internal/domain"
)

func seed(t *testing.T, ta *testApp, slots ...domain.Slot) {
	t.Helper()
	if _, err := ta.repo.Upsert(context.Background(), slots); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func get(t *testing.T, ta *testApp, path string) (int, string) {
	t.Helper()
	resp, err := ta.app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestSlotsAPI_AllAndByDate(t *testing.T) {
	ta := newTestApp(t, nil)
	seed(t, ta,
		futureSlot(1, "18:00", "19:00", 2),
		futureSlot(2, "09:00", "10:00", 1),
		futureSlot(2, "10:00", "11:00", 0),
	)

	status, body := get(t, ta, "/api/v1/slots")
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	var all struct {
		Count int           `json:"count"`
		Slots []domain.Slot `json:"slots"`
	}
	if err := json.Unmarshal([]byte(body), &all); err != nil {
		t.Fatal(err)
	}
	if all.Count != 2 || len(all.Slots) != 2 || all.Slots[0].Date != daysAhead(1) {
		t.Fatalf("unexpected all: %s", body)
	}

	status, body = get(t, ta, "/api/v1/slots?date="+daysAhead(2))
	if status != http.StatusOK || !strings.Contains(body, `"count":1`) || !strings.Contains(body, `"starts_at":"09:00"`) {
		t.Fatalf("by date: %d %s", status, body)
	}
}

func TestSlotsAPI_PeriodAndText(t *testing.T) {
	ta := newTestApp(t, nil)
	seed(t, ta,
		futureSlot(1, "18:00", "19:00", 2),
		futureSlot(1, "08:00", "09:00", 2),
	)

	status, body := get(t, ta, "/api/v1/slots?period=evening")
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	var got struct {
		Period string `json:"period"`
		Days   []struct {
			Date  string        `json:"date"`
			Slots []domain.Slot `json:"slots"`
		} `json:"days"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got.Period != "evening" || len(got.Days) != 1 || len(got.Days[0].Slots) != 1 || got.Days[0].Slots[0].StartsAt != "18:00" {
		t.Fatalf("unexpected period result: %s", body)
	}

	_, text := get(t, ta, "/api/v1/slots?period=afternoon&format=text")
	if text != "❌ No courts available for the time range 12:00 - 17:00." {
		t.Fatalf("afternoon text = %q", text)
	}
	_, text = get(t, ta, "/api/v1/slots?format=text")
	if !strings.HasPrefix(text, "✅ Courts available on ") || !strings.Contains(text, "🏸 08:00 - 09:00 (60min), 2 space(s) left") {
		t.Fatalf("all text = %q", text)
	}
}

func TestStatusAndRefresh(t *testing.T) {
	ta := newTestApp(t, &stubFetcher{slots: []domain.Slot{futureSlot(1, "18:00", "19:00", 2)}})
	if err := ta.subs.Add("12345"); err != nil {
		t.Fatal(err)
	}

	_, body := get(t, ta, "/api/v1/status")
	if !strings.Contains(body, `"last_updated":"never"`) || !strings.Contains(body, `"subscribers":1`) {
		t.Fatalf("status before refresh: %s", body)
	}

	resp, err := ta.app.Test(httptest.NewRequest("POST", "/api/v1/refresh", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status %d", resp.StatusCode)
	}

	_, body = get(t, ta, "/api/v1/status")
	if strings.Contains(body, `"last_updated":"never"`) || !strings.Contains(body, `"stored_slots":1`) {
		t.Fatalf("status after refresh: %s", body)
	}
}

func TestRefreshFailureIsBadGateway(t *testing.T) {
	ta := newTestApp(t, &stubFetcher{err: &domain.TransientFetchError{Venue: "v", Category: "c", Date: "d", StatusCode: 503}})
	resp, err := ta.app.Test(httptest.NewRequest("POST", "/api/v1/refresh", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "503") {
		t.Fatalf("upstream detail leaked: %s", body)
	}
}

func TestScheduleFile(t *testing.T) {
	ta := newTestApp(t, &stubFetcher{slots: []domain.Slot{futureSlot(1, "18:00", "19:00", 2)}})

	if status, _ := get(t, ta, "/schedule.ics"); status != http.StatusNotFound {
		t.Fatalf("expected 404 before first export, got %d", status)
	}
	if _, err := ta.refresh.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(ta.cfg.ICSPath); err != nil {
		t.Fatalf("calendar not written: %v", err)
	}

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/schedule.ics", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar") {
		t.Fatalf("schedule: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "SUMMARY:Badminton 60min (Sugden Sports Centre)") {
		t.Fatalf("schedule body: %s", body)
	}
}

func TestHomePage(t *testing.T) {
	ta := newTestApp(t, nil)
	seed(t, ta, futureSlot(1, "18:00", "19:00", 2))

	status, body := get(t, ta, "/")
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	for _, want := range []string{"Sugden Sports Centre", "Last updated: never", "18:00 - 19:00 (60min), 2 space(s) left", `name="csrf"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("home page missing %q", want)
		}
	}
}
