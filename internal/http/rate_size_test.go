package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"courtwatch/internal/domain"
)

// Manual refresh is throttled per client
func TestRefreshRateLimit(t *testing.T) {
	ta := newTestApp(t, &stubFetcher{slots: []domain.Slot{futureSlot(1, "18:00", "19:00", 2)}})

	for i := 0; i < 3; i++ {
		resp, err := ta.app.Test(httptest.NewRequest("POST", "/api/v1/refresh", nil))
		if err != nil {
			t.Fatal(err)
		}
		if i < 2 && resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("hit rate limit too early at %d", i)
		}
		if i == 2 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
		}
	}
}
