package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"courtwatch/internal/domain"
	applog "courtwatch/internal/log"
)

// The booking site's own headers; the API refuses requests without a browser-like origin.
var upstreamHeaders = map[string]string{
	"Accept":     "application/json",
	"Origin":     "https://bookings.better.org.uk",
	"Referer":    "https://bookings.better.org.uk/",
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0.1 Safari/605.1.15",
}

type FetcherConfig struct {
	BaseURL       string
	Timeout       time.Duration
	Workers       int
	LookaheadDays int
	Location      *time.Location
	HTTPClient    *http.Client
}

// Fetcher pulls slot listings from the venue API for a date x category matrix.
type Fetcher struct {
	baseURL string
	http    *http.Client
	workers int
	days    int
	loc     *time.Location
	clock   func() time.Time
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 6
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    client,
		workers: cfg.Workers,
		days:    cfg.LookaheadDays,
		loc:     cfg.Location,
		clock:   time.Now,
	}
}

// WithClock overrides the wall clock used to pick the look-ahead dates.
func (f *Fetcher) WithClock(clock func() time.Time) *Fetcher {
	f.clock = clock
	return f
}

// Dates returns the look-ahead window starting today in the venue timezone.
func (f *Fetcher) Dates() []time.Time {
	today := f.clock().In(f.loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, f.loc)
	out := make([]time.Time, f.days)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// FetchAll requests every (date, category) pair with at most `workers` requests in flight.
// The first failing request cancels the rest and its error is returned with no slots:
// a fetch either yields the whole window or nothing.
func (f *Fetcher) FetchAll(ctx context.Context, venue string, categories []string) ([]domain.Slot, error) {
	type job struct {
		category string
		day      time.Time
	}
	var jobs []job
	for _, day := range f.Dates() {
		for _, c := range categories {
			jobs = append(jobs, job{category: c, day: day})
		}
	}

	results := make([][]domain.Slot, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, j := range jobs {
		g.Go(func() error {
			slots, err := f.FetchDay(gctx, venue, j.category, j.day)
			if err != nil {
				return err
			}
			results[i] = slots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Slot
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

type upstreamEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// FetchDay requests one (venue, category, date) listing.
func (f *Fetcher) FetchDay(ctx context.Context, venue, category string, day time.Time) ([]domain.Slot, error) {
	date := day.Format(domain.DateLayout)
	fail := func(status int, err error) error {
		return &domain.TransientFetchError{Venue: venue, Category: category, Date: date, StatusCode: status, Err: err}
	}

	endpoint := fmt.Sprintf("%s/venue/%s/activity/%s/times?%s",
		f.baseURL, url.PathEscape(venue), url.PathEscape(category), url.Values{"date": {date}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fail(0, err)
	}
	for k, v := range upstreamHeaders {
		req.Header.Set(k, v)
	}

	applog.Debug(nil, "fetch.request", map[string]any{"venue": venue, "category": category, "date": date})
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, fail(resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode))
	}

	var env upstreamEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s/%s on %s: %w: %v", venue, category, date, domain.ErrMalformedRecord, err)
	}
	slots, err := domain.ParseRecords(venue, category, env.Data)
	if err != nil {
		return nil, fmt.Errorf("%s/%s on %s: %w", venue, category, date, err)
	}
	return slots, nil
}
