package validate

import (
	"regexp"
	"strings"
	"time"
)

var (
	reDate   = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
	rePeriod = regexp.MustCompile(`^(morning|afternoon|evening)$`)
	// Telegram chat ids are signed integers; other transports use routing-key safe names.
	reSubscriber = regexp.MustCompile(`^-?[A-Za-z0-9_.@-]{1,64}$`)
	reFormat     = regexp.MustCompile(`^(json|text)$`)
)

// Date validates a YYYY-MM-DD calendar date.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !reDate.MatchString(s) {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", false
	}
	return s, true
}

// Period validates a named time-of-day window.
func Period(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, s != "" && rePeriod.MatchString(s)
}

func SubscriberID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reSubscriber.MatchString(s)
}

// Format picks the response encoding; empty means json.
func Format(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "json", true
	}
	return s, reFormat.MatchString(s)
}
