// Package notify holds the delivery transports used to push availability
// changes to subscribers. Every transport implements Sender.
package notify

import (
	"context"

	applog "courtwatch/internal/log"
)

type Sender interface {
	Send(ctx context.Context, to string, text string) error
	ProviderID() string
}

// ConsoleSender only logs the message.
type ConsoleSender struct{}

func NewConsoleSender() *ConsoleSender { return &ConsoleSender{} }

func (s *ConsoleSender) ProviderID() string { return "console" }

func (s *ConsoleSender) Send(_ context.Context, to string, text string) error {
	applog.Info(nil, "notify.console", map[string]any{"to": to, "text": text})
	return nil
}
