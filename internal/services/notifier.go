package services

import (
	"context"
	"errors"

	"courtwatch/internal/domain"
	applog "courtwatch/internal/log"
	"courtwatch/internal/notify"
)

const (
	headerAvailable   = "✅ Now available:"
	headerUnavailable = "❌ Now unavailable:"
)

type SubscriberSource interface {
	Subscribers() []string
}

// Notifier formats availability changes and fans them out to every subscriber.
type Notifier struct {
	sender notify.Sender
	subs   SubscriberSource
}

func NewNotifier(sender notify.Sender, subs SubscriberSource) *Notifier {
	return &Notifier{sender: sender, subs: subs}
}

// Deliver sends up to two messages per subscriber: one for added slots, one for removed.
// A failing subscriber does not stop the others; all failures come back joined as
// *domain.DeliveryError values.
func (n *Notifier) Deliver(ctx context.Context, added, removed []domain.Slot) error {
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}
	recipients := n.subs.Subscribers()
	if len(recipients) == 0 {
		applog.Info(nil, "notify.skip", map[string]any{"reason": "no subscribers"})
		return nil
	}

	var messages []string
	if len(added) > 0 {
		messages = append(messages, FormatChange(headerAvailable, added, true))
	}
	if len(removed) > 0 {
		messages = append(messages, FormatChange(headerUnavailable, removed, false))
	}

	var errs []error
	sent := 0
	for _, to := range recipients {
		applog.Debug(nil, "notify.user", map[string]any{"to": to, "provider": n.sender.ProviderID()})
		for _, msg := range messages {
			if err := n.sender.Send(ctx, to, msg); err != nil {
				derr := &domain.DeliveryError{Subscriber: to, Err: err}
				applog.Error(nil, "notify.fail", derr, map[string]any{"to": to, "provider": n.sender.ProviderID()})
				errs = append(errs, derr)
				continue
			}
			sent++
		}
	}
	applog.Info(nil, "notify.done", map[string]any{
		"subscribers": len(recipients), "messages": sent, "failures": len(errs),
		"added": len(added), "removed": len(removed),
	})
	return errors.Join(errs...)
}
