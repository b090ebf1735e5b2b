package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord marks an upstream payload that matches none of the accepted shapes.
var ErrMalformedRecord = errors.New("malformed record")

// TransientFetchError is a network failure or non-2xx answer for one upstream sub-request.
type TransientFetchError struct {
	Venue      string
	Category   string
	Date       string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s/%s on %s: unexpected status %d", e.Venue, e.Category, e.Date, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s/%s on %s: %v", e.Venue, e.Category, e.Date, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// StoreError wraps a persistence failure during upsert or query.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// DeliveryError is a failed send to a single subscriber.
type DeliveryError struct {
	Subscriber string
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Subscriber, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
