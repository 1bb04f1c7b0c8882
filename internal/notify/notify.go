// Package notify delivers operational notifications to the back office.
// Delivery is best-effort: business flows fire and forget, failures are
// logged, never propagated.
package notify

import "context"

// Sender delivers a plain-text notification.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Noop discards notifications. Used when no provider is configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, text string) error { return nil }
