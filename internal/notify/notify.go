package notify

import "context"

// Notifier delivers a short human-readable message to an external channel.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}
