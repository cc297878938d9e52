package output

import (
	"context"

	"knallbonbon/internal/domain/entities"
)

// Notifier hands a notification over for delivery. Delivery happens
// asynchronously; an error only means the notification could not be queued.
type Notifier interface {
	Dispatch(ctx context.Context, n entities.Notification) error
}

// Sender delivers one notification synchronously over a single channel
// (email, chat webhook, ...).
type Sender interface {
	Send(ctx context.Context, n entities.Notification) error
}
