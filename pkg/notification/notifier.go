package notification

import "context"

// Notifier delivers out-of-band messages to users, for example the links
// used to validate a second-factor device registration.
type Notifier interface {
	// Notify sends the given message to the recipient address. Delivery
	// failures are reported to the caller who decides whether they are
	// fatal for the surrounding flow.
	Notify(ctx context.Context, recipient, subject, body string) error

	// VerifyConnection checks the notifier's backing transport is usable.
	VerifyConnection(ctx context.Context) error
}
