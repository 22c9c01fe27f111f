package ports

import (
	"context"
	"time"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

// TokenRevocationStore remembers session tokens that were logged out before
// they expired.
type TokenRevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// EventDeduplicator guarantees a webhook event is accepted at most once.
type EventDeduplicator interface {
	// Claim reports true if the caller is the first to see eventID.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Release forgets eventID so a redelivery is processed again.
	Release(ctx context.Context, eventID string) error
}

// BillingEventLog is the append-only audit trail of received webhook events.
type BillingEventLog interface {
	Record(ctx context.Context, event domain.BillingEvent) error
	MarkProcessed(ctx context.Context, eventID, result string, procErr error) error
}

// BillingEventQueue hands verified events to the asynchronous workers.
type BillingEventQueue interface {
	// Enqueue fails once the queue has been closed for shutdown.
	Enqueue(event domain.BillingEvent) error
}

// PaymentGateway is the subset of the payment provider the billing service uses.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email, name string, userID uint) (string, error)
	CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	// ParseWebhook verifies the signature header and decodes the event.
	ParseWebhook(payload []byte, signature string) (domain.BillingEvent, error)
}

// Mailer delivers transactional e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
