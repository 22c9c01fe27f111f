package domain

import (
	"encoding/json"
	"time"
)

// Billing event types consumed from the payment provider.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaymentFail  = "invoice.payment_failed"
)

// BillingEvent is a verified webhook event reduced to the fields the billing
// service acts on.
type BillingEvent struct {
	ID              string          `json:"id" bson:"event_id"`
	Type            string          `json:"type" bson:"type"`
	CustomerID      string          `json:"customer_id,omitempty" bson:"customer_id,omitempty"`
	SubscriptionID  string          `json:"subscription_id,omitempty" bson:"subscription_id,omitempty"`
	ClientReference string          `json:"client_reference,omitempty" bson:"client_reference,omitempty"`
	Status          string          `json:"status,omitempty" bson:"status,omitempty"`
	PriceID         string          `json:"price_id,omitempty" bson:"price_id,omitempty"`
	PeriodStart     time.Time       `json:"period_start,omitempty" bson:"period_start,omitempty"`
	PeriodEnd       time.Time       `json:"period_end,omitempty" bson:"period_end,omitempty"`
	Payload         json.RawMessage `json:"-" bson:"-"`
	ReceivedAt      time.Time       `json:"received_at" bson:"received_at"`
}

// ShardKey groups events that must be applied in order.
func (e BillingEvent) ShardKey() string {
	if e.CustomerID != "" {
		return e.CustomerID
	}
	return e.ClientReference
}

// CheckoutRequest describes a subscription checkout to open with the provider.
type CheckoutRequest struct {
	CustomerID      string
	PriceID         string
	ClientReference string
	SuccessURL      string
	CancelURL       string
}
