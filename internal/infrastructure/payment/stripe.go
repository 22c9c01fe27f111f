// Package payment adapts Stripe to the billing service's PaymentGateway port.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

// StripeGateway implements ports.PaymentGateway.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway returns a gateway. With an empty secret key every API call
// fails with domain.ErrPaymentProvider.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	g := &StripeGateway{webhookSecret: webhookSecret}
	if secretKey != "" {
		g.api = &client.API{}
		g.api.Init(secretKey, nil)
	}
	return g
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string, userID uint) (string, error) {
	if g.api == nil {
		return "", domain.ErrPaymentProvider
	}
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))

	c, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", domain.ErrPaymentProvider, err)
	}
	return c.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	if g.api == nil {
		return "", domain.ErrPaymentProvider
	}
	params := &stripe.CheckoutSessionParams{
		Customer:          stripe.String(req.CustomerID),
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(req.ClientReference),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", domain.ErrPaymentProvider, err)
	}
	return s.URL, nil
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if g.api == nil {
		return "", domain.ErrPaymentProvider
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	s, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create portal session: %v", domain.ErrPaymentProvider, err)
	}
	return s.URL, nil
}

// ParseWebhook verifies the Stripe-Signature header and flattens the event
// object into a domain.BillingEvent. Types the billing service does not act
// on are returned with only the envelope fields set.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (domain.BillingEvent, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return domain.BillingEvent{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := domain.BillingEvent{
		ID:         evt.ID,
		Type:       string(evt.Type),
		Payload:    json.RawMessage(payload),
		ReceivedAt: time.Now().UTC(),
	}
	if evt.Data == nil {
		return out, nil
	}

	switch out.Type {
	case domain.EventCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			return out, fmt.Errorf("decode checkout session: %w", err)
		}
		out.ClientReference = s.ClientReferenceID
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		if s.Subscription != nil {
			out.SubscriptionID = s.Subscription.ID
		}

	case domain.EventSubscriptionCreated, domain.EventSubscriptionUpdated, domain.EventSubscriptionDeleted:
		var s stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			return out, fmt.Errorf("decode subscription: %w", err)
		}
		out.SubscriptionID = s.ID
		out.Status = string(s.Status)
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
			out.PriceID = s.Items.Data[0].Price.ID
		}
		if s.CurrentPeriodStart > 0 {
			out.PeriodStart = time.Unix(s.CurrentPeriodStart, 0).UTC()
		}
		if s.CurrentPeriodEnd > 0 {
			out.PeriodEnd = time.Unix(s.CurrentPeriodEnd, 0).UTC()
		}

	case domain.EventInvoicePaymentFail:
		var inv stripe.Invoice
		if err := json.Unmarshal(evt.Data.Raw, &inv); err != nil {
			return out, fmt.Errorf("decode invoice: %w", err)
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	}
	return out, nil
}
