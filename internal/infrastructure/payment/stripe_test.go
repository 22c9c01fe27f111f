package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

const testSecret = "whsec_test"

func sign(t *testing.T, payload string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestParseWebhook_Subscription(t *testing.T) {
	payload := `{
		"id": "evt_sub",
		"object": "event",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1",
			"object": "subscription",
			"customer": "cus_1",
			"status": "active",
			"current_period_start": 1700000000,
			"current_period_end": 1702592000,
			"items": {"object": "list", "data": [
				{"id": "si_1", "object": "subscription_item", "price": {"id": "price_pro", "object": "price"}}
			]}
		}}
	}`
	g := NewStripeGateway("", testSecret)

	evt, err := g.ParseWebhook([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_sub", evt.ID)
	assert.Equal(t, domain.EventSubscriptionUpdated, evt.Type)
	assert.Equal(t, "cus_1", evt.CustomerID)
	assert.Equal(t, "sub_1", evt.SubscriptionID)
	assert.Equal(t, "active", evt.Status)
	assert.Equal(t, "price_pro", evt.PriceID)
	assert.Equal(t, int64(1702592000), evt.PeriodEnd.Unix())
	assert.Equal(t, "cus_1", evt.ShardKey())
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	payload := `{
		"id": "evt_co",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"object": "checkout.session",
			"customer": "cus_9",
			"subscription": "sub_9",
			"client_reference_id": "42"
		}}
	}`
	g := NewStripeGateway("", testSecret)

	evt, err := g.ParseWebhook([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "42", evt.ClientReference)
	assert.Equal(t, "cus_9", evt.CustomerID)
	assert.Equal(t, "sub_9", evt.SubscriptionID)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	payload := `{"id":"evt_x","object":"event","type":"invoice.payment_failed","data":{"object":{}}}`
	g := NewStripeGateway("", "whsec_other")

	_, err := g.ParseWebhook([]byte(payload), sign(t, payload))
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	_, err = g.ParseWebhook([]byte(payload), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestGateway_Unconfigured(t *testing.T) {
	g := NewStripeGateway("", testSecret)

	_, err := g.CreateCustomer(context.Background(), "a@b.test", "", 1)
	assert.True(t, errors.Is(err, domain.ErrPaymentProvider))
	_, err = g.CreatePortalSession(context.Background(), "cus_1", "https://x.test")
	assert.ErrorIs(t, err, domain.ErrPaymentProvider)
}
