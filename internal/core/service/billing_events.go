package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/metrics"
)

const (
	resultApplied = "ok"
	resultIgnored = "ignored"
	resultFailed  = "error"
)

// providerStatus maps provider subscription states onto account states.
var providerStatus = map[string]string{
	"active":             domain.SubscriptionActive,
	"trialing":           domain.SubscriptionActive,
	"past_due":           domain.SubscriptionPastDue,
	"unpaid":             domain.SubscriptionPastDue,
	"canceled":           domain.SubscriptionCanceled,
	"incomplete":         domain.SubscriptionInactive,
	"incomplete_expired": domain.SubscriptionExpired,
	"paused":             domain.SubscriptionInactive,
}

// BillingEventApplier implements ports.BillingEventProcessor.
type BillingEventApplier struct {
	users       ports.UserRepository
	audit       ports.BillingEventLog
	dedup       ports.EventDeduplicator
	planByPrice map[string]string
	log         zerolog.Logger
}

func NewBillingEventApplier(
	users ports.UserRepository,
	audit ports.BillingEventLog,
	dedup ports.EventDeduplicator,
	prices map[string]string,
	log zerolog.Logger,
) *BillingEventApplier {
	planByPrice := make(map[string]string, len(prices))
	for plan, price := range prices {
		planByPrice[price] = plan
	}
	return &BillingEventApplier{
		users:       users,
		audit:       audit,
		dedup:       dedup,
		planByPrice: planByPrice,
		log:         log.With().Str("component", "billing_applier").Logger(),
	}
}

// Apply updates the owning account and records the outcome in the audit log.
func (a *BillingEventApplier) Apply(ctx context.Context, event domain.BillingEvent) error {
	result, err := a.apply(ctx, event)
	if err != nil {
		result = resultFailed
	}
	metrics.BillingEventsProcessedTotal.WithLabelValues(event.Type, result).Inc()

	if markErr := a.audit.MarkProcessed(ctx, event.ID, result, err); markErr != nil {
		a.log.Warn().Err(markErr).Str("event_id", event.ID).Msg("audit update failed")
	}
	return err
}

// Abandon drops the de-duplication claim of an event that could not be
// applied, so a redelivery from the provider is processed again.
func (a *BillingEventApplier) Abandon(ctx context.Context, event domain.BillingEvent, err error) {
	a.log.Error().Err(err).
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Msg("billing event abandoned, accepting redelivery")
	if relErr := a.dedup.Release(context.WithoutCancel(ctx), event.ID); relErr != nil {
		a.log.Error().Err(relErr).Str("event_id", event.ID).Msg("release event claim failed")
	}
}

func (a *BillingEventApplier) apply(ctx context.Context, e domain.BillingEvent) (string, error) {
	switch e.Type {
	case domain.EventCheckoutCompleted:
		user, err := a.owner(ctx, e)
		if err != nil {
			return "", err
		}
		upd := domain.SubscriptionUpdate{}
		if e.CustomerID != "" {
			upd.CustomerID = &e.CustomerID
		}
		if e.SubscriptionID != "" {
			upd.SubscriptionID = &e.SubscriptionID
		}
		return resultApplied, a.users.UpdateSubscription(ctx, user.ID, upd)

	case domain.EventSubscriptionCreated, domain.EventSubscriptionUpdated:
		user, err := a.owner(ctx, e)
		if err != nil {
			return "", err
		}
		upd := domain.SubscriptionUpdate{SubscriptionID: &e.SubscriptionID}
		if status, ok := providerStatus[e.Status]; ok {
			upd.Status = &status
		}
		if plan, ok := a.planByPrice[e.PriceID]; ok {
			upd.Plan = &plan
		} else if e.PriceID != "" {
			a.log.Warn().Str("price_id", e.PriceID).Str("event_id", e.ID).Msg("unknown price, plan unchanged")
		}
		if !e.PeriodStart.IsZero() {
			upd.PeriodStart = &e.PeriodStart
		}
		if !e.PeriodEnd.IsZero() {
			upd.PeriodEnd = &e.PeriodEnd
		}
		return resultApplied, a.users.UpdateSubscription(ctx, user.ID, upd)

	case domain.EventSubscriptionDeleted:
		user, err := a.owner(ctx, e)
		if err != nil {
			return "", err
		}
		status, plan := domain.SubscriptionCanceled, domain.PlanFree
		return resultApplied, a.users.UpdateSubscription(ctx, user.ID, domain.SubscriptionUpdate{
			Status: &status,
			Plan:   &plan,
		})

	case domain.EventInvoicePaymentFail:
		user, err := a.owner(ctx, e)
		if err != nil {
			return "", err
		}
		status := domain.SubscriptionPastDue
		return resultApplied, a.users.UpdateSubscription(ctx, user.ID, domain.SubscriptionUpdate{Status: &status})

	default:
		return resultIgnored, nil
	}
}

// owner resolves the account an event belongs to: by client reference when
// present, otherwise by provider customer id.
func (a *BillingEventApplier) owner(ctx context.Context, e domain.BillingEvent) (*domain.User, error) {
	if e.ClientReference != "" {
		id, err := strconv.ParseUint(e.ClientReference, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("event %s: bad client reference %q", e.ID, e.ClientReference)
		}
		return a.users.FindByID(ctx, uint(id))
	}
	if e.CustomerID == "" {
		return nil, fmt.Errorf("event %s: no customer", e.ID)
	}
	user, err := a.users.FindByStripeCustomerID(ctx, e.CustomerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("event %s: customer %s: %w", e.ID, e.CustomerID, err)
	}
	return user, err
}
