package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/metrics"
)

// BillingService implements checkout, customer portal and webhook intake.
// Webhook events are applied asynchronously by a BillingEventApplier.
type BillingService struct {
	users     ports.UserRepository
	gateway   ports.PaymentGateway
	dedup     ports.EventDeduplicator
	audit     ports.BillingEventLog
	queue     ports.BillingEventQueue
	prices    map[string]string
	publicURL string
	log       zerolog.Logger
}

// BillingDeps groups the collaborators of BillingService.
type BillingDeps struct {
	Users   ports.UserRepository
	Gateway ports.PaymentGateway
	Dedup   ports.EventDeduplicator
	Audit   ports.BillingEventLog
	Queue   ports.BillingEventQueue
}

// NewBillingService takes the plan to price id mapping and the public site
// URL used for redirects.
func NewBillingService(deps BillingDeps, prices map[string]string, publicURL string, log zerolog.Logger) *BillingService {
	return &BillingService{
		users:     deps.Users,
		gateway:   deps.Gateway,
		dedup:     deps.Dedup,
		audit:     deps.Audit,
		queue:     deps.Queue,
		prices:    prices,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       log.With().Str("component", "billing_service").Logger(),
	}
}

// Checkout returns the hosted checkout URL for plan, creating the provider
// customer on first use.
func (s *BillingService) Checkout(ctx context.Context, userID uint, plan string) (string, error) {
	price, ok := s.prices[plan]
	if !ok {
		return "", domain.ErrUnknownPlan
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	return s.gateway.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		CustomerID:      customerID,
		PriceID:         price,
		ClientReference: strconv.FormatUint(uint64(user.ID), 10),
		SuccessURL:      s.publicURL + "/dashboard/billing?checkout=success",
		CancelURL:       s.publicURL + "/dashboard/billing?checkout=cancelled",
	})
}

func (s *BillingService) ensureCustomer(ctx context.Context, user *domain.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	customerID, err := s.gateway.CreateCustomer(ctx, user.Email, name, user.ID)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdateSubscription(ctx, user.ID, domain.SubscriptionUpdate{CustomerID: &customerID}); err != nil {
		return "", err
	}
	return customerID, nil
}

func (s *BillingService) Portal(ctx context.Context, userID uint) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return "", domain.ErrNoBillingAccount
	}
	return s.gateway.CreatePortalSession(ctx, *user.StripeCustomerID, s.publicURL+"/dashboard/billing")
}

func (s *BillingService) Subscription(ctx context.Context, userID uint) (*domain.Subscription, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Subscription{
		Plan:        user.SubscriptionPlan,
		Status:      user.SubscriptionStatus,
		PeriodStart: user.SubscriptionPeriodStart,
		PeriodEnd:   user.SubscriptionPeriodEnd,
		HasCustomer: user.StripeCustomerID != nil && *user.StripeCustomerID != "",
	}, nil
}

// HandleWebhook accepts a signed provider event. A redelivered event id is
// acknowledged without being processed again.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	first, err := s.dedup.Claim(ctx, event.ID)
	if err != nil {
		return err
	}
	if !first {
		metrics.BillingEventsDedupTotal.WithLabelValues("hit").Inc()
		s.log.Info().Str("event_id", event.ID).Msg("duplicate billing event skipped")
		return nil
	}
	metrics.BillingEventsDedupTotal.WithLabelValues("miss").Inc()

	if err := s.audit.Record(ctx, event); err != nil {
		if relErr := s.dedup.Release(ctx, event.ID); relErr != nil {
			err = errors.Join(err, relErr)
		}
		return err
	}

	if err := s.queue.Enqueue(event); err != nil {
		if relErr := s.dedup.Release(ctx, event.ID); relErr != nil {
			err = errors.Join(err, relErr)
		}
		return fmt.Errorf("enqueue billing event %s: %w", event.ID, err)
	}
	return nil
}
