package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

type stubGateway struct {
	customers int
	checkout  []domain.CheckoutRequest
	event     domain.BillingEvent
	parseErr  error
}

func (g *stubGateway) CreateCustomer(_ context.Context, _, _ string, _ uint) (string, error) {
	g.customers++
	return "cus_new", nil
}

func (g *stubGateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (string, error) {
	g.checkout = append(g.checkout, req)
	return "https://checkout.test/" + req.PriceID, nil
}

func (g *stubGateway) CreatePortalSession(_ context.Context, customerID, _ string) (string, error) {
	return "https://portal.test/" + customerID, nil
}

func (g *stubGateway) ParseWebhook(_ []byte, _ string) (domain.BillingEvent, error) {
	return g.event, g.parseErr
}

type stubDedup struct {
	seen     map[string]bool
	released []string
}

func (d *stubDedup) Claim(_ context.Context, id string) (bool, error) {
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *stubDedup) Release(_ context.Context, id string) error {
	delete(d.seen, id)
	d.released = append(d.released, id)
	return nil
}

type stubAudit struct {
	recorded  []domain.BillingEvent
	results   map[string]string
	recordErr error
}

func (a *stubAudit) Record(_ context.Context, e domain.BillingEvent) error {
	if a.recordErr != nil {
		return a.recordErr
	}
	a.recorded = append(a.recorded, e)
	return nil
}

func (a *stubAudit) MarkProcessed(_ context.Context, id, result string, _ error) error {
	if a.results == nil {
		a.results = map[string]string{}
	}
	a.results[id] = result
	return nil
}

type stubQueue struct {
	events []domain.BillingEvent
	err    error
}

func (q *stubQueue) Enqueue(e domain.BillingEvent) error {
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, e)
	return nil
}

var testPrices = map[string]string{
	domain.PlanStarter:      "price_starter",
	domain.PlanProfessional: "price_pro",
}

type billingFixture struct {
	svc     *BillingService
	applier *BillingEventApplier
	users   *stubUserRepo
	gateway *stubGateway
	dedup   *stubDedup
	audit   *stubAudit
	queue   *stubQueue
}

func newBillingFixture() *billingFixture {
	f := &billingFixture{
		users:   newStubUserRepo(),
		gateway: &stubGateway{},
		dedup:   &stubDedup{seen: map[string]bool{}},
		audit:   &stubAudit{},
		queue:   &stubQueue{},
	}
	f.svc = NewBillingService(BillingDeps{
		Users: f.users, Gateway: f.gateway, Dedup: f.dedup, Audit: f.audit, Queue: f.queue,
	}, testPrices, "https://app.bistro.test", zerolog.Nop())
	f.applier = NewBillingEventApplier(f.users, f.audit, f.dedup, testPrices, zerolog.Nop())
	return f
}

func (f *billingFixture) user(t *testing.T) *domain.User {
	t.Helper()
	u := &domain.User{Email: "owner@bistro.test", SubscriptionPlan: domain.PlanFree, SubscriptionStatus: domain.SubscriptionInactive}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestBillingService_CheckoutCreatesCustomerOnce(t *testing.T) {
	f := newBillingFixture()
	u := f.user(t)
	ctx := context.Background()

	url, err := f.svc.Checkout(ctx, u.ID, domain.PlanProfessional)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if url != "https://checkout.test/price_pro" {
		t.Fatalf("unexpected url %s", url)
	}
	if _, err := f.svc.Checkout(ctx, u.ID, domain.PlanStarter); err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if f.gateway.customers != 1 {
		t.Fatalf("customer created %d times", f.gateway.customers)
	}
	req := f.gateway.checkout[0]
	if req.CustomerID != "cus_new" || req.ClientReference != "1" {
		t.Fatalf("unexpected checkout request: %+v", req)
	}

	if _, err := f.svc.Checkout(ctx, u.ID, domain.PlanEnterprise); !errors.Is(err, domain.ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestBillingService_PortalRequiresCustomer(t *testing.T) {
	f := newBillingFixture()
	u := f.user(t)

	if _, err := f.svc.Portal(context.Background(), u.ID); !errors.Is(err, domain.ErrNoBillingAccount) {
		t.Fatalf("expected ErrNoBillingAccount, got %v", err)
	}
	_, _ = f.svc.Checkout(context.Background(), u.ID, domain.PlanStarter)
	url, err := f.svc.Portal(context.Background(), u.ID)
	if err != nil || url != "https://portal.test/cus_new" {
		t.Fatalf("portal: %s, %v", url, err)
	}

	sub, err := f.svc.Subscription(context.Background(), u.ID)
	if err != nil || !sub.HasCustomer || sub.Plan != domain.PlanFree {
		t.Fatalf("unexpected subscription: %+v, %v", sub, err)
	}
}

func TestBillingService_WebhookDeduplicates(t *testing.T) {
	f := newBillingFixture()
	f.gateway.event = domain.BillingEvent{ID: "evt_1", Type: domain.EventInvoicePaymentFail, CustomerID: "cus_1"}

	for range 3 {
		if err := f.svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
			t.Fatalf("webhook: %v", err)
		}
	}
	if len(f.queue.events) != 1 || len(f.audit.recorded) != 1 {
		t.Fatalf("queued=%d recorded=%d, want 1/1", len(f.queue.events), len(f.audit.recorded))
	}
}

func TestBillingService_WebhookRejectsBadSignature(t *testing.T) {
	f := newBillingFixture()
	f.gateway.parseErr = domain.ErrInvalidSignature

	err := f.svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(f.queue.events) != 0 {
		t.Fatalf("nothing must be queued")
	}
}

func TestBillingService_WebhookReleasesClaimWhenAuditFails(t *testing.T) {
	f := newBillingFixture()
	f.gateway.event = domain.BillingEvent{ID: "evt_2", Type: domain.EventSubscriptionUpdated}
	f.audit.recordErr = errors.New("mongo down")

	if err := f.svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err == nil {
		t.Fatalf("expected error")
	}
	if len(f.dedup.released) != 1 || f.dedup.seen["evt_2"] {
		t.Fatalf("claim must be released for retry")
	}
}

func TestBillingEventApplier_Lifecycle(t *testing.T) {
	f := newBillingFixture()
	u := f.user(t)
	ctx := context.Background()
	end := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	steps := []domain.BillingEvent{
		{ID: "e1", Type: domain.EventCheckoutCompleted, ClientReference: "1", CustomerID: "cus_7", SubscriptionID: "sub_7"},
		{ID: "e2", Type: domain.EventSubscriptionUpdated, CustomerID: "cus_7", SubscriptionID: "sub_7", Status: "active", PriceID: "price_pro", PeriodEnd: end},
	}
	for _, e := range steps {
		if err := f.applier.Apply(ctx, e); err != nil {
			t.Fatalf("%s: %v", e.ID, err)
		}
	}

	got, _ := f.users.FindByID(ctx, u.ID)
	if got.SubscriptionPlan != domain.PlanProfessional || got.SubscriptionStatus != domain.SubscriptionActive {
		t.Fatalf("after update: plan=%s status=%s", got.SubscriptionPlan, got.SubscriptionStatus)
	}
	if got.SubscriptionPeriodEnd == nil || !got.SubscriptionPeriodEnd.Equal(end) {
		t.Fatalf("period end not stored")
	}

	_ = f.applier.Apply(ctx, domain.BillingEvent{ID: "e3", Type: domain.EventInvoicePaymentFail, CustomerID: "cus_7"})
	got, _ = f.users.FindByID(ctx, u.ID)
	if got.SubscriptionStatus != domain.SubscriptionPastDue {
		t.Fatalf("expected past_due, got %s", got.SubscriptionStatus)
	}

	_ = f.applier.Apply(ctx, domain.BillingEvent{ID: "e4", Type: domain.EventSubscriptionDeleted, CustomerID: "cus_7"})
	got, _ = f.users.FindByID(ctx, u.ID)
	if got.SubscriptionStatus != domain.SubscriptionCanceled || got.SubscriptionPlan != domain.PlanFree {
		t.Fatalf("after delete: plan=%s status=%s", got.SubscriptionPlan, got.SubscriptionStatus)
	}

	if err := f.applier.Apply(ctx, domain.BillingEvent{ID: "e5", Type: "charge.refunded"}); err != nil {
		t.Fatalf("unknown types must be ignored: %v", err)
	}
	if f.audit.results["e5"] != resultIgnored || f.audit.results["e1"] != resultApplied {
		t.Fatalf("unexpected audit results: %v", f.audit.results)
	}

	if err := f.applier.Apply(ctx, domain.BillingEvent{ID: "e6", Type: domain.EventInvoicePaymentFail, CustomerID: "cus_unknown"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown customer, got %v", err)
	}
	if f.audit.results["e6"] != resultFailed {
		t.Fatalf("failure must be audited")
	}
}

func TestBillingService_WebhookReleasesClaimWhenQueueClosed(t *testing.T) {
	f := newBillingFixture()
	f.gateway.event = domain.BillingEvent{ID: "evt_3", Type: domain.EventSubscriptionUpdated}
	f.queue.err = errors.New("closed")

	if err := f.svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err == nil {
		t.Fatalf("expected error so the provider retries")
	}
	if f.dedup.seen["evt_3"] {
		t.Fatalf("claim must be released")
	}
}

func TestBillingEventApplier_AbandonedEventIsAppliedOnRedelivery(t *testing.T) {
	f := newBillingFixture()
	u := f.user(t)
	ctx := context.Background()
	event := domain.BillingEvent{ID: "evt_9", Type: domain.EventCheckoutCompleted, ClientReference: "1", CustomerID: "cus_9"}
	f.gateway.event = event

	if err := f.svc.HandleWebhook(ctx, []byte("{}"), "sig"); err != nil {
		t.Fatalf("webhook: %v", err)
	}

	// The account row is briefly missing, so every attempt fails.
	saved := f.users.users[u.ID]
	delete(f.users.users, u.ID)
	err := f.applier.Apply(ctx, f.queue.events[0])
	if err == nil {
		t.Fatalf("expected apply to fail")
	}
	f.applier.Abandon(ctx, f.queue.events[0], err)
	f.users.users[u.ID] = saved

	if err := f.svc.HandleWebhook(ctx, []byte("{}"), "sig"); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(f.queue.events) != 2 {
		t.Fatalf("redelivered event must be queued again, queued=%d", len(f.queue.events))
	}
	if err := f.applier.Apply(ctx, f.queue.events[1]); err != nil {
		t.Fatalf("apply redelivery: %v", err)
	}

	got, _ := f.users.FindByID(ctx, u.ID)
	if got.StripeCustomerID == nil || *got.StripeCustomerID != "cus_9" {
		t.Fatalf("customer not linked after redelivery: %+v", got.StripeCustomerID)
	}
	if f.audit.results["evt_9"] != resultApplied {
		t.Fatalf("audit must end as applied, got %q", f.audit.results["evt_9"])
	}
}
