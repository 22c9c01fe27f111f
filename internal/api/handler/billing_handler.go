package handler

import (
	"io"
	"net/http"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/apperror"
)

const maxWebhookBytes = 1 << 16

type BillingHandler struct {
	billing ports.BillingService
}

func NewBillingHandler(billing ports.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=starter professional enterprise"`
}

type redirectResponse struct {
	URL string `json:"url"`
}

// Checkout opens a hosted checkout for a plan.
//
// @Summary      Start subscription checkout
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      CheckoutRequest  true  "Plan"
// @Success      200   {object}  redirectResponse
// @Failure      422   {object}  apihandler.ErrorBody
// @Failure      503   {object}  apihandler.ErrorBody
// @Router       /api/billing/checkout [post]
func (h *BillingHandler) Checkout(c *apihandler.Context) error {
	userID, err := accountID(c)
	if err != nil {
		return err
	}
	url, err := h.billing.Checkout(c.Request().Context(), userID, apihandler.BodyAs[CheckoutRequest](c).Plan)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, redirectResponse{URL: url})
}

// Portal opens the provider's billing portal.
//
// @Summary      Open billing portal
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  redirectResponse
// @Failure      400  {object}  apihandler.ErrorBody
// @Router       /api/billing/portal [post]
func (h *BillingHandler) Portal(c *apihandler.Context) error {
	userID, err := accountID(c)
	if err != nil {
		return err
	}
	url, err := h.billing.Portal(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, redirectResponse{URL: url})
}

// Subscription returns the current plan and status.
//
// @Summary      Current subscription
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Subscription
// @Router       /api/billing/subscription [get]
func (h *BillingHandler) Subscription(c *apihandler.Context) error {
	userID, err := accountID(c)
	if err != nil {
		return err
	}
	sub, err := h.billing.Subscription(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// Webhook receives payment provider events. The raw body is needed for
// signature verification, so the route has no schema.
//
// @Summary      Payment provider webhook
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header  string  true  "Webhook signature"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  apihandler.ErrorBody
// @Router       /api/billing/webhook [post]
func (h *BillingHandler) Webhook(c *apihandler.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes+1))
	if err != nil {
		return apperror.BadRequest("Could not read request body")
	}
	if len(payload) > maxWebhookBytes {
		return apperror.BadRequest("Request body too large")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		return apperror.BadRequest("Missing Stripe-Signature header")
	}

	if err := h.billing.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
