package handlers

import (
	"credit-chat/internal/auth"
	billingService "credit-chat/internal/service/billing"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stripe recommends accepting payloads up to 64KB
const maxWebhookBody = 65536

type CheckoutRequest struct {
	Credits int `json:"credits"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// Checkout handles POST /api/billing/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	url, err := h.billing.CreateCheckout(c.Request.Context(), auth.UserID(c), req.Credits)
	if errors.Is(err, billingService.ErrNotConfigured) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, Response{Success: false, Error: "Billing is not available"})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to start checkout")
		return
	}

	respondOK(c, http.StatusOK, CheckoutResponse{URL: url})
}

// Webhook handles POST /api/billing/webhook
func (h *Handlers) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	err = h.billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, billingService.ErrNotConfigured) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, Response{Success: false, Error: "Billing is not available"})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to process webhook")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"received": true})
}
