package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"bemyrider/internal/service"
)

// maxWebhookBody bounds the payload read before signature verification.
const maxWebhookBody = 64 << 10

// WebhookHandler handles signed deliveries from the payment processor.
type WebhookHandler struct {
	webhooks *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Handle handles POST /webhook and POST /v1/stripe/webhook.
// Verified events are acknowledged even when applying them fails.
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "could not read request body")
		return
	}

	if _, err := h.webhooks.HandleEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"received": true})
}
