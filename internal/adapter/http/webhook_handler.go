package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Galleee2002/fueradecontexto-api/internal/logging"
	"github.com/Galleee2002/fueradecontexto-api/internal/security"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

// WebhookHandler receives Mercado Pago payment notifications. It always
// responds 200: the sender has no way to act on anything but "received" and
// would otherwise retry forever. Every real failure is logged instead.
type WebhookHandler struct {
	reconcile *usecase.Reconcile
	verifier  *security.WebhookVerifier
}

func NewWebhookHandler(reconcile *usecase.Reconcile, verifier *security.WebhookVerifier) *WebhookHandler {
	return &WebhookHandler{reconcile: reconcile, verifier: verifier}
}

type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	l := logging.From(c)
	// Ack is unconditional; set it up front so every early return shares it.
	defer c.JSON(http.StatusOK, gin.H{"received": true})

	var body webhookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		// Malformed payloads are dropped: the sender cannot be asked to
		// resend a corrected one.
		l.Warn("webhook payload malformed", "err", err)
		return
	}
	if body.Type != "payment" {
		return
	}
	paymentID := body.Data.ID.String()
	if paymentID == "" {
		l.Warn("webhook payload missing data.id")
		return
	}

	if err := h.verifier.Verify(c.GetHeader("x-signature"), c.GetHeader("x-request-id"), paymentID); err != nil {
		l.Warn("webhook signature rejected", "payment_id", paymentID, "err", err)
		return
	}

	if err := h.reconcile.HandlePaymentNotification(c.Request.Context(), paymentID); err != nil {
		l.Error("webhook processing failed", "payment_id", paymentID, "err", err)
	}
}

func (h *WebhookHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
