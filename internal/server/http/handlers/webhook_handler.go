package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/server/http/dto"
	"github.com/polkiloo/payledger/internal/webhook"
)

// WebhookHandler accepts provider deliveries. The body is read raw so the
// signature is checked over the exact bytes that were sent.
type WebhookHandler struct {
	facade    WebhookFacade
	bodyLimit int64
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade WebhookFacade, bodyLimit int64) *WebhookHandler {
	return &WebhookHandler{facade: facade, bodyLimit: bodyLimit}
}

// Receive handles POST /stripe/webhook.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body := c.Request.Body
	if h.bodyLimit > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.bodyLimit)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		respondError(c, http.StatusBadRequest, webhook.MessageInvalidPayload)
		return
	}

	result := h.facade.HandleWebhook(c.Request.Context(), payload, c.GetHeader(stripe.SignatureHeader))
	if result.Decision == webhook.Ack {
		c.JSON(http.StatusOK, dto.WebhookAck{Received: true})
		return
	}
	respondError(c, result.StatusCode(), result.Message)
}
