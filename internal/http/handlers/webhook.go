package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/services"
)

const (
	headerSignature = "X-Signature"
	maxWebhookBytes = 1 << 20
)

// WebhookHandler reads the raw body so the signature is checked over the
// exact bytes the sender signed.
type WebhookHandler struct {
	log      *logger.Logger
	webhooks services.WebhookService
}

func NewWebhookHandler(log *logger.Logger, webhooks services.WebhookService) *WebhookHandler {
	return &WebhookHandler{log: log.With("handler", "WebhookHandler"), webhooks: webhooks}
}

type webhookFunc func(ctx context.Context, payload []byte, signature string) (*services.WebhookAck, error)

// POST /webhooks/payments
func (h *WebhookHandler) Payments(c *gin.Context) {
	h.handle(c, "payments", h.webhooks.HandlePayment)
}

// POST /webhooks/auth
func (h *WebhookHandler) Auth(c *gin.Context) {
	h.handle(c, "auth", h.webhooks.HandleAuth)
}

func (h *WebhookHandler) handle(c *gin.Context, source string, fn webhookFunc) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(payload) > maxWebhookBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", errUploadTooLarge)
		return
	}
	ack, err := fn(c.Request.Context(), payload, c.GetHeader(headerSignature))
	if err != nil {
		h.log.Warn("Webhook rejected", "source", source, "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, ack)
}
