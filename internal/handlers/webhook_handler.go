package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alumnihub_backend/internal/logger"
	"alumnihub_backend/internal/payments"
	"alumnihub_backend/internal/services"
	"alumnihub_backend/pkg/apperrors"
)

// WebhookHandler terminates the payment provider's webhook endpoint. The
// route is unauthenticated; the signature check is the authentication.
type WebhookHandler struct {
	*BaseHandler
	provider  payments.Provider
	lifecycle *services.DonationLifecycle
}

func NewWebhookHandler(base *BaseHandler, provider payments.Provider, lifecycle *services.DonationLifecycle) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: base,
		provider:    provider,
		lifecycle:   lifecycle,
	}
}

func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/payments", h.HandlePaymentWebhook)
}

// HandlePaymentWebhook verifies the payload signature, processes the event
// and acknowledges. A bad signature is the only non-2xx outcome: once the
// event is authenticated we always ack, because handler-level problems are
// not fixed by provider redelivery of the same payload.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := c.GetRawData()
	if err != nil {
		logger.CtxWithError(ctx, "failed to read webhook body", err)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Unreadable request body"))
		return
	}

	event, err := h.provider.VerifyWebhook(payload, c.GetHeader(payments.SignatureHeader))
	if err != nil {
		logger.CtxWarn(ctx, "webhook signature rejected", "ip", c.ClientIP(), "error", err.Error())
		apperrors.HandleError(c, apperrors.ErrWebhookSignature)
		return
	}

	h.lifecycle.HandleEvent(ctx, event)

	c.JSON(http.StatusOK, gin.H{"received": true})
}
