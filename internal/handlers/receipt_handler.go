package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alumnihub_backend/internal/middleware"
	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/services"
)

type ReceiptHandler struct {
	*BaseHandler
	receipts *services.ReceiptService
}

func NewReceiptHandler(base *BaseHandler, receipts *services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		BaseHandler: base,
		receipts:    receipts,
	}
}

func (h *ReceiptHandler) RegisterRoutes(r *gin.RouterGroup) {
	receipts := r.Group("/donations/:donationId/receipts")
	receipts.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleStaff, models.UserRoleAdmin))
	{
		receipts.GET("/current", h.GetCurrentReceipt)
		receipts.GET("", h.ListReceipts)
		// Re-issues a receipt when the background generation was dropped or
		// the donor asks for a fresh copy.
		receipts.POST("", h.RegenerateReceipt)
	}
}

func (h *ReceiptHandler) GetCurrentReceipt(c *gin.Context) {
	receipt, err := h.receipts.GetCurrentReceipt(c.Request.Context(), c.Param("donationId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	receipts, err := h.receipts.ListReceipts(c.Request.Context(), c.Param("donationId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}

func (h *ReceiptHandler) RegenerateReceipt(c *gin.Context) {
	donationID := c.Param("donationId")
	if err := h.receipts.Generate(c.Request.Context(), donationID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	receipt, err := h.receipts.GetCurrentReceipt(c.Request.Context(), donationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}
