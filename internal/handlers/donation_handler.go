package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alumnihub_backend/internal/middleware"
	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/services"
)

type DonationHandler struct {
	*BaseHandler
	donations *services.DonationService
}

func NewDonationHandler(base *BaseHandler, donations *services.DonationService) *DonationHandler {
	return &DonationHandler{
		BaseHandler: base,
		donations:   donations,
	}
}

func (h *DonationHandler) RegisterRoutes(r *gin.RouterGroup) {
	donations := r.Group("/donations")
	{
		// Guest checkout is allowed; a bearer token just links the donation
		// to the alumni account.
		donations.POST("", h.InitiateDonation)

		donations.GET("/my", middleware.AuthMiddleware(), h.ListMyDonations)

		staff := donations.Group("")
		staff.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleStaff, models.UserRoleAdmin))
		{
			staff.GET("", h.ListDonations)
			staff.GET("/:donationId", h.GetDonation)
		}
	}
}

func (h *DonationHandler) InitiateDonation(c *gin.Context) {
	var req models.CreateDonationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	var userID *string
	if idVal, exists := c.Get("userID"); exists {
		if id, ok := idVal.(string); ok && id != "" {
			userID = &id
		}
	}

	checkout, err := h.donations.InitiateDonation(c.Request.Context(), &req, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

func (h *DonationHandler) GetDonation(c *gin.Context) {
	donation, err := h.donations.GetDonation(c.Request.Context(), c.Param("donationId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, donation)
}

func (h *DonationHandler) ListMyDonations(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, pageSize := ParsePagination(c)
	donations, total, err := h.donations.ListDonations(c.Request.Context(), models.DonationFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"donations": donations,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *DonationHandler) ListDonations(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	filter := models.DonationFilter{
		Status:     models.DonationStatus(c.Query("status")),
		CampaignID: c.Query("campaign_id"),
		UserID:     c.Query("user_id"),
		Page:       page,
		PageSize:   pageSize,
	}
	if recurring := c.Query("recurring"); recurring != "" {
		val := recurring == "true"
		filter.Recurring = &val
	}

	donations, total, err := h.donations.ListDonations(c.Request.Context(), filter)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"donations": donations,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
