package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alumnihub_backend/internal/middleware"
	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/services"
	"alumnihub_backend/pkg/apperrors"
)

type CampaignHandler struct {
	*BaseHandler
	campaigns *services.CampaignService
}

func NewCampaignHandler(base *BaseHandler, campaigns *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		BaseHandler: base,
		campaigns:   campaigns,
	}
}

func (h *CampaignHandler) RegisterRoutes(r *gin.RouterGroup) {
	campaigns := r.Group("/campaigns")
	{
		campaigns.GET("", h.ListCampaigns)
		campaigns.GET("/top", h.GetTopCampaigns)
		campaigns.GET("/:campaignId", h.GetCampaign)
		campaigns.GET("/:campaignId/stats", h.GetCampaignStats)

		staff := campaigns.Group("")
		staff.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleStaff, models.UserRoleAdmin))
		{
			staff.POST("", h.CreateCampaign)
			staff.PUT("/:campaignId", h.UpdateCampaign)
			staff.DELETE("/:campaignId", h.DeleteCampaign)
			staff.GET("/revenue", h.GetRevenueByPeriod)
		}
	}
}

func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req models.CreateCampaignRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	campaign, err := h.campaigns.CreateCampaign(c.Request.Context(), &req, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), c.Param("campaignId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	var req models.UpdateCampaignRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	campaign, err := h.campaigns.UpdateCampaign(c.Request.Context(), c.Param("campaignId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	if err := h.campaigns.DeleteCampaign(c.Request.Context(), c.Param("campaignId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	filter := models.CampaignFilter{
		State:    models.CampaignState(c.Query("state")),
		Page:     page,
		PageSize: pageSize,
	}
	if from, ok := ParseQueryTime(c, "date_from"); ok {
		filter.DateFrom = from
	} else {
		return
	}
	if to, ok := ParseQueryTime(c, "date_to"); ok {
		filter.DateTo = to
	} else {
		return
	}

	campaigns, total, err := h.campaigns.ListCampaigns(c.Request.Context(), filter)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"campaigns": campaigns,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	stats, err := h.campaigns.GetCampaignStats(c.Request.Context(), c.Param("campaignId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CampaignHandler) GetTopCampaigns(c *gin.Context) {
	limit := ParseQueryInt(c, "limit", 10)
	stats, err := h.campaigns.GetTopCampaigns(c.Request.Context(), limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": stats})
}

func (h *CampaignHandler) GetRevenueByPeriod(c *gin.Context) {
	start, ok := ParseQueryTime(c, "start")
	if !ok {
		return
	}
	end, ok := ParseQueryTime(c, "end")
	if !ok {
		return
	}
	if start == nil || end == nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("start and end are required"))
		return
	}
	// An end date without a time component means end of that day.
	endAt := *end
	if endAt.Hour() == 0 && endAt.Minute() == 0 && endAt.Second() == 0 {
		endAt = endAt.Add(24*time.Hour - time.Second)
	}

	revenue, err := h.campaigns.GetRevenueByPeriod(c.Request.Context(), *start, endAt)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revenue": revenue})
}
