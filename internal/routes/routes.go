package routes

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alumnihub_backend/internal/handlers"
)

// RegisterRoutes registers the HTTP API. The webhook endpoint lives under
// the same v1 group but carries no auth middleware; signature verification
// is its gate.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers, sqlDB *sql.DB) {
	ginRouter.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.CampaignHandler.RegisterRoutes(api)
		appHandlers.DonationHandler.RegisterRoutes(api)
		appHandlers.ReceiptHandler.RegisterRoutes(api)
		appHandlers.WebhookHandler.RegisterRoutes(api)
	}
}
