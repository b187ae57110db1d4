package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alumnihub_backend/internal/middleware"
	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/services"
)

type AuthHandler struct {
	*BaseHandler
	auth *services.AuthService
}

func NewAuthHandler(base *BaseHandler, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		auth:        auth,
	}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", middleware.AuthMiddleware(), h.Me)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
