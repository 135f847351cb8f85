package http

import (
	"net/http"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/services"
	"clipcoach/pkg/validation"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues bearer tokens. Identity verification is expected
// to happen upstream (SSO or an API gateway); this endpoint exchanges a
// verified actor identity for a token the engine endpoints accept.
type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	router.POST("/api/v1/auth/token", h.IssueToken)
}

func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req struct {
		ActorID string `json:"actor_id" binding:"required"`
		Name    string `json:"name" binding:"required,min=1,max=100"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateActorID(req.ActorID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.GenerateToken(domain.ActorID(req.ActorID), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
