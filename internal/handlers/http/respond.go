package http

import (
	"errors"
	"net/http"

	"clipcoach/internal/core/domain"
	apperrors "clipcoach/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto stable HTTP codes. Anything
// unrecognized is a 500 and goes to the error middleware for logging.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": string(apperrors.ErrCodeNotFound), "message": "video not found"})
	case errors.Is(err, domain.ErrGrantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": string(apperrors.ErrCodeNotFound), "message": "grant not found"})
	case errors.Is(err, domain.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": string(apperrors.ErrCodeNotFound), "message": "request not found"})
	case errors.Is(err, domain.ErrCoachNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": string(apperrors.ErrCodeNotFound), "message": "coach not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": string(apperrors.ErrCodeForbidden), "message": "caller lacks required capability"})
	case errors.Is(err, domain.ErrInvalidCapability):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": string(apperrors.ErrCodeInvalidCapability), "message": "requested capabilities cannot be delegated"})
	case errors.Is(err, domain.ErrRequestClosed):
		c.JSON(http.StatusConflict, gin.H{"error": string(apperrors.ErrCodeConflict), "message": "request already resolved"})
	case errors.Is(err, domain.ErrIDConflict):
		c.JSON(http.StatusConflict, gin.H{"error": string(apperrors.ErrCodeConflict), "message": "identifier conflict"})
	default:
		// Unrecognized errors go through the error middleware, which
		// logs them and writes the 500 response.
		c.Error(err)
	}
}
