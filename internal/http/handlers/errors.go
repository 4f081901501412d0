package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coachgate/internal/access"
)

// writeAccessError maps the core's failure taxonomy onto HTTP statuses.
// Forbidden and NotFound stay distinct so the UI can tell "access denied
// or expired" from "resource missing".
func writeAccessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
	case errors.Is(err, access.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, access.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "request already decided"})
	case errors.Is(err, access.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
