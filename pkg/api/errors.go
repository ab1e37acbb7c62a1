package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/honeypot-labs/cipher/pkg/engagement"
	"github.com/honeypot-labs/cipher/pkg/profile"
)

// mapError converts domain errors into JSON error responses.
func mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, engagement.ErrEmptySessionID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Unexpected handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
