package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/honeypot-labs/cipher/pkg/database"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// healthCheckTimeout bounds the database ping so a stalled pool cannot hang
// the orchestrator's liveness probe.
const healthCheckTimeout = 5 * time.Second

// handleHealth handles GET /health. Unauthenticated and minimal: only the
// database pool is checked, and only when one is configured. External
// dependencies (the LLM service, the callback target) are deliberately
// excluded so their outages do not get this process restarted.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := gin.H{"status": healthStatusHealthy}

	if s.db != nil {
		dbHealth, err := database.Health(ctx, s.db.DB())
		resp["database"] = dbHealth
		if err != nil {
			resp["status"] = healthStatusUnhealthy
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}

	if s.hub != nil {
		resp["websocket_connections"] = s.hub.ActiveConnections()
	}

	c.JSON(http.StatusOK, resp)
}
