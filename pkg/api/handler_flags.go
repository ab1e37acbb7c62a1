package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleFeatureFlags handles GET /api/v1/feature-flags. Unauthenticated so
// the gateway can poll it to decide whether to route traffic here at all.
func (s *Server) handleFeatureFlags(c *gin.Context) {
	c.JSON(http.StatusOK, &FeatureFlags{
		EngagementEnabled: s.cfg.EngagementEnabled,
		KillSwitch:        !s.cfg.EngagementEnabled,
	})
}
