package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// defaultProfileLimit bounds GET /api/v1/profiles when no limit is given.
const defaultProfileLimit = 50

// maxProfileLimit is the hard cap for a single listing request.
const maxProfileLimit = 500

// handleGetProfile handles GET /api/v1/profile/:sender.
func (s *Server) handleGetProfile(c *gin.Context) {
	sender := c.Param("sender")

	p, err := s.profiles.GetBySender(c.Request.Context(), sender)
	if err != nil {
		mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// handleListProfiles handles GET /api/v1/profiles?limit=&status=, ordered
// by last_seen descending.
func (s *Server) handleListProfiles(c *gin.Context) {
	limit := defaultProfileLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: must be a positive integer"})
			return
		}
		if n > maxProfileLimit {
			n = maxProfileLimit
		}
		limit = n
	}

	profiles, err := s.profiles.List(c.Request.Context(), limit, c.Query("status"))
	if err != nil {
		mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, &ProfileList{Profiles: profiles, Count: len(profiles)})
}
