package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleAnalyze handles POST /api/v1/analyze: detection without engagement.
// Takes the same envelope as /engage, scores the message text and returns
// the verdict. No session is created or mutated.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req EngageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Message.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text is required"})
		return
	}

	signal := s.detector.Detect(req.Message.Text, 0)
	c.JSON(http.StatusOK, signal)
}
