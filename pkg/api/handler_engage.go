package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/honeypot-labs/cipher/pkg/engagement"
)

// handleEngage handles POST /api/v1/engage, the main conversational turn.
//
// The kill switch is checked before anything else so a disabled deployment
// answers instantly without touching the session store or the LLM.
func (s *Server) handleEngage(c *gin.Context) {
	if !s.cfg.EngagementEnabled {
		reply := killSwitchReply
		c.JSON(http.StatusOK, &EngageResponse{Status: StatusDisabled, Reply: &reply})
		return
	}

	var req EngageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}
	if req.Message.Sender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message sender is required"})
		return
	}
	if req.Message.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text is required"})
		return
	}

	if req.Metadata != nil && req.Metadata.Channel != "" {
		slog.Debug("Engage request received",
			"session_id", req.SessionID,
			"channel", req.Metadata.Channel)
	}

	result, err := s.engager.ProcessMessage(c.Request.Context(), req.SessionID, req.Message, req.ConversationHistory)
	if err != nil {
		if errors.Is(err, engagement.ErrEmptySessionID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Engagement turn failed",
			"session_id", req.SessionID,
			"error", err)
		c.JSON(http.StatusInternalServerError, &EngageResponse{Status: StatusError})
		return
	}

	c.JSON(http.StatusOK, engageResponse(result))
}

// engageResponse maps a turn result onto the gateway wire contract.
func engageResponse(res *engagement.TurnResult) *EngageResponse {
	status := StatusContinue
	if res.State.Terminal() {
		status = StatusCompleted
	}
	reply := res.Reply
	return &EngageResponse{
		Status:          status,
		Reply:           &reply,
		SessionState:    string(res.State),
		TurnNumber:      res.TurnNumber,
		ScamDetected:    res.ScamDetected,
		ConfidenceScore: res.ConfidenceScore,
	}
}

// handleGetSession handles GET /api/v1/engage/:id, a read-only snapshot of
// one session.
func (s *Server) handleGetSession(c *gin.Context) {
	sessionID := c.Param("id")

	sess, err := s.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		mapError(c, err)
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, &SessionSnapshot{
		SessionID:       sess.SessionID,
		State:           string(sess.State),
		TurnNumber:      sess.TurnNumber,
		ScamDetected:    sess.IsScam,
		ConfidenceScore: sess.ScamScore,
		IntelBuffer:     sess.IntelBuffer,
		CreatedAt:       sess.CreatedAt,
		UpdatedAt:       sess.UpdatedAt,
	})
}
