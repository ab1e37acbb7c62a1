// Package engagement drives one honeypot conversation turn end to end:
// detection, intelligence extraction, persona reply generation, event
// publication, and the completion callback. The controller is the only
// writer of session state.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/honeypot-labs/cipher/pkg/agent"
	"github.com/honeypot-labs/cipher/pkg/callback"
	"github.com/honeypot-labs/cipher/pkg/detection"
	"github.com/honeypot-labs/cipher/pkg/events"
	"github.com/honeypot-labs/cipher/pkg/intel"
	"github.com/honeypot-labs/cipher/pkg/llm"
	"github.com/honeypot-labs/cipher/pkg/session"
)

// ErrEmptySessionID rejects turns with no session identity.
var ErrEmptySessionID = errors.New("session id is empty")

// Canned replies for turns that never reach the LLM.
const (
	benignAck    = "Okay."
	completedAck = "I already reported this. Please don't call again."
)

// Message is one conversation message as received on the wire.
// Timestamp is epoch milliseconds.
type Message struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// TurnResult is everything the transport layer needs to answer a turn
// without re-reading the store.
type TurnResult struct {
	Reply           string
	State           session.State
	TurnNumber      int
	ScamDetected    bool
	ConfidenceScore float64
}

// Detector scores one message, carrying the session's score history.
type Detector interface {
	Detect(text string, previousScore float64) detection.Signal
}

// Responder generates the persona reply for a turn. It never fails; the
// worst case is a canned fallback reply.
type Responder interface {
	GenerateResponse(ctx context.Context, req agent.Request) agent.Result
}

// Reporter delivers the final intelligence report for a completed
// engagement and reports whether it landed.
type Reporter interface {
	Dispatch(ctx context.Context, report callback.Report) bool
}

// Controller owns the per-session state machine. Turns for the same
// session are serialized; different sessions proceed in parallel.
type Controller struct {
	store     session.Store
	locks     *session.Locker
	detector  Detector
	responder Responder
	reporter  Reporter
	bus       events.Bus
	personaID string
	maxTurns  int
}

// NewController wires a Controller from its collaborators. personaID names
// the persona assigned to new sessions; maxTurns caps engagement length.
func NewController(store session.Store, detector Detector, responder Responder, reporter Reporter, bus events.Bus, personaID string, maxTurns int) *Controller {
	return &Controller{
		store:     store,
		locks:     session.NewLocker(),
		detector:  detector,
		responder: responder,
		reporter:  reporter,
		bus:       bus,
		personaID: personaID,
		maxTurns:  maxTurns,
	}
}

// ProcessMessage runs one full turn for sessionID and returns the reply.
//
// State flow: a first message moves idle -> detecting and is scored. A
// benign verdict parks the session in safe permanently; a scam verdict
// latches is_scam and engages the persona agent. Engaged sessions converse
// until the turn cap or an agent-signaled disengage, then complete with an
// exactly-once completion event and callback. Terminal sessions answer
// with a canned acknowledgement.
func (c *Controller) ProcessMessage(ctx context.Context, sessionID string, incoming Message, history []Message) (*TurnResult, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	c.locks.Lock(sessionID)
	defer c.locks.Unlock(sessionID)

	s, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if s == nil {
		s = session.New(sessionID, c.personaID)
		slog.Info("Created new session",
			"session_id", sessionID,
			"persona_id", c.personaID)
	}

	if s.State.Terminal() {
		return c.terminalResult(s), nil
	}

	if s.State == session.StateIdle {
		if err := s.Transition(session.StateDetecting); err != nil {
			return nil, fmt.Errorf("advancing session %s: %w", sessionID, err)
		}
	}

	if s.State == session.StateDetecting {
		signal := c.detector.Detect(incoming.Text, s.ScamScore)

		if !signal.ScamDetected {
			if err := s.Transition(session.StateSafe); err != nil {
				return nil, fmt.Errorf("advancing session %s: %w", sessionID, err)
			}
			c.save(ctx, s)
			slog.Info("Conversation cleared as benign",
				"session_id", sessionID,
				"confidence", signal.ConfidenceScore)
			return &TurnResult{
				Reply:           benignAck,
				State:           s.State,
				TurnNumber:      s.TurnNumber,
				ScamDetected:    false,
				ConfidenceScore: signal.ConfidenceScore,
			}, nil
		}

		firstDetection := !s.IsScam
		s.MarkScam(signal.ConfidenceScore)
		if err := s.Transition(session.StateEngaging); err != nil {
			return nil, fmt.Errorf("advancing session %s: %w", sessionID, err)
		}
		slog.Info("Scam detected, persona agent engaged",
			"session_id", sessionID,
			"confidence", signal.ConfidenceScore,
			"risk_level", signal.RiskLevel)

		if firstDetection {
			c.publish(ctx, events.EventScamDetected, events.ScamDetectedPayload{
				SessionID:      sessionID,
				Sender:         incoming.Sender,
				Confidence:     signal.ConfidenceScore,
				Text:           incoming.Text,
				RiskLevel:      string(signal.RiskLevel),
				ScamCategories: signal.Categories,
				Timestamp:      timestamp(),
			})
		}
	}

	s.IntelBuffer.Merge(intel.Extract(incoming.Text))

	result := c.responder.GenerateResponse(ctx, agent.Request{
		PersonaID:       s.PersonaID,
		History:         chatHistory(history, incoming),
		TurnNumber:      s.TurnNumber,
		MaxMessages:     c.maxTurns,
		MissingEntities: s.IntelBuffer.Missing(),
		Confidence:      s.ScamScore,
		RiskLevel:       string(detection.MapRiskLevel(s.ScamScore)),
	})

	s.TurnNumber++
	if s.TurnNumber >= c.maxTurns || result.Disengage {
		if err := s.Transition(session.StateCompleting); err != nil {
			return nil, fmt.Errorf("advancing session %s: %w", sessionID, err)
		}
		slog.Info("Engagement wrapping up",
			"session_id", sessionID,
			"turn", s.TurnNumber,
			"disengage", result.Disengage)
	}

	c.publish(ctx, events.EventEngagementTurn, events.EngagementTurnPayload{
		SessionID:   sessionID,
		Sender:      incoming.Sender,
		TurnNumber:  s.TurnNumber,
		Reply:       result.Reply,
		IntelBuffer: s.IntelBuffer.Clone(),
		Timestamp:   timestamp(),
	})

	if s.State == session.StateCompleting {
		c.complete(ctx, s, incoming.Sender)
	}

	c.save(ctx, s)

	return &TurnResult{
		Reply:           result.Reply,
		State:           s.State,
		TurnNumber:      s.TurnNumber,
		ScamDetected:    s.IsScam,
		ConfidenceScore: s.ScamScore,
	}, nil
}

// complete emits the completion event and delivers the intelligence
// report. Both ride the engaging -> completing edge, which a session
// crosses at most once, so they fire at most once per session. The
// detached context keeps them alive when the originating request is
// cancelled mid-turn.
func (c *Controller) complete(ctx context.Context, s *session.Session, sender string) {
	dctx := context.WithoutCancel(ctx)

	c.publish(dctx, events.EventEngagementCompleted, events.EngagementCompletedPayload{
		SessionID:       s.SessionID,
		Sender:          sender,
		ScamDetected:    s.IsScam,
		ConfidenceScore: s.ScamScore,
		TotalTurns:      s.TurnNumber,
		Timestamp:       timestamp(),
	})

	delivered := c.reporter.Dispatch(dctx, callback.Report{
		SessionID:       s.SessionID,
		ScamDetected:    s.IsScam,
		ConfidenceScore: s.ScamScore,
		Intelligence:    s.IntelBuffer.Clone(),
		TurnCount:       s.TurnNumber,
		AgentNotes:      intel.EngagementNotes(s.IntelBuffer, s.ScamScore),
		CompletedAt:     timestamp(),
	})
	s.CallbackSent = delivered

	// Completed is reached whether or not the report landed; exhaustion is
	// already logged as critical by the dispatcher.
	if err := s.Transition(session.StateCompleted); err != nil {
		slog.Error("Completion transition failed",
			"session_id", s.SessionID,
			"error", err)
		return
	}
	slog.Info("Engagement completed",
		"session_id", s.SessionID,
		"turns", s.TurnNumber,
		"callback_delivered", delivered)
}

// terminalResult answers messages that arrive after the session settled.
func (c *Controller) terminalResult(s *session.Session) *TurnResult {
	reply := benignAck
	if s.State == session.StateCompleted {
		reply = completedAck
	}
	return &TurnResult{
		Reply:           reply,
		State:           s.State,
		TurnNumber:      s.TurnNumber,
		ScamDetected:    s.IsScam,
		ConfidenceScore: s.ScamScore,
	}
}

func (c *Controller) save(ctx context.Context, s *session.Session) {
	if err := c.store.Save(ctx, s); err != nil {
		slog.Error("Session save failed; reply still returned",
			"session_id", s.SessionID,
			"error", err)
	}
}

func (c *Controller) publish(ctx context.Context, eventType string, payload any) {
	if err := c.bus.Publish(ctx, eventType, payload); err != nil {
		slog.Error("Event publish failed",
			"event_type", eventType,
			"error", err)
	}
}

// chatHistory maps transport messages onto chat-completion turns. The
// honeypot's own prior replies arrive with sender "agent" and become
// assistant turns; everything else speaks as the user.
func chatHistory(history []Message, incoming Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, m.chatMessage())
	}
	return append(msgs, incoming.chatMessage())
}

func (m Message) chatMessage() llm.Message {
	role := llm.RoleUser
	if strings.EqualFold(m.Sender, "agent") {
		role = llm.RoleAssistant
	}
	return llm.Message{Role: role, Content: m.Text}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
