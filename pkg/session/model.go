// Package session holds the per-conversation state machine and its
// persistence. A Session tracks one engagement with one sender from first
// contact through completion; stores keep it alive across turns with a TTL.
package session

import (
	"fmt"
	"time"

	"github.com/honeypot-labs/cipher/pkg/intel"
)

// State is the lifecycle phase of a session.
type State string

const (
	// StateIdle is the zero state before the first message is processed.
	StateIdle State = "idle"
	// StateDetecting means detection ran but no verdict latched yet.
	StateDetecting State = "detecting"
	// StateEngaging means a scam was detected and the agent is conversing.
	StateEngaging State = "engaging"
	// StateSafe means detection cleared the conversation; terminal.
	StateSafe State = "safe"
	// StateCompleting means the engagement ended and the completion
	// callback is in flight.
	StateCompleting State = "completing"
	// StateCompleted means the callback was attempted; terminal.
	StateCompleted State = "completed"
)

// transitions lists every legal state edge. Anything else is a bug.
var transitions = map[State][]State{
	StateIdle:       {StateDetecting},
	StateDetecting:  {StateEngaging, StateSafe},
	StateEngaging:   {StateEngaging, StateCompleting},
	StateCompleting: {StateCompleted},
}

// CanTransition reports whether next is a legal edge from s.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the session accepts no further engagement.
func (s State) Terminal() bool {
	return s == StateSafe || s == StateCompleted
}

// agentActive reports whether the persona agent owns the conversation.
func (s State) agentActive() bool {
	return s == StateEngaging || s == StateCompleting
}

// ScamThreshold is the confidence at which a session latches is_scam.
const ScamThreshold = 0.50

// Session is the aggregate persisted between turns.
type Session struct {
	SessionID    string       `json:"session_id"`
	TurnNumber   int          `json:"turn_number"`
	State        State        `json:"state"`
	ScamScore    float64      `json:"scam_score"`
	IsScam       bool         `json:"is_scam"`
	AgentActive  bool         `json:"agent_active"`
	PersonaID    string       `json:"persona_id"`
	IntelBuffer  intel.Buffer `json:"intel_buffer"`
	CallbackSent bool         `json:"callback_sent"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// New creates a fresh idle session.
func New(sessionID, personaID string) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID:   sessionID,
		State:       StateIdle,
		PersonaID:   personaID,
		IntelBuffer: intel.NewBuffer(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Transition moves the session along a legal edge and keeps AgentActive in
// sync with the new state.
func (s *Session) Transition(next State) error {
	if !s.State.CanTransition(next) {
		return fmt.Errorf("illegal session transition %s -> %s", s.State, next)
	}
	s.State = next
	s.AgentActive = next.agentActive()
	return nil
}

// MarkScam latches the scam verdict. The score only ever rises and IsScam
// never reverts once set.
func (s *Session) MarkScam(confidence float64) {
	if confidence > s.ScamScore {
		s.ScamScore = confidence
	}
	if s.ScamScore >= ScamThreshold {
		s.IsScam = true
	}
}

// Touch refreshes the modification timestamp.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy, so stored state can never be mutated through
// a handed-out pointer.
func (s *Session) Clone() *Session {
	cp := *s
	cp.IntelBuffer = s.IntelBuffer.Clone()
	return &cp
}
