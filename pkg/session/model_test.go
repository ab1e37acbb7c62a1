package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeypot-labs/cipher/pkg/intel"
)

func TestNewSessionDefaults(t *testing.T) {
	s := New("sess-1", "margaret_72")

	assert.Equal(t, "sess-1", s.SessionID)
	assert.Equal(t, StateIdle, s.State)
	assert.Zero(t, s.TurnNumber)
	assert.Zero(t, s.ScamScore)
	assert.False(t, s.IsScam)
	assert.False(t, s.AgentActive)
	assert.False(t, s.CallbackSent)
	assert.Equal(t, "margaret_72", s.PersonaID)
	assert.Equal(t, intel.NewBuffer(), s.IntelBuffer)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestStateTransitionTable(t *testing.T) {
	all := []State{StateIdle, StateDetecting, StateEngaging, StateSafe, StateCompleting, StateCompleted}

	legal := map[State][]State{
		StateIdle:       {StateDetecting},
		StateDetecting:  {StateEngaging, StateSafe},
		StateEngaging:   {StateEngaging, StateCompleting},
		StateCompleting: {StateCompleted},
		StateSafe:       {},
		StateCompleted:  {},
	}

	for from, allowed := range legal {
		for _, to := range all {
			want := false
			for _, a := range allowed {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionRejectsIllegalEdges(t *testing.T) {
	s := New("sess-1", "margaret_72")

	require.Error(t, s.Transition(StateEngaging))
	assert.Equal(t, StateIdle, s.State)

	require.NoError(t, s.Transition(StateDetecting))
	require.NoError(t, s.Transition(StateSafe))

	// Terminal: nothing leaves safe.
	assert.Error(t, s.Transition(StateDetecting))
	assert.Error(t, s.Transition(StateEngaging))
	assert.True(t, s.State.Terminal())
}

func TestTransitionSyncsAgentActive(t *testing.T) {
	s := New("sess-1", "margaret_72")

	require.NoError(t, s.Transition(StateDetecting))
	assert.False(t, s.AgentActive)

	require.NoError(t, s.Transition(StateEngaging))
	assert.True(t, s.AgentActive)

	require.NoError(t, s.Transition(StateCompleting))
	assert.True(t, s.AgentActive)

	require.NoError(t, s.Transition(StateCompleted))
	assert.False(t, s.AgentActive)
}

func TestMarkScamLatchesAndNeverReverts(t *testing.T) {
	s := New("sess-1", "margaret_72")

	s.MarkScam(0.3)
	assert.InDelta(t, 0.3, s.ScamScore, 1e-9)
	assert.False(t, s.IsScam)

	s.MarkScam(0.72)
	assert.InDelta(t, 0.72, s.ScamScore, 1e-9)
	assert.True(t, s.IsScam)

	// Lower scores never pull the session back.
	s.MarkScam(0.1)
	assert.InDelta(t, 0.72, s.ScamScore, 1e-9)
	assert.True(t, s.IsScam)
}

func TestSessionJSONRoundTrip(t *testing.T) {
	s := New("sess-42", "margaret_72")
	require.NoError(t, s.Transition(StateDetecting))
	require.NoError(t, s.Transition(StateEngaging))
	s.MarkScam(0.9)
	s.TurnNumber = 7
	s.CallbackSent = true
	s.IntelBuffer.Add(intel.CategoryUPIIDs, "scammer@ybl")
	s.IntelBuffer.Add(intel.CategorySuspiciousKeywords, "otp", "urgent")

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, s.SessionID, decoded.SessionID)
	assert.Equal(t, s.TurnNumber, decoded.TurnNumber)
	assert.Equal(t, s.State, decoded.State)
	assert.Equal(t, s.ScamScore, decoded.ScamScore)
	assert.Equal(t, s.IsScam, decoded.IsScam)
	assert.Equal(t, s.AgentActive, decoded.AgentActive)
	assert.Equal(t, s.PersonaID, decoded.PersonaID)
	assert.Equal(t, s.IntelBuffer, decoded.IntelBuffer)
	assert.Equal(t, s.CallbackSent, decoded.CallbackSent)
	assert.True(t, s.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, s.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestCloneIsDeep(t *testing.T) {
	s := New("sess-1", "margaret_72")
	s.IntelBuffer.Add(intel.CategoryUPIIDs, "a@ybl")

	c := s.Clone()
	c.IntelBuffer.Add(intel.CategoryUPIIDs, "b@ybl")
	c.TurnNumber = 99

	assert.Equal(t, []string{"a@ybl"}, s.IntelBuffer[intel.CategoryUPIIDs])
	assert.Zero(t, s.TurnNumber)
}
