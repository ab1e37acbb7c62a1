package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeypot-labs/cipher/pkg/agent/reflection"
	"github.com/honeypot-labs/cipher/pkg/llm"
	"github.com/honeypot-labs/cipher/pkg/persona"
)

const margaretEnvelope = `{
  "internal_reasoning": {
    "situation_analysis": "Caller is threatening account suspension.",
    "strategy_selection": "Ask them to repeat the UPI handle slowly.",
    "persona_alignment_check": "Confusion fits a 72-year-old."
  },
  "final_response": "Oh dear, could you spell that handle out for me?"
}`

// scriptedGenerator replays canned outputs (or errors) in order and records
// what it was asked.
type scriptedGenerator struct {
	outputs  []string
	errs     []error
	calls    int
	messages [][]llm.Message
	temps    []float64
}

func (g *scriptedGenerator) Generate(_ context.Context, messages []llm.Message, temperature float64) (string, error) {
	i := g.calls
	g.calls++
	g.messages = append(g.messages, messages)
	g.temps = append(g.temps, temperature)

	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(g.outputs) {
		return g.outputs[i], nil
	}
	return "", errors.New("script exhausted")
}

func personaDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	yaml := `id: margaret_72
demographics:
  name: Margaret
  age: 72
  location: Pune, India
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "margaret_72.yaml"), []byte(yaml), 0o644))
	return dir
}

func newTestOrchestrator(t *testing.T, gen llm.Generator) *Orchestrator {
	t.Helper()
	engine := persona.NewEngine(personaDir(t))
	retrier := reflection.NewRetrier(3, time.Second, 0)
	return New(engine, gen, retrier)
}

func TestGenerateResponseHappyPath(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{margaretEnvelope}}
	orch := newTestOrchestrator(t, gen)

	result := orch.GenerateResponse(context.Background(), Request{
		PersonaID: "margaret_72",
		History: []llm.Message{
			{Role: llm.RoleUser, Content: "Your account is blocked, send OTP now."},
		},
		TurnNumber:      1,
		MaxMessages:     20,
		MissingEntities: []string{"upiIds"},
		Confidence:      0.82,
		RiskLevel:       "high",
	})

	assert.Equal(t, "Oh dear, could you spell that handle out for me?", result.Reply)
	assert.False(t, result.Disengage)
	assert.False(t, result.Fallback)

	require.Equal(t, 1, gen.calls)
	messages := gen.messages[0]
	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "You are Margaret, aged 72")
	assert.Contains(t, messages[0].Content, "Current Scam Probability: 82.0% (high risk)")
	assert.Equal(t, "Your account is blocked, send OTP now.", messages[1].Content)
	assert.Equal(t, []float64{0.7}, gen.temps)
}

func TestGenerateResponseRetriesOnBadEnvelope(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"sure, I can help with that!", margaretEnvelope}}
	orch := newTestOrchestrator(t, gen)

	result := orch.GenerateResponse(context.Background(), Request{
		PersonaID:   "margaret_72",
		TurnNumber:  2,
		MaxMessages: 20,
	})

	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, []float64{0.7, 0.9}, gen.temps)
	assert.Equal(t, "Oh dear, could you spell that handle out for me?", result.Reply)
	assert.False(t, result.Fallback)
}

func TestGenerateResponseExhaustionFallsBack(t *testing.T) {
	gen := &scriptedGenerator{
		errs: []error{
			errors.New("connection refused"),
			errors.New("connection refused"),
			errors.New("connection refused"),
		},
	}
	orch := newTestOrchestrator(t, gen)

	result := orch.GenerateResponse(context.Background(), Request{
		PersonaID:   "margaret_72",
		TurnNumber:  3,
		MaxMessages: 20,
	})

	assert.Equal(t, 3, gen.calls)
	assert.True(t, result.Fallback)
	assert.NotEmpty(t, result.Reply)
	assert.False(t, result.Disengage)
}

func TestGenerateResponseDisengageFlag(t *testing.T) {
	envelope := `{
  "internal_reasoning": {
    "situation_analysis": "The caller said goodbye and gave up.",
    "strategy_selection": "Wind the conversation down politely. [DISENGAGE]",
    "persona_alignment_check": "A polite goodbye fits."
  },
  "final_response": "Alright dear, you take care now."
}`
	gen := &scriptedGenerator{outputs: []string{envelope}}
	orch := newTestOrchestrator(t, gen)

	result := orch.GenerateResponse(context.Background(), Request{
		PersonaID:   "margaret_72",
		TurnNumber:  9,
		MaxMessages: 20,
	})

	assert.True(t, result.Disengage)
	assert.Equal(t, "Alright dear, you take care now.", result.Reply)
}

func TestGenerateResponseUnknownPersonaFallsBack(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{margaretEnvelope}}
	orch := newTestOrchestrator(t, gen)

	result := orch.GenerateResponse(context.Background(), Request{
		PersonaID:   "no_such_persona",
		TurnNumber:  1,
		MaxMessages: 20,
	})

	assert.True(t, result.Fallback)
	assert.NotEmpty(t, result.Reply)
	// The model is never consulted without a persona.
	assert.Equal(t, 0, gen.calls)
}
