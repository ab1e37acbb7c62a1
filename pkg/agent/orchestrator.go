// Package agent is the brain of the honeypot: it composes persona loading,
// memory compaction, prompt assembly, model generation and reflection into
// one validated conversational reply per turn.
package agent

import (
	"context"
	"log/slog"

	"github.com/honeypot-labs/cipher/pkg/agent/prompt"
	"github.com/honeypot-labs/cipher/pkg/agent/reflection"
	"github.com/honeypot-labs/cipher/pkg/llm"
	"github.com/honeypot-labs/cipher/pkg/persona"
)

// Request carries everything the orchestrator needs for one turn.
type Request struct {
	PersonaID       string
	History         []llm.Message
	TurnNumber      int
	MaxMessages     int
	MissingEntities []string
	Confidence      float64
	RiskLevel       string
}

// Result is the orchestrator's verdict for one turn.
type Result struct {
	// Reply is the conversational string sent back to the scammer.
	Reply string

	// Disengage is set when the model marked the conversation as over.
	Disengage bool

	// Fallback is set when the reply came from the emergency pool.
	Fallback bool
}

// Orchestrator generates in-persona replies. It never surfaces an error to
// the caller: terminal generation failure yields the micro-fallback reply.
type Orchestrator struct {
	personas  *persona.Engine
	generator llm.Generator
	retrier   *reflection.Retrier
}

// New wires an Orchestrator from its collaborators.
func New(personas *persona.Engine, generator llm.Generator, retrier *reflection.Retrier) *Orchestrator {
	return &Orchestrator{
		personas:  personas,
		generator: generator,
		retrier:   retrier,
	}
}

// GenerateResponse runs the full pipeline: persona block, compacted history,
// dynamic prompt, temperature-escalated generation, reflection validation.
func (o *Orchestrator) GenerateResponse(ctx context.Context, req Request) Result {
	personaBlock, err := o.personas.SystemPromptSegment(req.PersonaID)
	if err != nil {
		slog.Error("Persona lookup failed, replying from emergency pool",
			"persona_id", req.PersonaID, "error", err)
		fallback := reflection.MicroFallback()
		return Result{Reply: fallback.FinalResponse, Fallback: true}
	}

	messages := prompt.Build(prompt.Context{
		PersonaBlock:    personaBlock,
		History:         prompt.Compact(req.History),
		TurnNumber:      req.TurnNumber,
		MaxMessages:     req.MaxMessages,
		MissingEntities: req.MissingEntities,
		Confidence:      req.Confidence,
		RiskLevel:       req.RiskLevel,
	})

	resp := o.retrier.Execute(ctx, func(ctx context.Context, temperature float64) (*reflection.Response, error) {
		raw, err := o.generator.Generate(ctx, messages, temperature)
		if err != nil {
			return nil, err
		}
		return reflection.Evaluate(raw)
	})

	slog.Info("Generated dynamic reply",
		"persona_id", req.PersonaID,
		"turn", req.TurnNumber,
		"strategy", resp.InternalReasoning.StrategySelection,
		"disengage", resp.Disengage(),
		"fallback", reflection.IsFallback(resp))

	return Result{
		Reply:     resp.FinalResponse,
		Disengage: resp.Disengage(),
		Fallback:  reflection.IsFallback(resp),
	}
}
