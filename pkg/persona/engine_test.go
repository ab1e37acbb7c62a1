package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPersonaYAML = `id: edith_68
demographics:
  name: Edith
  age: 68
  location: Mumbai, India
  socioeconomic: retired nurse
  technical_literacy: low
traits:
  behavioral:
    - trusting and polite
    - asks for things to be repeated
  cognitive_biases:
    - authority_bias: defers to officials
  emotional_modeling:
    baseline: warm and chatty
    under_pressure: anxious and scattered
linguistic:
  style: hesitation markers and occasional typos
  vocabulary_limits: UPI, OTP and other banking jargon
engagement_rules:
  risk_tolerance: never volunteers real details
  extraction_bait: asks callers to spell out account numbers
`

func writePersona(t *testing.T, dir, id, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, id+".yaml"), []byte(content), 0o644)
	require.NoError(t, err)
}

func TestLoadPersonaFile(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "edith_68", testPersonaYAML)

	engine := NewEngine(dir)
	p, err := engine.Load("edith_68")
	require.NoError(t, err)

	assert.Equal(t, "edith_68", p.ID)
	assert.Equal(t, "Edith", p.Demographics.Name)
	assert.Equal(t, 68, p.Demographics.Age)
	assert.Equal(t, "retired nurse", p.Demographics.Socioeconomic)
	assert.Equal(t, TraitList{"trusting and polite", "asks for things to be repeated"}, p.Traits.Behavioral)
	// Long-form entries are flattened to "key: value".
	assert.Equal(t, TraitList{"authority_bias: defers to officials"}, p.Traits.CognitiveBiases)
	assert.Equal(t, "warm and chatty", p.Traits.EmotionalModeling.Baseline)
	assert.Equal(t, "asks callers to spell out account numbers", p.EngagementRules.ExtractionBait)
}

func TestLoadDefaultsIDToFilename(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "nameless", "demographics:\n  name: Norma\n")

	engine := NewEngine(dir)
	p, err := engine.Load("nameless")
	require.NoError(t, err)
	assert.Equal(t, "nameless", p.ID)
}

func TestLoadCachesPersona(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "edith_68", testPersonaYAML)

	engine := NewEngine(dir)
	first, err := engine.Load("edith_68")
	require.NoError(t, err)

	// Corrupt the file on disk; the cached copy must keep serving.
	writePersona(t, dir, "edith_68", "{{{ not yaml")
	second, err := engine.Load("edith_68")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadMissingPersona(t *testing.T) {
	engine := NewEngine(t.TempDir())
	_, err := engine.Load("nobody_99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nobody_99")
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "future", `id: future
schema_version: 4
demographics:
  name: Fran
  favourite_color: blue
voice_profile:
  pitch: low
`)

	engine := NewEngine(dir)
	p, err := engine.Load("future")
	require.NoError(t, err)
	assert.Equal(t, "Fran", p.Demographics.Name)
}

func TestLoadRejectsScalarTraitList(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "bad", "traits:\n  behavioral: not a list\n")

	engine := NewEngine(dir)
	_, err := engine.Load("bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a sequence")
}

func TestPromptSegmentHydration(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "edith_68", testPersonaYAML)

	engine := NewEngine(dir)
	segment, err := engine.SystemPromptSegment("edith_68")
	require.NoError(t, err)

	assert.Contains(t, segment, "You are Edith, aged 68 from Mumbai, India.")
	assert.Contains(t, segment, "Socioeconomic background: retired nurse")
	assert.Contains(t, segment, "# BEHAVIORAL TRAITS (CRITICAL)")
	assert.Contains(t, segment, "- trusting and polite")
	assert.Contains(t, segment, "# COGNITIVE BIASES")
	assert.Contains(t, segment, "- authority_bias: defers to officials")
	assert.Contains(t, segment, "- Baseline: warm and chatty")
	assert.Contains(t, segment, "- Under Pressure: anxious and scattered")
	assert.Contains(t, segment, "- DO NOT UNDERSTAND: UPI, OTP and other banking jargon")
	assert.Contains(t, segment, "- TACTIC: asks callers to spell out account numbers")
}

func TestPromptSegmentDefaults(t *testing.T) {
	p := &Persona{}
	segment := p.PromptSegment()

	assert.Contains(t, segment, "You are a user, aged unknown from unknown.")
	assert.Contains(t, segment, "Socioeconomic background: average")
	assert.Contains(t, segment, "Technical literacy: average")
	assert.Contains(t, segment, "- Baseline: calm")
	assert.Contains(t, segment, "- Under Pressure: anxious")
	assert.Contains(t, segment, "- casual")
	assert.Contains(t, segment, "- DO NOT UNDERSTAND: highly technical jargon")
	assert.Contains(t, segment, "- TACTIC: ask natural questions")
}

// Guards the persona asset shipped with the service.
func TestShippedMargaretPersonaParses(t *testing.T) {
	engine := NewEngine(filepath.Join("..", "..", "personas"))
	p, err := engine.Load("margaret_72")
	require.NoError(t, err)

	assert.Equal(t, "margaret_72", p.ID)
	assert.Equal(t, "Margaret", p.Demographics.Name)
	assert.Equal(t, 72, p.Demographics.Age)
	assert.NotEmpty(t, p.Traits.Behavioral)
	assert.NotEmpty(t, p.Traits.CognitiveBiases)
	assert.NotEmpty(t, p.EngagementRules.ExtractionBait)

	segment := p.PromptSegment()
	assert.Contains(t, segment, "You are Margaret, aged 72")
}
