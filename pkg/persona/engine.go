package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Engine loads persona definitions from a directory and caches them for the
// process lifetime. Safe for concurrent use.
type Engine struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*Persona
}

// NewEngine returns an Engine reading persona files from dir.
func NewEngine(dir string) *Engine {
	return &Engine{
		dir:   dir,
		cache: make(map[string]*Persona),
	}
}

// Load reads and caches the persona with the given id, resolved as
// <dir>/<id>.yaml. Unknown YAML keys are ignored.
func (e *Engine) Load(id string) (*Persona, error) {
	e.mu.RLock()
	p, ok := e.cache[id]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	path := filepath.Join(e.dir, id+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona %q: %w", id, err)
	}

	loaded := &Persona{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("failed to parse persona %q: %w", id, err)
	}
	if loaded.ID == "" {
		loaded.ID = id
	}

	e.mu.Lock()
	e.cache[id] = loaded
	e.mu.Unlock()
	return loaded, nil
}

// SystemPromptSegment hydrates the persona into the instructional block that
// heads every LLM prompt.
func (e *Engine) SystemPromptSegment(id string) (string, error) {
	p, err := e.Load(id)
	if err != nil {
		return "", err
	}
	return p.PromptSegment(), nil
}

// PromptSegment renders the persona as rich instructional text. Missing
// fields fall back to neutral placeholders so a sparse file still produces a
// coherent block.
func (p *Persona) PromptSegment() string {
	demo := p.Demographics
	age := "unknown"
	if demo.Age > 0 {
		age = strconv.Itoa(demo.Age)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, aged %s from %s.\n",
		orDefault(demo.Name, "a user"), age, orDefault(demo.Location, "unknown"))
	fmt.Fprintf(&b, "Socioeconomic background: %s\n", orDefault(demo.Socioeconomic, "average"))
	fmt.Fprintf(&b, "Technical literacy: %s\n", orDefault(demo.TechnicalLiteracy, "average"))

	b.WriteString("\n# BEHAVIORAL TRAITS (CRITICAL)\n")
	b.WriteString(bullets(p.Traits.Behavioral))

	b.WriteString("\n\n# COGNITIVE BIASES\n")
	b.WriteString(bullets(p.Traits.CognitiveBiases))

	emotional := p.Traits.EmotionalModeling
	b.WriteString("\n\n# EMOTIONAL STATE\n")
	fmt.Fprintf(&b, "- Baseline: %s\n", orDefault(emotional.Baseline, "calm"))
	fmt.Fprintf(&b, "- Under Pressure: %s\n", orDefault(emotional.UnderPressure, "anxious"))

	b.WriteString("\n# LINGUISTIC STYLE\n")
	fmt.Fprintf(&b, "- %s\n", orDefault(p.Linguistic.Style, "casual"))
	fmt.Fprintf(&b, "- DO NOT UNDERSTAND: %s\n", orDefault(p.Linguistic.VocabularyLimits, "highly technical jargon"))

	rules := p.EngagementRules
	b.WriteString("\n# CORE DIRECTIVES & RISK TOLERANCE\n")
	fmt.Fprintf(&b, "- %s\n", orDefault(rules.RiskTolerance, "moderate"))
	fmt.Fprintf(&b, "- TACTIC: %s\n", orDefault(rules.ExtractionBait, "ask natural questions"))

	return b.String()
}

func bullets(items []string) string {
	return "- " + strings.Join(items, "\n- ")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
