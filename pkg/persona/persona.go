// Package persona loads simulated-victim identities from YAML files and
// renders them into the instructional blocks that head every LLM prompt.
package persona

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Persona describes a simulated victim identity. Personas are read from disk
// once, cached, and never mutated after load.
type Persona struct {
	ID              string          `yaml:"id"`
	Demographics    Demographics    `yaml:"demographics"`
	Traits          Traits          `yaml:"traits"`
	Linguistic      Linguistic      `yaml:"linguistic"`
	EngagementRules EngagementRules `yaml:"engagement_rules"`
}

// Demographics identifies who the persona claims to be.
type Demographics struct {
	Name              string `yaml:"name"`
	Age               int    `yaml:"age"`
	Location          string `yaml:"location"`
	Socioeconomic     string `yaml:"socioeconomic"`
	TechnicalLiteracy string `yaml:"technical_literacy"`
}

// Traits captures the behavioral and emotional model of the persona.
type Traits struct {
	Behavioral        TraitList         `yaml:"behavioral"`
	CognitiveBiases   TraitList         `yaml:"cognitive_biases"`
	EmotionalModeling EmotionalModeling `yaml:"emotional_modeling"`
}

// EmotionalModeling describes the persona's emotional register in and out of
// stressful exchanges.
type EmotionalModeling struct {
	Baseline      string `yaml:"baseline"`
	UnderPressure string `yaml:"under_pressure"`
}

// Linguistic constrains how the persona writes.
type Linguistic struct {
	Style            string `yaml:"style"`
	VocabularyLimits string `yaml:"vocabulary_limits"`
}

// EngagementRules steer how far the persona plays along with a scammer.
type EngagementRules struct {
	RiskTolerance  string `yaml:"risk_tolerance"`
	ExtractionBait string `yaml:"extraction_bait"`
}

// TraitList is a sequence of trait descriptions. It accepts both:
//   - Short-form:  [trusting and polite, lives alone]
//   - Long-form:   [{authority_bias: defers to officials}, ...]
//
// Long-form entries are flattened to "key: value" strings.
type TraitList []string

// UnmarshalYAML implements custom unmarshaling for the two entry forms.
func (t *TraitList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("trait list must be a sequence, got %v", value.Tag)
	}
	items := make(TraitList, 0, len(value.Content))
	for i, node := range value.Content {
		switch node.Kind {
		case yaml.ScalarNode:
			items = append(items, node.Value)
		case yaml.MappingNode:
			for j := 0; j+1 < len(node.Content); j += 2 {
				items = append(items, node.Content[j].Value+": "+node.Content[j+1].Value)
			}
		default:
			return fmt.Errorf("trait entry %d: expected string or mapping, got %v", i, node.Tag)
		}
	}
	*t = items
	return nil
}
