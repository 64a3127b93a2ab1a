// Package symptom recommends a specialty and urgency level from a free-text
// symptom description using a static keyword knowledge base.
package symptom

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//go:embed data/symptoms.json
var defaultKnowledgeBase []byte

// Entry is one symptom category of the knowledge base.
type Entry struct {
	ID        string   `yaml:"-" json:"id"`
	Keywords  []string `yaml:"keywords" json:"keywords"`
	Specialty string   `yaml:"specialty" json:"specialty"`
	Urgency   string   `yaml:"urgency" json:"urgency"`
	Advice    string   `yaml:"advice" json:"advice"`
}

type SpecialtyInfo struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

type UrgencyInfo struct {
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
	Color       string `yaml:"color" json:"color,omitempty"`
}

// KnowledgeBase is immutable once loaded. Symptom and specialty order follow
// the source document.
type KnowledgeBase struct {
	entries        []Entry
	specialtyOrder []string
	specialties    map[string]SpecialtyInfo
	urgency        map[string]UrgencyInfo
}

// EmptyKnowledgeBase matches nothing.
func EmptyKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		specialties: map[string]SpecialtyInfo{},
		urgency:     map[string]UrgencyInfo{},
	}
}

// ParseKnowledgeBase decodes a JSON or YAML document with "symptoms",
// "specialties" and "urgency_levels" mappings. Missing sections are empty.
func ParseKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	kb := EmptyKnowledgeBase()
	if len(doc.Content) == 0 {
		return kb, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse knowledge base: top level must be a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		section, body := root.Content[i].Value, root.Content[i+1]
		var err error
		switch section {
		case "symptoms":
			err = eachPair(body, func(id string, n *yaml.Node) error {
				var e Entry
				if err := n.Decode(&e); err != nil {
					return err
				}
				e.ID = id
				kb.entries = append(kb.entries, e)
				return nil
			})
		case "specialties":
			err = eachPair(body, func(key string, n *yaml.Node) error {
				var info SpecialtyInfo
				if err := n.Decode(&info); err != nil {
					return err
				}
				kb.specialtyOrder = append(kb.specialtyOrder, key)
				kb.specialties[key] = info
				return nil
			})
		case "urgency_levels":
			err = body.Decode(&kb.urgency)
		}
		if err != nil {
			return nil, fmt.Errorf("parse knowledge base %s: %w", section, err)
		}
	}
	return kb, nil
}

// eachPair walks a mapping node in document order.
func eachPair(n *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// LoadKnowledgeBase reads path, or the built-in knowledge base when path is
// empty. Any failure is logged and yields an empty knowledge base.
func LoadKnowledgeBase(path string, logger zerolog.Logger) *KnowledgeBase {
	data := defaultKnowledgeBase
	source := "embedded"
	if path != "" {
		source = path
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("symptom knowledge base unavailable, matching disabled")
			return EmptyKnowledgeBase()
		}
		data = raw
	}
	kb, err := ParseKnowledgeBase(data)
	if err != nil {
		logger.Warn().Err(err).Str("source", source).Msg("symptom knowledge base invalid, matching disabled")
		return EmptyKnowledgeBase()
	}
	logger.Info().
		Str("source", source).
		Int("symptoms", len(kb.entries)).
		Int("specialties", len(kb.specialties)).
		Msg("symptom knowledge base loaded")
	return kb
}

func (kb *KnowledgeBase) Len() int { return len(kb.entries) }

func (kb *KnowledgeBase) Specialty(key string) (SpecialtyInfo, bool) {
	info, ok := kb.specialties[key]
	return info, ok
}

func (kb *KnowledgeBase) Urgency(key string) (UrgencyInfo, bool) {
	info, ok := kb.urgency[key]
	return info, ok
}
