// Package knowledge loads and serves the static company knowledge base.
//
// The knowledge base is a JSON document of company facts (services, careers,
// locations, contacts) loaded once at startup and immutable thereafter. Load
// failure is fatal: the service must not start without its grounding document.
package knowledge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// Section names recognized in the knowledge base document.
const (
	SectionCompany     = "company"
	SectionServices    = "services"
	SectionCareers     = "careers"
	SectionLocations   = "locations"
	SectionContactInfo = "contact_info"
	SectionTeam        = "team"
	SectionIndustries  = "industries"
)

// Position describes one open role in the careers section.
type Position struct {
	Title       string `json:"title"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Careers is the parsed careers section.
type Careers struct {
	AvailablePositions map[string]Position `json:"available_positions"`
}

// KnowledgeBase is the static, read-only company facts document. Sections are
// kept as raw JSON so the composer can serialize intent-scoped subsets without
// re-marshaling losses; the careers section is additionally parsed so the
// resolver and the application flow can match position titles.
type KnowledgeBase struct {
	sections map[string]json.RawMessage
	careers  Careers
}

// Load reads and parses the knowledge base JSON at path. Any read or parse
// error is returned to the caller, where it must abort service startup.
func Load(path string) (*KnowledgeBase, error) {
	slog.Debug("knowledge.Load: reading knowledge base", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("knowledge.Load: failed to read knowledge base file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to read knowledge base file %s: %w", path, err)
	}

	kb, err := Parse(data)
	if err != nil {
		slog.Error("knowledge.Load: failed to parse knowledge base", "path", path, "error", err)
		return nil, err
	}

	slog.Info("knowledge.Load: knowledge base loaded", "path", path, "sections", len(kb.sections), "positions", len(kb.careers.AvailablePositions))
	return kb, nil
}

// Parse builds a KnowledgeBase from raw JSON bytes.
func Parse(data []byte) (*KnowledgeBase, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("invalid knowledge base format: %w", err)
	}

	kb := &KnowledgeBase{sections: sections}
	if raw, ok := sections[SectionCareers]; ok {
		if err := json.Unmarshal(raw, &kb.careers); err != nil {
			return nil, fmt.Errorf("invalid careers section: %w", err)
		}
	}
	return kb, nil
}

// Section returns the raw JSON for a named section, if present.
func (kb *KnowledgeBase) Section(name string) (json.RawMessage, bool) {
	raw, ok := kb.sections[name]
	return raw, ok
}

// Subset assembles the named sections (those present) into one document,
// ready to be serialized into an LLM prompt.
func (kb *KnowledgeBase) Subset(names ...string) map[string]json.RawMessage {
	subset := make(map[string]json.RawMessage, len(names))
	for _, name := range names {
		if raw, ok := kb.sections[name]; ok {
			subset[name] = raw
		}
	}
	return subset
}

// Positions returns the available positions keyed by position id.
func (kb *KnowledgeBase) Positions() map[string]Position {
	return kb.careers.AvailablePositions
}

// PositionKeys returns position ids in sorted order so numbered listings are
// deterministic across requests.
func (kb *KnowledgeBase) PositionKeys() []string {
	keys := make([]string, 0, len(kb.careers.AvailablePositions))
	for key := range kb.careers.AvailablePositions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Position looks up one position by its id.
func (kb *KnowledgeBase) Position(key string) (Position, bool) {
	pos, ok := kb.careers.AvailablePositions[key]
	return pos, ok
}
