package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

const testDoc = `{
	"company": {"name": "CCI Global", "founded": 2006},
	"services": {"customer_service": "Omnichannel customer service"},
	"careers": {
		"available_positions": {
			"technical_support_specialist": {
				"title": "Technical Support Specialist",
				"location": "Nairobi, Kenya",
				"description": "Troubleshoot customer issues."
			},
			"customer_service_representative": {
				"title": "Customer Service Representative",
				"location": "Durban, South Africa",
				"description": "Front-line customer support."
			}
		}
	},
	"contact_info": {"email": "info@cciglobal.com"},
	"industries": ["telecommunications", "financial services"]
}`

func TestParseAndSections(t *testing.T) {
	kb, err := Parse([]byte(testDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if _, ok := kb.Section(SectionCompany); !ok {
		t.Error("expected company section")
	}
	if _, ok := kb.Section(SectionTeam); ok {
		t.Error("did not expect team section")
	}

	subset := kb.Subset(SectionCompany, SectionContactInfo, SectionTeam)
	if len(subset) != 2 {
		t.Errorf("expected 2 subset sections, got %d", len(subset))
	}
}

func TestPositionKeysSorted(t *testing.T) {
	kb, err := Parse([]byte(testDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	keys := kb.PositionKeys()
	want := []string{"customer_service_representative", "technical_support_specialist"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("key %d: expected %s, got %s", i, k, keys[i])
		}
	}

	pos, ok := kb.Position("technical_support_specialist")
	if !ok {
		t.Fatal("expected position lookup to succeed")
	}
	if pos.Title != "Technical Support Specialist" {
		t.Errorf("unexpected title %q", pos.Title)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("expected error for malformed document")
	}
	if _, err := Parse([]byte(`{"careers": {"available_positions": "oops"}}`)); err == nil {
		t.Error("expected error for malformed careers section")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	if err := os.WriteFile(path, []byte(testDoc), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	kb, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(kb.Positions()) != 2 {
		t.Errorf("expected 2 positions, got %d", len(kb.Positions()))
	}
}
