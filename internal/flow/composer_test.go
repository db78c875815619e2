package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/genai"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/knowledge"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
)

// mockGenAI returns a canned completion or error.
type mockGenAI struct {
	response  string
	err       error
	lastReq   genai.CompletionRequest
	callCount int
}

func (m *mockGenAI) Generate(_ context.Context, req genai.CompletionRequest) (string, error) {
	m.callCount++
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func testComposer(t *testing.T, mock *mockGenAI) *Composer {
	t.Helper()
	kb, err := knowledge.Parse([]byte(testKB))
	if err != nil {
		t.Fatalf("parse knowledge base: %v", err)
	}
	return NewComposer(kb, mock)
}

func TestComposeEmbedsProfileAndHistory(t *testing.T) {
	mock := &mockGenAI{response: "  We offer customer service outsourcing.  "}
	c := testComposer(t, mock)

	profile := &models.CustomerProfile{Name: "Jane", Phone: "5551234567"}
	history := []models.Turn{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "hi, how can I help?"},
	}
	reply := c.Compose(context.Background(), "what services do you offer?", profile, history,
		models.IntentClassification{Intent: models.IntentServiceInquiry})

	if reply.Text != "We offer customer service outsourcing." {
		t.Errorf("expected trimmed completion text, got %q", reply.Text)
	}
	for _, want := range []string{"Jane", "5551234567", "RECENT CONVERSATION", "CCI Assistant: hi, how can I help?"} {
		if !strings.Contains(mock.lastReq.UserPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if mock.lastReq.Temperature != 0.7 {
		t.Errorf("unexpected temperature: %v", mock.lastReq.Temperature)
	}
}

func TestComposeKnowledgeSubsetByIntent(t *testing.T) {
	mock := &mockGenAI{response: "ok"}
	c := testComposer(t, mock)
	profile := &models.CustomerProfile{}

	c.Compose(context.Background(), "what do you do?", profile, nil,
		models.IntentClassification{Intent: models.IntentServiceInquiry})
	if !strings.Contains(mock.lastReq.UserPrompt, "customer_service") {
		t.Error("service inquiry prompt should include the services section")
	}
	if strings.Contains(mock.lastReq.UserPrompt, "available_positions") {
		t.Error("service inquiry prompt should not include careers")
	}

	c.Compose(context.Background(), "jobs?", profile, nil,
		models.IntentClassification{Intent: models.IntentGeneralCareerInquiry})
	if !strings.Contains(mock.lastReq.UserPrompt, "available_positions") {
		t.Error("career prompt should include the careers section")
	}
}

func TestComposeIntentSuggestions(t *testing.T) {
	mock := &mockGenAI{response: "hello!"}
	c := testComposer(t, mock)

	reply := c.Compose(context.Background(), "hi", &models.CustomerProfile{}, nil,
		models.IntentClassification{Intent: models.IntentGreeting})
	if len(reply.Suggestions) == 0 || reply.Suggestions[0] != "What services do you offer?" {
		t.Errorf("unexpected greeting suggestions: %v", reply.Suggestions)
	}

	reply = c.Compose(context.Background(), "???", &models.CustomerProfile{}, nil,
		models.IntentClassification{Intent: models.IntentOther})
	if len(reply.Suggestions) == 0 || reply.Suggestions[0] != "How can I help you?" {
		t.Errorf("unexpected default suggestions: %v", reply.Suggestions)
	}
}

func TestComposeProviderFailureFallback(t *testing.T) {
	mock := &mockGenAI{err: errors.New("provider down")}
	c := testComposer(t, mock)

	reply := c.Compose(context.Background(), "hi", &models.CustomerProfile{}, nil,
		models.IntentClassification{Intent: models.IntentGreeting})

	if reply.Text != fallbackReplyText {
		t.Errorf("expected fixed fallback text, got %q", reply.Text)
	}
	if len(reply.Suggestions) != 3 {
		t.Errorf("expected generic fallback suggestions, got %v", reply.Suggestions)
	}
	if mock.callCount != 1 {
		t.Errorf("no retries expected, got %d calls", mock.callCount)
	}
}
