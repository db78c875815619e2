package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/genai"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/knowledge"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
)

const testKB = `{
	"company": {"name": "CCI Global"},
	"careers": {
		"available_positions": {
			"customer_service_representative": {
				"title": "Customer Service Representative",
				"location": "Nairobi, Kenya",
				"description": "Handle customer inquiries."
			},
			"technical_support_specialist": {
				"title": "Technical Support Specialist",
				"location": "Cape Town, South Africa",
				"description": "Resolve technical issues."
			}
		}
	}
}`

// mockGenAI returns a canned response or error for Generate.
type mockGenAI struct {
	response   string
	err        error
	lastPrompt string
	called     bool
}

func (m *mockGenAI) Generate(_ context.Context, req genai.CompletionRequest) (string, error) {
	m.called = true
	m.lastPrompt = req.UserPrompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestResolver(t *testing.T, mock *mockGenAI) *Resolver {
	t.Helper()
	kb, err := knowledge.Parse([]byte(testKB))
	if err != nil {
		t.Fatalf("parse knowledge base: %v", err)
	}
	return NewResolver(kb, mock)
}

func TestClassifyCareerKeyword(t *testing.T) {
	mock := &mockGenAI{}
	r := newTestResolver(t, mock)

	result := r.Classify(context.Background(), "I want a job at CCI", nil)

	if result.Intent != models.IntentGeneralCareerInquiry {
		t.Errorf("expected %s, got %s", models.IntentGeneralCareerInquiry, result.Intent)
	}
	if result.SuggestedResponseType != models.ResponseTypeShowAllPositions {
		t.Errorf("expected show_all_positions response type, got %s", result.SuggestedResponseType)
	}
	if mock.called {
		t.Error("LLM should not be called for keyword-matched input")
	}
}

func TestClassifySpecificPosition(t *testing.T) {
	mock := &mockGenAI{}
	r := newTestResolver(t, mock)

	result := r.Classify(context.Background(), "tell me about the Customer Service Representative job", nil)

	if result.Intent != models.IntentSpecificPositionInquiry {
		t.Fatalf("expected %s, got %s", models.IntentSpecificPositionInquiry, result.Intent)
	}
	if result.Entities[models.EntityPositionKey] != "customer_service_representative" {
		t.Errorf("unexpected position key: %s", result.Entities[models.EntityPositionKey])
	}
	if result.Entities[models.EntityJobPosition] != "Customer Service Representative" {
		t.Errorf("unexpected position title: %s", result.Entities[models.EntityJobPosition])
	}
}

func TestClassifyApplicationContinuation(t *testing.T) {
	mock := &mockGenAI{}
	r := newTestResolver(t, mock)

	history := []models.Turn{
		{Role: models.RoleAssistant, Content: `Position saved: {"selected_position":"customer_service_representative"}`},
	}
	result := r.Classify(context.Background(), "Yes, I want to apply", history)

	if result.Intent != models.IntentApplicationContinue {
		t.Fatalf("expected %s, got %s", models.IntentApplicationContinue, result.Intent)
	}
	if !result.RequiresInfoCollection {
		t.Error("continuation should require info collection")
	}
	if result.Confidence != 0.95 {
		t.Errorf("expected confidence 0.95, got %v", result.Confidence)
	}
}

func TestClassifyContinuationRequiresHistory(t *testing.T) {
	// "apply" with no selection in history falls through to the career
	// keyword path rather than continuing a nonexistent application.
	mock := &mockGenAI{}
	r := newTestResolver(t, mock)

	result := r.Classify(context.Background(), "how to apply for a job", nil)

	if result.Intent == models.IntentApplicationContinue {
		t.Error("continuation must not trigger without a prior position selection")
	}
}

func TestClassifyLLMFallbackPath(t *testing.T) {
	mock := &mockGenAI{response: `{"intent": "greeting", "confidence": 0.9, "entities": {}, "requires_info_collection": false, "suggested_response_type": "conversational"}`}
	r := newTestResolver(t, mock)

	history := []models.Turn{
		{Role: models.RoleUser, Content: "something earlier"},
	}
	result := r.Classify(context.Background(), "hello there", history)

	if !mock.called {
		t.Fatal("expected LLM classification call")
	}
	if result.Intent != models.IntentGreeting {
		t.Errorf("expected greeting, got %s", result.Intent)
	}
}

func TestClassifyLLMFencedJSON(t *testing.T) {
	mock := &mockGenAI{response: "```json\n{\"intent\": \"service_inquiry\", \"confidence\": 0.8}\n```"}
	r := newTestResolver(t, mock)

	result := r.Classify(context.Background(), "what can you do for my business", nil)

	if result.Intent != models.IntentServiceInquiry {
		t.Errorf("expected service_inquiry, got %s", result.Intent)
	}
	if result.Entities == nil {
		t.Error("entities map should be initialized")
	}
}

func TestClassifyLLMError(t *testing.T) {
	mock := &mockGenAI{err: errors.New("provider unavailable")}
	r := newTestResolver(t, mock)

	result := r.Classify(context.Background(), "hello", nil)

	if result.Intent != models.IntentOther {
		t.Errorf("expected fallback intent %s, got %s", models.IntentOther, result.Intent)
	}
	if result.Confidence != 0.5 {
		t.Errorf("expected fallback confidence 0.5, got %v", result.Confidence)
	}
}

func TestClassifyLLMMalformedJSON(t *testing.T) {
	mock := &mockGenAI{response: "I think the user is greeting you."}
	r := newTestResolver(t, mock)

	result := r.Classify(context.Background(), "hello", nil)

	if result.Intent != models.IntentOther {
		t.Errorf("expected fallback intent, got %s", result.Intent)
	}
}

func TestFormatHistoryContext(t *testing.T) {
	history := []models.Turn{
		{Role: models.RoleUser, Content: "one"},
		{Role: models.RoleAssistant, Content: "two"},
		{Role: models.RoleUser, Content: "three"},
		{Role: models.RoleAssistant, Content: "four"},
	}
	got := formatHistoryContext(history)
	want := "Assistant: two\nUser: three\nAssistant: four"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
