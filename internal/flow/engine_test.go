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

// queueGenAI returns queued responses in order, repeating the last.
type queueGenAI struct {
	responses []string
	err       error
	calls     int
}

func (m *queueGenAI) Generate(_ context.Context, _ genai.CompletionRequest) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", errors.New("unexpected provider call")
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func testEngine(t *testing.T, mock genai.ClientInterface) *Engine {
	t.Helper()
	kb, err := knowledge.Parse([]byte(testKB))
	if err != nil {
		t.Fatalf("parse knowledge base: %v", err)
	}
	return NewEngine(kb, mock)
}

func TestRespondCareerInquiryBypassesProvider(t *testing.T) {
	mock := &queueGenAI{}
	e := testEngine(t, mock)
	profile := &models.CustomerProfile{}

	reply := e.Respond(context.Background(), "do you have any job openings?", profile, nil)

	if mock.calls != 0 {
		t.Errorf("keyword path must not call the provider, got %d calls", mock.calls)
	}
	if !strings.Contains(reply.Text, "1. Customer Service Representative") {
		t.Errorf("expected position listing, got %q", reply.Text)
	}
	if profile.Context.LastIntent == nil || profile.Context.LastIntent.Intent != models.IntentGeneralCareerInquiry {
		t.Error("classification must be cached on the profile")
	}
}

func TestRespondGreetsByName(t *testing.T) {
	mock := &queueGenAI{}
	e := testEngine(t, mock)
	profile := &models.CustomerProfile{Name: "Jane"}

	reply := e.Respond(context.Background(), "I want to work at CCI", profile, nil)

	if !strings.HasPrefix(reply.Text, "Hey Jane! ") {
		t.Errorf("expected personalised greeting, got %q", reply.Text)
	}
}

func TestRespondFallsThroughToComposer(t *testing.T) {
	classification := `{"intent": "greeting", "confidence": 0.9}`
	mock := &queueGenAI{responses: []string{classification, "Welcome to CCI Global! How can I help?"}}
	e := testEngine(t, mock)
	profile := &models.CustomerProfile{}

	reply := e.Respond(context.Background(), "hello there", profile, nil)

	if mock.calls != 2 {
		t.Fatalf("expected classification + composition calls, got %d", mock.calls)
	}
	if reply.Text != "Welcome to CCI Global! How can I help?" {
		t.Errorf("unexpected reply: %q", reply.Text)
	}
	if profile.Context.LastIntent.Intent != models.IntentGreeting {
		t.Errorf("cached intent wrong: %+v", profile.Context.LastIntent)
	}
}

func TestRespondProviderOutageStillReplies(t *testing.T) {
	mock := &queueGenAI{err: errors.New("provider down")}
	e := testEngine(t, mock)
	profile := &models.CustomerProfile{}

	reply := e.Respond(context.Background(), "hello there", profile, nil)

	if reply.Text != fallbackReplyText {
		t.Errorf("expected fallback text, got %q", reply.Text)
	}
	if profile.Context.LastIntent == nil || profile.Context.LastIntent.Intent != models.IntentOther {
		t.Error("fallback classification must still be cached")
	}
}

func TestRespondMidCollectionClaimsInput(t *testing.T) {
	// While a field is pending, the next message answers the prompt even
	// when the resolver cannot classify it as a career intent.
	mock := &queueGenAI{err: errors.New("provider down")}
	e := testEngine(t, mock)
	profile := &models.CustomerProfile{
		SelectedPosition: "Customer Service Representative",
		Context: models.ConversationContext{
			CollectingInfo: true,
			WaitingFor:     models.WaitingForName,
		},
	}

	reply := e.Respond(context.Background(), "Jane Smith", profile, nil)

	if profile.Name != "Jane Smith" {
		t.Fatalf("expected name recorded, got %q", profile.Name)
	}
	if profile.Context.WaitingFor != models.WaitingForPhone {
		t.Errorf("expected phone collection next, got %q", profile.Context.WaitingFor)
	}
	if !strings.Contains(reply.Text, "phone") {
		t.Errorf("expected phone prompt, got %q", reply.Text)
	}
}

func TestRespondContinuationFromSelection(t *testing.T) {
	// A continuation token resumes the flow when the profile has a
	// selection, even without marker evidence in the history.
	mock := &queueGenAI{err: errors.New("provider down")}
	e := testEngine(t, mock)
	profile := &models.CustomerProfile{SelectedPosition: "Customer Service Representative"}

	reply := e.Respond(context.Background(), "yes, I want to apply", profile, nil)

	if !profile.Context.CollectingInfo || profile.Context.WaitingFor != models.WaitingForName {
		t.Fatalf("expected collection to start, got %+v", profile.Context)
	}
	if !strings.Contains(reply.Text, "full name") {
		t.Errorf("expected name prompt, got %q", reply.Text)
	}
}

func TestRespondApplicationStateAcrossTurns(t *testing.T) {
	mock := &queueGenAI{}
	e := testEngine(t, mock)
	profile := &models.CustomerProfile{}

	// Select a position by asking about it.
	e.Respond(context.Background(), "I want the customer service representative job", profile, nil)
	if profile.SelectedPosition == "" {
		t.Fatal("position selection not recorded")
	}

	// History mentioning the stored selection enables continuation.
	history := []models.Turn{
		{Role: models.RoleAssistant, Content: `{"selected_position":"Customer Service Representative"}`},
	}
	reply := e.Respond(context.Background(), "yes, apply now", profile, history)
	if profile.Context.WaitingFor != models.WaitingForName {
		t.Fatalf("expected name collection to start, got %q", profile.Context.WaitingFor)
	}
	if !strings.Contains(reply.Text, "full name") {
		t.Errorf("expected name prompt, got %q", reply.Text)
	}
	if mock.calls != 0 {
		t.Errorf("deterministic flow must not call the provider, got %d calls", mock.calls)
	}
}

func TestRespondCompletedProfileStaysComplete(t *testing.T) {
	classification := `{"intent": "other", "confidence": 0.6}`
	mock := &queueGenAI{responses: []string{classification, "Happy to help with anything else!"}}
	e := testEngine(t, mock)
	profile := &models.CustomerProfile{
		Name:             "Jane Doe",
		Phone:            "5551234567",
		Email:            "jane@example.com",
		IsComplete:       true,
		SelectedPosition: "Technical Support Specialist",
	}

	// The confirmation reply offers this chip; it must not reopen collection.
	e.Respond(context.Background(), "Can I apply for another role?", profile, nil)
	if profile.Context.CollectingInfo {
		t.Error("completed profile must not re-enter collection")
	}

	e.Respond(context.Background(), "Bob Hacker", profile, nil)
	if profile.Name != "Jane Doe" {
		t.Errorf("name overwritten after completion: %q", profile.Name)
	}
	if err := profile.Validate(); err != nil {
		t.Errorf("profile invariants violated: %v", err)
	}
}
