// Package intent classifies user messages into the intents that drive
// response selection.
//
// Cheap deterministic rules short-circuit the career and application flows,
// which must behave predictably because they mutate the customer profile. An
// LLM classification call is the fallback for everything else, and any
// failure there degrades to a default intent rather than an error: the
// resolver never fails.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/genai"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/knowledge"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
)

// careerKeywords trigger the deterministic career classification path.
var careerKeywords = []string{
	"join", "career", "job", "position", "vacancy", "hiring",
	"work", "employment", "opportunity", "want to work",
}

// continuationTokens signal the user wants to proceed with an application.
var continuationTokens = []string{"apply", "yes", "how to apply"}

// selectedPositionMarker is the serialized-profile key scanned for in history
// turns as evidence that a position was already chosen.
const selectedPositionMarker = "selected_position"

// historyContextTurns bounds how much history the LLM classifier sees.
const historyContextTurns = 3

// Classification parameters for the LLM fallback.
const (
	classifyTemperature = 0.3
	classifyMaxTokens   = 200
)

// Resolver turns raw user text plus recent history into an intent
// classification.
type Resolver struct {
	kb          *knowledge.KnowledgeBase
	genaiClient genai.ClientInterface
}

// NewResolver creates an intent resolver over the knowledge base and the
// shared provider client.
func NewResolver(kb *knowledge.KnowledgeBase, genaiClient genai.ClientInterface) *Resolver {
	return &Resolver{kb: kb, genaiClient: genaiClient}
}

// fallbackClassification is the fail-soft result returned when the LLM call
// fails or produces malformed output.
func fallbackClassification() models.IntentClassification {
	return models.IntentClassification{
		Intent:                models.IntentOther,
		Confidence:            0.5,
		Entities:              map[string]string{},
		SuggestedResponseType: models.ResponseTypeConversational,
	}
}

// ContinuationClassification is the fixed result for a user proceeding with
// an in-progress application.
func ContinuationClassification() models.IntentClassification {
	return models.IntentClassification{
		Intent:                 models.IntentApplicationContinue,
		Confidence:             0.95,
		Entities:               map[string]string{},
		RequiresInfoCollection: true,
		SuggestedResponseType:  models.ResponseTypeApplicationStep,
	}
}

// HasContinuationToken reports whether the input signals the user wants to
// proceed with an application.
func HasContinuationToken(userInput string) bool {
	return containsAny(strings.ToLower(userInput), continuationTokens)
}

// Classify determines the user's intent. It never returns an error:
// classification failure degrades to the default intent.
func (r *Resolver) Classify(ctx context.Context, userInput string, history []models.Turn) models.IntentClassification {
	inputLower := strings.ToLower(userInput)

	// Continuation check first, so "yes, apply now" cannot reset an
	// in-progress application back to the listing.
	if containsAny(inputLower, continuationTokens) && historyMentionsSelection(history) {
		slog.Debug("Resolver.Classify: application continuation detected")
		return ContinuationClassification()
	}

	if containsAny(inputLower, careerKeywords) {
		for _, key := range r.kb.PositionKeys() {
			pos, _ := r.kb.Position(key)
			title := strings.ToLower(pos.Title)
			if title != "" && strings.Contains(inputLower, title) {
				slog.Debug("Resolver.Classify: specific position matched", "position_key", key)
				return models.IntentClassification{
					Intent:     models.IntentSpecificPositionInquiry,
					Confidence: 0.95,
					Entities: map[string]string{
						models.EntityJobPosition: pos.Title,
						models.EntityPositionKey: key,
					},
					SuggestedResponseType: models.ResponseTypePositionDetails,
				}
			}
		}

		slog.Debug("Resolver.Classify: general career inquiry detected")
		return models.IntentClassification{
			Intent:                models.IntentGeneralCareerInquiry,
			Confidence:            0.9,
			Entities:              map[string]string{},
			SuggestedResponseType: models.ResponseTypeShowAllPositions,
		}
	}

	return r.classifyWithLLM(ctx, userInput, history)
}

// containsAny reports whether input contains any of the tokens as a
// case-insensitive substring. Input must already be lowercased.
func containsAny(inputLower string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(inputLower, token) {
			return true
		}
	}
	return false
}

// historyMentionsSelection scans the serialized history for evidence that a
// position was already selected.
func historyMentionsSelection(history []models.Turn) bool {
	for _, turn := range history {
		data, err := json.Marshal(turn)
		if err != nil {
			continue
		}
		if strings.Contains(string(data), selectedPositionMarker) {
			return true
		}
	}
	return false
}

// classifyWithLLM asks the completion provider for a strict-JSON
// classification over the fixed taxonomy. Any failure falls back to the
// default classification.
func (r *Resolver) classifyWithLLM(ctx context.Context, userInput string, history []models.Turn) models.IntentClassification {
	historyContext := formatHistoryContext(history)

	userPrompt := fmt.Sprintf(`You are an intent classifier for CCI Global, a BPO services company.
Analyze the user's message and classify their intent. Return a JSON response with the following structure:

{
    "intent": "one of: greeting, service_inquiry, support_request, information_gathering, other",
    "confidence": 0.0-1.0,
    "entities": {
        "service_type": "if mentioned: customer_service, technical_support, omnichannel, digital_transformation, etc.",
        "information_needed": "what specific info they're asking for"
    },
    "requires_info_collection": false,
    "suggested_response_type": "conversational, informational, detailed_explanation"
}

Recent conversation context:
%s

Current user message: "%s"

Guidelines:
- greeting: hi, hello, etc.
- service_inquiry: asking about CCI's services, capabilities, pricing
- support_request: need help with something specific
- information_gathering: asking for general information about CCI
- other: anything else`, historyContext, userInput)

	response, err := r.genaiClient.Generate(ctx, genai.CompletionRequest{
		SystemPrompt: "You are an intent classification system. Return only valid JSON.",
		UserPrompt:   userPrompt,
		Temperature:  classifyTemperature,
		MaxTokens:    classifyMaxTokens,
	})
	if err != nil {
		slog.Error("Resolver.classifyWithLLM: classification call failed", "error", err)
		return fallbackClassification()
	}

	var result models.IntentClassification
	if err := json.Unmarshal([]byte(extractJSON(response)), &result); err != nil {
		slog.Error("Resolver.classifyWithLLM: malformed classification JSON", "error", err)
		return fallbackClassification()
	}
	if result.Intent == "" {
		slog.Warn("Resolver.classifyWithLLM: classification missing intent, using fallback")
		return fallbackClassification()
	}
	if result.Entities == nil {
		result.Entities = map[string]string{}
	}

	slog.Debug("Resolver.classifyWithLLM: classification received", "intent", result.Intent, "confidence", result.Confidence)
	return result
}

// formatHistoryContext renders the last few turns as a readable transcript
// for the classification prompt.
func formatHistoryContext(history []models.Turn) string {
	if len(history) == 0 {
		return ""
	}
	start := len(history) - historyContextTurns
	if start < 0 {
		start = 0
	}

	var lines []string
	for _, turn := range history[start:] {
		speaker := "User"
		if turn.Role == models.RoleAssistant {
			speaker = "Assistant"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, turn.Content))
	}
	return strings.Join(lines, "\n")
}

// extractJSON strips markdown code fences some models wrap around JSON.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
