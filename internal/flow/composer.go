package flow

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

// Generation parameters for composed replies.
const (
	composeTemperature = 0.7
	composeMaxTokens   = 250
)

// composeContextTurns bounds how much history the composer embeds in its
// prompt.
const composeContextTurns = 3

// fallbackReplyText is returned verbatim whenever composition fails.
const fallbackReplyText = "Hi! I'm here to help with CCI Global. What would you like to know?"

var fallbackSuggestions = []string{"Tell me about your services", "Are you hiring?", "How can you help me?"}

// systemPromptsByIntent selects the persona for the completion call.
var systemPromptsByIntent = map[string]string{
	models.IntentGreeting:             "You are a friendly CCI Global representative. Welcome users warmly and ask how you can help.",
	models.IntentServiceInquiry:       "You are a knowledgeable CCI Global sales representative. Provide detailed service information.",
	models.IntentSupportRequest:       "You are a helpful CCI Global support representative providing assistance.",
	models.IntentInformationGathering: "You are an informative CCI Global representative sharing accurate company information.",
	models.IntentOther:                "You are a professional CCI Global representative providing helpful assistance.",
}

// Composer produces free-form replies grounded in the knowledge base via the
// completion provider. It is the fallback for every input the slot-filler
// does not handle.
type Composer struct {
	kb          *knowledge.KnowledgeBase
	genaiClient genai.ClientInterface
}

// NewComposer creates a composer over the knowledge base and the shared
// provider client.
func NewComposer(kb *knowledge.KnowledgeBase, genaiClient genai.ClientInterface) *Composer {
	return &Composer{kb: kb, genaiClient: genaiClient}
}

// Compose generates a knowledge-grounded reply. It never returns an error:
// provider failure degrades to a fixed fallback reply.
func (c *Composer) Compose(ctx context.Context, userInput string, profile *models.CustomerProfile, history []models.Turn, classification models.IntentClassification) models.Reply {
	intent := classification.Intent
	systemPrompt, ok := systemPromptsByIntent[intent]
	if !ok {
		systemPrompt = systemPromptsByIntent[models.IntentOther]
	}

	kbJSON, err := json.MarshalIndent(c.relevantKnowledge(intent), "", "  ")
	if err != nil {
		slog.Error("Composer.Compose: knowledge serialization failed", "error", err)
		return fallbackReply()
	}

	prompt := fmt.Sprintf(`%s

CURRENT USER MESSAGE: "%s"

CONVERSATION CONTEXT:
%s

CCI GLOBAL KNOWLEDGE BASE:
%s

RESPONSE GUIDELINES:
1. Be conversational and friendly
2. Use information from the CCI Global knowledge base only
3. Address the user by name if available: %s
4. Keep responses helpful and engaging
5. Always offer to help further
6. Be specific about CCI's services and capabilities
7. Do not ask about background, experience, or skills during the application process
8. Adapt responses based on the current conversation stage (e.g., position selection, application)`,
		systemPrompt, userInput, buildConversationContext(history, profile), kbJSON, profile.Name)

	text, err := c.genaiClient.Generate(ctx, genai.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Temperature:  composeTemperature,
		MaxTokens:    composeMaxTokens,
	})
	if err != nil {
		slog.Error("Composer.Compose: completion failed", "intent", intent, "error", err)
		return fallbackReply()
	}

	return models.Reply{
		Text:        strings.TrimSpace(text),
		Suggestions: suggestionsFor(intent),
	}
}

func fallbackReply() models.Reply {
	return models.Reply{Text: fallbackReplyText, Suggestions: fallbackSuggestions}
}

// relevantKnowledge subsets the knowledge base by intent so prompts stay
// small. Company and contact info are always included.
func (c *Composer) relevantKnowledge(intent string) map[string]json.RawMessage {
	names := []string{knowledge.SectionCompany, knowledge.SectionContactInfo}
	switch {
	case intent == models.IntentServiceInquiry:
		names = append(names, knowledge.SectionServices, knowledge.SectionIndustries, knowledge.SectionLocations)
	case strings.Contains(intent, "career") || intent == models.IntentApplicationContinue:
		names = append(names, knowledge.SectionCareers, knowledge.SectionLocations)
	case intent == models.IntentInformationGathering:
		names = append(names, knowledge.SectionServices, knowledge.SectionTeam, knowledge.SectionLocations)
	default:
		names = append(names, knowledge.SectionServices)
	}
	return c.kb.Subset(names...)
}

// buildConversationContext renders present profile fields and the last few
// turns for the composition prompt.
func buildConversationContext(history []models.Turn, profile *models.CustomerProfile) string {
	var parts []string
	if profile.Name != "" || profile.Email != "" || profile.Phone != "" || profile.SelectedPosition != "" {
		parts = append(parts, "CUSTOMER INFO:")
		if profile.Name != "" {
			parts = append(parts, "- Name: "+profile.Name)
		}
		if profile.Email != "" {
			parts = append(parts, "- Email: "+profile.Email)
		}
		if profile.Phone != "" {
			parts = append(parts, "- Phone: "+profile.Phone)
		}
		if profile.SelectedPosition != "" {
			parts = append(parts, "- Interested Position: "+profile.SelectedPosition)
		}
	}

	if len(history) > 0 {
		parts = append(parts, "\nRECENT CONVERSATION:")
		start := len(history) - composeContextTurns
		if start < 0 {
			start = 0
		}
		for _, turn := range history[start:] {
			role := "Customer"
			if turn.Role == models.RoleAssistant {
				role = "CCI Assistant"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", role, turn.Content))
		}
	}

	return strings.Join(parts, "\n")
}
