package flow

import (
	"context"
	"log/slog"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/genai"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/intent"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/knowledge"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
)

// Engine orchestrates one chat turn: classify, try the deterministic
// application flow, fall back to the composer. It never returns an error;
// every failure path ends in a usable reply.
type Engine struct {
	resolver *intent.Resolver
	appFlow  *ApplicationFlow
	composer *Composer
}

// NewEngine wires the engine over the knowledge base and the shared provider
// client.
func NewEngine(kb *knowledge.KnowledgeBase, genaiClient genai.ClientInterface) *Engine {
	return &Engine{
		resolver: intent.NewResolver(kb, genaiClient),
		appFlow:  NewApplicationFlow(kb),
		composer: NewComposer(kb, genaiClient),
	}
}

// Respond produces the reply for one user message. The profile is mutated in
// place (selection, collected fields, cached classification); the caller
// persists it.
func (e *Engine) Respond(ctx context.Context, userInput string, profile *models.CustomerProfile, history []models.Turn) models.Reply {
	classification := e.resolver.Classify(ctx, userInput, history)

	// The resolver only sees input and history; the profile is stronger
	// evidence of an in-progress application. A pending field always claims
	// the next message, and a continuation token after a recorded selection
	// resumes the flow rather than resetting it. A complete profile is not
	// an in-progress application.
	if !profile.IsComplete && !models.IsCareerIntent(classification.Intent) &&
		(profile.Context.CollectingInfo ||
			(profile.SelectedPosition != "" && intent.HasContinuationToken(userInput))) {
		classification = intent.ContinuationClassification()
	}
	profile.Context.LastIntent = &classification

	slog.Debug("Engine.Respond: dispatching", "intent", classification.Intent, "confidence", classification.Confidence)

	if models.IsCareerIntent(classification.Intent) {
		if reply, handled := e.appFlow.Advance(userInput, profile, classification); handled {
			return reply
		}
	}

	return e.composer.Compose(ctx, userInput, profile, history, classification)
}
