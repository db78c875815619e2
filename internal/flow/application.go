// Package flow implements the conversational engine: the deterministic
// job-application slot-filler, the LLM-backed response composer, and the
// chat engine that dispatches between them.
package flow

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/knowledge"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
)

// nameStopwords reject inputs that read like sentences rather than names
// ("I am John", "my name is ...") when a bare name is expected.
var nameStopwords = map[string]bool{
	"i": true, "my": true, "the": true, "a": true,
	"can": true, "what": true, "how": true,
}

// maxNameWords bounds how many whitespace-separated tokens a bare name may
// have before it is treated as a sentence.
const maxNameWords = 4

var (
	phoneRunRe    = regexp.MustCompile(`\d{10}`)
	nonPhoneRe    = regexp.MustCompile(`[^\d+]`)
	atWordRe      = regexp.MustCompile(`(?i)\bat\b`)
	dotWordRe     = regexp.MustCompile(`\bdot\b`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	emailValidate = validator.New()
)

// suggestionsByIntent holds the fixed suggestion chips returned with each
// intent's reply. Suggestions are never model output.
var suggestionsByIntent = map[string][]string{
	models.IntentGreeting:                {"What services do you offer?", "Are you hiring?", "Tell me about CCI Global"},
	models.IntentServiceInquiry:          {"What industries do you serve?", "How do you ensure quality?", "What's your process?"},
	models.IntentGeneralCareerInquiry:    {"1 - Tell me more", "2 - I want to apply", "What skills do you need?"},
	models.IntentSpecificPositionInquiry: {"Yes, apply now!", "What are the requirements?", "Show another position"},
	models.IntentApplicationContinue:     {"My name is [Your Full Name]", "Can I get more details?", "What's next?"},
}

// genericSuggestions is the default chip set when no intent-specific set
// applies.
var genericSuggestions = []string{"How can I help you?", "Tell me about your services", "Are there jobs?"}

// suggestionsFor returns the fixed suggestion set for an intent, defaulting
// to the generic set.
func suggestionsFor(intent string) []string {
	if s, ok := suggestionsByIntent[intent]; ok {
		return s
	}
	return genericSuggestions
}

// greetingFor returns the personalised greeting prefix used on career-flow
// replies.
func greetingFor(profile *models.CustomerProfile) string {
	if profile.Name != "" {
		return fmt.Sprintf("Hey %s! ", profile.Name)
	}
	return "Hi there! "
}

// ApplicationFlow is the deterministic multi-turn slot-filler that collects
// an applicant's name, phone, and email for a selected position. It mutates
// the profile in place; callers persist it.
type ApplicationFlow struct {
	kb *knowledge.KnowledgeBase
}

// NewApplicationFlow creates the slot-filler over the knowledge base.
func NewApplicationFlow(kb *knowledge.KnowledgeBase) *ApplicationFlow {
	return &ApplicationFlow{kb: kb}
}

// Advance runs one step of the career/application flow. It returns the
// reply and whether the input was handled; unhandled inputs fall through to
// the composer.
func (f *ApplicationFlow) Advance(userInput string, profile *models.CustomerProfile, classification models.IntentClassification) (models.Reply, bool) {
	switch classification.Intent {
	case models.IntentGeneralCareerInquiry:
		return f.listPositions(profile), true

	case models.IntentSpecificPositionInquiry:
		return f.positionDetails(profile, classification)

	case models.IntentApplicationContinue:
		return f.collectField(userInput, profile)
	}

	return models.Reply{}, false
}

// listPositions renders the numbered listing of all open positions.
func (f *ApplicationFlow) listPositions(profile *models.CustomerProfile) models.Reply {
	keys := f.kb.PositionKeys()
	if len(keys) == 0 {
		return models.Reply{
			Text:        greetingFor(profile) + "Sorry, no positions are available right now. Please check back later or visit www.cciglobal.com!",
			Suggestions: suggestionsFor(models.IntentGeneralCareerInquiry),
		}
	}

	var b strings.Builder
	b.WriteString(greetingFor(profile))
	b.WriteString("Hey! Excited to see you want to work at CCI Global! Here are our current openings:\n\n")
	for i, key := range keys {
		pos, _ := f.kb.Position(key)
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, pos.Title, pos.Location)
	}
	b.WriteString("\nWhich one interests you? Just say the number or name, and I'll give you details or help you apply!")

	return models.Reply{
		Text:        b.String(),
		Suggestions: suggestionsFor(models.IntentGeneralCareerInquiry),
	}
}

// positionDetails shows a specific position and records it as the user's
// selection when none was made yet.
func (f *ApplicationFlow) positionDetails(profile *models.CustomerProfile, classification models.IntentClassification) (models.Reply, bool) {
	positionKey := classification.Entities[models.EntityPositionKey]
	pos, ok := f.kb.Position(positionKey)
	if !ok {
		slog.Debug("ApplicationFlow.positionDetails: unknown position key", "position_key", positionKey)
		return models.Reply{}, false
	}

	if profile.SelectedPosition == "" {
		profile.SelectedPosition = classification.Entities[models.EntityJobPosition]
		profile.Context.ApplicationStage = models.StageShowDetails
	}

	text := greetingFor(profile) + fmt.Sprintf(
		"Cool! Here's the scoop on the %s role:\n- Location: %s\n- Description: %s\nInterested? Say 'Yes' to apply, or ask me more!",
		pos.Title, pos.Location, pos.Description)

	return models.Reply{
		Text:        text,
		Suggestions: suggestionsFor(models.IntentSpecificPositionInquiry),
	}, true
}

// collectField runs the name → phone → email collection state machine.
func (f *ApplicationFlow) collectField(userInput string, profile *models.CustomerProfile) (models.Reply, bool) {
	// A submitted application stays submitted. Name, phone and email are
	// write-once; the flow never restarts over a complete profile.
	if profile.IsComplete {
		return models.Reply{
			Text: fmt.Sprintf(
				"You're all set, %s! Your application for %s is already in, and our team will reach out within 3-5 days. Feel free to mention any other roles you're interested in when they do!",
				profile.Name, profile.SelectedPosition),
			Suggestions: []string{"When will I hear back?", "Tell me about CCI Global", "What services do you offer?"},
		}, true
	}

	if profile.SelectedPosition == "" {
		return models.Reply{
			Text:        "Oops! It seems you haven't picked a position yet. " + f.pickPositionHint(),
			Suggestions: f.positionSuggestions(),
		}, true
	}

	if !profile.Context.CollectingInfo {
		profile.Context.CollectingInfo = true
		profile.Context.WaitingFor = models.WaitingForName
		return models.Reply{
			Text:          fmt.Sprintf("Awesome! Let's get you started for %s. What's your full name?", profile.SelectedPosition),
			Suggestions:   suggestionsFor(models.IntentApplicationContinue),
			RequiresInfo:  true,
			MissingFields: []string{"name"},
		}, true
	}

	switch profile.Context.WaitingFor {
	case models.WaitingForName:
		return f.collectName(userInput, profile), true
	case models.WaitingForPhone:
		return f.collectPhone(userInput, profile), true
	case models.WaitingForEmail:
		return f.collectEmail(userInput, profile), true
	}

	slog.Debug("ApplicationFlow.collectField: no field expected, deferring to composer")
	return models.Reply{}, false
}

func (f *ApplicationFlow) collectName(userInput string, profile *models.CustomerProfile) models.Reply {
	trimmed := strings.TrimSpace(userInput)
	words := strings.Fields(trimmed)
	firstWord := ""
	if len(words) > 0 {
		firstWord = strings.ToLower(words[0])
	}

	if len(words) == 0 || len(words) > maxNameWords || nameStopwords[firstWord] {
		return models.Reply{
			Text:          "Hmm, that doesn't look like a name. What's your full name?",
			Suggestions:   suggestionsFor(models.IntentApplicationContinue),
			RequiresInfo:  true,
			MissingFields: []string{"name"},
		}
	}

	profile.Name = trimmed
	profile.Context.WaitingFor = models.WaitingForPhone
	slog.Debug("ApplicationFlow.collectName: name recorded", "name", profile.Name)
	return models.Reply{
		Text:          fmt.Sprintf("Thanks, %s! What's your phone number?", profile.Name),
		Suggestions:   []string{"My number is [phone number]", "Can we skip this?", "What's after this?"},
		RequiresInfo:  true,
		MissingFields: []string{"phone"},
	}
}

func (f *ApplicationFlow) collectPhone(userInput string, profile *models.CustomerProfile) models.Reply {
	compact := strings.NewReplacer("-", "", " ", "", "(", "", ")", "").Replace(userInput)
	if !phoneRunRe.MatchString(compact) {
		return models.Reply{
			Text:          "That doesn't look like a valid phone number. Please share a 10-digit number.",
			Suggestions:   []string{"My number is [phone number]", "Can we skip this?", "What's after this?"},
			RequiresInfo:  true,
			MissingFields: []string{"phone"},
		}
	}

	profile.Phone = nonPhoneRe.ReplaceAllString(userInput, "")
	profile.Context.WaitingFor = models.WaitingForEmail
	slog.Debug("ApplicationFlow.collectPhone: phone recorded", "phone", profile.Phone)
	return models.Reply{
		Text:          fmt.Sprintf("Great, %s! What's your email address?", profile.Name),
		Suggestions:   []string{"My email is [email address]", "Can we do this later?", "What happens next?"},
		RequiresInfo:  true,
		MissingFields: []string{"email"},
	}
}

func (f *ApplicationFlow) collectEmail(userInput string, profile *models.CustomerProfile) models.Reply {
	email := NormalizeEmail(userInput)

	valid := strings.Contains(email, "@") && strings.Contains(email, ".") &&
		emailValidate.Var(email, "email") == nil
	if !valid {
		return models.Reply{
			Text:          "Oops, that email doesn't look right. Try again, like john@email.com",
			Suggestions:   []string{"My email is [email address]", "Let's skip this", "What's next?"},
			RequiresInfo:  true,
			MissingFields: []string{"email"},
		}
	}

	profile.Email = email
	profile.IsComplete = true
	profile.Context.CollectingInfo = false
	profile.Context.WaitingFor = models.WaitingForNone
	slog.Info("ApplicationFlow.collectEmail: application complete", "position", profile.SelectedPosition)
	return models.Reply{
		Text: fmt.Sprintf(
			"Nice work, %s! Your application for %s is submitted:\n- Name: %s\n- Phone: %s\n- Email: %s\nOur team will reach out within 3-5 days. Best of luck!",
			profile.Name, profile.SelectedPosition, profile.Name, profile.Phone, profile.Email),
		Suggestions: []string{"Thanks!", "When will I hear back?", "Can I apply for another role?"},
	}
}

// NormalizeEmail lowercases an email utterance and rewrites standalone
// "at"/"dot" words into @ and . so spoken addresses validate.
func NormalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = atWordRe.ReplaceAllString(s, "@")
	s = dotWordRe.ReplaceAllString(s, ".")
	return whitespaceRe.ReplaceAllString(s, "")
}

// pickPositionHint enumerates the open positions inline for the
// no-selection-yet prompt.
func (f *ApplicationFlow) pickPositionHint() string {
	keys := f.kb.PositionKeys()
	if len(keys) == 0 {
		return "Please ask about our open positions first."
	}
	parts := make([]string, 0, len(keys))
	for i, key := range keys {
		pos, _ := f.kb.Position(key)
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, pos.Title))
	}
	return "Please choose one from: " + strings.Join(parts, " or ") + "."
}

// positionSuggestions builds numbered position chips plus a listing chip.
func (f *ApplicationFlow) positionSuggestions() []string {
	keys := f.kb.PositionKeys()
	chips := make([]string, 0, len(keys)+1)
	for i, key := range keys {
		pos, _ := f.kb.Position(key)
		chips = append(chips, fmt.Sprintf("%d - %s", i+1, pos.Title))
	}
	return append(chips, "Show me the list again")
}
