// Package models defines intent classification types shared between the
// resolver, the application flow, and the response composer.
package models

// Intent labels produced by the resolver. The career intents are produced by
// deterministic keyword rules; the rest come from the LLM taxonomy.
const (
	IntentApplicationContinue     = "application_continue"
	IntentGeneralCareerInquiry    = "general_career_inquiry"
	IntentSpecificPositionInquiry = "specific_position_inquiry"
	IntentGreeting                = "greeting"
	IntentServiceInquiry          = "service_inquiry"
	IntentSupportRequest          = "support_request"
	IntentInformationGathering    = "information_gathering"
	IntentOther                   = "other"
)

// Entity keys populated by the resolver for career intents.
const (
	EntityJobPosition = "job_position"
	EntityPositionKey = "position_key"
)

// Suggested response type values carried on classifications.
const (
	ResponseTypeConversational   = "conversational"
	ResponseTypeApplicationStep  = "application_step"
	ResponseTypePositionDetails  = "position_details"
	ResponseTypeShowAllPositions = "show_all_positions"
)

// IntentClassification is the per-turn classification result. It is ephemeral
// except for the copy cached on the profile as Context.LastIntent.
type IntentClassification struct {
	Intent                 string            `json:"intent"`
	Confidence             float64           `json:"confidence"`
	Entities               map[string]string `json:"entities,omitempty"`
	RequiresInfoCollection bool              `json:"requires_info_collection"`
	SuggestedResponseType  string            `json:"suggested_response_type,omitempty"`
}

// IsCareerIntent reports whether the intent belongs to the career/application
// family handled by the deterministic slot-filling flow.
func IsCareerIntent(intent string) bool {
	switch intent {
	case IntentApplicationContinue, IntentGeneralCareerInquiry, IntentSpecificPositionInquiry:
		return true
	default:
		return false
	}
}
