// Package models defines profile types for the job-application flow.
package models

import (
	"encoding/json"
	"fmt"
)

// WaitingField identifies the next profile field the application flow expects.
type WaitingField string

const (
	// WaitingForNone means the flow is not waiting on any field.
	WaitingForNone WaitingField = ""
	// WaitingForName means the flow expects the applicant's full name next.
	WaitingForName WaitingField = "name"
	// WaitingForPhone means the flow expects a phone number next.
	WaitingForPhone WaitingField = "phone"
	// WaitingForEmail means the flow expects an email address next.
	WaitingForEmail WaitingField = "email"
)

// Application stage markers stored in the conversation context.
const (
	// StageShowDetails marks that position details were shown and the user may apply.
	StageShowDetails = "show_details"
)

// ConversationContext is the slot-filler's scratch state carried on the
// profile between turns.
type ConversationContext struct {
	ApplicationStage string                `json:"application_stage,omitempty"`
	CollectingInfo   bool                  `json:"collecting_info"`
	WaitingFor       WaitingField          `json:"waiting_for,omitempty"`
	LastIntent       *IntentClassification `json:"last_intent,omitempty"`
}

// CustomerProfile is the per-user application record. Name, phone and email
// are write-once-valid: each is set exactly once, after passing validation.
type CustomerProfile struct {
	Name             string              `json:"name,omitempty"`
	Phone            string              `json:"phone,omitempty"`
	Email            string              `json:"email,omitempty"`
	IsComplete       bool                `json:"is_complete"`
	SelectedPosition string              `json:"selected_position,omitempty"`
	Context          ConversationContext `json:"conversation_context"`
}

// Validate checks the profile's internal invariants: waiting_for is non-empty
// only while collecting_info, and a complete profile is no longer collecting.
func (p *CustomerProfile) Validate() error {
	if p.Context.WaitingFor != WaitingForNone && !p.Context.CollectingInfo {
		return fmt.Errorf("waiting_for %q set while collecting_info is false", p.Context.WaitingFor)
	}
	if p.IsComplete {
		if p.Context.CollectingInfo {
			return fmt.Errorf("complete profile still collecting info")
		}
		if p.Name == "" || p.Phone == "" || p.Email == "" {
			return fmt.Errorf("complete profile missing fields")
		}
	}
	return nil
}

// ToJSON serializes the profile to a JSON string.
func (p *CustomerProfile) ToJSON() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal customer profile: %w", err)
	}
	return string(data), nil
}

// FromJSON deserializes the profile from a JSON string.
func (p *CustomerProfile) FromJSON(data string) error {
	if err := json.Unmarshal([]byte(data), p); err != nil {
		return fmt.Errorf("failed to unmarshal customer profile: %w", err)
	}
	return nil
}
