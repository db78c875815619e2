// Package models defines the core data structures for the CCI Global chatbot.
//
// It includes the customer profile, conversation transcript, intent
// classification, and API payload types shared across modules.
package models

import (
	"errors"
	"time"
)

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for a chat message.
	MaxMessageLength = 4096
	// DefaultUserID is used when a chat request carries no user id.
	DefaultUserID = "default"
	// DefaultTTSVoice is used when a request does not name a synthesis voice.
	DefaultTTSVoice = "Aaliyah-PlayAI"
)

// Error variables for better error handling and testability
var (
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
	ErrEmptyText      = errors.New("text is required")
	ErrEmptyAudioData = errors.New("no audio data provided")
	ErrInvalidAudio   = errors.New("invalid base64 audio data")
	ErrAudioTooSmall  = errors.New("audio file too small")
	ErrAudioTooShort  = errors.New("audio duration too short")
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn authored by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn authored by the chatbot.
	RoleAssistant Role = "assistant"
)

// Turn is a single immutable entry in a user's conversation transcript.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds everything the service knows about one user: the ordered
// transcript and the customer profile. Sessions are created lazily on first
// contact and live for the process lifetime unless explicitly reset.
type Session struct {
	UserID    string          `json:"user_id"`
	Turns     []Turn          `json:"turns"`
	Profile   CustomerProfile `json:"profile"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Reply is the tagged result every responder path produces for a turn.
type Reply struct {
	Text          string   `json:"text"`
	Suggestions   []string `json:"suggestions"`
	RequiresInfo  bool     `json:"requires_info"`
	MissingFields []string `json:"missing_fields"`
}

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	Message     string `json:"message"`
	UserID      string `json:"user_id"`
	IsVoice     bool   `json:"is_voice"`
	AudioData   string `json:"audio_data,omitempty"`
	TTSVoice    string `json:"tts_voice,omitempty"`
	GenerateTTS bool   `json:"generate_tts"`
}

// Validate performs basic validation on a ChatRequest.
func (r *ChatRequest) Validate() error {
	if r.Message == "" && !r.IsVoice {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if r.IsVoice && r.AudioData == "" {
		return ErrEmptyAudioData
	}
	return nil
}

// ChatResponse is the payload returned by POST /chat.
type ChatResponse struct {
	Response             string   `json:"response"`
	TranscribedText      string   `json:"transcribed_text"`
	Timestamp            string   `json:"timestamp"`
	SuggestedQuestions   []string `json:"suggested_questions"`
	RequiresCustomerInfo bool     `json:"requires_customer_info"`
	MissingFields        []string `json:"missing_fields"`
	AudioResponse        string   `json:"audio_response,omitempty"`
	CustomerInfoComplete bool     `json:"customer_info_complete"`
	Intent               string   `json:"intent,omitempty"`
	Confidence           float64  `json:"confidence,omitempty"`
}

// TTSRequest is the payload for POST /generate_tts.
type TTSRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// Validate performs basic validation on a TTSRequest.
func (r *TTSRequest) Validate() error {
	if r.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// TTSResponse is the payload returned by POST /generate_tts.
type TTSResponse struct {
	AudioResponse string `json:"audio_response"`
	Timestamp     string `json:"timestamp"`
}

// ConversationResponse is the payload returned by GET /conversation/{userId}.
type ConversationResponse struct {
	Messages     []Turn          `json:"messages"`
	CustomerInfo CustomerProfile `json:"customer_info"`
}

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: "ok", Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: "error", Message: message}
}
