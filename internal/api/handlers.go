// Package api provides HTTP handlers for the chatbot endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/session"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/speech"
)

// serviceBanner is returned by GET /.
const serviceBanner = "CCI Global Dynamic Chatbot API - Fully Dynamic & Context-Aware"

// voiceRetrySuggestions accompany inline voice-processing error replies.
var voiceRetrySuggestions = []string{"Try again", "Tell me about CCI", "Need support?"}

// chatHandler handles POST /chat: one conversation turn, text or voice.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request")

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.UserID == "" {
		req.UserID = models.DefaultUserID
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err, "user_id", req.UserID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	userMessage := strings.TrimSpace(req.Message)

	if req.IsVoice && req.AudioData != "" {
		text, err := s.speech.Transcribe(r.Context(), req.AudioData)
		if err != nil {
			// Voice problems are part of the conversation, not transport
			// failures: reply inline and let the user retry.
			slog.Warn("Server.chatHandler: transcription failed", "error", err, "user_id", req.UserID)
			writeJSONResponse(w, http.StatusOK, models.ChatResponse{
				Response:           voiceErrorText(err),
				Timestamp:          time.Now().Format(time.RFC3339),
				SuggestedQuestions: voiceRetrySuggestions,
				MissingFields:      []string{},
			})
			return
		}
		userMessage = speech.CorrectEmailPattern(text)
		slog.Info("Server.chatHandler: converted speech to text", "user_id", req.UserID, "length", len(userMessage))
	}

	var reply models.Reply
	var snapshot models.Session
	err := s.sessions.Update(req.UserID, func(sess *models.Session) error {
		session.AppendTurn(sess, models.RoleUser, userMessage)
		reply = s.engine.Respond(r.Context(), userMessage, &sess.Profile, sess.Turns)
		session.AppendTurn(sess, models.RoleAssistant, reply.Text)
		snapshot = *sess
		return nil
	})
	if err != nil {
		slog.Error("Server.chatHandler: session update failed", "error", err, "user_id", req.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("An error occurred while processing your request."))
		return
	}

	// Synthesis happens outside the session lock; a TTS failure never loses
	// the text reply.
	audioResponse := ""
	if req.GenerateTTS {
		audio, err := s.speech.Synthesize(r.Context(), reply.Text, req.TTSVoice)
		if err != nil {
			slog.Error("Server.chatHandler: TTS generation failed", "error", err, "user_id", req.UserID)
		} else {
			audioResponse = audio
		}
	}

	resp := models.ChatResponse{
		Response:             reply.Text,
		TranscribedText:      userMessage,
		Timestamp:            time.Now().Format(time.RFC3339),
		SuggestedQuestions:   reply.Suggestions,
		RequiresCustomerInfo: reply.RequiresInfo,
		MissingFields:        reply.MissingFields,
		AudioResponse:        audioResponse,
		CustomerInfoComplete: snapshot.Profile.IsComplete,
	}
	if resp.SuggestedQuestions == nil {
		resp.SuggestedQuestions = []string{}
	}
	if resp.MissingFields == nil {
		resp.MissingFields = []string{}
	}
	if last := snapshot.Profile.Context.LastIntent; last != nil {
		resp.Intent = last.Intent
		resp.Confidence = last.Confidence
	}

	slog.Debug("Server.chatHandler: reply produced", "user_id", req.UserID, "intent", resp.Intent)
	writeJSONResponse(w, http.StatusOK, resp)
}

// voiceErrorText maps speech-processing failures to client-safe reply text.
func voiceErrorText(err error) string {
	switch {
	case errors.Is(err, models.ErrEmptyAudioData):
		return "I didn't receive any audio. Please try recording your message again."
	case errors.Is(err, models.ErrInvalidAudio):
		return "Sorry, I couldn't read that audio. Please try recording your message again."
	case errors.Is(err, models.ErrAudioTooSmall), errors.Is(err, models.ErrAudioTooShort):
		return "That recording was too short for me to understand. Please try a longer message."
	default:
		return "Sorry, I couldn't process your voice message. Please try again or type your message."
	}
}

// generateTTSHandler handles POST /generate_tts.
func (s *Server) generateTTSHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.generateTTSHandler: processing TTS request")

	var req models.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.generateTTSHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.generateTTSHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Text is required"))
		return
	}

	audio, err := s.speech.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		slog.Error("Server.generateTTSHandler: synthesis failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("TTS generation failed"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.TTSResponse{
		AudioResponse: audio,
		Timestamp:     time.Now().Format(time.RFC3339),
	})
}

// getConversationHandler handles GET /conversation/{userId}.
func (s *Server) getConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	slog.Debug("Server.getConversationHandler: fetching conversation", "user_id", userID)

	sess, err := s.sessions.Get(userID)
	if err != nil {
		slog.Error("Server.getConversationHandler: session load failed", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load conversation"))
		return
	}

	resp := models.ConversationResponse{
		Messages:     sess.Turns,
		CustomerInfo: sess.Profile,
	}
	if resp.Messages == nil {
		resp.Messages = []models.Turn{}
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// deleteUserHandler handles DELETE /users/{userId}.
func (s *Server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	slog.Debug("Server.deleteUserHandler: clearing session", "user_id", userID)

	if err := s.sessions.Reset(userID); err != nil {
		slog.Error("Server.deleteUserHandler: reset failed", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to clear conversation"))
		return
	}

	slog.Info("Server.deleteUserHandler: conversation cleared", "user_id", userID)
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Conversation cleared"})
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// rootHandler handles GET /.
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": serviceBanner})
}
