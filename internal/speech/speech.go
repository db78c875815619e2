// Package speech handles voice input and output: base64 audio decoding and
// validation, Whisper transcription, spoken-email pattern correction, and
// speech synthesis.
package speech

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/genai"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
)

// Audio validation bounds.
const (
	minAudioBytes    = 1024
	minAudioDuration = 0.1 // seconds
)

var (
	emailHintRe = regexp.MustCompile(`(?i)\bat\b.*\bdot\b`)
	atWordRe    = regexp.MustCompile(`(?i)\bat\b`)
	dotWordRe   = regexp.MustCompile(`\bdot\b`)
	spacedAtRe  = regexp.MustCompile(`\s*@\s*`)
	spacedDotRe = regexp.MustCompile(`\s*\.\s*`)
)

// Service transcribes and synthesizes audio through the shared provider
// client.
type Service struct {
	audio genai.AudioInterface
}

// NewService creates a speech service over the provider's audio surface.
func NewService(audio genai.AudioInterface) *Service {
	return &Service{audio: audio}
}

// Transcribe decodes and validates base64-encoded audio, then transcribes it
// with the provider's speech-to-text model.
func (s *Service) Transcribe(ctx context.Context, base64Audio string) (string, error) {
	if base64Audio == "" {
		return "", models.ErrEmptyAudioData
	}

	audio, err := base64.StdEncoding.DecodeString(base64Audio)
	if err != nil {
		slog.Error("Service.Transcribe: base64 decode failed", "error", err)
		return "", models.ErrInvalidAudio
	}
	slog.Debug("Service.Transcribe: audio decoded", "bytes", len(audio))

	if err := validateAudio(audio); err != nil {
		return "", err
	}

	text, err := s.audio.Transcribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("speech-to-text conversion failed: %w", err)
	}

	text = strings.TrimSpace(text)
	slog.Info("Service.Transcribe: transcription received", "length", len(text))
	return text, nil
}

// Synthesize converts reply text to base64-encoded MP3 audio.
func (s *Service) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if text == "" {
		return "", models.ErrEmptyText
	}
	if voice == "" {
		voice = models.DefaultTTSVoice
	}

	audio, err := s.audio.Synthesize(ctx, text, voice)
	if err != nil {
		return "", fmt.Errorf("text-to-speech conversion failed: %w", err)
	}

	slog.Debug("Service.Synthesize: audio generated", "bytes", len(audio))
	return base64.StdEncoding.EncodeToString(audio), nil
}

// validateAudio rejects clips too small or too short to transcribe. Duration
// is checked only when the WAV header is parseable; otherwise the size check
// alone decides.
func validateAudio(audio []byte) error {
	if len(audio) < minAudioBytes {
		slog.Warn("speech.validateAudio: audio too small", "bytes", len(audio))
		return models.ErrAudioTooSmall
	}

	duration, ok := wavDuration(audio)
	if !ok {
		slog.Debug("speech.validateAudio: duration not determinable, size check only")
		return nil
	}
	if duration < minAudioDuration {
		slog.Warn("speech.validateAudio: audio too short", "duration_seconds", duration)
		return models.ErrAudioTooShort
	}
	return nil
}

// wavDuration derives the clip duration from a canonical RIFF/WAVE header.
// Returns ok=false for any other container.
func wavDuration(audio []byte) (float64, bool) {
	// RIFF....WAVEfmt + 16-byte fmt chunk + data chunk header.
	if len(audio) < 44 ||
		string(audio[0:4]) != "RIFF" ||
		string(audio[8:12]) != "WAVE" ||
		string(audio[12:16]) != "fmt " {
		return 0, false
	}

	byteRate := binary.LittleEndian.Uint32(audio[28:32])
	if byteRate == 0 {
		return 0, false
	}

	// Locate the data chunk; it usually follows fmt directly but optional
	// chunks (LIST, fact) may come first.
	offset := 12
	for offset+8 <= len(audio) {
		chunkID := string(audio[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(audio[offset+4 : offset+8]))
		if chunkID == "data" {
			return float64(chunkSize) / float64(byteRate), true
		}
		offset += 8 + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}
	return 0, false
}

// CorrectEmailPattern rewrites spoken email addresses ("john at example dot
// com") into standard form. Text without both markers passes through
// unchanged.
func CorrectEmailPattern(text string) string {
	if text == "" {
		return text
	}
	if !emailHintRe.MatchString(text) {
		return strings.TrimSpace(text)
	}
	text = atWordRe.ReplaceAllString(text, "@")
	text = dotWordRe.ReplaceAllString(text, ".")
	text = spacedAtRe.ReplaceAllString(text, "@")
	text = spacedDotRe.ReplaceAllString(text, ".")
	return strings.TrimSpace(text)
}
