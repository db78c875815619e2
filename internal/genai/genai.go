// Package genai provides the shared OpenAI-compatible provider client used
// for chat completions, speech-to-text, and text-to-speech.
//
// One client is constructed at startup and shared by reference across the
// intent resolver, the response composer, and the speech service; no
// component re-instantiates its own provider client per call.
package genai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default provider models. The service targets a Groq-hosted OpenAI-compatible
// endpoint, so the defaults name Groq model ids.
const (
	DefaultChatModel = "llama3-70b-8192"
	DefaultSTTModel  = "whisper-large-v3"
	DefaultTTSModel  = "playai-tts"

	// requestTimeout bounds every provider call; no retries are performed.
	requestTimeout = 30 * time.Second
)

// ErrNoChoicesReturned indicates the provider returned an empty choice list.
var ErrNoChoicesReturned = errors.New("no choices returned")

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int64
}

// ClientInterface defines the completion surface consumed by the intent
// resolver and the response composer.
type ClientInterface interface {
	Generate(ctx context.Context, req CompletionRequest) (string, error)
}

// AudioInterface defines the audio surface consumed by the speech service.
type AudioInterface interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// completionService is the minimal chat completion seam, satisfied by the
// OpenAI SDK's chat completion service and by test mocks.
type completionService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// transcriptionService is the minimal transcription seam.
type transcriptionService interface {
	New(ctx context.Context, body openai.AudioTranscriptionNewParams, opts ...option.RequestOption) (*openai.Transcription, error)
}

// speechService is the minimal speech synthesis seam.
type speechService interface {
	New(ctx context.Context, body openai.AudioSpeechNewParams, opts ...option.RequestOption) (*http.Response, error)
}

// Opts holds configuration for the client.
type Opts struct {
	APIKey    string
	BaseURL   string
	ChatModel string
	STTModel  string
	TTSModel  string
}

// Option configures the client.
type Option func(*Opts)

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL sets the OpenAI-compatible base URL (e.g. the Groq endpoint).
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithChatModel overrides the chat completion model.
func WithChatModel(model string) Option {
	return func(o *Opts) { o.ChatModel = model }
}

// WithSTTModel overrides the speech-to-text model.
func WithSTTModel(model string) Option {
	return func(o *Opts) { o.STTModel = model }
}

// WithTTSModel overrides the text-to-speech model.
func WithTTSModel(model string) Option {
	return func(o *Opts) { o.TTSModel = model }
}

// Client wraps the OpenAI-compatible provider services behind narrow seams.
type Client struct {
	completions    completionService
	transcriptions transcriptionService
	speech         speechService
	chatModel      string
	sttModel       string
	ttsModel       string
}

// NewClient initializes the shared provider client. The API key falls back to
// the GROQ_API_KEY environment variable and the base URL to GROQ_API_BASE.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider API key not set (GROQ_API_KEY)")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("GROQ_API_BASE")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.STTModel == "" {
		cfg.STTModel = DefaultSTTModel
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = DefaultTTSModel
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
	}
	if cfg.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}

	cli := openai.NewClient(requestOpts...)
	slog.Debug("genai.NewClient: provider client initialized", "base_url_set", cfg.BaseURL != "", "chat_model", cfg.ChatModel)

	return &Client{
		completions:    &cli.Chat.Completions,
		transcriptions: &cli.Audio.Transcriptions,
		speech:         &cli.Audio.Speech,
		chatModel:      cfg.ChatModel,
		sttModel:       cfg.STTModel,
		ttsModel:       cfg.TTSModel,
	}, nil
}

// Generate runs one chat completion with the configured model.
func (c *Client) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	slog.Debug("genai.Generate: sending completion request", "temperature", req.Temperature, "max_tokens", req.MaxTokens)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	resp, err := c.completions.New(ctx, params)
	if err != nil {
		slog.Error("genai.Generate: completion request failed", "error", err)
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("genai.Generate: provider returned no choices")
		return "", ErrNoChoicesReturned
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("genai.Generate: completion received", "length", len(content))
	return content, nil
}

// Transcribe converts audio bytes to text using the configured STT model.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	slog.Debug("genai.Transcribe: sending transcription request", "bytes", len(audio))

	resp, err := c.transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(c.sttModel),
		File:  openai.File(bytes.NewReader(audio), "audio.wav", "audio/wav"),
	})
	if err != nil {
		slog.Error("genai.Transcribe: transcription request failed", "error", err)
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	slog.Debug("genai.Transcribe: transcription received", "length", len(resp.Text))
	return resp.Text, nil
}

// Synthesize converts text to MP3 audio bytes using the configured TTS model.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	slog.Debug("genai.Synthesize: sending synthesis request", "voice", voice, "text_length", len(text))

	resp, err := c.speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(c.ttsModel),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		slog.Error("genai.Synthesize: synthesis request failed", "error", err)
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("genai.Synthesize: failed to read synthesis response", "error", err)
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	slog.Debug("genai.Synthesize: synthesis received", "bytes", len(audio))
	return audio, nil
}
