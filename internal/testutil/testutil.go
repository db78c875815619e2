// Package testutil provides common test utilities and helpers for chatbot
// tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/genai"
)

// GenAIStub is a canned provider client implementing both the completion and
// audio surfaces. Zero value returns empty results; set fields to control
// behavior.
type GenAIStub struct {
	CompletionText string
	CompletionErr  error
	Transcript     string
	TranscribeErr  error
	Audio          []byte
	SynthesizeErr  error

	GenerateCalls   int
	TranscribeCalls int
	SynthesizeCalls int
}

// Generate implements genai.ClientInterface.
func (g *GenAIStub) Generate(_ context.Context, _ genai.CompletionRequest) (string, error) {
	g.GenerateCalls++
	return g.CompletionText, g.CompletionErr
}

// Transcribe implements genai.AudioInterface.
func (g *GenAIStub) Transcribe(_ context.Context, _ []byte) (string, error) {
	g.TranscribeCalls++
	return g.Transcript, g.TranscribeErr
}

// Synthesize implements genai.AudioInterface.
func (g *GenAIStub) Synthesize(_ context.Context, _, _ string) ([]byte, error) {
	g.SynthesizeCalls++
	return g.Audio, g.SynthesizeErr
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it
// doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// DecodeJSONResponse decodes the recorded JSON body into a generic map.
func DecodeJSONResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for
// testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// MustMarshalJSON marshals an object to JSON and fails the test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails the test on
// error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
