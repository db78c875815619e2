// Package api provides the HTTP surface of the CCI Global chatbot.
//
// It exposes the chat endpoint (text and voice), text-to-speech generation,
// conversation retrieval, and session management, wiring the engine, speech
// service, and session manager together.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/flow"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/genai"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/knowledge"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/session"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/speech"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8000"

// Opts holds configuration options for the API server.
type Opts struct {
	// Addr is the HTTP listen address.
	Addr string
	// KnowledgePath is the filesystem path of the knowledge base document.
	KnowledgePath string
}

// Option defines a functional option for configuring the API server.
type Option func(*Opts)

// WithAddr overrides the HTTP listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithKnowledgePath overrides the knowledge base document path.
func WithKnowledgePath(path string) Option {
	return func(o *Opts) { o.KnowledgePath = path }
}

// Server bundles the collaborators the HTTP handlers dispatch to.
type Server struct {
	sessions *session.Manager
	engine   *flow.Engine
	speech   *speech.Service
}

// NewServer creates a Server over pre-built collaborators. Used directly in
// tests; production wiring goes through Run.
func NewServer(sessions *session.Manager, engine *flow.Engine, speechSvc *speech.Service) *Server {
	return &Server{sessions: sessions, engine: engine, speech: speechSvc}
}

// Run builds the full service from options and blocks serving HTTP.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, apiOpts ...Option) error {
	var opts Opts
	for _, opt := range apiOpts {
		opt(&opts)
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.KnowledgePath == "" {
		opts.KnowledgePath = "config/knowledge_base.json"
	}

	kb, err := knowledge.Load(opts.KnowledgePath)
	if err != nil {
		return fmt.Errorf("failed to load knowledge base: %w", err)
	}

	genaiClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to create GenAI client: %w", err)
	}

	st, err := openStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	srv := NewServer(session.NewManager(st), flow.NewEngine(kb, genaiClient), speech.NewService(genaiClient))

	slog.Info("api.Run: starting HTTP server", "addr", opts.Addr)
	return http.ListenAndServe(opts.Addr, srv.Handler())
}

// openStore selects the storage backend implied by the configured DSN. An
// empty DSN means the in-memory store.
func openStore(storeOpts []store.Option) (store.Store, error) {
	var opts store.Opts
	for _, opt := range storeOpts {
		opt(&opts)
	}
	if opts.DSN == "" {
		slog.Info("api.openStore: using in-memory session store")
		return store.NewInMemoryStore(), nil
	}

	switch kind := store.DetectDSNType(opts.DSN); kind {
	case "postgres":
		slog.Info("api.openStore: using PostgreSQL session store")
		return store.NewPostgresStore(store.WithPostgresDSN(opts.DSN))
	case "redis":
		slog.Info("api.openStore: using Redis session store")
		return store.NewRedisStore(store.WithRedisDSN(opts.DSN))
	default:
		slog.Info("api.openStore: using SQLite session store", "path", opts.DSN)
		return store.NewSQLiteStore(store.WithSQLiteDSN(opts.DSN))
	}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("POST /generate_tts", s.generateTTSHandler)
	mux.HandleFunc("GET /conversation/{userId}", s.getConversationHandler)
	mux.HandleFunc("DELETE /users/{userId}", s.deleteUserHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /{$}", s.rootHandler)

	return corsMiddleware(requestLoggingMiddleware(mux))
}

// corsMiddleware applies a permissive CORS policy so browser front-ends on
// any origin can call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLoggingMiddleware tags each request with a UUID and logs entry and
// duration.
func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()
		slog.Debug("api: request received", "request_id", requestID, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
		slog.Debug("api: request completed", "request_id", requestID, "method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}
