package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/api"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/genai"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/store"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/util"
)

// DefaultKnowledgePath is the default location of the knowledge base
// document.
const DefaultKnowledgePath = "config/knowledge_base.json"

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping CCI Global chatbot service")
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "api", len(apiOpts))
	if err := api.Run(storeOpts, genaiOpts, apiOpts...); err != nil {
		slog.Error("Chatbot service failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Chatbot service exited successfully")
}

// Config holds environment configuration.
type Config struct {
	APIKey        string
	APIBase       string
	DatabaseDSN   string
	APIAddr       string
	KnowledgePath string
}

// Flags holds command line flag values.
type Flags struct {
	apiKey        *string
	apiBase       *string
	dbDSN         *string
	apiAddr       *string
	knowledgePath *string
}

// initializeLogger sets up structured logging. Debug level is enabled via
// $CHATBOT_DEBUG.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("CHATBOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and
// the .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		APIKey:        os.Getenv("GROQ_API_KEY"),
		APIBase:       os.Getenv("GROQ_API_BASE"),
		DatabaseDSN:   os.Getenv("DATABASE_URL"),
		APIAddr:       os.Getenv("API_ADDR"),
		KnowledgePath: os.Getenv("KNOWLEDGE_BASE_PATH"),
	}

	if config.KnowledgePath == "" {
		config.KnowledgePath = DefaultKnowledgePath
		slog.Debug("No KNOWLEDGE_BASE_PATH set, using default", "path", config.KnowledgePath)
	}

	slog.Debug("environment variables loaded",
		"GROQ_API_KEY_SET", config.APIKey != "",
		"GROQ_API_BASE", config.APIBase,
		"DATABASE_URL_SET", config.DatabaseDSN != "",
		"API_ADDR", config.APIAddr,
		"KNOWLEDGE_BASE_PATH", config.KnowledgePath)

	return config
}

// parseCommandLineFlags parses command line arguments with environment
// defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		apiKey:        flag.String("api-key", config.APIKey, "GenAI provider API key (overrides $GROQ_API_KEY)"),
		apiBase:       flag.String("api-base", config.APIBase, "GenAI provider base URL (overrides $GROQ_API_BASE)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseDSN, "session store DSN: SQLite path, postgres:// or redis:// URL (overrides $DATABASE_URL)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		knowledgePath: flag.String("knowledge-base", config.KnowledgePath, "path to the knowledge base document (overrides $KNOWLEDGE_BASE_PATH)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"apiKeySet", *flags.apiKey != "",
		"apiBase", *flags.apiBase,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"knowledgePath", *flags.knowledgePath)

	return flags
}

// buildStoreOptions constructs session store configuration options.
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		switch store.DetectDSNType(*flags.dbDSN) {
		case "postgres":
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		case "redis":
			slog.Debug("Detected Redis DSN, configuring Redis store")
			storeOpts = append(storeOpts, store.WithRedisDSN(*flags.dbDSN))
		default:
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options.
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.apiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.apiKey))
	}
	if *flags.apiBase != "" {
		genaiOpts = append(genaiOpts, genai.WithBaseURL(*flags.apiBase))
	}
	return genaiOpts
}

// buildAPIOptions constructs API server configuration options.
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.knowledgePath != "" {
		apiOpts = append(apiOpts, api.WithKnowledgePath(*flags.knowledgePath))
	}
	return apiOpts
}
