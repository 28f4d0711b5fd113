// Package config loads lectern configuration from an optional YAML file
// and environment variables. Environment values override file values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM or embedding backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM
	LLMProvider     Provider
	LLMModel        string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaHost      string
	AWSRegion       string

	// Embedding
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int

	// Ingestion and retrieval
	DocsPath     string
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	// Sessions
	MaxHistory int // exchange pairs kept per session

	// HTTP server
	ListenAddr string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors Config for YAML decoding.
type fileConfig struct {
	SurrealDB struct {
		URL       string `yaml:"url"`
		Namespace string `yaml:"namespace"`
		Database  string `yaml:"database"`
		User      string `yaml:"user"`
		Pass      string `yaml:"pass"`
		AuthLevel string `yaml:"auth_level"`
	} `yaml:"surrealdb"`
	LLM struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
	} `yaml:"llm"`
	Embedding struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`
		Dimension int    `yaml:"dimension"`
	} `yaml:"embedding"`
	Docs struct {
		Path         string `yaml:"path"`
		ChunkSize    int    `yaml:"chunk_size"`
		ChunkOverlap int    `yaml:"chunk_overlap"`
	} `yaml:"docs"`
	TopK       int    `yaml:"top_k"`
	MaxHistory int    `yaml:"max_history"`
	ListenAddr string `yaml:"listen_addr"`
	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
}

// Load reads configuration from the YAML file at path (if non-empty) and
// then applies environment variable overrides. Defaults match the
// course-materials chatbot: 800-char chunks with 100-char overlap, five
// search results, two remembered exchanges.
func Load(path string) (Config, error) {
	cfg := Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "lectern",
		SurrealDBDatabase:  "courses",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		LLMProvider: ProviderAnthropic,
		LLMModel:    "claude-sonnet-4-20250514",
		OllamaHost:  "http://localhost:11434",
		AWSRegion:   "us-east-1",

		EmbedProvider:  ProviderOllama,
		EmbedModel:     "all-minilm:l6-v2",
		EmbedDimension: 384,

		DocsPath:     "./docs",
		ChunkSize:    800,
		ChunkOverlap: 100,
		TopK:         5,

		MaxHistory: 2,

		ListenAddr: ":8000",

		LogFile:  "/tmp/lectern.log",
		LogLevel: slog.LevelInfo,
	}

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return cfg, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.SurrealDBURL, fc.SurrealDB.URL)
	setString(&cfg.SurrealDBNamespace, fc.SurrealDB.Namespace)
	setString(&cfg.SurrealDBDatabase, fc.SurrealDB.Database)
	setString(&cfg.SurrealDBUser, fc.SurrealDB.User)
	setString(&cfg.SurrealDBPass, fc.SurrealDB.Pass)
	setString(&cfg.SurrealDBAuthLevel, fc.SurrealDB.AuthLevel)
	if fc.LLM.Provider != "" {
		cfg.LLMProvider = Provider(fc.LLM.Provider)
	}
	setString(&cfg.LLMModel, fc.LLM.Model)
	if fc.Embedding.Provider != "" {
		cfg.EmbedProvider = Provider(fc.Embedding.Provider)
	}
	setString(&cfg.EmbedModel, fc.Embedding.Model)
	setInt(&cfg.EmbedDimension, fc.Embedding.Dimension)
	setString(&cfg.DocsPath, fc.Docs.Path)
	setInt(&cfg.ChunkSize, fc.Docs.ChunkSize)
	setInt(&cfg.ChunkOverlap, fc.Docs.ChunkOverlap)
	setInt(&cfg.TopK, fc.TopK)
	setInt(&cfg.MaxHistory, fc.MaxHistory)
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.LogFile, fc.LogFile)
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	return nil
}

func applyEnv(cfg *Config) {
	envString(&cfg.SurrealDBURL, "SURREALDB_URL")
	envString(&cfg.SurrealDBNamespace, "SURREALDB_NAMESPACE")
	envString(&cfg.SurrealDBDatabase, "SURREALDB_DATABASE")
	envString(&cfg.SurrealDBUser, "SURREALDB_USER")
	envString(&cfg.SurrealDBPass, "SURREALDB_PASS")
	envString(&cfg.SurrealDBAuthLevel, "SURREALDB_AUTH_LEVEL")

	if v := os.Getenv("LECTERN_LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = Provider(strings.ToLower(v))
	}
	envString(&cfg.LLMModel, "LECTERN_LLM_MODEL")
	envString(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envString(&cfg.OllamaHost, "OLLAMA_HOST")
	envString(&cfg.AWSRegion, "AWS_REGION")

	if v := os.Getenv("LECTERN_EMBED_PROVIDER"); v != "" {
		cfg.EmbedProvider = Provider(strings.ToLower(v))
	}
	envString(&cfg.EmbedModel, "LECTERN_EMBED_MODEL")
	envInt(&cfg.EmbedDimension, "LECTERN_EMBED_DIMENSION")

	envString(&cfg.DocsPath, "LECTERN_DOCS_PATH")
	envInt(&cfg.ChunkSize, "LECTERN_CHUNK_SIZE")
	envInt(&cfg.ChunkOverlap, "LECTERN_CHUNK_OVERLAP")
	envInt(&cfg.TopK, "LECTERN_TOP_K")
	envInt(&cfg.MaxHistory, "LECTERN_MAX_HISTORY")
	envString(&cfg.ListenAddr, "LECTERN_LISTEN_ADDR")

	envString(&cfg.LogFile, "LECTERN_LOG_FILE")
	if v := os.Getenv("LECTERN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
