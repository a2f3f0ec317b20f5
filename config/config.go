// Package config loads the lawdesk configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sweetpotato0/ai-lawdesk/llm"
	"gopkg.in/yaml.v3"
)

// Supported text-generation providers.
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// Supported conversation stores.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config is the root configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Clarify   ClarifyConfig   `yaml:"clarify"`
	Checklist ChecklistConfig `yaml:"checklist"`
	Session   SessionConfig   `yaml:"session"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LLMConfig selects the provider and the per-purpose model profiles.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int64         `yaml:"max_tokens"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	Profiles    Profiles      `yaml:"profiles"`
}

// Profiles holds the model settings used for each kind of call.
type Profiles struct {
	Main              llm.Profile `yaml:"main"`
	Classifier        llm.Profile `yaml:"classifier"`
	QuestionGenerator llm.Profile `yaml:"question_generator"`
	Streaming         llm.Profile `yaml:"streaming"`
}

func (p Profiles) named() map[string]llm.Profile {
	return map[string]llm.Profile{
		"main":               p.Main,
		"classifier":         p.Classifier,
		"question_generator": p.QuestionGenerator,
		"streaming":          p.Streaming,
	}
}

// ClarifyConfig tunes the clarification dialogue.
type ClarifyConfig struct {
	MaxRounds    int `yaml:"max_rounds"`
	MinQuestions int `yaml:"min_questions"`
	MaxQuestions int `yaml:"max_questions"`
	// OverridePolicy is "conservative" or "trust_model".
	OverridePolicy string `yaml:"override_policy"`
	// Heuristic is "strict" or "generic".
	Heuristic string `yaml:"heuristic"`
	// DeclinedStrategy is "pattern" or "model".
	DeclinedStrategy   string `yaml:"declined_strategy"`
	HistoryTokenBudget int    `yaml:"history_token_budget"`
	TokenizerEncoding  string `yaml:"tokenizer_encoding"`
}

// ChecklistConfig points at the reference checklist exports.
type ChecklistConfig struct {
	Dir      string        `yaml:"dir"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// SessionConfig selects the conversation store and per-session limits.
type SessionConfig struct {
	Store         string `yaml:"store"`
	MaxInputRunes int    `yaml:"max_input_runes"`
	// MemoryCapacity bounds the memory store; 0 keeps every conversation.
	MemoryCapacity int            `yaml:"memory_capacity"`
	RateLimit      int            `yaml:"rate_limit"`
	RateWindow     time.Duration  `yaml:"rate_window"`
	Redis          RedisConfig    `yaml:"redis"`
	Mongo          MongoConfig    `yaml:"mongo"`
	Postgres       PostgresConfig `yaml:"postgres"`
}

// RedisConfig configures the Redis conversation store and turn lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

// MongoConfig configures the MongoDB conversation store.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// PostgresConfig configures the PostgreSQL conversation store.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceVersion string `yaml:"service_version"`
	Environment    string `yaml:"environment"`
	// Exporter is "otlp", "stdout" or empty to decide from the endpoint.
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			MaxTokens:   2000,
			CallTimeout: 60 * time.Second,
			Profiles: Profiles{
				Main:              llm.Profile{Model: "gpt-4.1", Temperature: 0},
				Classifier:        llm.Profile{Model: "gpt-4.1", Temperature: 0},
				QuestionGenerator: llm.Profile{Model: "gpt-4.1", Temperature: 0.2},
				Streaming:         llm.Profile{Model: "gpt-4.1", Temperature: 0},
			},
		},
		Clarify: ClarifyConfig{
			MaxRounds:          5,
			MinQuestions:       3,
			MaxQuestions:       5,
			OverridePolicy:     "conservative",
			Heuristic:          "strict",
			DeclinedStrategy:   "pattern",
			HistoryTokenBudget: 6000,
			TokenizerEncoding:  "cl100k_base",
		},
		Checklist: ChecklistConfig{
			Debounce: 500 * time.Millisecond,
		},
		Session: SessionConfig{
			Store:          StoreMemory,
			MaxInputRunes:  4000,
			MemoryCapacity: 1000,
			RateLimit:      20,
			RateWindow:     time.Minute,
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "lawdesk:",
				TTL:     7 * 24 * time.Hour,
				LockTTL: 2 * time.Minute,
			},
			Mongo: MongoConfig{
				Database:   "lawdesk",
				Collection: "conversations",
			},
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path yields the defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. lookup is
// os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("LAWDESK_PROVIDER", &c.LLM.Provider)
	set("LAWDESK_BASE_URL", &c.LLM.BaseURL)
	switch c.LLM.Provider {
	case ProviderOpenAI:
		set("OPENAI_API_KEY", &c.LLM.APIKey)
	case ProviderGroq:
		set("GROQ_API_KEY", &c.LLM.APIKey)
	case ProviderClaude:
		set("ANTHROPIC_API_KEY", &c.LLM.APIKey)
	case ProviderGemini:
		set("GEMINI_API_KEY", &c.LLM.APIKey)
	}
	set("LAWDESK_API_KEY", &c.LLM.APIKey)

	set("LAWDESK_CHECKLIST_DIR", &c.Checklist.Dir)
	if v, ok := lookup("LAWDESK_CHECKLIST_WATCH"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Checklist.Watch = b
		}
	}

	set("LAWDESK_STORE", &c.Session.Store)
	set("REDIS_ADDR", &c.Session.Redis.Addr)
	set("REDIS_PASSWORD", &c.Session.Redis.Password)
	set("MONGODB_URI", &c.Session.Mongo.URI)
	set("POSTGRES_DSN", &c.Session.Postgres.DSN)
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	v := NewValidator()
	v.validateLLM(c.LLM)
	v.validateClarify(c.Clarify)
	v.validateChecklist(c.Checklist)
	v.validateSession(c.Session)
	v.validateTelemetry(c.Telemetry)
	return v.Error()
}
