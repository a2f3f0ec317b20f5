package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaultNeedsOnlyAPIKey(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}

	cfg.LLM.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestDefaultProfiles(t *testing.T) {
	p := Default().LLM.Profiles
	if p.Classifier.Model != "gpt-4.1" || p.Classifier.Temperature != 0 {
		t.Errorf("classifier profile = %+v", p.Classifier)
	}
	if p.QuestionGenerator.Temperature != 0.2 {
		t.Errorf("question generator temperature = %v", p.QuestionGenerator.Temperature)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lawdesk.yaml")
	data := `
llm:
  provider: claude
  api_key: file-key
  call_timeout: 15s
  profiles:
    main:
      model: claude-sonnet-4-5-20250929
      temperature: 0.1
clarify:
  max_rounds: 4
  heuristic: generic
session:
  store: redis
  redis:
    addr: redis:6379
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Provider != ProviderClaude || cfg.LLM.CallTimeout != 15*time.Second {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.Profiles.Main.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("main profile = %+v", cfg.LLM.Profiles.Main)
	}
	// Unset keys keep their defaults.
	if cfg.Clarify.MaxRounds != 4 || cfg.Clarify.MinQuestions != 3 || cfg.Clarify.Heuristic != "generic" {
		t.Errorf("clarify = %+v", cfg.Clarify)
	}
	if cfg.Session.Redis.Prefix != "lawdesk:" || cfg.Session.Redis.Addr != "redis:6379" {
		t.Errorf("redis = %+v", cfg.Session.Redis)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnvPicksProviderKey(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		"LAWDESK_PROVIDER":      "gemini",
		"OPENAI_API_KEY":        "openai-key",
		"GEMINI_API_KEY":        "gemini-key",
		"LAWDESK_STORE":         "postgres",
		"POSTGRES_DSN":          "postgres://localhost/lawdesk",
		"LAWDESK_CHECKLIST_DIR": "/data/checklists",
	}))

	if cfg.LLM.Provider != ProviderGemini || cfg.LLM.APIKey != "gemini-key" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Session.Store != StorePostgres || cfg.Session.Postgres.DSN != "postgres://localhost/lawdesk" {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Checklist.Dir != "/data/checklists" {
		t.Errorf("checklist dir = %q", cfg.Checklist.Dir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestValidateRejectsBadClarifySettings(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "k"
	cfg.Clarify.MinQuestions = 6
	cfg.Clarify.OverridePolicy = "always"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"clarify.min_questions", "clarify.override_policy"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
}

func TestValidateClarifyBounds(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ClarifyConfig)
		wantField string
	}{
		{name: "defaults", mutate: func(c *ClarifyConfig) {}},
		{name: "narrow window", mutate: func(c *ClarifyConfig) {
			c.MaxRounds = 1
			c.MinQuestions = 4
			c.MaxQuestions = 4
		}},
		{name: "rounds above five", mutate: func(c *ClarifyConfig) { c.MaxRounds = 8 }, wantField: "clarify.max_rounds"},
		{name: "zero rounds", mutate: func(c *ClarifyConfig) { c.MaxRounds = 0 }, wantField: "clarify.max_rounds"},
		{name: "too few questions", mutate: func(c *ClarifyConfig) { c.MinQuestions = 1 }, wantField: "clarify.min_questions"},
		{name: "too many questions", mutate: func(c *ClarifyConfig) { c.MaxQuestions = 10 }, wantField: "clarify.max_questions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.LLM.APIKey = "k"
			tt.mutate(&cfg.Clarify)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("Validate() = %v, want error on %s", err, tt.wantField)
			}
		})
	}
}

func TestValidateStoreSettings(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{name: "memory", mutate: func(c *Config) {}, wantError: false},
		{name: "memory negative capacity", mutate: func(c *Config) { c.Session.MemoryCapacity = -1 }, wantError: true},
		{name: "mongo without uri", mutate: func(c *Config) { c.Session.Store = StoreMongo }, wantError: true},
		{name: "mongo with uri", mutate: func(c *Config) {
			c.Session.Store = StoreMongo
			c.Session.Mongo.URI = "mongodb://localhost"
		}, wantError: false},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Session.Store = StorePostgres }, wantError: true},
		{name: "redis bad db", mutate: func(c *Config) {
			c.Session.Store = StoreRedis
			c.Session.Redis.DB = 16
		}, wantError: true},
		{name: "unknown store", mutate: func(c *Config) { c.Session.Store = "sqlite" }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.LLM.APIKey = "k"
			tt.mutate(cfg)
			if got := cfg.Validate() != nil; got != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", cfg.Validate(), tt.wantError)
			}
		})
	}
}

func TestValidateTelemetry(t *testing.T) {
	tests := []struct {
		name      string
		tc        TelemetryConfig
		wantError bool
	}{
		{name: "disabled ignores settings", tc: TelemetryConfig{Exporter: "zipkin", SampleRatio: 3}},
		{name: "stdout", tc: TelemetryConfig{Enabled: true, Exporter: "stdout"}},
		{name: "auto exporter", tc: TelemetryConfig{Enabled: true, SampleRatio: 0.25}},
		{name: "unknown exporter", tc: TelemetryConfig{Enabled: true, Exporter: "zipkin"}, wantError: true},
		{name: "ratio above one", tc: TelemetryConfig{Enabled: true, SampleRatio: 1.5}, wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.LLM.APIKey = "k"
			cfg.Telemetry = tt.tc
			if got := cfg.Validate() != nil; got != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", cfg.Validate(), tt.wantError)
			}
		})
	}
}
