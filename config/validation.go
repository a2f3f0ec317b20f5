package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %q: %s", e.Field, e.Message)
}

// Validator accumulates field errors so every problem is reported at once.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, format string, args ...any) *Validator {
	v.errors = append(v.errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	return v
}

// RequireNonEmpty validates that a string field is not blank
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.add(field, "value cannot be empty")
	}
	return v
}

// RequirePositive validates that an integer field is greater than 0
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		return v.add(field, "value must be positive, got %d", value)
	}
	return v
}

// RequirePositiveDuration validates that a duration is greater than 0
func (v *Validator) RequirePositiveDuration(field string, value time.Duration) *Validator {
	if value <= 0 {
		return v.add(field, "duration must be positive, got %s", value)
	}
	return v
}

// ValidateRange validates that an integer field is within [min, max]
func (v *Validator) ValidateRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		return v.add(field, "value must be between %d and %d, got %d", min, max, value)
	}
	return v
}

// ValidateFloatRange validates that a float field is within [min, max]
func (v *Validator) ValidateFloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		return v.add(field, "value must be between %.2f and %.2f, got %.2f", min, max, value)
	}
	return v
}

// ValidateNotAbove validates that lo does not exceed hi.
func (v *Validator) ValidateNotAbove(field string, lo, hi int) *Validator {
	if lo > hi {
		return v.add(field, "lower bound %d exceeds upper bound %d", lo, hi)
	}
	return v
}

// ValidateDBNumber validates that a Redis database number is within 0-15
func (v *Validator) ValidateDBNumber(field string, db int) *Validator {
	return v.ValidateRange(field, db, 0, 15)
}

// ValidateOneOf validates that a string value is one of the allowed options
func (v *Validator) ValidateOneOf(field string, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if a == value {
			return v
		}
	}
	return v.add(field, "value must be one of %v, got %q", allowed, value)
}

// ValidateMinLength validates that a string field has at least minLen characters
func (v *Validator) ValidateMinLength(field string, value string, minLen int) *Validator {
	if n := utf8.RuneCountInString(value); n < minLen {
		return v.add(field, "value must be at least %d characters long, got %d", minLen, n)
	}
	return v
}

// HasErrors returns true if there are any validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns a combined error or nil if there are no errors
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}

	var b strings.Builder
	b.WriteString("configuration validation failed:\n")
	for _, e := range v.errors {
		fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
	}
	return errors.New(b.String())
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

func (v *Validator) validateLLM(cfg LLMConfig) {
	v.ValidateOneOf("llm.provider", cfg.Provider, ProviderOpenAI, ProviderGroq, ProviderClaude, ProviderGemini)
	v.RequireNonEmpty("llm.api_key", cfg.APIKey)
	if cfg.MaxTokens < 0 {
		v.add("llm.max_tokens", "value cannot be negative, got %d", cfg.MaxTokens)
	}
	if cfg.CallTimeout < 0 {
		v.add("llm.call_timeout", "duration cannot be negative, got %s", cfg.CallTimeout)
	}
	for name, p := range cfg.Profiles.named() {
		v.ValidateFloatRange("llm.profiles."+name+".temperature", p.Temperature, 0.0, 2.0)
	}
}

func (v *Validator) validateClarify(cfg ClarifyConfig) {
	v.ValidateRange("clarify.max_rounds", cfg.MaxRounds, 1, 5)
	v.ValidateRange("clarify.min_questions", cfg.MinQuestions, 3, 5)
	v.ValidateRange("clarify.max_questions", cfg.MaxQuestions, 3, 5)
	v.ValidateNotAbove("clarify.min_questions", cfg.MinQuestions, cfg.MaxQuestions)
	v.ValidateOneOf("clarify.override_policy", cfg.OverridePolicy, "conservative", "trust_model")
	v.ValidateOneOf("clarify.heuristic", cfg.Heuristic, "strict", "generic")
	v.ValidateOneOf("clarify.declined_strategy", cfg.DeclinedStrategy, "pattern", "model")
	if cfg.HistoryTokenBudget < 0 {
		v.add("clarify.history_token_budget", "value cannot be negative, got %d", cfg.HistoryTokenBudget)
	}
}

func (v *Validator) validateChecklist(cfg ChecklistConfig) {
	if cfg.Watch {
		v.RequireNonEmpty("checklist.dir", cfg.Dir)
		v.RequirePositiveDuration("checklist.debounce", cfg.Debounce)
	}
}

func (v *Validator) validateSession(cfg SessionConfig) {
	v.ValidateOneOf("session.store", cfg.Store, StoreMemory, StoreRedis, StoreMongo, StorePostgres)
	v.RequirePositive("session.max_input_runes", cfg.MaxInputRunes)
	if cfg.RateLimit > 0 {
		v.RequirePositiveDuration("session.rate_window", cfg.RateWindow)
	}
	switch cfg.Store {
	case StoreMemory:
		v.ValidateRange("session.memory_capacity", cfg.MemoryCapacity, 0, 1_000_000)
	case StoreRedis:
		v.RequireNonEmpty("session.redis.addr", cfg.Redis.Addr)
		v.ValidateDBNumber("session.redis.db", cfg.Redis.DB)
		v.RequireNonEmpty("session.redis.prefix", cfg.Redis.Prefix)
		v.RequirePositiveDuration("session.redis.lock_ttl", cfg.Redis.LockTTL)
	case StoreMongo:
		v.RequireNonEmpty("session.mongo.uri", cfg.Mongo.URI)
		v.RequireNonEmpty("session.mongo.database", cfg.Mongo.Database)
		v.RequireNonEmpty("session.mongo.collection", cfg.Mongo.Collection)
	case StorePostgres:
		v.RequireNonEmpty("session.postgres.dsn", cfg.Postgres.DSN)
	}
}

func (v *Validator) validateTelemetry(cfg TelemetryConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Exporter != "" {
		v.ValidateOneOf("telemetry.exporter", cfg.Exporter, "otlp", "stdout")
	}
	v.ValidateFloatRange("telemetry.sample_ratio", cfg.SampleRatio, 0, 1)
}
