package clarify

import (
	"log/slog"

	"github.com/sweetpotato0/ai-lawdesk/checklist"
	"github.com/sweetpotato0/ai-lawdesk/config"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"github.com/sweetpotato0/ai-lawdesk/tokenizer"
)

// DefaultMaxRounds is the hard ceiling on clarification rounds.
const DefaultMaxRounds = 5

// Config controls the clarification dialogue.
type Config struct {
	MaxRounds int    // Ceiling on clarification rounds per consultation
	Limits    Limits // Bounds on questions per round
	Policy    Policy
	Heuristic HeuristicName    // Used when the analysis is unusable
	Declined  DeclinedStrategy // How unanswerable questions are detected

	AnalysisProfile llm.Profile // Gap analysis requests
	QuestionProfile llm.Profile // Fact extraction and declined detection

	HistoryTokenBudget int // Zero sends the whole history
	Tokenizer          tokenizer.Tokenizer
	Catalogue          checklist.Provider // Optional reference checklists
	Logger             *slog.Logger
}

// Option customises the engine configuration.
type Option func(*Config)

// WithMaxRounds overrides the round ceiling. Values are clamped to
// [1, DefaultMaxRounds]; zero or negative keeps the current ceiling.
func WithMaxRounds(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxRounds = min(n, DefaultMaxRounds)
		}
	}
}

// WithQuestionLimits overrides how many questions a round asks. Both
// bounds are clamped to DefaultLimits.
func WithQuestionLimits(minQ, maxQ int) Option {
	return func(cfg *Config) {
		if minQ <= 0 || maxQ < minQ {
			return
		}
		cfg.Limits = Limits{Min: clampLimit(minQ), Max: clampLimit(maxQ)}
	}
}

func clampLimit(n int) int {
	return max(DefaultLimits.Min, min(n, DefaultLimits.Max))
}

// WithPolicy selects how far the model's sufficiency verdict is trusted.
func WithPolicy(p Policy) Option {
	return func(cfg *Config) {
		if p != "" {
			cfg.Policy = p
		}
	}
}

// WithHeuristic selects the fallback sufficiency heuristic.
func WithHeuristic(name HeuristicName) Option {
	return func(cfg *Config) {
		if name != "" {
			cfg.Heuristic = name
		}
	}
}

// WithDeclinedStrategy selects how declined questions are detected.
func WithDeclinedStrategy(s DeclinedStrategy) Option {
	return func(cfg *Config) {
		if s != "" {
			cfg.Declined = s
		}
	}
}

// WithProfiles sets the model profiles for analysis and for the smaller
// extraction calls.
func WithProfiles(analysis, questions llm.Profile) Option {
	return func(cfg *Config) {
		cfg.AnalysisProfile = analysis
		cfg.QuestionProfile = questions
	}
}

// WithCatalogue supplies the reference checklists to the analyzer.
func WithCatalogue(p checklist.Provider) Option {
	return func(cfg *Config) {
		cfg.Catalogue = p
	}
}

// WithTokenizer bounds the history sent for analysis to budget tokens.
func WithTokenizer(tok tokenizer.Tokenizer, budget int) Option {
	return func(cfg *Config) {
		cfg.Tokenizer = tok
		cfg.HistoryTokenBudget = budget
	}
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

// FromConfig translates the clarify section and model profiles of the
// application configuration into options.
func FromConfig(c config.ClarifyConfig, p config.Profiles) []Option {
	return []Option{
		WithMaxRounds(c.MaxRounds),
		WithQuestionLimits(c.MinQuestions, c.MaxQuestions),
		WithPolicy(Policy(c.OverridePolicy)),
		WithHeuristic(HeuristicName(c.Heuristic)),
		WithDeclinedStrategy(DeclinedStrategy(c.DeclinedStrategy)),
		WithProfiles(p.QuestionGenerator, p.QuestionGenerator),
	}
}

func defaultConfig() *Config {
	return &Config{
		MaxRounds:       DefaultMaxRounds,
		Limits:          DefaultLimits,
		Policy:          PolicyConservative,
		Heuristic:       HeuristicStrict,
		Declined:        DeclinedPattern,
		AnalysisProfile: llm.Profile{Temperature: 0},
		QuestionProfile: llm.Profile{Temperature: 0.2},
	}
}

func applyOptions(cfg *Config, opts []Option) *Config {
	var out *Config
	if cfg == nil {
		out = defaultConfig()
	} else {
		clone := *cfg
		out = &clone
	}
	for _, opt := range opts {
		if opt != nil {
			opt(out)
		}
	}
	if out.MaxRounds <= 0 {
		out.MaxRounds = DefaultMaxRounds
	}
	if out.Limits.Min <= 0 || out.Limits.Max < out.Limits.Min {
		out.Limits = DefaultLimits
	}
	if out.Policy == "" {
		out.Policy = PolicyConservative
	}
	return out
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.WithComponent("clarify")
}
