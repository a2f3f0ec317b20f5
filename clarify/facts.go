package clarify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/ai-lawdesk/intent"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"github.com/sweetpotato0/ai-lawdesk/prompt"
)

const (
	factsInstruction = "You summarize the facts a user has already stated in a criminal-law consultation."
	maxFacts         = 10
)

type factsReply struct {
	Facts stringList `json:"facts"`
}

// FactsSummarizer extracts a short list of established facts from the
// user's turns.
type FactsSummarizer struct {
	client  llm.LLMClient
	profile llm.Profile
	logger  *slog.Logger
}

// NewFactsSummarizer creates a summarizer. Requests always run at
// temperature 0.
func NewFactsSummarizer(client llm.LLMClient, profile llm.Profile) *FactsSummarizer {
	profile.Temperature = 0
	return &FactsSummarizer{
		client:  client,
		profile: profile,
		logger:  logging.WithComponent("clarify"),
	}
}

// Summarize returns "label：value" entries. It never fails: an unusable
// reply yields the placeholder entry.
func (s *FactsSummarizer) Summarize(ctx context.Context, hist []*message.Message, in intent.Intent) []string {
	texts := message.UserTexts(hist)
	if len(texts) == 0 || s.client == nil {
		return []string{FactsPlaceholder}
	}

	req := s.profile.Request(factsSystem(in), []*message.Message{
		message.NewMessage(message.RoleUser, strings.Join(texts, "\n\n")),
	})
	out, err := llm.GenerateJSON[factsReply](ctx, s.client, req)
	if err != nil {
		s.logger.Warn("fact extraction failed", "error", err)
		return []string{FactsPlaceholder}
	}

	facts := make([]string, 0, len(out.Facts))
	for _, f := range out.Facts {
		if f = normalizeFact(f); f != "" {
			facts = append(facts, f)
		}
		if len(facts) == maxFacts {
			break
		}
	}
	if len(facts) == 0 {
		return []string{FactsPlaceholder}
	}
	return facts
}

func factsSystem(in intent.Intent) string {
	focus := []string{"act (what was done)", "harm or damage"}
	if in.AsksSentence() {
		focus = append(focus, "prior record", "settlement with the victim", "remorse")
	} else {
		focus = append(focus, "current status (arrested, at home ...)")
	}
	return prompt.NewBuilder().
		Add(factsInstruction+"\n\n").
		AddList("Focus on", focus).
		AddList("Rules", []string{
			"Use only what the user wrote. Do not guess.",
			`Write each fact as "label：value" with a value of about ten characters or less.`,
			`State negations explicitly, for example "前科：なし".`,
			"Write in the user's language.",
		}).
		Add(`Respond with a JSON object {"facts": ["label：value", ...]}.`).
		Build()
}

var negations = strings.NewReplacer("：無し", "：なし", "：有り", "：あり")

// normalizeFact trims bullets and unifies the label separator and the
// spelling of none/some.
func normalizeFact(f string) string {
	f = strings.TrimSpace(f)
	f = strings.TrimLeft(f, "・-*• ")
	f = strings.TrimSpace(f)
	if f == "" {
		return ""
	}
	if !strings.Contains(f, "：") {
		if label, value, ok := strings.Cut(f, ":"); ok {
			f = strings.TrimSpace(label) + "：" + strings.TrimSpace(value)
		}
	}
	return negations.Replace(f)
}
