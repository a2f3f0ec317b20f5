package clarify

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"github.com/sweetpotato0/ai-lawdesk/prompt"
)

// DeclinedFinder lists the questions the user could not answer. Returned
// questions carry no list numbering.
type DeclinedFinder interface {
	Find(ctx context.Context, hist []*message.Message) []string
}

// DeclinedStrategy selects a DeclinedFinder.
type DeclinedStrategy string

const (
	DeclinedPattern DeclinedStrategy = "pattern"
	DeclinedModel   DeclinedStrategy = "model"
)

var unknownMarkers = []string{
	"わからない", "分からない", "わかりません", "分かりません", "不明", "知らない", "知りません",
	"覚えていない", "覚えてない", "記憶にない", "不詳",
	"don't know", "dont know", "do not know", "not sure", "don't remember", "no idea", "unknown",
}

// PatternFinder declines every question of a clarification block whose
// reply contains a "don't know" marker.
type PatternFinder struct{}

// Find implements DeclinedFinder.
func (PatternFinder) Find(ctx context.Context, hist []*message.Message) []string {
	var out []string
	for _, ex := range exchanges(hist) {
		if !saysUnknown(ex.answer) {
			continue
		}
		for _, line := range QuestionLines(ex.block) {
			out = append(out, StripNumber(line))
		}
	}
	return out
}

func saysUnknown(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range unknownMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// exchange is a clarification block and the user turn answering it.
type exchange struct {
	block  string
	answer string
}

func exchanges(hist []*message.Message) []exchange {
	var out []exchange
	for i := 0; i+1 < len(hist); i++ {
		if !IsClarification(hist[i]) {
			continue
		}
		next := hist[i+1]
		if next == nil || next.Role != message.RoleUser {
			continue
		}
		out = append(out, exchange{block: hist[i].Content, answer: next.Content})
	}
	return out
}

const declinedInstruction = "You review question-and-answer exchanges from a legal consultation and find the questions the user could not answer."

var declinedSystem = prompt.NewBuilder().
	Add(declinedInstruction+"\n\n").
	AddList("Rules", []string{
		"A question is declined when the user says they do not know, do not remember, or cannot say.",
		"A question the user skipped entirely is not declined.",
		"Copy each declined question exactly as written, without its list number.",
	}).
	Add(`Respond with a JSON object {"declined": ["question", ...]}. Use an empty array when nothing was declined.`).
	Build()

type declinedReply struct {
	Declined stringList `json:"declined"`
}

// ModelFinder asks the text-generation capability which questions were
// declined. Any failure falls back to the pattern strategy.
type ModelFinder struct {
	client   llm.LLMClient
	profile  llm.Profile
	fallback DeclinedFinder
	logger   *slog.Logger
}

// NewModelFinder creates a model-backed finder.
func NewModelFinder(client llm.LLMClient, profile llm.Profile) *ModelFinder {
	return &ModelFinder{
		client:   client,
		profile:  profile,
		fallback: PatternFinder{},
		logger:   logging.WithComponent("clarify"),
	}
}

// Find implements DeclinedFinder.
func (f *ModelFinder) Find(ctx context.Context, hist []*message.Message) []string {
	exs := exchanges(hist)
	if len(exs) == 0 {
		return nil
	}

	b := prompt.NewBuilder()
	for i, ex := range exs {
		b.AddSection("Exchange "+strconv.Itoa(i+1), "Questions:\n"+strings.Join(QuestionLines(ex.block), "\n")+"\n\nAnswer:\n"+ex.answer)
	}
	req := f.profile.Request(declinedSystem, []*message.Message{
		message.NewMessage(message.RoleUser, b.Build()),
	})
	req.Temperature = llm.Float(0)

	out, err := llm.GenerateJSON[declinedReply](ctx, f.client, req)
	if err != nil {
		f.logger.Warn("declined detection failed, using pattern", "error", err)
		return f.fallback.Find(ctx, hist)
	}
	declined := make([]string, 0, len(out.Declined))
	for _, q := range out.Declined {
		if q = StripNumber(q); q != "" {
			declined = append(declined, q)
		}
	}
	return declined
}

// NewDeclinedFinder returns the finder for strategy. The model strategy
// needs a client; without one the pattern strategy is used.
func NewDeclinedFinder(strategy DeclinedStrategy, client llm.LLMClient, profile llm.Profile) DeclinedFinder {
	if strategy == DeclinedModel && client != nil {
		return NewModelFinder(client, profile)
	}
	return PatternFinder{}
}
