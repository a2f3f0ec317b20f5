// Package followup handles what happens after an answer: deciding whether
// a new user message continues the previous consultation, and offering
// optional questions that could change the conclusion.
package followup

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/sweetpotato0/ai-lawdesk/clarify"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"github.com/sweetpotato0/ai-lawdesk/prompt"
)

// Continuation tells whether a user turn continues the previous topic.
type Continuation string

const (
	ContinuationOf  Continuation = "continuation"
	NewConsultation Continuation = "new_consultation"
)

// contextTurns is how many trailing turns model calls see.
const contextTurns = 4

var (
	numberedAnswers = []string{"1.", "2.", "3.", "１．", "２．", "３．", "①", "②", "③"}
	ackKeywords     = []string{"について", "の件", "それは", "その", "はい", "いいえ", "追加で"}
	ackWords        = []string{"regarding", "yes", "no", "additionally"}
	newTopicMarkers = []string{"別の相談", "違う質問", "新しく", "他に", "次は", "別件で", "different matter", "separately", "next question"}
)

const detectorInstruction = "You decide whether the latest user message continues the previous legal consultation or starts a new one."

var detectorSystem = prompt.NewBuilder().
	Add(detectorInstruction+"\n\n").
	AddList("Criteria", []string{
		`The user adds details or answers about the earlier consultation: "continuation".`,
		`The user starts an entirely new legal consultation: "new_consultation".`,
		`You cannot tell: "unclear".`,
	}).
	Add(`Respond with a JSON object {"intent": "continuation" | "new_consultation" | "unclear"}.`).
	Build()

type detectorReply struct {
	Intent string `json:"intent"`
}

// Detector classifies user turns that follow an answer.
type Detector struct {
	client  llm.LLMClient
	profile llm.Profile
	logger  *slog.Logger
}

// NewDetector creates a detector. Model requests run at temperature 0.
func NewDetector(client llm.LLMClient, profile llm.Profile) *Detector {
	profile.Temperature = 0
	return &Detector{
		client:  client,
		profile: profile,
		logger:  logging.WithComponent("followup"),
	}
}

// Detect never fails; anything uncertain is a new consultation.
func (d *Detector) Detect(ctx context.Context, hist []*message.Message) Continuation {
	if len(hist) < 2 {
		return NewConsultation
	}
	lastUser := message.LastOfRole(hist, message.RoleUser)
	if lastUser == nil {
		return NewConsultation
	}
	text := lastUser.Content

	if clarify.IsOptionalFollowUp(message.LastOfRole(hist, message.RoleAssistant)) {
		if containsAny(text, numberedAnswers) || containsAny(text, ackKeywords) || hasWord(text, ackWords) {
			return ContinuationOf
		}
	}
	if containsAny(strings.ToLower(text), newTopicMarkers) {
		return NewConsultation
	}
	if d.client == nil {
		return NewConsultation
	}

	tail := hist
	if len(tail) > contextTurns {
		tail = tail[len(tail)-contextTurns:]
	}
	req := d.profile.Request(detectorSystem, []*message.Message{
		message.NewMessage(message.RoleUser, prompt.NewBuilder().AddJSON("Conversation", message.Turns(tail)).Build()),
	})
	out, err := llm.GenerateJSON[detectorReply](ctx, d.client, req)
	if err != nil {
		d.logger.Warn("continuation detection failed", "error", err)
		return NewConsultation
	}
	if Continuation(strings.TrimSpace(out.Intent)) == ContinuationOf {
		return ContinuationOf
	}
	return NewConsultation
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// hasWord matches whole latin words, case-insensitively.
func hasWord(text string, words []string) bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) || r > unicode.MaxLatin1
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
