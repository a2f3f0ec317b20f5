package followup

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/sweetpotato0/ai-lawdesk/clarify"
	"github.com/sweetpotato0/ai-lawdesk/intent"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"github.com/sweetpotato0/ai-lawdesk/prompt"
)

const (
	maxOptional   = 5
	answerExcerpt = 800

	optionalLead = "以下の情報があれば、より正確な判断が可能です："
	optionalNote = "※これらの情報により結論が変わる可能性があります。"
	optionalAsk  = "※回答は任意ですが、正確な判断のためにはお答えいただくことを推奨します。"
)

const generatorInstruction = "You help a legal consultation become more precise after a first answer has been given."

var generatorSystem = prompt.NewBuilder().
	Add(generatorInstruction+"\n\n").
	AddSection("Task", "Pick 3 to 5 questions whose answers could substantially change the legal conclusion.").
	AddList("Offence", []string{
		"intent versus negligence",
		"accomplices",
		"self-defence or necessity",
		"the victim's consent",
	}).
	AddList("Sentence", []string{
		"prior convictions for the same offence, especially during a suspended sentence",
		"restitution and settlement progress",
		"organised versus individual conduct",
		"habitual conduct",
		"surrender to the police",
	}).
	AddList("Disposition", []string{
		"changes in the victim's wish for punishment",
		"social consequences such as media coverage or job loss",
		"rehabilitation prospects such as treatment or family supervision",
	}).
	AddList("Constraints", []string{
		"Each question at most 20 characters, 30 when it matters.",
		"Do not ask for facts already known.",
		"Leave out questions unlikely to change the conclusion.",
		"Avoid legal jargon and write in the user's language.",
	}).
	Add(`Respond with a JSON object {"questions": ["..."], "importance": ["high" | "medium" | "low"]}. Use empty arrays when nothing is worth asking.`).
	Build()

type generatorReply struct {
	Questions  []string `json:"questions"`
	Importance []string `json:"importance"`
}

// Generator proposes the optional follow-up block shown once after an answer.
type Generator struct {
	client  llm.LLMClient
	profile llm.Profile
	logger  *slog.Logger
}

// NewGenerator creates a generator using profile for its requests.
func NewGenerator(client llm.LLMClient, profile llm.Profile) *Generator {
	return &Generator{
		client:  client,
		profile: profile,
		logger:  logging.WithComponent("followup"),
	}
}

// Eligible reports whether a follow-up block may be offered in a
// conversation with state st.
func Eligible(st clarify.State) bool {
	return !st.FollowUpEmitted && !st.LastIsClarification
}

// MaybeGenerate returns the optional follow-up block for answer, or false
// when none should be offered. Failures are logged and yield false.
func (g *Generator) MaybeGenerate(ctx context.Context, hist []*message.Message, in intent.Intent, answer string) (string, bool) {
	if len(hist) == 0 || !Eligible(clarify.DeriveState(hist)) || g.client == nil {
		return "", false
	}

	tail := hist
	if len(tail) > contextTurns {
		tail = tail[len(tail)-contextTurns:]
	}
	excerpt := []rune(answer)
	if len(excerpt) > answerExcerpt {
		excerpt = excerpt[:answerExcerpt]
	}
	user := prompt.NewBuilder().
		AddJSON("Conversation", message.Turns(tail)).
		AddSection("Answer given", string(excerpt)).
		AddSection("Answer type", in.String()).
		Build()

	req := g.profile.Request(generatorSystem, []*message.Message{message.NewMessage(message.RoleUser, user)})
	out, err := llm.GenerateJSON[generatorReply](ctx, g.client, req)
	if err != nil {
		g.logger.Warn("optional follow-up generation failed", "error", err)
		return "", false
	}

	questions := rank(out.Questions, out.Importance)
	if len(questions) == 0 {
		return "", false
	}
	return Format(questions), true
}

// rank orders questions high, medium, then the rest, keeping the model's
// order within a level. Importance is ignored when it does not line up with
// the questions.
func rank(questions, importance []string) []string {
	type scored struct {
		q    string
		rank int
	}
	items := make([]scored, 0, len(questions))
	for i, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		r := 0
		if len(importance) == len(questions) {
			r = importanceRank(importance[i])
		}
		items = append(items, scored{q: q, rank: r})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].rank < items[j].rank })

	out := make([]string, 0, maxOptional)
	for _, it := range items {
		if len(out) == maxOptional {
			break
		}
		out = append(out, it.q)
	}
	return out
}

func importanceRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "high":
		return 0
	case "medium":
		return 1
	default:
		return 2
	}
}

// Format renders questions as the optional follow-up block appended after
// an answer.
func Format(questions []string) string {
	lines := []string{
		"",
		strings.Repeat("=", 50),
		"",
		clarify.OptionalMarker,
		optionalLead,
		"",
	}
	for i, q := range questions {
		lines = append(lines, strconv.Itoa(i+1)+". "+q)
	}
	lines = append(lines, "", optionalNote, optionalAsk)
	return strings.Join(lines, "\n")
}
