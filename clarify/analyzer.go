package clarify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sweetpotato0/ai-lawdesk/checklist"
	"github.com/sweetpotato0/ai-lawdesk/intent"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/telemetry"
	"github.com/sweetpotato0/ai-lawdesk/prompt"
	"github.com/sweetpotato0/ai-lawdesk/tokenizer"
	"go.opentelemetry.io/otel/attribute"
)

const analyzerInstruction = "You decide whether a criminal-law consultation already has the facts needed before an answer is written."

var analyzerRules = []string{
	"Do not answer the consultation. Only decide whether to ask more and what to ask.",
	"Ask more only when information essential to the answer is missing.",
	"sufficiency.has_enough is true when every essential item is known and false only when something essential is missing.",
	"List missing essential items in missing_required and cover them with 3 to 5 questions in question_items.",
	"Put nice-to-have items in missing_optional and do not ask about them unless needed.",
	"Aim to finish in two rounds and never go beyond three unless unavoidable. From the second round on, ask only for what is truly essential.",
	"Never ask again for facts already given in the conversation.",
	"Offence questions are normally settled once the act, the harm and the circumstances are known.",
	"Sentencing questions are normally settled once prior record, settlement and severity of harm are known.",
	"In the first round set focus to \"big\".",
	"Write question_items in the user's language.",
}

var requiredItems = map[intent.Intent][]string{
	intent.PredictCrimeType: {
		"act: what was done",
		"harm: what damage or injury resulted",
		"circumstances: when, where and against whom",
	},
	intent.PredictPunishment: {
		"offence and outline of the conduct",
		"concrete harm and its severity",
		"prior convictions or arrests, especially for the same offence",
		"settlement, amount paid and the victim's wish for punishment",
		"premeditation, habitual conduct, motive and use of weapons",
		"remorse, surrender, apology and measures against reoffending",
		"family or employer supervision",
	},
	intent.LegalProcess: {
		"current procedural stage (arrest, detention, indictment ...)",
		"contact received from police or prosecutors",
		"whether counsel has been appointed",
	},
}

func init() {
	requiredItems[intent.PredictCrimeAndPunishment] = append(
		append([]string{"intent: deliberate or negligent"}, requiredItems[intent.PredictCrimeType]...),
		requiredItems[intent.PredictPunishment]...,
	)
}

const analysisContract = `{"ask_more": bool, "sufficiency": {"has_enough": bool, "missing_required": [string], "missing_optional": [string], "confidence": number}, "focus": "big"|"detail"|"sentencing", "big_category": string, "question_items": [string], "reason": string}`

// Analyzer asks the text-generation capability which essential facts are
// still missing.
type Analyzer struct {
	client    llm.LLMClient
	profile   llm.Profile
	catalogue checklist.Provider
	tok       tokenizer.Tokenizer
	budget    int
	maxRounds int
	limits    Limits
	logger    *slog.Logger
}

// NewAnalyzer creates an analyzer from cfg.
func NewAnalyzer(client llm.LLMClient, cfg *Config) *Analyzer {
	cfg = applyOptions(cfg, nil)
	return &Analyzer{
		client:    client,
		profile:   cfg.AnalysisProfile,
		catalogue: cfg.Catalogue,
		tok:       cfg.Tokenizer,
		budget:    cfg.HistoryTokenBudget,
		maxRounds: cfg.MaxRounds,
		limits:    cfg.Limits,
		logger:    cfg.logger(),
	}
}

// Analyze returns the verdict for hist. Identical inputs produce identical
// requests.
func (a *Analyzer) Analyze(ctx context.Context, hist []*message.Message, in intent.Intent, rounds int) (res *Sufficiency, err error) {
	ctx, span := telemetry.Start(ctx, "clarify.Analyze",
		attribute.String("intent", in.String()),
		attribute.Int("rounds", rounds),
	)
	defer func() { telemetry.End(span, err) }()

	if a.client == nil {
		return nil, fmt.Errorf("analyze: llm client is nil")
	}

	var cat *checklist.Catalogue
	if a.catalogue != nil {
		cat, err = a.catalogue.Catalogue(ctx)
		if err != nil {
			a.logger.Warn("checklist unavailable, analyzing without it", "error", err)
			cat, err = nil, nil
		}
	}

	req := a.profile.Request(a.system(in, cat), []*message.Message{
		message.NewMessage(message.RoleUser, a.userPrompt(hist, in, rounds)),
	})
	out, err := llm.GenerateJSON[analysis](ctx, a.client, req)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	res = out.toSufficiency()
	a.logger.Debug("analysis",
		"intent", in,
		"rounds", rounds,
		"ask_more", res.AskMore,
		"missing_required", len(res.MissingRequired),
		"question_items", len(res.QuestionItems),
	)
	return res, nil
}

func (a *Analyzer) system(in intent.Intent, cat *checklist.Catalogue) string {
	b := prompt.NewBuilder().
		Add(analyzerInstruction+"\n\n").
		AddList("Rules", analyzerRules).
		AddList("Essential items", requiredItems[in])

	if cat.Empty() {
		return b.Build()
	}
	if in.AsksCrime() {
		b.AddSection("Offence categories and their features", cat.BigCategorySummary())
		b.AddSection("Detailed hearing items per category", cat.DetailSummary())
	}
	if summary := cat.SentencingSummary(); in.AsksSentence() && summary != "" {
		b.AddSection("Sentencing hearing items per category",
			"Prefer the items of the category matching this consultation and ask only about those that bear on this case.\n"+summary)
	}
	return b.Build()
}

func (a *Analyzer) userPrompt(hist []*message.Message, in intent.Intent, rounds int) string {
	return prompt.NewBuilder().
		AddJSON("Conversation", message.Turns(a.window(hist))).
		AddSection("Status", "Rounds completed: "+strconv.Itoa(rounds)+"\nMaximum rounds: "+strconv.Itoa(a.maxRounds)+"\nTask: "+in.String()).
		AddSection("Response format", "Return only this JSON object:\n"+analysisContract+
			"\nWhen ask_more is true, question_items must hold "+strconv.Itoa(a.limits.Min)+" to "+strconv.Itoa(a.limits.Max)+" questions.").
		Build()
}

// window trims hist oldest-first to the token budget, never dropping the
// latest user turn.
func (a *Analyzer) window(hist []*message.Message) []*message.Message {
	if a.tok == nil || a.budget <= 0 || len(hist) == 0 {
		return hist
	}
	texts := make([]string, len(hist))
	lastUser := len(hist) - 1
	for i, msg := range hist {
		texts[i] = msg.Text()
		if msg != nil && msg.Role == message.RoleUser {
			lastUser = i
		}
	}
	start := tokenizer.TrimOldest(a.tok, texts, a.budget)
	if start > lastUser {
		start = lastUser
	}
	return hist[start:]
}
