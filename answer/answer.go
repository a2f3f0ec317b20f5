// Package answer streams the final replies for each legal intent.
package answer

import (
	"context"
	"iter"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sweetpotato0/ai-lawdesk/checklist"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
)

// Generator produces an answer as a stream of text fragments. Breaking out
// of the loop or cancelling ctx stops generation.
type Generator interface {
	Generate(ctx context.Context, hist []*message.Message) iter.Seq2[string, error]
}

// Instructed streams a reply under a fixed system instruction. It serves
// sentencing and procedural questions.
type Instructed struct {
	client      llm.LLMClient
	profile     llm.Profile
	instruction string
}

// NewSimple creates the concise lawyer generator.
func NewSimple(client llm.LLMClient, profile llm.Profile) *Instructed {
	return &Instructed{client: client, profile: profile, instruction: mustRender(tmplSimple, nil)}
}

// NewCombined creates the generator predicting offence and sentence together.
func NewCombined(client llm.LLMClient, profile llm.Profile) *Instructed {
	return &Instructed{client: client, profile: profile, instruction: mustRender(tmplCombined, nil)}
}

// Generate implements Generator.
func (g *Instructed) Generate(ctx context.Context, hist []*message.Message) iter.Seq2[string, error] {
	return llm.StreamText(ctx, g.client, g.profile.Request(g.instruction, hist))
}

var moveDirective = regexp.MustCompile(`MOVE\{([^}]*)\}`)

// CrimeType answers offence questions in two stages: the category sheet
// routes the consultation to one detail sheet, which then drives the
// streamed answer. When routing asks questions instead, or names a sheet
// that does not exist, the routing text is the answer.
type CrimeType struct {
	client    llm.LLMClient
	route     llm.Profile
	answer    llm.Profile
	catalogue checklist.Provider
	logger    *slog.Logger
}

// NewCrimeType creates the two-stage generator. route is used for the
// routing call, answer for the streamed second stage.
func NewCrimeType(client llm.LLMClient, route, answer llm.Profile, catalogue checklist.Provider) *CrimeType {
	return &CrimeType{
		client:    client,
		route:     route,
		answer:    answer,
		catalogue: catalogue,
		logger:    logging.WithComponent("answer"),
	}
}

// Generate implements Generator.
func (g *CrimeType) Generate(ctx context.Context, hist []*message.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		cat := g.load(ctx)
		routeInst, err := templates.Render(tmplCrimeRoute, sheetData{Mark: checklist.Mark, Table: bigTable(cat)})
		if err != nil {
			yield("", err)
			return
		}
		decision, err := llm.GenerateText(ctx, g.client, g.route.Request(routeInst, hist))
		if err != nil {
			yield("", err)
			return
		}

		target, ok := MoveTarget(decision)
		if !ok {
			yield(decision, nil)
			return
		}
		sheet, ok := cat.DetailSheet(target)
		if !ok {
			g.logger.Warn("unknown routing target", "sheet", target)
			yield(decision, nil)
			return
		}
		g.logger.Debug("routing to detail sheet", "sheet", sheet.Name)

		detailInst, err := templates.Render(tmplCrimeDetail, sheetData{Mark: checklist.Mark, Sheet: sheet.Name, Table: sheet.Text()})
		if err != nil {
			yield("", err)
			return
		}
		for frag, err := range llm.StreamText(ctx, g.client, g.answer.Request(detailInst, hist)) {
			if !yield(frag, err) || err != nil {
				return
			}
		}
	}
}

func (g *CrimeType) load(ctx context.Context) *checklist.Catalogue {
	if g.catalogue == nil {
		return nil
	}
	cat, err := g.catalogue.Catalogue(ctx)
	if err != nil {
		g.logger.Warn("checklist unavailable", "error", err)
		return nil
	}
	return cat
}

func bigTable(cat *checklist.Catalogue) string {
	if cat == nil || cat.Big == nil {
		return "(no category sheet available; answer from general knowledge and ask follow-up questions)"
	}
	return cat.Big.Text()
}

// MoveTarget extracts the sheet name of a MOVE{...} directive.
func MoveTarget(text string) (string, bool) {
	m := moveDirective.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}

func mustRender(name string, data any) string {
	out, err := templates.Render(name, data)
	if err != nil {
		panic(err)
	}
	return out
}
