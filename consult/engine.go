// Package consult routes each consultation turn: it classifies the intent,
// runs the clarification dialogue when facts are missing, and otherwise
// streams the matching answer followed by optional follow-up questions.
package consult

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/ai-lawdesk/answer"
	"github.com/sweetpotato0/ai-lawdesk/checklist"
	"github.com/sweetpotato0/ai-lawdesk/clarify"
	"github.com/sweetpotato0/ai-lawdesk/config"
	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/followup"
	"github.com/sweetpotato0/ai-lawdesk/intent"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"github.com/sweetpotato0/ai-lawdesk/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Fixed replies.
const (
	WelcomeText   = "こんにちは。ご相談やご質問があればお気軽にお知らせください。"
	InjectionText = "不正な操作を検知しました"
	NoLegalText   = "現在では法的な質問のみに限定して対話を行うことができます"
)

// Components are the collaborators of an Engine.
type Components struct {
	Classifier *intent.Classifier
	Clarifier  *clarify.Engine
	Detector   *followup.Detector
	FollowUps  *followup.Generator

	CrimeType  answer.Generator
	Punishment answer.Generator
	Combined   answer.Generator
	Process    answer.Generator
}

// Engine answers consultation turns. It keeps no per-session state and is
// safe for concurrent use.
type Engine struct {
	c      Components
	logger *slog.Logger
}

// NewEngine creates an engine from explicit components.
func NewEngine(c Components) *Engine {
	return &Engine{c: c, logger: logging.WithComponent("consult")}
}

// New wires every component around client using cfg. catalogue may be nil.
// Extra clarify options are applied last.
func New(client llm.LLMClient, cfg *config.Config, catalogue checklist.Provider, opts ...clarify.Option) *Engine {
	p := cfg.LLM.Profiles
	clarifyOpts := append(clarify.FromConfig(cfg.Clarify, p), clarify.WithCatalogue(catalogue))
	clarifyOpts = append(clarifyOpts, opts...)
	return NewEngine(Components{
		Classifier: intent.NewClassifier(client, p.Classifier),
		Clarifier:  clarify.NewEngine(client, clarifyOpts...),
		Detector:   followup.NewDetector(client, p.Classifier),
		FollowUps:  followup.NewGenerator(client, p.QuestionGenerator),
		CrimeType:  answer.NewCrimeType(client, p.Main, p.Main, catalogue),
		Punishment: answer.NewSimple(client, p.Streaming),
		Combined:   answer.NewCombined(client, p.Streaming),
		Process:    answer.NewSimple(client, p.Streaming),
	})
}

type replyOptions struct {
	hint intent.Intent
}

// ReplyOption customises a single Reply call.
type ReplyOption func(*replyOptions)

// WithIntentHint skips classification and uses in.
func WithIntentHint(in intent.Intent) ReplyOption {
	return func(o *replyOptions) {
		o.hint = in
	}
}

// Reply produces the assistant's response to the latest turn of hist. hist
// is read, never modified.
func (e *Engine) Reply(ctx context.Context, hist []*message.Message, opts ...ReplyOption) (reply *Reply, err error) {
	if len(hist) == 0 {
		return NewText(KindFixed, "", WelcomeText), nil
	}
	var o replyOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := telemetry.Start(ctx, "consult.Reply", attribute.Int("turns", len(hist)))
	defer func() {
		if reply != nil {
			span.SetAttributes(attribute.String("intent", reply.Intent.String()), attribute.String("kind", string(reply.Kind)))
		}
		telemetry.End(span, err)
	}()

	st := clarify.DeriveState(hist)

	if st.FollowUpEmitted && e.c.Detector != nil && e.c.Detector.Detect(ctx, hist) == followup.ContinuationOf {
		in := o.hint
		if in == "" {
			in, err = e.classify(ctx, hist[:len(hist)-1])
			if err != nil {
				return nil, err
			}
		}
		e.logger.Info("continuing previous consultation", "intent", in)
		return NewStream(in, e.answer(ctx, hist, in, false)), nil
	}

	in := o.hint
	if in == "" {
		in, err = e.classify(ctx, hist)
		if err != nil {
			return nil, err
		}
	}

	switch in {
	case intent.Injection:
		e.logger.Warn("injection attempt detected")
		return NewText(KindFixed, in, InjectionText), nil
	case intent.NoLegal:
		return NewText(KindFixed, in, NoLegalText), nil
	case intent.PredictCrimeType, intent.PredictPunishment, intent.PredictCrimeAndPunishment, intent.LegalProcess:
		if block, ok := e.c.Clarifier.Decide(ctx, hist, in, st); ok {
			return NewText(KindClarification, in, block), nil
		}
		return NewStream(in, e.answer(ctx, hist, in, in != intent.LegalProcess)), nil
	default:
		return nil, fmt.Errorf("route %q: %w", in, lderrors.ErrInvalidIntent)
	}
}

func (e *Engine) classify(ctx context.Context, hist []*message.Message) (intent.Intent, error) {
	return e.c.Classifier.Classify(ctx, message.JoinContents(hist))
}

// generator picks the answer generator for in. Non-legal intents reached
// through a continuation get the plain lawyer answer.
func (e *Engine) generator(in intent.Intent) answer.Generator {
	switch in {
	case intent.PredictCrimeType:
		return e.c.CrimeType
	case intent.PredictPunishment:
		return e.c.Punishment
	case intent.PredictCrimeAndPunishment:
		return e.c.Combined
	default:
		return e.c.Process
	}
}

// answer streams the generator output and, when withFollowUp is set and the
// answer completed, one optional follow-up block as the final fragment.
func (e *Engine) answer(ctx context.Context, hist []*message.Message, in intent.Intent, withFollowUp bool) iter.Seq2[string, error] {
	gen := e.generator(in)
	return func(yield func(string, error) bool) {
		var text strings.Builder
		for frag, err := range gen.Generate(ctx, hist) {
			if err != nil {
				e.logger.Error("answer generation failed", "intent", in, "error", err)
				yield("", err)
				return
			}
			text.WriteString(frag)
			if !yield(frag, nil) {
				return
			}
		}
		if !withFollowUp || e.c.FollowUps == nil {
			return
		}
		if block, ok := e.c.FollowUps.MaybeGenerate(ctx, hist, in, text.String()); ok {
			yield(block, nil)
		}
	}
}
