// Package clarify decides, turn by turn, whether a consultation needs
// another round of questions before it can be answered, and renders that
// round.
package clarify

import (
	"context"
	"log/slog"

	"github.com/sweetpotato0/ai-lawdesk/graph"
	"github.com/sweetpotato0/ai-lawdesk/intent"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Graph node names.
const (
	nodeAwaitingUser  = "awaiting_user"
	nodeRoundCeiling  = "round_ceiling"
	nodeAnalyze       = "analyze"
	nodeRouteAnalysis = "route_analysis"
	nodeCompose       = "compose"
	nodeRouteCompose  = "route_compose"
	nodeEmit          = "emit"
	nodeFallback      = "fallback"
	nodeNone          = "none"
	nodeEnd           = "end"
)

type turnState struct {
	hist   []*message.Message
	intent intent.Intent
	state  State

	analysis   *Sufficiency
	analyzeErr error

	declined     []string
	declinedDone bool
	facts        []string
	questions    []string
	composeErr   error

	block string
}

// Engine is the clarification state machine. It is safe for concurrent use.
type Engine struct {
	cfg       *Config
	analyzer  *Analyzer
	facts     *FactsSummarizer
	declined  DeclinedFinder
	heuristic Heuristic
	graph     *graph.Graph[*turnState]
	logger    *slog.Logger
}

// NewEngine wires the analyzer, fact summarizer and declined finder around
// client.
func NewEngine(client llm.LLMClient, opts ...Option) *Engine {
	cfg := applyOptions(nil, opts)
	e := &Engine{
		cfg:       cfg,
		analyzer:  NewAnalyzer(client, cfg),
		facts:     NewFactsSummarizer(client, cfg.QuestionProfile),
		declined:  NewDeclinedFinder(cfg.Declined, client, cfg.QuestionProfile),
		heuristic: NewHeuristic(cfg.Heuristic),
		logger:    cfg.logger(),
	}
	e.graph = e.buildGraph()
	return e
}

// MaxRounds reports the configured round ceiling.
func (e *Engine) MaxRounds() int {
	return e.cfg.MaxRounds
}

// ShouldAskMore returns the next clarification block for hist, or false
// when the consultation should be answered now.
func (e *Engine) ShouldAskMore(ctx context.Context, hist []*message.Message, in intent.Intent) (string, bool) {
	return e.Decide(ctx, hist, in, DeriveState(hist))
}

// Decide is ShouldAskMore with the conversation state already derived.
func (e *Engine) Decide(ctx context.Context, hist []*message.Message, in intent.Intent, st State) (string, bool) {
	if !in.IsLegal() {
		return "", false
	}

	var err error
	ctx, span := telemetry.Start(ctx, "clarify.ShouldAskMore",
		attribute.String("intent", in.String()),
		attribute.Int("rounds", st.RoundsCompleted),
	)
	defer func() { telemetry.End(span, err) }()

	ts, err := e.graph.Execute(ctx, &turnState{hist: hist, intent: in, state: st})
	if err != nil {
		e.logger.Warn("clarification aborted", "error", err)
		return "", false
	}
	if ts.block == "" {
		return "", false
	}
	span.SetAttributes(attribute.Int("questions", len(ts.questions)))
	return ts.block, true
}

func (e *Engine) buildGraph() *graph.Graph[*turnState] {
	return graph.NewBuilder[*turnState]().
		AddConditionNode(nodeAwaitingUser, e.routeAwaiting, map[string]string{
			"wait": nodeNone,
			"next": nodeRoundCeiling,
		}).
		AddConditionNode(nodeRoundCeiling, e.routeCeiling, map[string]string{
			"reached": nodeNone,
			"next":    nodeAnalyze,
		}).
		AddNode(nodeAnalyze, graph.NodeTypeCustom, e.analyze).
		AddConditionNode(nodeRouteAnalysis, e.routeAnalysis, map[string]string{
			"failed":     nodeFallback,
			"sufficient": nodeNone,
			"missing":    nodeCompose,
		}).
		AddNode(nodeCompose, graph.NodeTypeCustom, e.compose).
		AddConditionNode(nodeRouteCompose, e.routeCompose, map[string]string{
			"rejected": nodeFallback,
			"ok":       nodeEmit,
		}).
		AddNode(nodeEmit, graph.NodeTypeCustom, e.emit).
		AddNode(nodeFallback, graph.NodeTypeCustom, e.fallback).
		AddNode(nodeNone, graph.NodeTypeCustom, nil).
		AddNode(nodeEnd, graph.NodeTypeEnd, nil).
		AddEdge(nodeAnalyze, nodeRouteAnalysis).
		AddEdge(nodeCompose, nodeRouteCompose).
		AddEdge(nodeEmit, nodeEnd).
		AddEdge(nodeFallback, nodeEnd).
		AddEdge(nodeNone, nodeEnd).
		SetStart(nodeAwaitingUser).
		Observe(func(ctx context.Context, node string, ts *turnState) {
			e.logger.Debug("clarify step", "node", node, "intent", ts.intent, "rounds", ts.state.RoundsCompleted)
		}).
		Build()
}

func (e *Engine) routeAwaiting(ctx context.Context, ts *turnState) (string, error) {
	if !ts.state.AwaitingUser {
		return "wait", nil
	}
	return "next", nil
}

func (e *Engine) routeCeiling(ctx context.Context, ts *turnState) (string, error) {
	if ts.state.RoundsCompleted >= e.cfg.MaxRounds {
		e.logger.Info("clarification ceiling reached", "rounds", ts.state.RoundsCompleted)
		return "reached", nil
	}
	return "next", nil
}

func (e *Engine) analyze(ctx context.Context, ts *turnState) (*turnState, error) {
	ts.analysis, ts.analyzeErr = e.analyzer.Analyze(ctx, ts.hist, ts.intent, ts.state.RoundsCompleted)
	if ts.analyzeErr != nil && ctx.Err() != nil {
		return ts, ctx.Err()
	}
	return ts, nil
}

func (e *Engine) routeAnalysis(ctx context.Context, ts *turnState) (string, error) {
	switch {
	case ts.analyzeErr != nil:
		e.logger.Warn("gap analysis failed, using fallback", "error", ts.analyzeErr)
		return "failed", nil
	case !ts.analysis.EssentialMissing(e.cfg.Policy):
		return "sufficient", nil
	default:
		return "missing", nil
	}
}

func (e *Engine) compose(ctx context.Context, ts *turnState) (*turnState, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ts.declined = e.declined.Find(gctx, ts.hist)
		return nil
	})
	g.Go(func() error {
		ts.facts = e.facts.Summarize(gctx, ts.hist, ts.intent)
		return nil
	})
	if err := g.Wait(); err != nil {
		return ts, err
	}
	ts.declinedDone = true

	ts.questions, ts.composeErr = e.cfg.Limits.Compose(
		ts.analysis.Questions(),
		ts.analysis.MissingRequired,
		ts.intent,
		ts.declined,
	)
	return ts, nil
}

func (e *Engine) routeCompose(ctx context.Context, ts *turnState) (string, error) {
	if ts.composeErr != nil {
		e.logger.Warn("question set rejected, using fallback", "error", ts.composeErr, "declined", len(ts.declined))
		return "rejected", nil
	}
	return "ok", nil
}

func (e *Engine) emit(ctx context.Context, ts *turnState) (*turnState, error) {
	a := ts.analysis
	intro := chooseIntro(ts.intent, a.Focus, a.BigCategory)
	ts.block = renderBlock(ts.state.RoundsCompleted+1, ts.facts, a.BigCategory, intro, ts.questions)
	return ts, nil
}

func (e *Engine) fallback(ctx context.Context, ts *turnState) (*turnState, error) {
	if e.heuristic.Sufficient(ts.hist, ts.intent, ts.state.RoundsCompleted) {
		e.logger.Debug("heuristic judged consultation sufficient")
		return ts, nil
	}
	if !ts.declinedDone {
		ts.declined = e.declined.Find(ctx, ts.hist)
		ts.declinedDone = true
	}

	set := newQuestionSet(ts.declined)
	for _, q := range DefaultQuestions(ts.intent) {
		set.add(q)
	}
	if set.len() < e.cfg.Limits.Min {
		for _, q := range reserveQuestions(ts.intent) {
			set.add(q)
			if set.len() >= e.cfg.Limits.Min {
				break
			}
		}
	}
	questions := set.items
	if len(questions) > e.cfg.Limits.Max {
		questions = questions[:e.cfg.Limits.Max]
	}
	if len(questions) < e.cfg.Limits.Min {
		return ts, nil
	}
	ts.questions = questions
	ts.block = renderFallback(ts.state.RoundsCompleted+1, questions)
	return ts, nil
}
