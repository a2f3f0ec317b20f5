package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sweetpotato0/ai-lawdesk/checklist"
	"github.com/sweetpotato0/ai-lawdesk/clarify"
	"github.com/sweetpotato0/ai-lawdesk/config"
	"github.com/sweetpotato0/ai-lawdesk/consult"
	"github.com/sweetpotato0/ai-lawdesk/contrib/provider"
	"github.com/sweetpotato0/ai-lawdesk/contrib/session/inmemory"
	"github.com/sweetpotato0/ai-lawdesk/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/ai-lawdesk/followup"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/middleware/enricher"
	"github.com/sweetpotato0/ai-lawdesk/middleware/errorhandler"
	"github.com/sweetpotato0/ai-lawdesk/middleware/limiter"
	"github.com/sweetpotato0/ai-lawdesk/middleware/logger"
	"github.com/sweetpotato0/ai-lawdesk/middleware/validator"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"github.com/sweetpotato0/ai-lawdesk/pkg/telemetry"
	"github.com/sweetpotato0/ai-lawdesk/session"
	"github.com/sweetpotato0/ai-lawdesk/session/store"
)

// app holds the wired runtime shared by the chat and mcp commands.
type app struct {
	cfg      *config.Config
	client   llm.LLMClient
	manager  *session.Manager
	detector *followup.Detector
	logger   *slog.Logger

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: logging.WithComponent("lawdesk")}
	if err := a.wire(ctx); err != nil {
		a.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "ai-lawdesk",
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Telemetry.Environment,
		Disable:        !cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)

	client, err := provider.New(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	a.client = client
	a.closers = append(a.closers, func(context.Context) error { return provider.Close(client) })

	catalogue, err := a.catalogue(ctx)
	if err != nil {
		return err
	}

	var opts []clarify.Option
	if enc := cfg.Clarify.TokenizerEncoding; enc != "" {
		tok, err := tiktoken.New(enc)
		if err != nil {
			return err
		}
		opts = append(opts, clarify.WithTokenizer(tok, cfg.Clarify.HistoryTokenBudget))
	}
	engine := consult.New(a.client, cfg, catalogue, opts...)

	st, locker, err := a.store(ctx)
	if err != nil {
		return err
	}
	mopts := []session.Option{
		session.WithStore(st),
		session.WithMiddleware(
			logger.NewRequestLogger(nil),
			errorhandler.NewErrorHandler(nil),
			logger.NewResponseLogger(nil),
			validator.NewInputValidator(validator.NonEmpty, validator.MaxRunes(cfg.Session.MaxInputRunes)),
			limiter.NewRateLimiter(cfg.Session.RateLimit, cfg.Session.RateWindow),
			enricher.NewTitleEnricher(),
		),
	}
	if locker != nil {
		mopts = append(mopts, session.WithLocker(locker))
	}
	a.manager = session.NewManager(engine, mopts...)
	a.detector = followup.NewDetector(a.client, cfg.LLM.Profiles.Classifier)
	return nil
}

// catalogue returns nil when no checklist directory is configured.
func (a *app) catalogue(ctx context.Context) (checklist.Provider, error) {
	c := a.cfg.Checklist
	if c.Dir == "" {
		a.logger.Warn("no checklist directory configured; clarification runs without reference sheets")
		return nil, nil
	}
	cache := checklist.NewCache(checklist.NewDirSource(c.Dir))
	if _, err := cache.Catalogue(ctx); err != nil {
		return nil, fmt.Errorf("load checklists from %s: %w", c.Dir, err)
	}
	if c.Watch {
		w, err := checklist.NewWatcher(c.Dir, cache, c.Debounce, func() {
			a.logger.Info("checklists changed", "dir", c.Dir)
		})
		if err != nil {
			return nil, err
		}
		if err := w.Start(ctx); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { w.Stop(); return nil })
	}
	return cache, nil
}

func (a *app) store(ctx context.Context) (session.Store, session.Locker, error) {
	sc := a.cfg.Session
	switch sc.Store {
	case config.StoreRedis:
		rs := store.NewRedisStore(sc.Redis)
		a.closers = append(a.closers, func(context.Context) error { return rs.Close() })
		if err := rs.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", sc.Redis.Addr, err)
		}
		return rs, rs, nil
	case config.StoreMongo:
		ms, err := store.NewMongoStore(ctx, sc.Mongo)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, ms.Close)
		return ms, nil, nil
	case config.StorePostgres:
		ps, err := store.NewPostgresStore(ctx, sc.Postgres)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return ps.Close() })
		return ps, nil, nil
	default:
		return inmemory.NewInMemoryStore(inmemory.WithCapacity(sc.MemoryCapacity)), nil, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
