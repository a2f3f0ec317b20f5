// Package enricher adds derived data to the middleware context before the
// engine runs.
package enricher

import (
	"github.com/sweetpotato0/ai-lawdesk/middleware"
	"github.com/sweetpotato0/ai-lawdesk/session"
)

// EnricherFunc enriches the context
type EnricherFunc func(*middleware.Context) error

// ContextEnricher adds additional data to the middleware context
type ContextEnricher struct {
	name     string
	enricher EnricherFunc
}

// NewContextEnricher creates a context enriching middleware
func NewContextEnricher(enricher EnricherFunc) *ContextEnricher {
	return &ContextEnricher{name: "ContextEnricher", enricher: enricher}
}

// NewTitleEnricher titles a conversation from its opening message.
func NewTitleEnricher() *ContextEnricher {
	return &ContextEnricher{name: "TitleEnricher", enricher: func(ctx *middleware.Context) error {
		if ctx.FirstTurn() {
			ctx.Title = session.Title(ctx.Input)
		}
		return nil
	}}
}

// Name returns the middleware name
func (m *ContextEnricher) Name() string {
	return m.name
}

// Execute enriches the context
func (m *ContextEnricher) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.enricher != nil {
		if err := m.enricher(ctx); err != nil {
			return err
		}
	}
	return next(ctx)
}
