package enricher

import (
	"context"
	"errors"
	"testing"

	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/middleware"
)

func TestContextEnricher(t *testing.T) {
	t.Run("enriches context with metadata", func(t *testing.T) {
		enricher := NewContextEnricher(func(ctx *middleware.Context) error {
			ctx.Metadata["key"] = "value"
			return nil
		})

		ctx := &middleware.Context{Metadata: map[string]any{}}
		err := enricher.Execute(ctx, func(c *middleware.Context) error { return nil })

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if ctx.Metadata["key"] != "value" {
			t.Error("metadata not enriched")
		}
	})

	t.Run("returns error if enricher fails", func(t *testing.T) {
		enricher := NewContextEnricher(func(ctx *middleware.Context) error {
			return errors.New("enrichment failed")
		})

		called := false
		err := enricher.Execute(&middleware.Context{}, func(c *middleware.Context) error {
			called = true
			return nil
		})

		if err == nil || called {
			t.Errorf("err = %v called = %v", err, called)
		}
	})

	t.Run("handles nil enricher function", func(t *testing.T) {
		err := NewContextEnricher(nil).Execute(&middleware.Context{}, func(c *middleware.Context) error { return nil })
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestTitleEnricher(t *testing.T) {
	first := "示談について教えてください"
	t.Run("titles the opening message", func(t *testing.T) {
		hist := []*message.Message{message.NewMessage(message.RoleUser, first)}
		ctx := middleware.NewContext(context.Background(), "s1", first, hist)

		if err := NewTitleEnricher().Execute(ctx, func(c *middleware.Context) error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ctx.Title != first {
			t.Errorf("Title = %q, want %q", ctx.Title, first)
		}
	})

	t.Run("later messages keep the title", func(t *testing.T) {
		hist := []*message.Message{
			message.NewMessage(message.RoleUser, first),
			message.NewMessage(message.RoleAssistant, "ご状況を教えてください"),
			message.NewMessage(message.RoleUser, "相手は知人です"),
		}
		ctx := middleware.NewContext(context.Background(), "s1", "相手は知人です", hist)

		if err := NewTitleEnricher().Execute(ctx, func(c *middleware.Context) error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ctx.Title != "" {
			t.Errorf("Title = %q, want empty", ctx.Title)
		}
	})

	if got := NewTitleEnricher().Name(); got != "TitleEnricher" {
		t.Errorf("Name = %q", got)
	}
}
