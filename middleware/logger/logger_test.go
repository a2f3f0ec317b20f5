package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sweetpotato0/ai-lawdesk/consult"
	"github.com/sweetpotato0/ai-lawdesk/intent"
	"github.com/sweetpotato0/ai-lawdesk/middleware"
)

func newLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func TestRequestLogger(t *testing.T) {
	t.Run("logs session and size but not content", func(t *testing.T) {
		l, buf := newLogger()
		ctx := &middleware.Context{SessionID: "s1", Input: "人を殴ってしまいました"}

		if err := NewRequestLogger(l).Execute(ctx, func(c *middleware.Context) error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, `"session":"s1"`) || !strings.Contains(out, `"runes":11`) {
			t.Errorf("log = %s", out)
		}
		if strings.Contains(out, "殴") {
			t.Errorf("message content leaked into log: %s", out)
		}
	})

	t.Run("nil logger falls back to process logger", func(t *testing.T) {
		ctx := &middleware.Context{Input: "test"}
		if err := NewRequestLogger(nil).Execute(ctx, func(c *middleware.Context) error { return nil }); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestResponseLogger(t *testing.T) {
	t.Run("logs reply kind", func(t *testing.T) {
		l, buf := newLogger()
		ctx := &middleware.Context{SessionID: "s1"}

		err := NewResponseLogger(l).Execute(ctx, func(c *middleware.Context) error {
			c.Reply = consult.NewText(consult.KindClarification, intent.PredictCrimeType, "block")
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, `"kind":"clarification"`) || !strings.Contains(out, `"intent":"predict_crime_type"`) {
			t.Errorf("log = %s", out)
		}
	})

	t.Run("logs and returns downstream error", func(t *testing.T) {
		l, buf := newLogger()
		boom := errors.New("boom")

		err := NewResponseLogger(l).Execute(&middleware.Context{}, func(c *middleware.Context) error { return boom })
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v", err)
		}
		if !strings.Contains(buf.String(), "message failed") {
			t.Errorf("log = %s", buf.String())
		}
	})

	t.Run("no reply logs nothing", func(t *testing.T) {
		l, buf := newLogger()
		if err := NewResponseLogger(l).Execute(&middleware.Context{}, func(c *middleware.Context) error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected no log, got %s", buf.String())
		}
	})
}
