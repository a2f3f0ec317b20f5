// Package logger records inbound messages and the replies produced for them.
package logger

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/sweetpotato0/ai-lawdesk/middleware"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
)

// RequestLogger logs incoming requests
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger creates a request logging middleware. A nil logger uses
// the process logger.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.WithComponent("middleware")
	}
	return &RequestLogger{logger: logger}
}

// Name returns the middleware name
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs the request. Only the size of the message is logged, never
// its content.
func (m *RequestLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	m.logger.Info("message received",
		"session", ctx.SessionID,
		"runes", utf8.RuneCountInString(ctx.Input),
		"turns", len(ctx.History))
	return next(ctx)
}

// ResponseLogger logs outgoing responses
type ResponseLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewResponseLogger creates a response logging middleware
func NewResponseLogger(logger *slog.Logger) *ResponseLogger {
	if logger == nil {
		logger = logging.WithComponent("middleware")
	}
	return &ResponseLogger{logger: logger, now: time.Now}
}

// Name returns the middleware name
func (m *ResponseLogger) Name() string {
	return "ResponseLogger"
}

// Execute logs the reply kind once the rest of the chain returns. Streamed
// answers are logged when the stream starts.
func (m *ResponseLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := m.now()
	err := next(ctx)
	elapsed := m.now().Sub(start)
	switch {
	case err != nil:
		m.logger.Error("message failed", "session", ctx.SessionID, "elapsed", elapsed, "error", err)
	case ctx.Reply != nil:
		m.logger.Info("reply ready",
			"session", ctx.SessionID,
			"kind", ctx.Reply.Kind,
			"intent", ctx.Reply.Intent,
			"streaming", ctx.Reply.Streaming(),
			"elapsed", elapsed)
	}
	return err
}
