// Package errorhandler turns failures of a turn into the fixed notices shown
// to the user.
package errorhandler

import (
	"errors"
	"log/slog"

	"github.com/sweetpotato0/ai-lawdesk/consult"
	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/middleware"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
)

// User-visible notices.
const (
	ApologyText     = "申し訳ありません。処理中にエラーが発生しました。時間をおいて再度お試しください。"
	BusyText        = "現在処理中です。前のメッセージへの回答が完了するまでお待ちください。"
	RateLimitedText = "短時間に多くのメッセージが送信されました。しばらく時間をおいて再度お試しください。"
	EmptyInputText  = "ご相談内容を入力してください。"
	TooLongText     = "メッセージが長すぎます。内容を分けて送信してください。"
)

// Message returns the notice shown to the user for err.
func Message(err error) string {
	switch {
	case errors.Is(err, lderrors.ErrSessionBusy):
		return BusyText
	case errors.Is(err, lderrors.ErrRateLimited):
		return RateLimitedText
	case errors.Is(err, middleware.ErrEmptyInput):
		return EmptyInputText
	case errors.Is(err, middleware.ErrInputTooLong):
		return TooLongText
	default:
		return ApologyText
	}
}

// ErrorHandler replaces a failed turn with a fixed reply.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates an error handling middleware
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = logging.WithComponent("middleware")
	}
	return &ErrorHandler{logger: logger}
}

// Name returns the middleware name
func (m *ErrorHandler) Name() string {
	return "ErrorHandler"
}

// Execute handles errors from downstream middlewares. The error is recorded
// on ctx and the chain reports success with a fixed reply.
func (m *ErrorHandler) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := next(ctx)
	if err == nil {
		return nil
	}
	m.logger.Warn("turn failed", "session", ctx.SessionID, "error", err)
	ctx.Error = err
	ctx.Reply = consult.NewText(consult.KindFixed, "", Message(err))
	return nil
}
