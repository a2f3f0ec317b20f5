package middleware

import (
	"fmt"

	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
)

var (
	// ErrEmptyInput indicates the inbound message has no text
	ErrEmptyInput = fmt.Errorf("empty message: %w", lderrors.ErrInvalidInput)

	// ErrInputTooLong indicates the inbound message exceeds the configured length
	ErrInputTooLong = fmt.Errorf("message too long: %w", lderrors.ErrInvalidInput)
)
