// Package validator rejects inbound messages that cannot be consulted on.
package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sweetpotato0/ai-lawdesk/middleware"
)

// ValidatorFunc validates input
type ValidatorFunc func(string) error

// NonEmpty rejects blank messages.
func NonEmpty(input string) error {
	if strings.TrimSpace(input) == "" {
		return middleware.ErrEmptyInput
	}
	return nil
}

// MaxRunes rejects messages longer than n characters. n <= 0 disables the
// check.
func MaxRunes(n int) ValidatorFunc {
	return func(input string) error {
		if n > 0 && utf8.RuneCountInString(input) > n {
			return fmt.Errorf("%d characters, limit %d: %w", utf8.RuneCountInString(input), n, middleware.ErrInputTooLong)
		}
		return nil
	}
}

// InputValidator validates the inbound message
type InputValidator struct {
	validators []ValidatorFunc
}

// NewInputValidator creates an input validation middleware. Validators run
// in order; the first failure stops the chain.
func NewInputValidator(validators ...ValidatorFunc) *InputValidator {
	return &InputValidator{validators: validators}
}

// Name returns the middleware name
func (m *InputValidator) Name() string {
	return "InputValidator"
}

// Execute validates the input
func (m *InputValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	for _, v := range m.validators {
		if v == nil {
			continue
		}
		if err := v(ctx.Input); err != nil {
			return err
		}
	}
	return next(ctx)
}
