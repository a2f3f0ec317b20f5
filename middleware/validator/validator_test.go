package validator

import (
	"errors"
	"strings"
	"testing"

	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/middleware"
)

func TestInputValidator(t *testing.T) {
	v := NewInputValidator(NonEmpty, MaxRunes(10), nil)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "valid", input: "逮捕されました"},
		{name: "exactly at limit", input: strings.Repeat("あ", 10)},
		{name: "blank", input: " \n\t", wantErr: middleware.ErrEmptyInput},
		{name: "empty", input: "", wantErr: middleware.ErrEmptyInput},
		{name: "too long", input: strings.Repeat("あ", 11), wantErr: middleware.ErrInputTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executed := false
			err := v.Execute(&middleware.Context{Input: tt.input}, func(c *middleware.Context) error {
				executed = true
				return nil
			})
			if tt.wantErr == nil {
				if err != nil || !executed {
					t.Fatalf("err = %v executed = %v", err, executed)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, lderrors.ErrInvalidInput) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if executed {
				t.Error("handler should not be executed for invalid input")
			}
		})
	}
}

func TestMaxRunesDisabled(t *testing.T) {
	if err := MaxRunes(0)(strings.Repeat("x", 10000)); err != nil {
		t.Errorf("MaxRunes(0) = %v", err)
	}
}
