package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sweetpotato0/ai-lawdesk/tokenizer"
)

// Tokenizer wraps a tiktoken encoding.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

var _ tokenizer.Tokenizer = (*Tokenizer)(nil)

// New resolves name as a model first and as an encoding name second
// ("gpt-4.1", "cl100k_base", "o200k_base").
func New(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, fmt.Errorf("tiktoken: unknown model or encoding %q: %w", name, err)
		}
	}
	return &Tokenizer{enc: enc}, nil
}

// Encode returns the token ids of text.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

// Decode maps token ids back to text.
func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}
