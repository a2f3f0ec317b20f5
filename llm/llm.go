package llm

import (
	"context"
	"iter"

	"github.com/sweetpotato0/ai-lawdesk/message"
)

// GenerateRequest bundles inputs for one call to the text-generation capability.
type GenerateRequest struct {
	// System is the instruction prepended to the conversation.
	System   string
	Messages []*message.Message

	// Model overrides the provider default when non-empty.
	Model string
	// Temperature overrides the provider default when non-nil. Zero is a
	// meaningful value, hence the pointer.
	Temperature *float64
	MaxTokens   int64

	// JSON asks the provider for a JSON object response.
	JSON bool
}

// GenerateResponse captures the reply for non-streaming calls.
type GenerateResponse struct {
	Message *message.Message
}

// LLMClient is the blocking text-generation capability.
type LLMClient interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// StreamLLMClient defines the interface for providers that support streaming.
// The sequence yields incomplete fragments followed by a single completed
// message carrying the accumulated text. Breaking out of the loop closes the
// underlying stream.
type StreamLLMClient interface {
	LLMClient
	GenerateStream(ctx context.Context, req *GenerateRequest) iter.Seq2[*message.Message, error]
}

// Profile pins the model and temperature used for one purpose
// (classification, question generation, streaming answers ...).
type Profile struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// Request builds a request for this profile.
func (p Profile) Request(system string, msgs []*message.Message) *GenerateRequest {
	temp := p.Temperature
	return &GenerateRequest{
		System:      system,
		Messages:    msgs,
		Model:       p.Model,
		Temperature: &temp,
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
