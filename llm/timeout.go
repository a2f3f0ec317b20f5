package llm

import (
	"context"
	"iter"
	"time"

	"github.com/sweetpotato0/ai-lawdesk/message"
)

// WithTimeout bounds every call made through client by d. A zero or
// negative d returns client unchanged. Streaming support is preserved.
func WithTimeout(client LLMClient, d time.Duration) LLMClient {
	if d <= 0 || client == nil {
		return client
	}
	if s, ok := client.(StreamLLMClient); ok {
		return &timeoutStreamClient{timeoutClient{next: client, d: d}, s}
	}
	return &timeoutClient{next: client, d: d}
}

type timeoutClient struct {
	next LLMClient
	d    time.Duration
}

func (c *timeoutClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.d)
	defer cancel()
	return c.next.Generate(ctx, req)
}

type timeoutStreamClient struct {
	timeoutClient
	stream StreamLLMClient
}

func (c *timeoutStreamClient) GenerateStream(ctx context.Context, req *GenerateRequest) iter.Seq2[*message.Message, error] {
	return func(yield func(*message.Message, error) bool) {
		ctx, cancel := context.WithTimeout(ctx, c.d)
		defer cancel()
		for msg, err := range c.stream.GenerateStream(ctx, req) {
			if !yield(msg, err) {
				return
			}
		}
	}
}
