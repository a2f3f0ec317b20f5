package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
)

// StreamText produces the reply as text fragments. Providers that cannot
// stream fall back to a single Generate call whose text is yielded once.
func StreamText(ctx context.Context, client LLMClient, req *GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if client == nil {
			yield("", fmt.Errorf("llm client is nil"))
			return
		}

		streamer, ok := client.(StreamLLMClient)
		if !ok {
			text, err := GenerateText(ctx, client, req)
			if err != nil {
				yield("", err)
				return
			}
			yield(text, nil)
			return
		}

		seq := streamer.GenerateStream(ctx, req)
		if seq == nil {
			yield("", fmt.Errorf("LLM streaming returned empty sequence"))
			return
		}

		for msg, err := range seq {
			if err != nil {
				yield("", err)
				return
			}
			if msg == nil || msg.Completed || msg.Content == "" {
				continue
			}
			if !yield(msg.Content, nil) {
				return
			}
		}
	}
}

// GenerateText runs a blocking call and returns the trimmed reply text.
func GenerateText(ctx context.Context, client LLMClient, req *GenerateRequest) (string, error) {
	if client == nil {
		return "", fmt.Errorf("llm client is nil")
	}
	resp, err := client.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Message == nil || strings.TrimSpace(resp.Message.Text()) == "" {
		return "", lderrors.ErrEmptyResponse
	}
	return resp.Message.Text(), nil
}

// Collect drains a fragment sequence into a single string, stopping at the
// first error.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	for frag, err := range seq {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}
