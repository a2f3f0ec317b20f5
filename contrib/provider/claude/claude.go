package claude

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
)

// jsonDirective is appended to the system prompt in JSON mode since the
// Messages API has no response-format switch.
const jsonDirective = "Respond with a single JSON object only. Do not wrap it in code fences."

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey, baseURL string) *Config {
	return &Config{
		APIKey:    apiKey,
		BaseURL:   baseURL,
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 4096,
	}
}

// Provider implements llm.StreamLLMClient on the Anthropic Messages API.
type Provider struct {
	config *Config
	client anthropic.Client
}

// New creates a new Claude provider using official SDK
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("", "")
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5-20250929"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: anthropic.NewClient(options...),
	}
}

// Generate implements llm.LLMClient.
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}

	apiMessage, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	var b strings.Builder
	for _, content := range apiMessage.Content {
		if content.Type == "text" {
			b.WriteString(content.Text)
		}
	}
	return &llm.GenerateResponse{
		Message: message.NewMessage(message.RoleAssistant, b.String()),
	}, nil
}

// GenerateStream implements llm.StreamLLMClient.
func (p *Provider) GenerateStream(ctx context.Context, req *llm.GenerateRequest) iter.Seq2[*message.Message, error] {
	return func(yield func(*message.Message, error) bool) {
		if req == nil {
			yield(nil, fmt.Errorf("stream request cannot be nil"))
			return
		}

		stream := p.client.Messages.NewStreaming(ctx, p.buildParams(req))
		defer stream.Close()

		finalMsg := message.NewMessage(message.RoleAssistant, "")
		for stream.Next() {
			event := stream.Current()
			if event.Type != "content_block_delta" {
				continue
			}
			delta := event.AsContentBlockDelta()
			if delta.Delta.Type != "text_delta" || delta.Delta.Text == "" {
				continue
			}
			finalMsg.AppendText(delta.Delta.Text)
			if !yield(message.NewFragment(delta.Delta.Text), nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield(nil, fmt.Errorf("Claude streaming error: %w", err))
			return
		}
		yield(finalMsg, nil)
	}
}

func (p *Provider) buildParams(req *llm.GenerateRequest) anthropic.MessageNewParams {
	var systemPrompts []string
	if req.System != "" {
		systemPrompts = append(systemPrompts, req.System)
	}
	conversation := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Text())
		case message.RoleUser:
			conversation = append(conversation, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text())))
		case message.RoleAssistant:
			conversation = append(conversation, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Text())))
		}
	}
	if req.JSON {
		systemPrompts = append(systemPrompts, jsonDirective)
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  conversation,
		MaxTokens: maxTokens,
	}
	if len(systemPrompts) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(systemPrompts, "\n\n")}}
	}

	switch {
	case req.Temperature != nil:
		params.Temperature = anthropic.Float(*req.Temperature)
	case p.config.Temperature > 0:
		params.Temperature = anthropic.Float(p.config.Temperature)
	}
	return params
}

var _ llm.StreamLLMClient = (*Provider)(nil)
