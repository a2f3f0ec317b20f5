// Package provider builds the configured text-generation client.
package provider

import (
	"context"
	"fmt"
	"io"

	"github.com/sweetpotato0/ai-lawdesk/config"
	"github.com/sweetpotato0/ai-lawdesk/contrib/provider/claude"
	"github.com/sweetpotato0/ai-lawdesk/contrib/provider/gemini"
	"github.com/sweetpotato0/ai-lawdesk/contrib/provider/openai"
	"github.com/sweetpotato0/ai-lawdesk/llm"
)

// New returns a client for cfg.Provider wrapped with the configured call
// timeout. Release it with Close.
func New(ctx context.Context, cfg config.LLMConfig) (llm.LLMClient, error) {
	var client llm.LLMClient
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		c := openai.DefaultConfig().WithAPIKey(cfg.APIKey).WithBaseURL(cfg.BaseURL)
		if cfg.MaxTokens > 0 {
			c.MaxTokens = cfg.MaxTokens
		}
		client = openai.New(c)
	case config.ProviderGroq:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openai.GroqBaseURL
		}
		c := openai.DefaultConfig().WithAPIKey(cfg.APIKey).WithBaseURL(baseURL).WithModel(cfg.Profiles.Main.Model)
		if cfg.MaxTokens > 0 {
			c.MaxTokens = cfg.MaxTokens
		}
		client = openai.New(c)
	case config.ProviderClaude:
		c := claude.DefaultConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.MaxTokens > 0 {
			c.MaxTokens = cfg.MaxTokens
		}
		client = claude.New(c)
	case config.ProviderGemini:
		c := gemini.DefaultConfig(cfg.APIKey)
		if cfg.MaxTokens > 0 {
			c.MaxTokens = int32(cfg.MaxTokens)
		}
		g, err := gemini.New(ctx, c)
		if err != nil {
			return nil, err
		}
		client = g
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	wrapped := llm.WithTimeout(client, cfg.CallTimeout)
	if s, ok := wrapped.(llm.StreamLLMClient); ok {
		return &closingStreamClient{StreamLLMClient: s, raw: client}, nil
	}
	return &closingClient{LLMClient: wrapped, raw: client}, nil
}

// Close releases provider resources held by a client returned from New.
func Close(client llm.LLMClient) error {
	if c, ok := client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type closingClient struct {
	llm.LLMClient
	raw llm.LLMClient
}

func (c *closingClient) Close() error {
	return closeRaw(c.raw)
}

type closingStreamClient struct {
	llm.StreamLLMClient
	raw llm.LLMClient
}

func (c *closingStreamClient) Close() error {
	return closeRaw(c.raw)
}

func closeRaw(client llm.LLMClient) error {
	if closer, ok := client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
