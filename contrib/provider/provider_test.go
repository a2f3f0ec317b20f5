package provider

import (
	"context"
	"testing"
	"time"

	"github.com/sweetpotato0/ai-lawdesk/config"
	"github.com/sweetpotato0/ai-lawdesk/llm"
)

func TestNewKeepsStreaming(t *testing.T) {
	for _, name := range []string{config.ProviderOpenAI, config.ProviderGroq, config.ProviderClaude} {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default().LLM
			cfg.Provider = name
			cfg.APIKey = "test-key"
			cfg.CallTimeout = time.Second

			client, err := New(context.Background(), cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if _, ok := client.(llm.StreamLLMClient); !ok {
				t.Fatalf("%s client does not stream", name)
			}
			if err := Close(client); err != nil {
				t.Fatalf("Close() = %v", err)
			}
		})
	}
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := config.Default().LLM
	cfg.Provider = "cohere"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	cfg := config.Default().LLM
	cfg.Provider = config.ProviderGemini
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected error without API key")
	}
}
