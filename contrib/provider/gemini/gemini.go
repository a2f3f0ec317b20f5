package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:    apiKey,
		Model:     "gemini-1.5-pro",
		MaxTokens: 2048,
	}
}

// Provider implements llm.StreamLLMClient on the Gemini SDK.
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a new Gemini provider. The client must be closed with Close.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-pro"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Generate implements llm.LLMClient.
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}
	session, last, err := p.startChat(req)
	if err != nil {
		return nil, err
	}

	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	return &llm.GenerateResponse{
		Message: message.NewMessage(message.RoleAssistant, responseText(resp)),
	}, nil
}

// GenerateStream implements llm.StreamLLMClient.
func (p *Provider) GenerateStream(ctx context.Context, req *llm.GenerateRequest) iter.Seq2[*message.Message, error] {
	return func(yield func(*message.Message, error) bool) {
		if req == nil {
			yield(nil, fmt.Errorf("stream request cannot be nil"))
			return
		}
		session, last, err := p.startChat(req)
		if err != nil {
			yield(nil, err)
			return
		}

		it := session.SendMessageStream(ctx, genai.Text(last))
		finalMsg := message.NewMessage(message.RoleAssistant, "")
		for {
			resp, err := it.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				yield(nil, fmt.Errorf("Gemini streaming error: %w", err))
				return
			}
			delta := responseText(resp)
			if delta == "" {
				continue
			}
			finalMsg.AppendText(delta)
			if !yield(message.NewFragment(delta), nil) {
				return
			}
		}
		yield(finalMsg, nil)
	}
}

// startChat configures a model for the request and loads every turn except
// the last user turn into the chat history.
func (p *Provider) startChat(req *llm.GenerateRequest) (*genai.ChatSession, string, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = p.config.Model
	}
	model := p.client.GenerativeModel(modelName)

	var system []string
	if req.System != "" {
		system = append(system, req.System)
	}
	var turns []*message.Message
	for _, msg := range req.Messages {
		if msg.Role == message.RoleSystem {
			system = append(system, msg.Text())
			continue
		}
		turns = append(turns, msg)
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}
	switch {
	case req.Temperature != nil:
		model.SetTemperature(float32(*req.Temperature))
	case p.config.Temperature > 0:
		model.SetTemperature(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(p.config.MaxTokens)
	}

	if len(turns) == 0 {
		return nil, "", fmt.Errorf("gemini request needs at least one turn")
	}
	last := turns[len(turns)-1]
	session := model.StartChat()
	for _, msg := range turns[:len(turns)-1] {
		role := "user"
		if msg.Role == message.RoleAssistant {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Text())},
		})
	}
	return session, last.Text(), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	return b.String()
}

var _ llm.StreamLLMClient = (*Provider)(nil)
