package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON tries to unmarshal the raw model output into T after stripping fences.
func DecodeJSON[T any](raw string) (*T, error) {
	clean := sanitizeJSON(raw)
	var out T
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	return &out, nil
}

// GenerateJSON issues a JSON-mode request and decodes the reply into T.
func GenerateJSON[T any](ctx context.Context, client LLMClient, req *GenerateRequest) (*T, error) {
	req.JSON = true
	text, err := GenerateText(ctx, client, req)
	if err != nil {
		return nil, err
	}
	return DecodeJSON[T](text)
}

func sanitizeJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	// Some models wrap the object in prose; keep the outermost braces.
	if !strings.HasPrefix(trimmed, "{") {
		start := strings.Index(trimmed, "{")
		end := strings.LastIndex(trimmed, "}")
		if start >= 0 && end > start {
			trimmed = trimmed[start : end+1]
		}
	}
	return trimmed
}
