// Package tokenizer bounds prompt payloads by token count.
package tokenizer

// Tokenizer counts and encodes text for a specific model encoding.
type Tokenizer interface {
	Encode(text string) []int
	CountTokens(text string) int
}

// TrimOldest drops items from the front of texts until the total token
// count fits budget. The final item is always kept, even when it alone
// exceeds the budget. It returns the index of the first kept item.
func TrimOldest(tok Tokenizer, texts []string, budget int) int {
	if tok == nil || budget <= 0 || len(texts) == 0 {
		return 0
	}
	counts := make([]int, len(texts))
	total := 0
	for i, text := range texts {
		counts[i] = tok.CountTokens(text)
		total += counts[i]
	}
	start := 0
	for total > budget && start < len(texts)-1 {
		total -= counts[start]
		start++
	}
	return start
}
