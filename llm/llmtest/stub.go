// Package llmtest provides scripted text-generation clients for tests.
package llmtest

import (
	"context"
	"iter"
	"strings"
	"sync"

	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/message"
)

// Stub answers every request with a canned response. It is safe for
// concurrent use and records each request it receives.
type Stub struct {
	mu        sync.Mutex
	Response  string
	Err       error
	Fragments []string
	// Respond, when set, takes precedence over Response.
	Respond func(req *llm.GenerateRequest) (string, error)

	calls    int
	requests []*llm.GenerateRequest
}

// NewStub returns a stub replying with response.
func NewStub(response string) *Stub {
	return &Stub{Response: response}
}

// Generate implements llm.LLMClient.
func (s *Stub) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	text, err := s.answer(req)
	if err != nil {
		return nil, err
	}
	return &llm.GenerateResponse{Message: message.NewMessage(message.RoleAssistant, text)}, nil
}

// GenerateStream implements llm.StreamLLMClient. Fragments are streamed when
// set; otherwise the response is streamed rune by rune in chunks of four.
func (s *Stub) GenerateStream(ctx context.Context, req *llm.GenerateRequest) iter.Seq2[*message.Message, error] {
	return func(yield func(*message.Message, error) bool) {
		text, err := s.answer(req)
		if err != nil {
			yield(nil, err)
			return
		}
		parts := s.Fragments
		if len(parts) == 0 {
			parts = chunk(text, 4)
		}
		final := message.NewMessage(message.RoleAssistant, "")
		for _, p := range parts {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}
			final.AppendText(p)
			if !yield(message.NewFragment(p), nil) {
				return
			}
		}
		yield(final, nil)
	}
}

// Calls reports how many requests the stub served.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Requests returns the recorded requests in arrival order.
func (s *Stub) Requests() []*llm.GenerateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*llm.GenerateRequest(nil), s.requests...)
}

// LastRequest returns the most recent request or nil.
func (s *Stub) LastRequest() *llm.GenerateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

func (s *Stub) answer(req *llm.GenerateRequest) (string, error) {
	s.mu.Lock()
	s.calls++
	s.requests = append(s.requests, req)
	respond := s.Respond
	resp, err := s.Response, s.Err
	s.mu.Unlock()

	if respond != nil {
		return respond(req)
	}
	return resp, err
}

// Router dispatches each request to a stub chosen by a substring of the
// system instruction, so one client can stand in for several prompts.
type Router struct {
	Routes   map[string]*Stub
	Fallback *Stub
}

// Generate implements llm.LLMClient.
func (r *Router) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return r.pick(req).Generate(ctx, req)
}

// GenerateStream implements llm.StreamLLMClient.
func (r *Router) GenerateStream(ctx context.Context, req *llm.GenerateRequest) iter.Seq2[*message.Message, error] {
	return r.pick(req).GenerateStream(ctx, req)
}

func (r *Router) pick(req *llm.GenerateRequest) *Stub {
	for key, stub := range r.Routes {
		if strings.Contains(req.System, key) {
			return stub
		}
	}
	if r.Fallback != nil {
		return r.Fallback
	}
	return &Stub{}
}

func chunk(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for len(runes) > 0 {
		n := size
		if len(runes) < n {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
