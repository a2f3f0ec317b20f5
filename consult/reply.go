package consult

import (
	"iter"

	"github.com/sweetpotato0/ai-lawdesk/intent"
	"github.com/sweetpotato0/ai-lawdesk/llm"
)

// Kind tells what a Reply carries.
type Kind string

const (
	KindFixed         Kind = "fixed"         // welcome and refusal texts
	KindClarification Kind = "clarification" // a round of questions
	KindAnswer        Kind = "answer"        // a streamed answer
)

// Reply is the assistant's response to one turn. Exactly one of Text or the
// stream is set; Fragments hides the difference.
type Reply struct {
	Kind   Kind
	Intent intent.Intent // empty for the welcome text
	Text   string

	stream iter.Seq2[string, error]
}

func NewText(kind Kind, in intent.Intent, text string) *Reply {
	return &Reply{Kind: kind, Intent: in, Text: text}
}

func NewStream(in intent.Intent, stream iter.Seq2[string, error]) *Reply {
	return &Reply{Kind: KindAnswer, Intent: in, stream: stream}
}

// Streaming reports whether the reply is produced incrementally.
func (r *Reply) Streaming() bool {
	return r.stream != nil
}

// Fragments yields the reply content. A text reply yields exactly once.
// A stream can only be consumed once.
func (r *Reply) Fragments() iter.Seq2[string, error] {
	if r.stream != nil {
		return r.stream
	}
	return func(yield func(string, error) bool) {
		yield(r.Text, nil)
	}
}

// Collect drains the reply into a single string.
func (r *Reply) Collect() (string, error) {
	return llm.Collect(r.Fragments())
}
