package message

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents the role of the message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single turn in a consultation.
type Message struct {
	ID        string         `json:"id" bson:"id"`
	Role      Role           `json:"role" bson:"role"`
	Content   string         `json:"content" bson:"content"`
	Completed bool           `json:"-" bson:"-"` // false for streaming fragments
	Metadata  map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// NewMessage creates a new message with the given role and content
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Completed: true,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]any),
	}
}

// NewFragment creates an incomplete assistant message carrying one streamed delta.
func NewFragment(delta string) *Message {
	msg := NewMessage(RoleAssistant, delta)
	msg.Completed = false
	return msg
}

// Text returns the message content, tolerating a nil receiver.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	return m.Content
}

// AppendText appends a streamed delta to the content.
func (m *Message) AppendText(delta string) {
	m.Content += delta
}

// Clone creates a deep copy of the message.
func Clone(msg *Message) *Message {
	if msg == nil {
		return nil
	}
	cloned := *msg
	if msg.Metadata != nil {
		cloned.Metadata = make(map[string]any, len(msg.Metadata))
		for k, v := range msg.Metadata {
			cloned.Metadata[k] = v
		}
	}
	return &cloned
}

// CloneMessages copies a slice of messages.
func CloneMessages(msgs []*Message) []*Message {
	if len(msgs) == 0 {
		return nil
	}
	clones := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		clones = append(clones, Clone(msg))
	}
	return clones
}

// Last returns the final message of the history or nil.
func Last(hist []*Message) *Message {
	if len(hist) == 0 {
		return nil
	}
	return hist[len(hist)-1]
}

// LastOfRole returns the most recent message with the given role or nil.
func LastOfRole(hist []*Message, role Role) *Message {
	for i := len(hist) - 1; i >= 0; i-- {
		if hist[i] != nil && hist[i].Role == role {
			return hist[i]
		}
	}
	return nil
}

// UserTexts returns the content of every user turn in order.
func UserTexts(hist []*Message) []string {
	var out []string
	for _, msg := range hist {
		if msg != nil && msg.Role == RoleUser {
			out = append(out, msg.Content)
		}
	}
	return out
}

// JoinContents concatenates the content of all turns with newlines.
func JoinContents(hist []*Message) string {
	parts := make([]string, 0, len(hist))
	for _, msg := range hist {
		if msg != nil {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// Turn is the wire shape of a message inside prompts and tool payloads.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turns strips a history down to role and content.
func Turns(hist []*Message) []Turn {
	out := make([]Turn, 0, len(hist))
	for _, msg := range hist {
		if msg == nil {
			continue
		}
		out = append(out, Turn{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// FromTurns builds a history from wire turns.
func FromTurns(turns []Turn) []*Message {
	out := make([]*Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, NewMessage(t.Role, t.Content))
	}
	return out
}
