// Package session persists consultations and serialises the turns of each
// one: a Manager loads the stored history, runs the inbound message through
// the middleware chain and the consultation engine, and saves the exchange.
package session

import (
	"time"

	"github.com/sweetpotato0/ai-lawdesk/message"
)

// State represents the lifecycle of a conversation.
type State string

const (
	StateActive State = "active"
	StateClosed State = "closed"
)

// Record is the persisted form of one conversation.
type Record struct {
	ID        string             `json:"id" bson:"_id"`
	Title     string             `json:"title" bson:"title"`
	State     State              `json:"state" bson:"state"`
	Messages  []*message.Message `json:"messages" bson:"messages"`
	Metadata  map[string]any     `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// NewRecord returns an empty active conversation.
func NewRecord(id string) *Record {
	now := time.Now()
	return &Record{
		ID:        id,
		State:     StateActive,
		Metadata:  make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cloned := *r
	cloned.Messages = message.CloneMessages(r.Messages)
	if r.Metadata != nil {
		cloned.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			cloned.Metadata[k] = v
		}
	}
	return &cloned
}

// Append adds turns and bumps UpdatedAt.
func (r *Record) Append(msgs ...*message.Message) {
	r.Messages = append(r.Messages, msgs...)
	r.UpdatedAt = time.Now()
}
