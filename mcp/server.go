// Package mcp exposes the consultation engine as Model Context Protocol
// tools.
package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/ai-lawdesk/clarify"
	"github.com/sweetpotato0/ai-lawdesk/followup"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/middleware/errorhandler"
	"github.com/sweetpotato0/ai-lawdesk/session"
)

// Tool names.
const (
	ToolConsultReply       = "consult_reply"
	ToolCountRounds        = "count_rounds"
	ToolDetectContinuation = "detect_continuation"
)

// Info describes the server advertised to clients.
type Info struct {
	Name    string
	Version string
	// MaxRounds is the clarification ceiling reported by count_rounds.
	// Zero means clarify.DefaultMaxRounds.
	MaxRounds int
}

// NewServer builds an MCP server over mgr and detector. Either may be nil;
// the tools needing them are then left out.
func NewServer(info Info, mgr *session.Manager, detector *followup.Detector) *sdkmcp.Server {
	if info.Name == "" {
		info.Name = "ai-lawdesk"
	}
	if info.Version == "" {
		info.Version = "0.1.0"
	}
	if info.MaxRounds <= 0 || info.MaxRounds > clarify.DefaultMaxRounds {
		info.MaxRounds = clarify.DefaultMaxRounds
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    info.Name,
		Version: info.Version,
		Title:   "Legal consultation desk",
	}, nil)

	if mgr != nil {
		addConsultReply(server, mgr)
	}
	addCountRounds(server, info.MaxRounds)
	if detector != nil {
		addDetectContinuation(server, detector)
	}
	return server
}

// ReplyArgs are the arguments of consult_reply.
type ReplyArgs struct {
	ConversationID string `json:"conversation_id" jsonschema:"Identifier of the conversation; a new one is started on first use"`
	Message        string `json:"message" jsonschema:"The user's message"`
}

// ReplyOutput is the structured result of consult_reply.
type ReplyOutput struct {
	Kind   string `json:"kind"`
	Intent string `json:"intent,omitempty"`
	Text   string `json:"text"`
}

func addConsultReply(server *sdkmcp.Server, mgr *session.Manager) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolConsultReply,
		Description: "Send a message to a legal consultation and return the complete reply",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, a ReplyArgs) (*sdkmcp.CallToolResult, ReplyOutput, error) {
		id := strings.TrimSpace(a.ConversationID)
		if id == "" {
			return nil, ReplyOutput{}, fmt.Errorf("conversation_id is required")
		}

		reply, err := mgr.Send(ctx, id, a.Message)
		if err != nil {
			return noticeResult(err), ReplyOutput{}, nil
		}
		text, err := reply.Collect()
		if err != nil {
			return noticeResult(err), ReplyOutput{}, nil
		}
		out := ReplyOutput{Kind: string(reply.Kind), Intent: reply.Intent.String(), Text: text}
		return textResult(text), out, nil
	})
}

// HistoryArgs carry a conversation transcript.
type HistoryArgs struct {
	History []message.Turn `json:"history" jsonschema:"The conversation so far, oldest turn first"`
}

// RoundsOutput is the structured result of count_rounds.
type RoundsOutput struct {
	Rounds              int  `json:"rounds"`
	MaxRounds           int  `json:"max_rounds"`
	AwaitingUser        bool `json:"awaiting_user"`
	FollowUpEmitted     bool `json:"follow_up_emitted"`
	LastIsClarification bool `json:"last_is_clarification"`
}

func addCountRounds(server *sdkmcp.Server, maxRounds int) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolCountRounds,
		Description: "Count the clarification rounds already asked in a consultation transcript",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, a HistoryArgs) (*sdkmcp.CallToolResult, RoundsOutput, error) {
		st := clarify.DeriveState(message.FromTurns(a.History))
		out := RoundsOutput{
			Rounds:              st.RoundsCompleted,
			MaxRounds:           maxRounds,
			AwaitingUser:        st.AwaitingUser,
			FollowUpEmitted:     st.FollowUpEmitted,
			LastIsClarification: st.LastIsClarification,
		}
		return textResult(fmt.Sprintf("%d/%d", out.Rounds, out.MaxRounds)), out, nil
	})
}

// ContinuationOutput is the structured result of detect_continuation.
type ContinuationOutput struct {
	Continuation string `json:"continuation"`
}

func addDetectContinuation(server *sdkmcp.Server, detector *followup.Detector) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolDetectContinuation,
		Description: "Decide whether the latest user message continues the previous consultation or starts a new one",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, a HistoryArgs) (*sdkmcp.CallToolResult, ContinuationOutput, error) {
		c := detector.Detect(ctx, message.FromTurns(a.History))
		return textResult(string(c)), ContinuationOutput{Continuation: string(c)}, nil
	})
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: text},
		},
	}
}

// noticeResult reports a failed turn with the notice a user would see.
func noticeResult(err error) *sdkmcp.CallToolResult {
	res := textResult(errorhandler.Message(err))
	res.IsError = true
	return res
}
