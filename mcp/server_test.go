package mcp

import (
	"context"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/ai-lawdesk/config"
	"github.com/sweetpotato0/ai-lawdesk/consult"
	"github.com/sweetpotato0/ai-lawdesk/contrib/session/inmemory"
	"github.com/sweetpotato0/ai-lawdesk/followup"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/llm/llmtest"
	"github.com/sweetpotato0/ai-lawdesk/middleware/errorhandler"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"github.com/sweetpotato0/ai-lawdesk/session"
)

func connect(t *testing.T, server *sdkmcp.Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	st, ct := sdkmcp.NewInMemoryTransports()
	if _, err := server.Connect(ctx, st, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callText(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s: %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("%s returned no content", name)
	}
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	if !ok {
		t.Fatalf("%s content = %T", name, res.Content[0])
	}
	return tc.Text, res.IsError
}

func newServer(classified string) (*sdkmcp.Server, *llmtest.Router) {
	logging.SetLogger(logging.Discard())
	client := &llmtest.Router{Routes: map[string]*llmtest.Stub{
		"You triage messages":                       llmtest.NewStub(`{"type":"` + classified + `"}`),
		"continues the previous legal consultation": llmtest.NewStub(`{"intent":"continuation"}`),
	}}
	mgr := session.NewManager(consult.New(client, config.Default(), nil),
		session.WithStore(inmemory.NewInMemoryStore()),
		session.WithMiddleware(errorhandler.NewErrorHandler(nil)))
	return NewServer(Info{}, mgr, followup.NewDetector(client, llm.Profile{})), client
}

func TestListTools(t *testing.T) {
	server, _ := newServer("no_legal")
	cs := connect(t, server)

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	got := strings.Join(names, ",")
	for _, want := range []string{ToolConsultReply, ToolCountRounds, ToolDetectContinuation} {
		if !strings.Contains(got, want) {
			t.Errorf("tools = %s, missing %s", got, want)
		}
	}
}

func TestConsultReplyTool(t *testing.T) {
	server, _ := newServer("no_legal")
	cs := connect(t, server)

	text, isErr := callText(t, cs, ToolConsultReply, map[string]any{"conversation_id": "c1", "message": "今日の天気は？"})
	if isErr || text != consult.NoLegalText {
		t.Fatalf("reply = %q isError=%v", text, isErr)
	}

	if _, isErr := callText(t, cs, ToolConsultReply, map[string]any{"conversation_id": " ", "message": "x"}); !isErr {
		t.Error("blank conversation id should fail")
	}
}

func TestCountRoundsTool(t *testing.T) {
	history := []map[string]any{
		{"role": "user", "content": "人を殴ってしまいました"},
		{"role": "assistant", "content": "【確認ステップ 第1回】\n1. いつですか"},
		{"role": "user", "content": "昨日です"},
		{"role": "assistant", "content": "【確認ステップ 第2回】\n1. 怪我はありますか"},
	}
	tests := []struct {
		name string
		info Info
		want string
	}{
		{name: "default ceiling", info: Info{Name: "rounds-only"}, want: "2/5"},
		{name: "configured ceiling", info: Info{MaxRounds: 3}, want: "2/3"},
		{name: "ceiling above five", info: Info{MaxRounds: 8}, want: "2/5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := connect(t, NewServer(tt.info, nil, nil))
			text, isErr := callText(t, cs, ToolCountRounds, map[string]any{"history": history})
			if isErr || text != tt.want {
				t.Fatalf("count_rounds = %q isError=%v, want %q", text, isErr, tt.want)
			}
		})
	}
}

func TestDetectContinuationTool(t *testing.T) {
	server, client := newServer("no_legal")
	cs := connect(t, server)

	history := []map[string]any{
		{"role": "user", "content": "量刑を教えてください"},
		{"role": "assistant", "content": "回答です。\n\n【任意追加確認】\n1. 前科はありますか"},
		{"role": "user", "content": "実はもう一つ気になることがあります"},
	}
	text, _ := callText(t, cs, ToolDetectContinuation, map[string]any{"history": history})
	if text != string(followup.ContinuationOf) {
		t.Fatalf("detect_continuation = %q", text)
	}
	if client.Routes["continues the previous legal consultation"].Calls() != 1 {
		t.Error("detector model was not consulted")
	}
}
