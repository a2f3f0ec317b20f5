package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sweetpotato0/ai-lawdesk/checklist"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/llm/llmtest"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	logging.SetLogger(logging.Discard())
	goleak.VerifyTestMain(m)
}

var hist = []*message.Message{message.NewMessage(message.RoleUser, "知人を殴ってしまいました。何罪になりますか？")}

func catalogue() checklist.Provider {
	return checklist.Static{C: &checklist.Catalogue{
		Big: &checklist.Sheet{
			Name:   "大分類",
			Kind:   checklist.KindBigCategory,
			Header: []string{"大分類", "暴力を振るった"},
			Rows:   [][]string{{"身体に対する罪", checklist.Mark}},
		},
		CrimeDetails: map[string]*checklist.Sheet{
			"身体に対する罪": {
				Name:   "身体に対する罪",
				Kind:   checklist.KindCrimeDetail,
				Header: []string{"罪名", "怪我をさせた"},
				Rows:   [][]string{{"傷害罪", checklist.Mark}, {"暴行罪", ""}},
			},
		},
	}}
}

func collect(t *testing.T, g Generator) string {
	t.Helper()
	out, err := llm.Collect(g.Generate(context.Background(), hist))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out
}

func TestMoveTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"MOVE{身体に対する罪}", "身体に対する罪", true},
		{"判断しました。\nMOVE{ 財産に対する罪 }\n", "財産に対する罪", true},
		{"MOVE{}", "", false},
		{"MOVE 身体に対する罪", "", false},
		{"いつ起きましたか？", "", false},
	}
	for _, tt := range tests {
		got, ok := MoveTarget(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MoveTarget(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestCrimeTypeRoutesToDetailSheet(t *testing.T) {
	route := llmtest.NewStub("MOVE{身体に対する罪}")
	detail := llmtest.NewStub("傷害罪（刑法204条）が考えられます。")
	client := &llmtest.Router{Routes: map[string]*llmtest.Stub{
		"identify the single reference sheet": route,
		"narrow the candidate offences":       detail,
	}}

	g := NewCrimeType(client, llm.Profile{Model: "route"}, llm.Profile{Model: "answer"}, catalogue())
	if got := collect(t, g); got != "傷害罪（刑法204条）が考えられます。" {
		t.Fatalf("answer = %q", got)
	}
	if route.Calls() != 1 || detail.Calls() != 1 {
		t.Fatalf("calls route=%d detail=%d", route.Calls(), detail.Calls())
	}
	if sys := route.LastRequest().System; !strings.Contains(sys, "身体に対する罪,◯") {
		t.Errorf("category sheet missing from routing prompt:\n%s", sys)
	}
	req := detail.LastRequest()
	if !strings.Contains(req.System, "傷害罪,◯") || req.Model != "answer" {
		t.Errorf("unexpected detail request: model=%q\n%s", req.Model, req.System)
	}
}

func TestCrimeTypeReturnsRoutingText(t *testing.T) {
	tests := []struct {
		name     string
		decision string
	}{
		{"follow-up question", "どのような行為をしましたか？"},
		{"unknown sheet", "MOVE{存在しないシート}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := llmtest.NewStub(tt.decision)
			g := NewCrimeType(stub, llm.Profile{}, llm.Profile{}, catalogue())
			if got := collect(t, g); got != tt.decision {
				t.Fatalf("answer = %q, want %q", got, tt.decision)
			}
			if stub.Calls() != 1 {
				t.Fatalf("expected a single call, got %d", stub.Calls())
			}
		})
	}
}

func TestCrimeTypeWithoutCatalogue(t *testing.T) {
	stub := llmtest.NewStub("状況を教えてください。")
	g := NewCrimeType(stub, llm.Profile{}, llm.Profile{}, nil)
	if got := collect(t, g); got != "状況を教えてください。" {
		t.Fatalf("answer = %q", got)
	}
}

func TestCrimeTypeRoutingError(t *testing.T) {
	stub := llmtest.NewStub("")
	stub.Err = errors.New("upstream")
	g := NewCrimeType(stub, llm.Profile{}, llm.Profile{}, catalogue())
	if _, err := llm.Collect(g.Generate(context.Background(), hist)); err == nil {
		t.Fatal("expected routing error")
	}
}

func TestInstructedStreams(t *testing.T) {
	stub := llmtest.NewStub("")
	stub.Fragments = []string{"【罪名予測】", "傷害罪", "【量刑予測】"}
	g := NewCombined(stub, llm.Profile{Model: "stream", Temperature: 0})

	var frags []string
	for frag, err := range g.Generate(context.Background(), hist) {
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		frags = append(frags, frag)
	}
	if len(frags) != 3 || frags[1] != "傷害罪" {
		t.Fatalf("fragments = %v", frags)
	}
	req := stub.LastRequest()
	for _, heading := range []string{"【罪名予測】", "【量刑予測】", "【量刑判断の根拠】"} {
		if !strings.Contains(req.System, heading) {
			t.Errorf("combined instruction lacks %s", heading)
		}
	}
	if len(req.Messages) != 1 || req.Model != "stream" {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestInstructedStopsOnBreak(t *testing.T) {
	stub := llmtest.NewStub("量刑は罰金刑の見込みです。")
	g := NewSimple(stub, llm.Profile{})
	for range g.Generate(context.Background(), hist) {
		break
	}
	if !strings.Contains(stub.LastRequest().System, "as concisely as possible") {
		t.Fatal("simple instruction not used")
	}
}
