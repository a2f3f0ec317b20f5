package followup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sweetpotato0/ai-lawdesk/clarify"
	"github.com/sweetpotato0/ai-lawdesk/intent"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/llm/llmtest"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
)

func init() {
	logging.SetLogger(logging.Discard())
}

func user(text string) *message.Message {
	return message.NewMessage(message.RoleUser, text)
}

func assistant(text string) *message.Message {
	return message.NewMessage(message.RoleAssistant, text)
}

var answered = []*message.Message{
	user("人を殴って怪我をさせました。罪名と量刑は？"),
	assistant("【罪名予測】傷害罪" + Format([]string{"前科はありますか", "示談は進んでいますか", "凶器は使いましたか"})),
}

func TestDetectNumberedAnswerIsContinuation(t *testing.T) {
	stub := llmtest.NewStub(`{"intent":"new_consultation"}`)
	d := NewDetector(stub, llm.Profile{})

	hist := append(append([]*message.Message(nil), answered...), user("1. no prior record 2. in settlement talks"))
	if got := d.Detect(context.Background(), hist); got != ContinuationOf {
		t.Fatalf("Detect = %s, want continuation", got)
	}
	if stub.Calls() != 0 {
		t.Fatal("patterns should decide without the model")
	}
}

func TestDetectPatterns(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Continuation
	}{
		{"acknowledgement", "その件は示談済みです", ContinuationOf},
		{"english yes", "Yes, it was my first offense.", ContinuationOf},
		{"circled number", "①なし", ContinuationOf},
		{"new topic", "別件で相談があります", NewConsultation},
		{"english new topic", "Separately, my neighbour stole my bike", NewConsultation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := llmtest.NewStub(`{"intent":"continuation"}`)
			d := NewDetector(stub, llm.Profile{})
			hist := append(append([]*message.Message(nil), answered...), user(tt.reply))
			if got := d.Detect(context.Background(), hist); got != tt.want {
				t.Errorf("Detect(%q) = %s, want %s", tt.reply, got, tt.want)
			}
			if stub.Calls() != 0 {
				t.Errorf("model consulted for %q", tt.reply)
			}
		})
	}
}

func TestDetectEnglishWordsNeedWholeWords(t *testing.T) {
	if hasWord("I know nothing", []string{"no"}) {
		t.Fatal("substring of a word must not match")
	}
	if !hasWord("No, never.", []string{"no"}) {
		t.Fatal("whole word should match")
	}
}

func TestDetectModelFallback(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     Continuation
	}{
		{"continuation", `{"intent":"continuation"}`, nil, ContinuationOf},
		{"unclear", `{"intent":"unclear"}`, nil, NewConsultation},
		{"garbage", `{"intent":"maybe"}`, nil, NewConsultation},
		{"failure", "", errors.New("down"), NewConsultation},
	}
	hist := []*message.Message{
		user("a"), assistant("b"), user("c"), assistant("普通の回答です"), user("被害者は知人でした"),
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := llmtest.NewStub(tt.response)
			stub.Err = tt.err
			d := NewDetector(stub, llm.Profile{Temperature: 0.7})
			if got := d.Detect(context.Background(), hist); got != tt.want {
				t.Fatalf("Detect = %s, want %s", got, tt.want)
			}
			req := stub.LastRequest()
			if req == nil || *req.Temperature != 0 || !req.JSON {
				t.Fatal("expected a JSON request at temperature 0")
			}
			if strings.Contains(req.Messages[0].Content, `"a"`) {
				t.Error("only the last four turns should be sent")
			}
		})
	}
}

func TestDetectShortHistory(t *testing.T) {
	d := NewDetector(llmtest.NewStub(`{"intent":"continuation"}`), llm.Profile{})
	if got := d.Detect(context.Background(), []*message.Message{user("x")}); got != NewConsultation {
		t.Fatalf("Detect = %s", got)
	}
	if got := d.Detect(context.Background(), []*message.Message{assistant("x"), assistant("y")}); got != NewConsultation {
		t.Fatalf("Detect without user turn = %s", got)
	}
}

func TestMaybeGenerateOnce(t *testing.T) {
	stub := llmtest.NewStub(`{"questions":["示談は？","前科は？","凶器は？","自首は？"],"importance":["medium","high","low","high"]}`)
	g := NewGenerator(stub, llm.Profile{Temperature: 0.2})

	hist := []*message.Message{user("知人を殴って怪我をさせました。罪名と量刑を教えてください。")}
	answer := "【罪名予測】傷害罪が成立する可能性があります。"

	block, ok := g.MaybeGenerate(context.Background(), hist, intent.PredictCrimeAndPunishment, answer)
	if !ok {
		t.Fatal("expected a follow-up block")
	}
	if got := clarify.QuestionLines(block); !cmp.Equal(got, []string{"1. 前科は？", "2. 自首は？", "3. 示談は？", "4. 凶器は？"}) {
		t.Fatalf("questions not ranked by importance: %v", got)
	}
	if !strings.HasPrefix(block, "\n"+strings.Repeat("=", 50)+"\n\n"+clarify.OptionalMarker+"\n") {
		t.Errorf("unexpected block layout:\n%s", block)
	}

	hist = append(hist, assistant(answer+block), user("ありがとうございます"))
	if _, ok := g.MaybeGenerate(context.Background(), hist, intent.PredictCrimeAndPunishment, answer); ok {
		t.Fatal("follow-up must only be offered once")
	}
	if stub.Calls() != 1 {
		t.Fatalf("calls = %d, want 1", stub.Calls())
	}
}

func TestMaybeGenerateSkipsAfterClarification(t *testing.T) {
	stub := llmtest.NewStub(`{"questions":["q"],"importance":["high"]}`)
	g := NewGenerator(stub, llm.Profile{})
	hist := []*message.Message{user("相談"), assistant(clarify.Header(1) + "\n1. q")}
	if _, ok := g.MaybeGenerate(context.Background(), hist, intent.PredictCrimeType, "x"); ok {
		t.Fatal("no follow-up after a clarification block")
	}
}

func TestMaybeGenerateFailuresAreSilent(t *testing.T) {
	hist := []*message.Message{user("相談")}
	for _, resp := range []string{`{"questions":[],"importance":[]}`, "not json"} {
		g := NewGenerator(llmtest.NewStub(resp), llm.Profile{})
		if _, ok := g.MaybeGenerate(context.Background(), hist, intent.PredictPunishment, "answer"); ok {
			t.Errorf("expected no block for %q", resp)
		}
	}
	stub := llmtest.NewStub("")
	stub.Err = errors.New("timeout")
	if _, ok := NewGenerator(stub, llm.Profile{}).MaybeGenerate(context.Background(), hist, intent.PredictPunishment, "answer"); ok {
		t.Error("expected no block on failure")
	}
}

func TestRank(t *testing.T) {
	got := rank([]string{"a", " ", "b", "c", "d", "e", "f", "g"}, []string{"low"})
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, got); diff != "" {
		t.Errorf("rank mismatch (-want +got):\n%s", diff)
	}
}

func TestAnswerExcerptIsBounded(t *testing.T) {
	stub := llmtest.NewStub(`{"questions":["q1","q2","q3"],"importance":[]}`)
	g := NewGenerator(stub, llm.Profile{})
	long := strings.Repeat("あ", 900) + "末尾"
	if _, ok := g.MaybeGenerate(context.Background(), []*message.Message{user("x")}, intent.PredictCrimeType, long); !ok {
		t.Fatal("expected a block")
	}
	if strings.Contains(stub.LastRequest().Messages[0].Content, "末尾") {
		t.Fatal("answer should be cut to its first 800 characters")
	}
}
