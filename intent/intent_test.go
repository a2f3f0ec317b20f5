package intent

import (
	"context"
	"errors"
	"testing"

	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/llm"
	"github.com/sweetpotato0/ai-lawdesk/llm/llmtest"
)

func TestParse(t *testing.T) {
	for _, in := range All {
		got, err := Parse(" " + string(in) + " ")
		if err != nil || got != in {
			t.Errorf("Parse(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := Parse("predict_everything"); !errors.Is(err, lderrors.ErrInvalidIntent) {
		t.Fatalf("expected ErrInvalidIntent, got %v", err)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		in       Intent
		legal    bool
		crime    bool
		sentence bool
	}{
		{PredictCrimeType, true, true, false},
		{PredictPunishment, true, false, true},
		{PredictCrimeAndPunishment, true, true, true},
		{LegalProcess, true, false, false},
		{NoLegal, false, false, false},
		{Injection, false, false, false},
	}
	for _, tt := range tests {
		if tt.in.IsLegal() != tt.legal || tt.in.AsksCrime() != tt.crime || tt.in.AsksSentence() != tt.sentence {
			t.Errorf("%s: legal=%v crime=%v sentence=%v", tt.in, tt.in.IsLegal(), tt.in.AsksCrime(), tt.in.AsksSentence())
		}
	}
}

func TestClassify(t *testing.T) {
	stub := llmtest.NewStub("```json\n{\"type\":\"predict_crime_and_punishment\"}\n```")
	c := NewClassifier(stub, llm.Profile{Model: "gpt-4.1"})

	got, err := c.Classify(context.Background(), "逮捕されました")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got != PredictCrimeAndPunishment {
		t.Fatalf("Classify = %q", got)
	}

	req := stub.LastRequest()
	if !req.JSON || req.Model != "gpt-4.1" || req.Temperature == nil || *req.Temperature != 0 {
		t.Errorf("unexpected request settings: %+v", req)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "逮捕されました" {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
}

func TestClassifyUnknownTag(t *testing.T) {
	c := NewClassifier(llmtest.NewStub(`{"type":"weather"}`), llm.Profile{})
	if _, err := c.Classify(context.Background(), "hi"); !errors.Is(err, lderrors.ErrInvalidIntent) {
		t.Fatalf("expected ErrInvalidIntent, got %v", err)
	}
}

func TestClassifyTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	c := NewClassifier(&llmtest.Stub{Err: boom}, llm.Profile{})
	_, err := c.Classify(context.Background(), "hi")
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if errors.Is(err, lderrors.ErrInvalidIntent) {
		t.Fatal("transport error must not be reported as invalid intent")
	}
}
