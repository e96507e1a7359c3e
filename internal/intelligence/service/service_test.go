package service

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"lead_capture_backend/internal/intelligence/classifier"
	"lead_capture_backend/platform/logger"
)

type fakeLLM struct {
	reply string
	err   error
	block bool
	calls atomic.Int32
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) GenerateContent(ctx context.Context, _ *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		f.calls.Add(1)
		if f.block {
			<-ctx.Done()
			yield(nil, ctx.Err())
			return
		}
		if f.err != nil {
			yield(nil, f.err)
			return
		}
		yield(&model.LLMResponse{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}, nil)
	}
}

func newService(t *testing.T, llm model.LLM, timeout time.Duration) *Service {
	t.Helper()
	svc, err := New(llm, timeout, logger.New("test"), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

const validReply = `{"intent":"Hot","product_interest":"Enterprise CRM","notes":"Budget approved for Q1","follow_up_message":"Hi Jane, great meeting you.","confidence_score":85}`

func TestExtractContextUsesModelReply(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n" + validReply + "\n```"}
	got := newService(t, llm, time.Second).ExtractContext(context.Background(), "We have budget")

	if got.Source != SourceModel {
		t.Fatalf("expected model source, got %q", got.Source)
	}
	if got.Intent != "Hot" || got.ConfidenceScore != 85 || got.ProductInterest != "Enterprise CRM" {
		t.Fatalf("unexpected analysis %+v", got)
	}
}

func TestExtractContextFallsBack(t *testing.T) {
	transcript := "Just exploring, maybe want a demo"
	want := classifier.Classify(transcript)

	cases := []struct {
		name string
		llm  model.LLM
	}{
		{"no model", nil},
		{"transport error", &fakeLLM{err: errors.New("connection refused")}},
		{"not json", &fakeLLM{reply: "Sure! The lead is warm."}},
		{"missing field", &fakeLLM{reply: `{"intent":"Hot","product_interest":"x","notes":"y","follow_up_message":"z"}`}},
		{"extra field", &fakeLLM{reply: `{"intent":"Hot","product_interest":"x","notes":"y","follow_up_message":"z","confidence_score":5,"budget":"1M"}`}},
		{"bad intent", &fakeLLM{reply: `{"intent":"Lukewarm","product_interest":"x","notes":"y","follow_up_message":"z","confidence_score":5}`}},
		{"score out of range", &fakeLLM{reply: `{"intent":"Hot","product_interest":"x","notes":"y","follow_up_message":"z","confidence_score":150}`}},
		{"fractional score", &fakeLLM{reply: `{"intent":"Hot","product_interest":"x","notes":"y","follow_up_message":"z","confidence_score":42.5}`}},
	}
	for _, tc := range cases {
		got := newService(t, tc.llm, time.Second).ExtractContext(context.Background(), transcript)
		if got.Source != SourceHeuristic {
			t.Fatalf("%s: expected heuristic source, got %q", tc.name, got.Source)
		}
		if got.Intent != want.Intent || got.ConfidenceScore != want.ConfidenceScore || got.Notes != want.Notes {
			t.Fatalf("%s: expected classifier result, got %+v", tc.name, got)
		}
	}
}

func TestExtractContextTimeoutFallsBack(t *testing.T) {
	llm := &fakeLLM{block: true}
	svc := newService(t, llm, 50*time.Millisecond)

	started := time.Now()
	got := svc.ExtractContext(context.Background(), "We want to purchase soon")
	if time.Since(started) > 2*time.Second {
		t.Fatalf("timeout not enforced")
	}
	if got.Source != SourceHeuristic || got.Intent != classifier.IntentHot {
		t.Fatalf("unexpected analysis %+v", got)
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripCodeFences(in); got != want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
