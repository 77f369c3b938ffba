package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"health-profiler/internal/domain"
	"health-profiler/internal/llm"
)

const sampleSurvey = `{"age":42,"smoker":true,"exercise":"rarely","diet":"high sugar"}`

func TestProfileServiceAnalyzeSample(t *testing.T) {
	mock := &llm.MockClient{Response: completeResponse}
	svc := NewProfileService(mock, time.Second, zap.NewNop())

	req, err := NewTextRequest(sampleSurvey)
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	res, err := svc.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if age, ok := res.Parsing.Answers.Age(); !ok || age != 42 {
		t.Fatalf("expected age 42, got %v", res.Parsing.Answers[domain.FieldAge])
	}
	if res.Parsing.Status != domain.ParsingStatusOK {
		t.Fatalf("expected status ok, got %s", res.Parsing.Status)
	}
	if mock.Calls != 1 {
		t.Fatalf("expected exactly one llm call, got %d", mock.Calls)
	}
	if mock.LastInstruction != PipelineInstruction {
		t.Fatalf("expected pipeline instruction to be sent")
	}
	if mock.LastRequest.Content() != sampleSurvey {
		t.Fatalf("expected survey text forwarded, got %q", mock.LastRequest.Content())
	}
}

func TestProfileServiceAnalyzeImage(t *testing.T) {
	mock := &llm.MockClient{Response: "```json\n" + incompleteResponse + "\n```"}
	svc := NewProfileService(mock, time.Second, zap.NewNop())

	req, err := NewImageRequest(pngHeader, "image/png", 0)
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	res, err := svc.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("expected fenced response accepted, got %v", err)
	}
	if res.Outcome() != domain.OutcomeIncompleteProfile {
		t.Fatalf("expected incomplete outcome, got %s", res.Outcome())
	}
	if !mock.LastRequest.IsImage() || mock.LastRequest.MediaType() != "image/png" {
		t.Fatalf("expected image request forwarded, got kind=%s type=%s", mock.LastRequest.Kind(), mock.LastRequest.MediaType())
	}
}

func TestProfileServiceAnalyzeErrors(t *testing.T) {
	textReq, _ := NewTextRequest(sampleSurvey)

	t.Run("empty request", func(t *testing.T) {
		mock := &llm.MockClient{Response: completeResponse}
		svc := NewProfileService(mock, time.Second, zap.NewNop())
		_, err := svc.Analyze(context.Background(), domain.AnalysisRequest{})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if mock.Calls != 0 {
			t.Fatalf("expected no llm call for invalid input")
		}
	})

	t.Run("nil client", func(t *testing.T) {
		svc := NewProfileService(nil, time.Second, zap.NewNop())
		if _, err := svc.Analyze(context.Background(), textReq); !errors.Is(err, ErrUpstreamUnavailable) {
			t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		svc := NewProfileService(&llm.MockClient{Err: cause}, time.Second, zap.NewNop())
		_, err := svc.Analyze(context.Background(), textReq)
		if !errors.Is(err, ErrUpstreamUnavailable) || !errors.Is(err, cause) {
			t.Fatalf("expected upstream error wrapping cause, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc := NewProfileService(&llm.MockClient{Response: completeResponse}, time.Second, zap.NewNop())
		_, err := svc.Analyze(ctx, textReq)
		if !errors.Is(err, ErrUpstreamUnavailable) || !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation surfaced as upstream unavailable, got %v", err)
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		svc := NewProfileService(&llm.MockClient{Response: completeResponse[:40]}, time.Second, zap.NewNop())
		res, err := svc.Analyze(context.Background(), textReq)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("expected ErrMalformedResponse, got %v", err)
		}
		if res.Parsing.Answers != nil {
			t.Fatalf("expected no result on failure")
		}
		if UserMessage(err) != "Failed to parse AI response into the required schema." {
			t.Fatalf("unexpected user message %q", UserMessage(err))
		}
	})

	t.Run("final without classification", func(t *testing.T) {
		raw := strings.Replace(completeResponse, `"classification": {"risk_level": "high", "score": 80, "rationale": ["smoker", "low activity"]},`, "", 1)
		svc := NewProfileService(&llm.MockClient{Response: raw}, time.Second, zap.NewNop())
		_, err := svc.Analyze(context.Background(), textReq)
		var schemaErr *SchemaViolationError
		if !errors.As(err, &schemaErr) || schemaErr.Field != "final" {
			t.Fatalf("expected schema violation on final, got %v", err)
		}
	})
}

type slowClient struct{}

func (slowClient) Generate(ctx context.Context, _ string, _ domain.AnalysisRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestProfileServiceTimeout(t *testing.T) {
	svc := NewProfileService(slowClient{}, 20*time.Millisecond, zap.NewNop())
	req, _ := NewTextRequest(sampleSurvey)

	start := time.Now()
	_, err := svc.Analyze(context.Background(), req)
	if !errors.Is(err, ErrUpstreamUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline surfaced as upstream unavailable, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("expected analysis to stop at the timeout")
	}
}

func TestProfileServiceDefaults(t *testing.T) {
	svc := NewProfileService(&llm.MockClient{}, 0, nil)
	if svc.timeout != DefaultAnalysisTimeout {
		t.Fatalf("expected default timeout, got %s", svc.timeout)
	}
	if svc.logger == nil {
		t.Fatalf("expected nop logger")
	}
}
