package llm

import (
	"context"

	"health-profiler/internal/domain"
)

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error

	Calls           int
	LastInstruction string
	LastRequest     domain.AnalysisRequest
}

func (m *MockClient) Generate(ctx context.Context, instruction string, req domain.AnalysisRequest) (string, error) {
	m.Calls++
	m.LastInstruction = instruction
	m.LastRequest = req
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Response, m.Err
}
