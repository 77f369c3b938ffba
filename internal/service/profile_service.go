package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"health-profiler/internal/domain"
	"health-profiler/internal/llm"
)

// DefaultAnalysisTimeout aplica cuando no se configura otro limite.
const DefaultAnalysisTimeout = 60 * time.Second

// ProfileService ejecuta el pipeline: una llamada al modelo y la validacion de la respuesta.
// No guarda estado entre invocaciones; es seguro para uso concurrente.
type ProfileService struct {
	llmClient llm.LLMClient
	validator ResponseValidator
	timeout   time.Duration
	logger    *zap.Logger
}

func NewProfileService(llmClient llm.LLMClient, timeout time.Duration, logger *zap.Logger) *ProfileService {
	if timeout <= 0 {
		timeout = DefaultAnalysisTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		llmClient: llmClient,
		validator: DefaultResponseValidator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Analyze envia la solicitud y devuelve el agregado validado. Ante cualquier error no hay resultado.
func (s *ProfileService) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.ProfilePipelineResult, error) {
	if req.Kind() == "" || req.Size() == 0 {
		return domain.ProfilePipelineResult{}, &InvalidInputError{Reason: "empty analysis request"}
	}
	if s.llmClient == nil {
		return domain.ProfilePipelineResult{}, &UpstreamUnavailableError{Cause: errors.New("llm client not configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.llmClient.Generate(ctx, PipelineInstruction, req)
	if err != nil {
		s.logger.Warn("profile analysis upstream failed",
			zap.String("kind", string(req.Kind())),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return domain.ProfilePipelineResult{}, &UpstreamUnavailableError{Cause: err}
	}
	// Una respuesta que llega con el contexto ya vencido se descarta.
	if err := ctx.Err(); err != nil {
		return domain.ProfilePipelineResult{}, &UpstreamUnavailableError{Cause: err}
	}

	result, err := s.validator.Validate(raw)
	if err != nil {
		var schemaErr *SchemaViolationError
		field := ""
		if errors.As(err, &schemaErr) {
			field = schemaErr.Field
		}
		s.logger.Warn("profile analysis response rejected",
			zap.String("kind", string(req.Kind())),
			zap.String("field", field),
			zap.Int("response_length", len(raw)),
			zap.Error(err),
		)
		return domain.ProfilePipelineResult{}, err
	}

	s.logger.Info("profile analysis finished",
		zap.String("kind", string(req.Kind())),
		zap.String("outcome", string(result.Outcome())),
		zap.String("last_stage", LastStage(result).String()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}
