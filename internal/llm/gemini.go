package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"health-profiler/internal/domain"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implementa LLMClient con el SDK de Gemini, pidiendo JSON con un schema de respuesta.
type GeminiClient struct {
	models     contentGenerator
	model      string
	maxRetries int
	logger     *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGeminiClient(client.Models, model, maxRetries, logger), nil
}

func newGeminiClient(models contentGenerator, model string, maxRetries int, logger *zap.Logger) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		models:     models,
		model:      model,
		maxRetries: clampRetries(maxRetries),
		logger:     logger,
	}
}

func (g *GeminiClient) Generate(ctx context.Context, instruction string, req domain.AnalysisRequest) (string, error) {
	if g.models == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}

	var parts []*genai.Part
	if req.IsImage() {
		parts = []*genai.Part{
			{InlineData: &genai.Blob{Data: req.Bytes(), MIMEType: req.MediaType()}},
			{Text: instruction},
		}
	} else {
		parts = []*genai.Part{
			{Text: "Input Text:\n" + req.Content() + "\n\n" + instruction},
		}
	}

	temperature := float32(0.2)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   PipelineResponseSchema(),
	}

	g.logger.Debug("Generating with Gemini",
		zap.String("model", g.model),
		zap.String("kind", string(req.Kind())),
		zap.Int("payload_bytes", req.Size()),
	)

	return withRetry(ctx, g.maxRetries, g.logger, func() (string, error) {
		resp, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{{Role: "user", Parts: parts}}, genConfig)
		if err != nil {
			g.logger.Warn("Gemini generation failed", zap.Error(err))
			return "", err
		}
		text := extractTextFromGeminiResponse(resp)
		if text == "" {
			return "", ErrEmptyResponse
		}
		g.logger.Debug("Gemini response received", zap.Int("length", len(text)))
		return text, nil
	})
}

// PipelineResponseSchema describe el agregado de cuatro etapas; solo parsing es obligatorio.
func PipelineResponseSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	strList := &genai.Schema{Type: genai.TypeArray, Items: str}
	num := &genai.Schema{Type: genai.TypeNumber}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"parsing": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"answers": {
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							domain.FieldAge:      num,
							domain.FieldSmoker:   {Type: genai.TypeBoolean},
							domain.FieldExercise: str,
							domain.FieldDiet:     str,
						},
					},
					"missing_fields": strList,
					"confidence":     num,
					"status":         {Type: genai.TypeString, Enum: []string{string(domain.ParsingStatusOK), string(domain.ParsingStatusIncompleteProfile)}},
					"reason":         str,
				},
				Required: []string{"answers", "missing_fields", "confidence", "status"},
			},
			"factors": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"factors":    strList,
					"confidence": num,
				},
				Required: []string{"factors", "confidence"},
			},
			"classification": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"risk_level": riskLevelSchema(),
					"score":      {Type: genai.TypeInteger},
					"rationale":  strList,
				},
				Required: []string{"risk_level", "score", "rationale"},
			},
			"final": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"risk_level":      riskLevelSchema(),
					"factors":         strList,
					"recommendations": strList,
					"status":          {Type: genai.TypeString, Enum: []string{string(domain.FinalStatusOK), string(domain.FinalStatusError)}},
				},
				Required: []string{"risk_level", "factors", "recommendations", "status"},
			},
		},
		Required: []string{"parsing"},
	}
}

func riskLevelSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeString,
		Enum: []string{string(domain.RiskLevelLow), string(domain.RiskLevelMedium), string(domain.RiskLevelHigh)},
	}
}

func extractTextFromGeminiResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, "")
}
