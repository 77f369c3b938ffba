package service

import (
	"errors"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"health-profiler/internal/domain"
)

// ResponseValidator convierte el texto crudo del modelo en un ProfilePipelineResult tipado.
// La validacion es todo-o-nada: ante cualquier violacion no se devuelve resultado parcial.
type ResponseValidator struct{}

// DefaultResponseValidator permite uso directo sin instanciar.
var DefaultResponseValidator = ResponseValidator{}

func (v ResponseValidator) Validate(raw string) (domain.ProfilePipelineResult, error) {
	root, err := decodePayload(raw)
	if err != nil {
		return domain.ProfilePipelineResult{}, err
	}

	present := make(map[Stage]bool, len(stageNames))
	for _, stage := range Stages() {
		present[stage] = isPresent(root.Get(stage.String()))
	}
	if !present[StageParsing] {
		return domain.ProfilePipelineResult{}, violation("parsing", "required stage missing")
	}

	parsing, err := validateParsing(root.Get("parsing"))
	if err != nil {
		return domain.ProfilePipelineResult{}, err
	}
	if _, err := gateStages(parsing.Status, present); err != nil {
		return domain.ProfilePipelineResult{}, err
	}

	result := domain.ProfilePipelineResult{Parsing: parsing}
	if present[StageFactors] {
		factors, err := validateFactors(root.Get("factors"))
		if err != nil {
			return domain.ProfilePipelineResult{}, err
		}
		result.Factors = &factors
	}
	if present[StageClassification] {
		classification, err := validateClassification(root.Get("classification"))
		if err != nil {
			return domain.ProfilePipelineResult{}, err
		}
		result.Classification = &classification
	}
	if present[StageFinal] {
		final, err := validateFinal(root.Get("final"), result.Classification)
		if err != nil {
			return domain.ProfilePipelineResult{}, err
		}
		result.Final = &final
	}

	return result, nil
}

// decodePayload limpia fences y, si hace falta, extrae el primer objeto JSON del texto.
func decodePayload(raw string) (gjson.Result, error) {
	cleaned := cleanLLMJSONResponse(raw)
	if cleaned == "" {
		return gjson.Result{}, &MalformedResponseError{Cause: errors.New("empty response")}
	}
	if !gjson.Valid(cleaned) {
		obj := extractFirstJSONObject(cleaned)
		if obj == "" || !gjson.Valid(obj) {
			return gjson.Result{}, &MalformedResponseError{Cause: errors.New("response is not valid JSON")}
		}
		cleaned = obj
	}
	root := gjson.Parse(cleaned)
	if !root.IsObject() {
		return gjson.Result{}, &MalformedResponseError{Cause: errors.New("response is not a JSON object")}
	}
	return root, nil
}

func validateParsing(r gjson.Result) (domain.ParsingResult, error) {
	if !r.IsObject() {
		return domain.ParsingResult{}, violation("parsing", "expected object, got %s", typeName(r))
	}

	answers, err := validateAnswers(r.Get("answers"))
	if err != nil {
		return domain.ParsingResult{}, err
	}
	missingFields, err := requireStringList(r.Get("missing_fields"), "parsing.missing_fields", false)
	if err != nil {
		return domain.ParsingResult{}, err
	}
	confidence, err := requireConfidence(r.Get("confidence"), "parsing.confidence")
	if err != nil {
		return domain.ParsingResult{}, err
	}
	status, err := requireString(r.Get("status"), "parsing.status")
	if err != nil {
		return domain.ParsingResult{}, err
	}
	parsingStatus := domain.ParsingStatus(status)
	if !parsingStatus.Valid() {
		return domain.ParsingResult{}, violation("parsing.status", "unrecognized value %q", status)
	}

	absent := answers.MissingRequired()
	if err := checkMissingFields(missingFields, absent); err != nil {
		return domain.ParsingResult{}, err
	}
	incomplete := len(absent) > domain.MaxMissingRequired
	if incomplete != (parsingStatus == domain.ParsingStatusIncompleteProfile) {
		return domain.ParsingResult{}, violation("parsing.status", "%q inconsistent with %d missing required fields", status, len(absent))
	}

	reason := ""
	if rr := r.Get("reason"); isPresent(rr) {
		if rr.Type != gjson.String {
			return domain.ParsingResult{}, violation("parsing.reason", "expected string, got %s", typeName(rr))
		}
		reason = strings.TrimSpace(rr.Str)
	}
	if incomplete && reason == "" {
		return domain.ParsingResult{}, violation("parsing.reason", "required when status is %s", domain.ParsingStatusIncompleteProfile)
	}
	if !incomplete && reason != "" {
		return domain.ParsingResult{}, violation("parsing.reason", "only allowed when status is %s", domain.ParsingStatusIncompleteProfile)
	}

	return domain.ParsingResult{
		Answers:       answers,
		MissingFields: missingFields,
		Confidence:    confidence,
		Status:        parsingStatus,
		Reason:        reason,
	}, nil
}

// validateAnswers tipa los campos conocidos y preserva el resto. null y strings vacios cuentan como ausentes;
// una clave repetida es una violacion.
func validateAnswers(r gjson.Result) (domain.SurveyAnswers, error) {
	if !r.Exists() {
		return nil, violation("parsing.answers", "required field missing")
	}
	if !r.IsObject() {
		return nil, violation("parsing.answers", "expected object, got %s", typeName(r))
	}

	answers := domain.SurveyAnswers{}
	seen := map[string]bool{}
	var err error
	r.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		path := "parsing.answers." + name
		// Claves repetidas se rechazan: cada lector JSON resuelve el duplicado distinto.
		if seen[name] {
			err = violation(path, "duplicate key")
			return false
		}
		seen[name] = true
		if value.Type == gjson.Null {
			return true
		}
		switch name {
		case domain.FieldAge:
			if value.Type != gjson.Number {
				err = violation(path, "expected number, got %s", typeName(value))
				return false
			}
			if value.Num < 0 || math.IsInf(value.Num, 0) || math.IsNaN(value.Num) {
				err = violation(path, "must be a non-negative number, got %v", value.Num)
				return false
			}
			answers[name] = value.Num
		case domain.FieldSmoker:
			if !isBool(value) {
				err = violation(path, "expected boolean, got %s", typeName(value))
				return false
			}
			answers[name] = value.Bool()
		case domain.FieldExercise, domain.FieldDiet:
			if value.Type != gjson.String {
				err = violation(path, "expected string, got %s", typeName(value))
				return false
			}
			if s := strings.TrimSpace(value.Str); s != "" {
				answers[name] = s
			}
		default:
			answers[name] = value.Value()
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// checkMissingFields exige que los campos requeridos listados como faltantes coincidan con los ausentes.
func checkMissingFields(listed, absent []string) error {
	listedSet := make(map[string]bool, len(listed))
	for _, f := range listed {
		listedSet[f] = true
	}
	absentSet := make(map[string]bool, len(absent))
	for _, f := range absent {
		absentSet[f] = true
		if !listedSet[f] {
			return violation("parsing.missing_fields", "required field %q absent from answers but not listed", f)
		}
	}
	for _, f := range domain.RequiredFields {
		if listedSet[f] && !absentSet[f] {
			return violation("parsing.missing_fields", "field %q listed as missing but present in answers", f)
		}
	}
	return nil
}

func validateFactors(r gjson.Result) (domain.FactorExtractionResult, error) {
	if !r.IsObject() {
		return domain.FactorExtractionResult{}, violation("factors", "expected object, got %s", typeName(r))
	}
	factors, err := requireStringList(r.Get("factors"), "factors.factors", true)
	if err != nil {
		return domain.FactorExtractionResult{}, err
	}
	seen := make(map[string]bool, len(factors))
	for _, f := range factors {
		key := strings.ToLower(f)
		if seen[key] {
			return domain.FactorExtractionResult{}, violation("factors.factors", "duplicate factor %q", f)
		}
		seen[key] = true
	}
	confidence, err := requireConfidence(r.Get("confidence"), "factors.confidence")
	if err != nil {
		return domain.FactorExtractionResult{}, err
	}
	return domain.FactorExtractionResult{Factors: factors, Confidence: confidence}, nil
}

func validateClassification(r gjson.Result) (domain.RiskClassificationResult, error) {
	if !r.IsObject() {
		return domain.RiskClassificationResult{}, violation("classification", "expected object, got %s", typeName(r))
	}
	level, err := requireRiskLevel(r.Get("risk_level"), "classification.risk_level")
	if err != nil {
		return domain.RiskClassificationResult{}, err
	}
	score, err := requireScore(r.Get("score"), "classification.score")
	if err != nil {
		return domain.RiskClassificationResult{}, err
	}
	if expected := domain.RiskLevelForScore(score); expected != level {
		return domain.RiskClassificationResult{}, violation("classification.risk_level", "%q inconsistent with score %d (expected %q)", level, score, expected)
	}
	rationale, err := requireStringList(r.Get("rationale"), "classification.rationale", false)
	if err != nil {
		return domain.RiskClassificationResult{}, err
	}
	return domain.RiskClassificationResult{RiskLevel: level, Score: score, Rationale: rationale}, nil
}

func validateFinal(r gjson.Result, classification *domain.RiskClassificationResult) (domain.FinalRecommendationResult, error) {
	if !r.IsObject() {
		return domain.FinalRecommendationResult{}, violation("final", "expected object, got %s", typeName(r))
	}
	level, err := requireRiskLevel(r.Get("risk_level"), "final.risk_level")
	if err != nil {
		return domain.FinalRecommendationResult{}, err
	}
	if classification != nil && classification.RiskLevel != level {
		return domain.FinalRecommendationResult{}, violation("final.risk_level", "%q differs from classification %q", level, classification.RiskLevel)
	}
	factors, err := requireStringList(r.Get("factors"), "final.factors", false)
	if err != nil {
		return domain.FinalRecommendationResult{}, err
	}
	recommendations, err := requireStringList(r.Get("recommendations"), "final.recommendations", true)
	if err != nil {
		return domain.FinalRecommendationResult{}, err
	}
	if n := len(recommendations); n < domain.MinRecommendations || n > domain.MaxRecommendations {
		return domain.FinalRecommendationResult{}, violation("final.recommendations", "expected %d to %d items, got %d", domain.MinRecommendations, domain.MaxRecommendations, n)
	}
	status, err := requireString(r.Get("status"), "final.status")
	if err != nil {
		return domain.FinalRecommendationResult{}, err
	}
	finalStatus := domain.FinalStatus(status)
	if !finalStatus.Valid() {
		return domain.FinalRecommendationResult{}, violation("final.status", "unrecognized value %q", status)
	}
	return domain.FinalRecommendationResult{
		RiskLevel:       level,
		Factors:         factors,
		Recommendations: recommendations,
		Status:          finalStatus,
	}, nil
}

func requireString(r gjson.Result, path string) (string, error) {
	if !r.Exists() {
		return "", violation(path, "required field missing")
	}
	if r.Type != gjson.String {
		return "", violation(path, "expected string, got %s", typeName(r))
	}
	return r.Str, nil
}

func requireNumber(r gjson.Result, path string) (float64, error) {
	if !r.Exists() {
		return 0, violation(path, "required field missing")
	}
	if r.Type != gjson.Number {
		return 0, violation(path, "expected number, got %s", typeName(r))
	}
	return r.Num, nil
}

// requireConfidence no recorta: un valor fuera de [0,1] es una violacion del contrato.
func requireConfidence(r gjson.Result, path string) (float64, error) {
	n, err := requireNumber(r, path)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 1 {
		return 0, violation(path, "must be within [0,1], got %v", n)
	}
	return n, nil
}

func requireScore(r gjson.Result, path string) (int, error) {
	n, err := requireNumber(r, path)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) {
		return 0, violation(path, "must be an integer, got %v", n)
	}
	if n < domain.MinScore || n > domain.MaxScore {
		return 0, violation(path, "must be within [%d,%d], got %v", domain.MinScore, domain.MaxScore, n)
	}
	return int(n), nil
}

func requireRiskLevel(r gjson.Result, path string) (domain.RiskLevel, error) {
	s, err := requireString(r, path)
	if err != nil {
		return "", err
	}
	level := domain.RiskLevel(s)
	if !level.Valid() {
		return "", violation(path, "unrecognized value %q", s)
	}
	return level, nil
}

func requireStringList(r gjson.Result, path string, nonEmptyItems bool) ([]string, error) {
	if !r.Exists() {
		return nil, violation(path, "required field missing")
	}
	if !r.IsArray() {
		return nil, violation(path, "expected array, got %s", typeName(r))
	}
	items := r.Array()
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item.Type != gjson.String {
			return nil, violation(path, "item %d: expected string, got %s", i, typeName(item))
		}
		s := strings.TrimSpace(item.Str)
		if nonEmptyItems && s == "" {
			return nil, violation(path, "item %d is empty", i)
		}
		out = append(out, s)
	}
	return out, nil
}

func isBool(r gjson.Result) bool {
	return r.Type == gjson.True || r.Type == gjson.False
}

func isPresent(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func typeName(r gjson.Result) string {
	switch {
	case !r.Exists():
		return "nothing"
	case r.IsObject():
		return "object"
	case r.IsArray():
		return "array"
	case isBool(r):
		return "boolean"
	}
	switch r.Type {
	case gjson.Null:
		return "null"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		return "unknown"
	}
}
