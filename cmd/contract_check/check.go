package main

import (
	"fmt"

	"health-profiler/internal/domain"
	"health-profiler/internal/service"
)

// Scenario describe una encuesta y lo que se espera del pipeline.
type Scenario struct {
	Name            string
	Input           string
	ExpectedOutcome domain.Outcome
	// ExpectedRisk vacio significa que no se verifica el nivel.
	ExpectedRisk domain.RiskLevel
}

var scenarios = []Scenario{
	{
		Name:            "perfil completo de alto riesgo",
		Input:           `{"age":42,"smoker":true,"exercise":"rarely","diet":"high sugar"}`,
		ExpectedOutcome: domain.OutcomeComplete,
	},
	{
		Name:            "perfil saludable",
		Input:           "I'm 29, never smoked, I run four times a week and eat mostly vegetables.",
		ExpectedOutcome: domain.OutcomeComplete,
		ExpectedRisk:    domain.RiskLevelLow,
	},
	{
		Name:            "perfil incompleto",
		Input:           "I'm 35 years old.",
		ExpectedOutcome: domain.OutcomeIncompleteProfile,
	},
	{
		Name:            "dos respuestas faltantes",
		Input:           "Age 58, smoker for 30 years.",
		ExpectedOutcome: domain.OutcomeComplete,
	},
}

// checkScenario devuelve las diferencias entre lo esperado y lo obtenido; vacio si el escenario pasa.
func checkScenario(sc Scenario, result domain.ProfilePipelineResult, err error) []string {
	if err != nil {
		return []string{fmt.Sprintf("analysis failed: %v (%s)", err, service.UserMessage(err))}
	}

	var problems []string
	if got := result.Outcome(); got != sc.ExpectedOutcome {
		problems = append(problems, fmt.Sprintf("expected outcome %s, got %s", sc.ExpectedOutcome, got))
	}
	if sc.ExpectedRisk != "" {
		switch {
		case result.Classification == nil:
			problems = append(problems, fmt.Sprintf("expected risk %s, classification missing", sc.ExpectedRisk))
		case result.Classification.RiskLevel != sc.ExpectedRisk:
			problems = append(problems, fmt.Sprintf("expected risk %s, got %s (score %d)", sc.ExpectedRisk, result.Classification.RiskLevel, result.Classification.Score))
		}
	}
	if result.Final != nil && result.Final.Status != domain.FinalStatusOK {
		problems = append(problems, fmt.Sprintf("final status %s", result.Final.Status))
	}
	return problems
}
