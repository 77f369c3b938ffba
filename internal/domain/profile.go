package domain

// Campos requeridos de la encuesta. El orden se usa al reportar faltantes.
const (
	FieldAge      = "age"
	FieldSmoker   = "smoker"
	FieldExercise = "exercise"
	FieldDiet     = "diet"
)

// RequiredFields lista los cuatro campos clave de la encuesta.
var RequiredFields = []string{FieldAge, FieldSmoker, FieldExercise, FieldDiet}

// MaxMissingRequired es el maximo de campos requeridos ausentes antes de declarar el perfil incompleto.
const MaxMissingRequired = 2

type ParsingStatus string

const (
	ParsingStatusOK                ParsingStatus = "ok"
	ParsingStatusIncompleteProfile ParsingStatus = "incomplete_profile"
)

func (s ParsingStatus) Valid() bool {
	return s == ParsingStatusOK || s == ParsingStatusIncompleteProfile
}

type FinalStatus string

const (
	FinalStatusOK    FinalStatus = "ok"
	FinalStatusError FinalStatus = "error"
)

func (s FinalStatus) Valid() bool {
	return s == FinalStatusOK || s == FinalStatusError
}

// SurveyAnswers guarda las respuestas parseadas; claves extra se preservan tal cual.
type SurveyAnswers map[string]any

// Age devuelve la edad si esta presente.
func (a SurveyAnswers) Age() (float64, bool) {
	v, ok := a[FieldAge].(float64)
	return v, ok
}

// Smoker devuelve el flag de fumador si esta presente.
func (a SurveyAnswers) Smoker() (bool, bool) {
	v, ok := a[FieldSmoker].(bool)
	return v, ok
}

func (a SurveyAnswers) Exercise() (string, bool) {
	v, ok := a[FieldExercise].(string)
	return v, ok
}

func (a SurveyAnswers) Diet() (string, bool) {
	v, ok := a[FieldDiet].(string)
	return v, ok
}

// Has indica si la clave existe con un valor no nulo.
func (a SurveyAnswers) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// MissingRequired devuelve los campos requeridos ausentes, en el orden de RequiredFields.
func (a SurveyAnswers) MissingRequired() []string {
	var missing []string
	for _, f := range RequiredFields {
		if !a.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

type ParsingResult struct {
	Answers       SurveyAnswers `json:"answers" yaml:"answers"`
	MissingFields []string      `json:"missing_fields" yaml:"missing_fields"`
	Confidence    float64       `json:"confidence" yaml:"confidence"`
	Status        ParsingStatus `json:"status" yaml:"status"`
	Reason        string        `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Analyzable indica si el perfil puede pasar a la extraccion de factores.
func (p ParsingResult) Analyzable() bool {
	return p.Status == ParsingStatusOK
}

type FactorExtractionResult struct {
	Factors    []string `json:"factors" yaml:"factors"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
}

type RiskClassificationResult struct {
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`
	Score     int       `json:"score" yaml:"score"`
	Rationale []string  `json:"rationale" yaml:"rationale"`
}

type FinalRecommendationResult struct {
	RiskLevel       RiskLevel   `json:"risk_level" yaml:"risk_level"`
	Factors         []string    `json:"factors" yaml:"factors"`
	Recommendations []string    `json:"recommendations" yaml:"recommendations"`
	Status          FinalStatus `json:"status" yaml:"status"`
}

// Limites de la lista de recomendaciones.
const (
	MinRecommendations = 3
	MaxRecommendations = 5
)

// ProfilePipelineResult es el agregado raiz. Las etapas posteriores son nil cuando no se produjeron;
// los consumidores deben revisar presencia antes de usarlas.
type ProfilePipelineResult struct {
	Parsing        ParsingResult              `json:"parsing" yaml:"parsing"`
	Factors        *FactorExtractionResult    `json:"factors,omitempty" yaml:"factors,omitempty"`
	Classification *RiskClassificationResult  `json:"classification,omitempty" yaml:"classification,omitempty"`
	Final          *FinalRecommendationResult `json:"final,omitempty" yaml:"final,omitempty"`
}

// Outcome resume en que estado terminal quedo el pipeline.
type Outcome string

const (
	OutcomeIncompleteProfile Outcome = "incomplete_profile"
	OutcomeComplete          Outcome = "complete"
	OutcomePartial           Outcome = "partial"
)

// Outcome clasifica el resultado segun las etapas presentes.
func (r ProfilePipelineResult) Outcome() Outcome {
	switch {
	case !r.Parsing.Analyzable():
		return OutcomeIncompleteProfile
	case r.Final != nil:
		return OutcomeComplete
	default:
		return OutcomePartial
	}
}
