package domain

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Cortes fijos de las bandas de riesgo: low 0-33, medium 34-66, high 67-100.
const (
	MinScore           = 0
	MaxScore           = 100
	LowBandMaxScore    = 33
	MediumBandMaxScore = 66
)

func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	default:
		return false
	}
}

// RiskLevelForScore mapea un score 0-100 a su banda.
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score <= LowBandMaxScore:
		return RiskLevelLow
	case score <= MediumBandMaxScore:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}
