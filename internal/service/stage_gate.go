package service

import "health-profiler/internal/domain"

// Stage identifica una etapa del pipeline, en orden estricto.
type Stage int

const (
	StageParsing Stage = iota
	StageFactors
	StageClassification
	StageFinal
)

var stageNames = [...]string{"parsing", "factors", "classification", "final"}

// Stages devuelve las etapas en orden de ejecucion.
func Stages() []Stage {
	return []Stage{StageParsing, StageFactors, StageClassification, StageFinal}
}

func (s Stage) String() string {
	if s < StageParsing || s > StageFinal {
		return "unknown"
	}
	return stageNames[s]
}

// gateStages aplica la politica de compuertas sobre las etapas presentes en la respuesta.
// Parsing siempre esta; Factors requiere status ok; cada etapa siguiente requiere la anterior.
// Devuelve la ultima etapa alcanzada.
func gateStages(status domain.ParsingStatus, present map[Stage]bool) (Stage, error) {
	last := StageParsing
	for _, stage := range Stages()[1:] {
		if !present[stage] {
			continue
		}
		if status != domain.ParsingStatusOK {
			return last, violation(stage.String(), "stage present after %s", domain.ParsingStatusIncompleteProfile)
		}
		prev := stage - 1
		if !present[prev] && prev != StageParsing {
			return last, violation(stage.String(), "stage present without preceding %s", prev)
		}
		last = stage
	}
	return last, nil
}

// LastStage devuelve la ultima etapa presente en un resultado ya validado.
func LastStage(r domain.ProfilePipelineResult) Stage {
	switch {
	case r.Final != nil:
		return StageFinal
	case r.Classification != nil:
		return StageClassification
	case r.Factors != nil:
		return StageFactors
	default:
		return StageParsing
	}
}
