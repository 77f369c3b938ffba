package service

import (
	"errors"
	"testing"

	"health-profiler/internal/domain"
)

func TestGateStages(t *testing.T) {
	cases := []struct {
		name    string
		status  domain.ParsingStatus
		present []Stage
		last    Stage
		field   string
	}{
		{"parsing only", domain.ParsingStatusOK, nil, StageParsing, ""},
		{"full chain", domain.ParsingStatusOK, []Stage{StageFactors, StageClassification, StageFinal}, StageFinal, ""},
		{"prefix", domain.ParsingStatusOK, []Stage{StageFactors, StageClassification}, StageClassification, ""},
		{"incomplete alone", domain.ParsingStatusIncompleteProfile, nil, StageParsing, ""},
		{"incomplete with factors", domain.ParsingStatusIncompleteProfile, []Stage{StageFactors}, StageParsing, "factors"},
		{"classification gap", domain.ParsingStatusOK, []Stage{StageClassification}, StageParsing, "classification"},
		{"final gap", domain.ParsingStatusOK, []Stage{StageFactors, StageFinal}, StageFactors, "final"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			present := map[Stage]bool{StageParsing: true}
			for _, s := range tc.present {
				present[s] = true
			}
			last, err := gateStages(tc.status, present)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			} else {
				var schemaErr *SchemaViolationError
				if !errors.As(err, &schemaErr) || schemaErr.Field != tc.field {
					t.Fatalf("expected violation on %s, got %v", tc.field, err)
				}
			}
			if last != tc.last {
				t.Fatalf("expected last %s, got %s", tc.last, last)
			}
		})
	}
}

func TestStageString(t *testing.T) {
	if StageClassification.String() != "classification" {
		t.Fatalf("unexpected name %s", StageClassification)
	}
	if Stage(9).String() != "unknown" {
		t.Fatalf("expected unknown for out-of-range stage")
	}
}
