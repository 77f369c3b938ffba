package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"health-profiler/internal/domain"
)

// Formatos de salida soportados.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// envelope es la forma que comparten el CLI (json/yaml) y la API HTTP.
type envelope struct {
	Outcome domain.Outcome               `json:"outcome" yaml:"outcome"`
	Result  domain.ProfilePipelineResult `json:"result" yaml:"result"`
}

// Render escribe el resultado en el formato pedido. Formatos desconocidos usan human.
func Render(w io.Writer, result domain.ProfilePipelineResult, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatYAML:
		return renderYAML(w, result)
	default:
		renderHuman(w, result)
		return nil
	}
}

// ValidFormat indica si el formato es uno de los soportados.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatHuman, FormatJSON, FormatYAML:
		return true
	}
	return false
}

func renderJSON(w io.Writer, result domain.ProfilePipelineResult) error {
	output, err := json.MarshalIndent(envelope{Outcome: result.Outcome(), Result: result}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func renderYAML(w io.Writer, result domain.ProfilePipelineResult) error {
	output, err := yaml.Marshal(envelope{Outcome: result.Outcome(), Result: result})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(output))
	return err
}

func renderHuman(w io.Writer, result domain.ProfilePipelineResult) {
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)

	fmt.Fprintln(w)
	cyan.Fprintln(w, "HEALTH PROFILE")
	renderAnswers(w, result.Parsing)

	if !result.Parsing.Analyzable() {
		yellow.Fprintln(w, "INCOMPLETE PROFILE")
		fmt.Fprintf(w, "   %s\n", result.Parsing.Reason)
		if len(result.Parsing.MissingFields) > 0 {
			fmt.Fprintf(w, "   Missing: %s\n", strings.Join(result.Parsing.MissingFields, ", "))
		}
		fmt.Fprintln(w)
		return
	}

	if c := result.Classification; c != nil {
		riskColor(c.RiskLevel).Fprintf(w, "RISK: %s (score %d/100)\n", strings.ToUpper(string(c.RiskLevel)), c.Score)
		for _, r := range c.Rationale {
			fmt.Fprintf(w, "   - %s\n", r)
		}
		fmt.Fprintln(w)
	}

	factors := factorList(result)
	if len(factors) > 0 {
		yellow.Fprintln(w, "CONTRIBUTING FACTORS:")
		for _, f := range factors {
			fmt.Fprintf(w, "   - %s\n", f)
		}
		fmt.Fprintln(w)
	}

	if f := result.Final; f != nil {
		green.Fprintln(w, "RECOMMENDATIONS:")
		for i, r := range f.Recommendations {
			fmt.Fprintf(w, "   %d. %s\n", i+1, r)
		}
		fmt.Fprintln(w)
		if f.Status == domain.FinalStatusError {
			yellow.Fprintln(w, "The analysis reported an error in its final step.")
		}
	}

	if result.Outcome() == domain.OutcomePartial {
		yellow.Fprintf(w, "Analysis stopped after the %s step.\n", lastStageName(result))
	}

	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "%s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
}

func renderAnswers(w io.Writer, p domain.ParsingResult) {
	keys := make([]string, 0, len(p.Answers))
	for k := range p.Answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "   %s: %v\n", k, p.Answers[k])
	}
	fmt.Fprintf(w, "   confidence: %.2f\n\n", p.Confidence)
}

// factorList prefiere los factores del paso final y cae en los de extraccion.
func factorList(r domain.ProfilePipelineResult) []string {
	if r.Final != nil && len(r.Final.Factors) > 0 {
		return r.Final.Factors
	}
	if r.Factors != nil {
		return r.Factors.Factors
	}
	return nil
}

func lastStageName(r domain.ProfilePipelineResult) string {
	switch {
	case r.Classification != nil:
		return "classification"
	case r.Factors != nil:
		return "factor extraction"
	default:
		return "parsing"
	}
}

func riskColor(level domain.RiskLevel) *color.Color {
	switch level {
	case domain.RiskLevelHigh:
		return color.New(color.FgRed, color.Bold)
	case domain.RiskLevelMedium:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}
