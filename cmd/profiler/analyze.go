package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"health-profiler/internal/config"
	"health-profiler/internal/domain"
	"health-profiler/internal/llm"
	"health-profiler/internal/logging"
	"health-profiler/internal/report"
	"health-profiler/internal/service"
)

// sampleSurvey es la encuesta de ejemplo que usa --sample.
const sampleSurvey = `{"age":42,"smoker":true,"exercise":"rarely","diet":"high sugar"}`

type analyzeOptions struct {
	text         string
	file         string
	image        string
	mediaType    string
	outputFormat string
	sample       bool
	verbose      bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a lifestyle survey",
		Long: `Analyze a lifestyle survey given as text, a text file or an image of a form.

Examples:
  # Analyze free text
  profiler analyze --text "I'm 42, I smoke and rarely exercise"

  # Analyze the built-in sample survey
  profiler analyze --sample -o json

  # Analyze a photo of a paper form
  profiler analyze --image form.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "Survey answers as free text")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Path to a text file with the survey answers")
	cmd.Flags().StringVarP(&opts.image, "image", "i", "", "Path to an image of the survey form")
	cmd.Flags().StringVar(&opts.mediaType, "media-type", "", "Image media type (detected when omitted)")
	cmd.Flags().StringVarP(&opts.outputFormat, "output", "o", report.FormatHuman, "Output format (human, json, yaml)")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "Use the built-in sample survey")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")
	cmd.MarkFlagsMutuallyExclusive("text", "file", "image", "sample")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	if !report.ValidFormat(opts.outputFormat) {
		return fmt.Errorf("unsupported output format %q", opts.outputFormat)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := logging.NewConsoleLogger(level)
	defer logger.Sync()

	req, err := buildRequest(opts, cfg.MaxImageBytes)
	if err != nil {
		return userError(err)
	}

	llmClient, err := llm.NewFromConfig(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}
	profileSvc := service.NewProfileService(llmClient, cfg.LLMTimeout, logger)

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Analyzing profile..."
	if opts.outputFormat == report.FormatHuman {
		s.Start()
	}
	result, err := profileSvc.Analyze(cmd.Context(), req)
	s.Stop()
	if err != nil {
		return userError(err)
	}

	return report.Render(cmd.OutOrStdout(), result, opts.outputFormat)
}

// buildRequest resuelve la entrada segun las flags; sin flags usa la encuesta de ejemplo solo con --sample.
func buildRequest(opts *analyzeOptions, maxImageBytes int64) (domain.AnalysisRequest, error) {
	switch {
	case opts.sample:
		return service.NewTextRequest(sampleSurvey)
	case opts.text != "":
		return service.NewTextRequest(opts.text)
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return domain.AnalysisRequest{}, &service.InvalidInputError{Reason: "cannot read survey file"}
		}
		return service.NewTextRequest(string(data))
	case opts.image != "":
		data, err := os.ReadFile(opts.image)
		if err != nil {
			return domain.AnalysisRequest{}, &service.InvalidInputError{Reason: "cannot read image file"}
		}
		return service.NewImageRequest(data, opts.mediaType, maxImageBytes)
	default:
		return domain.AnalysisRequest{}, &service.InvalidInputError{Reason: "provide --text, --file, --image or --sample"}
	}
}

// userError imprime el mensaje para el usuario y conserva el error original para el exit code.
func userError(err error) error {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(os.Stderr, "✗ %s\n", service.UserMessage(err))
	var schemaErr *service.SchemaViolationError
	if errors.As(err, &schemaErr) && schemaErr.Field != "" {
		fmt.Fprintf(os.Stderr, "  field: %s\n", schemaErr.Field)
	}
	return err
}
