package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"health-profiler/internal/config"
	"health-profiler/internal/llm"
	"health-profiler/internal/logging"
	"health-profiler/internal/service"
)

// contract_check corre escenarios fijos contra el proveedor real y verifica que las respuestas
// respeten el contrato del pipeline.
func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewConsoleLogger(cfg.LogLevel)
	defer logger.Sync()

	llmClient, err := llm.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	profileSvc := service.NewProfileService(llmClient, cfg.LLMTimeout, logger)

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	failed := 0
	for _, sc := range scenarios {
		cyan.Printf("[%s]", sc.Name)
		fmt.Printf(" %s\n", sc.Input)

		req, err := service.NewTextRequest(sc.Input)
		if err != nil {
			log.Fatalf("scenario %s: %v", sc.Name, err)
		}
		result, err := profileSvc.Analyze(ctx, req)

		problems := checkScenario(sc, result, err)
		if len(problems) == 0 {
			green.Printf("  ok: outcome=%s\n\n", result.Outcome())
			continue
		}
		failed++
		for _, p := range problems {
			red.Printf("  fail: %s\n", p)
		}
		fmt.Println()
	}

	fmt.Printf("==== %d/%d escenarios ok ====\n", len(scenarios)-failed, len(scenarios))
	if failed > 0 {
		os.Exit(1)
	}
}
