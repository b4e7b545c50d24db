// cmd/tools/analyze/main.go
//
// Runs one bot message through the analysis pipeline from the shell and
// prints the AnalysisResult, for iterating on the prompt contract without a
// browser in the loop:
//
//	go run ./cmd/tools/analyze -text "Top locations: Wiggle Room (234 trips)"
//	echo "..." | go run ./cmd/tools/analyze
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"rideviz/internal/analysis"
	"rideviz/internal/common/config"
	"rideviz/internal/common/logger"
	"rideviz/internal/genai"
	"rideviz/internal/geocode"
)

func main() {
	text := flag.String("text", "", "bot message to analyze (default: read stdin)")
	flag.Parse()

	zapLog := logger.New("warn", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	message := *text
	if message == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			zapLog.Fatal("read stdin failed", zap.Error(err))
		}
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		fmt.Fprintln(os.Stderr, "nothing to analyze")
		os.Exit(1)
	}

	genaiClient := genai.NewClient(cfg.GenAI.BaseURL, cfg.GenAI.APIKey, cfg.GenAI.Model)
	resolver := geocode.NewResolver(cfg.Geocoding.BaseURL, cfg.Geocoding.APIKey, log)
	registry := analysis.NewGeocodeRegistry(resolver, log)
	orchestrator := analysis.NewOrchestrator(genaiClient, registry, cfg.Analysis.MaxCapabilityRounds, log, nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Analysis.AnalysisTimeout())
	defer cancel()

	result := orchestrator.Analyze(ctx, message)

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
