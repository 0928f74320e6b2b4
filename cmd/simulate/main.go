// Command simulate runs one flood resilience simulation from a design file and
// prints the result as JSON.
//
// Usage:
//
//	go run ./cmd/simulate \
//	  -design design.json \
//	  -recommendations recommendations.txt \
//	  -year 2025
//
// The design file holds the same JSON object the HTTP API accepts:
//
//	{
//	  "foundationType": "Raised Slab",
//	  "elevationHeight": 4.5,
//	  "materials": ["Standard Drywall"],
//	  "floodMitigationFeatures": ["Flood Vents"]
//	}
//
// The recommendations file holds one recommendation per line.
//
// Without -recommendations the OpenAI generator is used when OPENAI_API_KEY is
// set. Other defaults come from the same environment variables as the service.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/flood-resilience-service/internal/adapter/openai"
	"github.com/couchcryptid/flood-resilience-service/internal/catalog"
	"github.com/couchcryptid/flood-resilience-service/internal/config"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/couchcryptid/flood-resilience-service/internal/simulation"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// staticGenerator replays a fixed recommendation list.
type staticGenerator struct {
	recs []string
}

func (g staticGenerator) Generate(_ context.Context, _ domain.BuildingDesign, _ []domain.TimelineEntry, _ int, _ string) ([]string, error) {
	return g.recs, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	designPath := fs.String("design", "", "path to a building design JSON file (required)")
	recsPath := fs.String("recommendations", "", "path to a text file with one recommendation per line")
	year := fs.Int("year", 0, "fix the current year instead of reading the system clock")
	targetYear := fs.Int("target-year", cfg.TargetYear, "target future year")
	scenario := fs.String("scenario", cfg.ClimateScenario, "climate scenario name")
	buildingType := fs.String("building-type", cfg.BuildingType, "building type")
	appendTarget := fs.Bool("append-target-year", cfg.AppendTargetYear, "add the target year when 5-year steps skip it")
	dataDir := fs.String("data-dir", cfg.ReferenceDataDir, "reference data directory (empty uses embedded tables)")
	verbose := fs.Bool("v", false, "log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *designPath == "" {
		fs.Usage()
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	design, err := readDesign(*designPath)
	if err != nil {
		fmt.Fprintf(stderr, "design: %v\n", err)
		return 1
	}

	cat, err := catalog.Load(*dataDir)
	if err != nil {
		fmt.Fprintf(stderr, "reference data: %v\n", err)
		return 1
	}

	if *year > 0 {
		domain.SetClock(clockwork.NewFakeClockAt(time.Date(*year, time.June, 1, 0, 0, 0, 0, time.UTC)))
		defer domain.SetClock(nil)
	}

	// The CLI has no metrics endpoint, so metrics go to a private registry.
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())

	var generator domain.RecommendationGenerator
	switch {
	case *recsPath != "":
		recs, err := readLines(*recsPath)
		if err != nil {
			fmt.Fprintf(stderr, "recommendations: %v\n", err)
			return 1
		}
		generator = staticGenerator{recs: recs}
	case cfg.OpenAIEnabled:
		generator = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.GeneratorTimeout, logger, metrics)
	}

	orch := simulation.New(cat, generator, simulation.Options{
		TargetYear:       *targetYear,
		ClimateScenario:  *scenario,
		BuildingType:     *buildingType,
		AppendTargetYear: *appendTarget,
		GeneratorTimeout: cfg.GeneratorTimeout,
	}, logger, metrics)

	result := orch.Run(context.Background(), design)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "write result: %v\n", err)
		return 1
	}
	return 0
}

func readDesign(path string) (domain.BuildingDesign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.BuildingDesign{}, err
	}
	var in domain.DesignInput
	if err := json.Unmarshal(data, &in); err != nil {
		return domain.BuildingDesign{}, fmt.Errorf("parse %s: %w", path, domain.DecodeError(err))
	}
	return in.Validate()
}

// readLines returns the file's lines unmodified; the orchestrator sanitizes them.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
