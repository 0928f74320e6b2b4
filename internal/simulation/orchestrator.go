// Package simulation composes the resilience timeline, the recommendation
// generator, and the cost matcher into one simulation run.
package simulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/flood-resilience-service/internal/catalog"
	"github.com/couchcryptid/flood-resilience-service/internal/costbenefit"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/couchcryptid/flood-resilience-service/internal/resilience"
)

// Options holds the process-wide settings applied to every run.
type Options struct {
	TargetYear      int
	ClimateScenario string
	BuildingType    string

	// AppendTargetYear adds the target year to timelines whose 5-year steps
	// skip over it.
	AppendTargetYear bool

	// GeneratorTimeout bounds the recommendation call. Zero leaves the
	// caller's context deadline in charge.
	GeneratorTimeout time.Duration
}

// Orchestrator runs simulations. It holds only read-only collaborators and is
// safe for concurrent use.
type Orchestrator struct {
	catalog   *catalog.Catalog
	timeline  *resilience.TimelineGenerator
	matcher   *costbenefit.Matcher
	generator domain.RecommendationGenerator
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates an Orchestrator over the catalog. generator may be nil, in which
// case every run carries the "not configured" placeholder recommendation.
func New(c *catalog.Catalog, generator domain.RecommendationGenerator, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	resolver := resilience.NewResolver(c, logger)
	scorer := resilience.NewScorer(c)
	return &Orchestrator{
		catalog:   c,
		timeline:  resilience.NewTimelineGenerator(resolver, scorer, opts.AppendTargetYear),
		matcher:   costbenefit.NewMatcher(c, nil),
		generator: generator,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the reference catalogs are loaded and
// non-empty.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if o.catalog == nil || o.catalog.Empty() {
		return errors.New("reference data is not loaded")
	}
	return nil
}

// Run simulates one design. It never fails: generator problems degrade to a
// placeholder recommendation.
func (o *Orchestrator) Run(ctx context.Context, design domain.BuildingDesign) domain.SimulationResult {
	start := time.Now()

	design = design.Clone()
	design.TargetYear = o.opts.TargetYear
	design.ClimateScenario = o.opts.ClimateScenario
	design.BuildingType = o.opts.BuildingType

	currentYear := domain.CurrentYear()
	timeline := o.timeline.Generate(design, currentYear, design.TargetYear, design.ClimateScenario)
	overall := resilience.OverallScore(timeline, design.TargetYear)

	recs, outcome := o.recommend(ctx, design, timeline)
	o.metrics.GeneratorRequests.WithLabelValues(string(outcome)).Inc()

	analysis := o.matcher.Analyze(recs, timeline, currentYear, design.TargetYear)
	for _, out := range analysis.Outcomes {
		o.metrics.RecommendationsClassified.WithLabelValues(out.Rule).Inc()
	}

	result := domain.SimulationResult{
		ID:                      uuid.NewString(),
		BuildingDesign:          design,
		OverallResilienceScore:  overall,
		PerformanceTimeline:     timeline,
		AdaptiveRecommendations: recs,
		CostBenefitAnalysis:     analysis.Report,
		Timestamp:               domain.Now(),
	}

	elapsed := time.Since(start)
	o.metrics.SimulationsTotal.Inc()
	o.metrics.SimulationDuration.Observe(elapsed.Seconds())
	o.metrics.OverallScore.Observe(float64(overall))

	o.logger.Info("simulation complete",
		"id", result.ID,
		"foundation", design.FoundationType,
		"scenario", design.ClimateScenario,
		"target_year", design.TargetYear,
		"overall_score", overall,
		"timeline_entries", len(timeline),
		"recommendations", len(recs),
		"generator_outcome", outcome,
		"upfront_cost", analysis.Report.UpfrontCostEstimate,
		"long_term_savings", analysis.Report.LongTermSavingsEstimate,
		"duration", elapsed,
	)

	return result
}

func (o *Orchestrator) recommend(ctx context.Context, design domain.BuildingDesign, timeline []domain.TimelineEntry) ([]string, domain.GenerationOutcome) {
	if o.generator != nil && o.opts.GeneratorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.GeneratorTimeout)
		defer cancel()
	}
	return domain.GenerateRecommendations(ctx, o.generator, design, timeline, o.logger)
}
