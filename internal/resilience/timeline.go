package resilience

import (
	"math"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

// YearStep is the spacing between timeline entries.
const YearStep = 5

// TimelineGenerator samples a design's performance over a range of years.
type TimelineGenerator struct {
	resolver *Resolver
	scorer   *Scorer

	// appendTargetYear adds a final entry for the target year when the
	// 5-year steps skip over it, so the overall score is always computed.
	appendTargetYear bool
}

// NewTimelineGenerator creates a TimelineGenerator. See [TimelineGenerator]
// for appendTargetYear.
func NewTimelineGenerator(resolver *Resolver, scorer *Scorer, appendTargetYear bool) *TimelineGenerator {
	return &TimelineGenerator{
		resolver:         resolver,
		scorer:           scorer,
		appendTargetYear: appendTargetYear,
	}
}

// Generate returns one entry per year in currentYear, currentYear+5, ... while
// year <= targetYear. It returns an empty timeline when targetYear precedes
// currentYear.
func (g *TimelineGenerator) Generate(design domain.BuildingDesign, currentYear, targetYear int, scenario string) []domain.TimelineEntry {
	timeline := make([]domain.TimelineEntry, 0, max(0, (targetYear-currentYear)/YearStep+2))

	last := 0
	for year := currentYear; year <= targetYear; year += YearStep {
		timeline = append(timeline, g.entry(design, year, scenario))
		last = year
	}

	if g.appendTargetYear && len(timeline) > 0 && last != targetYear {
		timeline = append(timeline, g.entry(design, targetYear, scenario))
	}
	return timeline
}

func (g *TimelineGenerator) entry(design domain.BuildingDesign, year int, scenario string) domain.TimelineEntry {
	level := g.resolver.Resolve(year, scenario)
	res := g.scorer.Score(design, level)
	return domain.TimelineEntry{
		Year:                    year,
		ProjectedFloodLevelFeet: round2(level),
		ResilienceScore:         res.Score,
		FloodDepthInches:        round2(res.FloodDepthInches),
	}
}

// OverallScore is the score of the entry for targetYear, or 0 when the
// timeline has no such entry.
func OverallScore(timeline []domain.TimelineEntry, targetYear int) int {
	for _, e := range timeline {
		if e.Year == targetYear {
			return e.ResilienceScore
		}
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
