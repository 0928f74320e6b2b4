package resilience

import (
	"math"

	"github.com/couchcryptid/flood-resilience-service/internal/catalog"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// ScoreResult is the outcome of scoring one design against one flood level.
type ScoreResult struct {
	Score            int
	FloodDepthInches float64
}

// Scorer computes resilience scores from the feature catalog. It holds no
// mutable state; identical inputs always give identical results.
type Scorer struct {
	catalog *catalog.Catalog
}

// NewScorer creates a Scorer over a loaded catalog.
func NewScorer(c *catalog.Catalog) *Scorer {
	return &Scorer{catalog: c}
}

// Score rates design against a flood level in feet above datum. Catalog keys
// that are not found contribute nothing.
func (s *Scorer) Score(design domain.BuildingDesign, floodLevelFeet float64) ScoreResult {
	total := 0

	if f, ok := s.catalog.Feature(catalog.CategoryFoundation, design.FoundationType); ok {
		total += f.ScoreImpact
	}

	diff := design.ElevationHeight - floodLevelFeet
	total += ElevationBonus(diff)

	depth := FloodDepthInches(diff)

	// Materials matter twice as much once they are under water.
	multiplier := 1
	if depth > 0 {
		multiplier = 2
	}
	for _, m := range design.Materials {
		if f, ok := s.catalog.Feature(catalog.CategoryMaterials, m); ok {
			total += f.ScoreImpact * multiplier
		}
	}

	for _, m := range design.MitigationFeatures {
		if f, ok := s.catalog.Feature(catalog.CategoryMitigation, m); ok {
			total += f.ScoreImpact
		}
	}

	// Site drainage is credited once: the first catalog entry selected.
	if f, ok := s.siteDrainage(design.MitigationFeatures); ok {
		total += f.ScoreImpact
	}

	return ScoreResult{
		Score:            clampScore(total),
		FloodDepthInches: depth,
	}
}

func (s *Scorer) siteDrainage(selected []string) (catalog.ResilienceFeature, bool) {
	for _, f := range s.catalog.FeaturesIn(catalog.CategorySiteDrainage) {
		for _, name := range selected {
			if name == f.FeatureName {
				return f, true
			}
		}
	}
	return catalog.ResilienceFeature{}, false
}

// ElevationBonus maps the lowest floor's height above the flood level (feet)
// to score points:
//
//	>= 3   +40
//	>= 1   +20
//	>= 0     0
//	>= -3  -20
//	else   -50
func ElevationBonus(elevationDifference float64) int {
	switch {
	case elevationDifference >= 3:
		return 40
	case elevationDifference >= 1:
		return 20
	case elevationDifference >= 0:
		return 0
	case elevationDifference >= -3:
		return -20
	default:
		return -50
	}
}

// FloodDepthInches is the water depth above the lowest floor, 0 when dry.
func FloodDepthInches(elevationDifference float64) float64 {
	if elevationDifference < 0 {
		return math.Abs(elevationDifference) * inchesPerFoot
	}
	return 0
}

func clampScore(v int) int {
	return max(MinScore, min(MaxScore, v))
}
