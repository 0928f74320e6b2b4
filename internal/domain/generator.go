package domain

import "context"

// RecommendationGenerator produces free-text improvement recommendations for a
// simulated design.
type RecommendationGenerator interface {
	// Generate returns zero or more recommendations, in the generator's order.
	Generate(ctx context.Context, design BuildingDesign, timeline []TimelineEntry, targetYear int, scenario string) ([]string, error)
}
