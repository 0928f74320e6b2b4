// Package resilience projects flood levels over time and scores how a building
// design performs against them.
package resilience

import (
	"log/slog"

	"github.com/couchcryptid/flood-resilience-service/internal/catalog"
)

const inchesPerFoot = 12.0

// Resolver turns (year, scenario) into a projected flood level in feet above
// datum using the climate projection table.
type Resolver struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewResolver creates a Resolver over a loaded catalog.
func NewResolver(c *catalog.Catalog, logger *slog.Logger) *Resolver {
	return &Resolver{catalog: c, logger: logger}
}

// Resolve returns the projected flood level in feet. Years without an exact
// record are linearly interpolated between the nearest records on either side
// (in inches, before conversion); years outside the table take the value of
// the nearest boundary record. An unknown scenario yields 0.
func (r *Resolver) Resolve(year int, scenario string) float64 {
	if p, ok := r.catalog.Projection(year, scenario); ok {
		return p.ProjectedRiseInches / inchesPerFoot
	}

	records := r.catalog.ProjectionsFor(scenario)
	if len(records) == 0 {
		r.logger.Debug("no climate projections for scenario", "scenario", scenario, "year", year)
		return 0
	}

	// records are sorted by year.
	var lower, upper *catalog.ClimateProjection
	for i := range records {
		if records[i].Year <= year {
			lower = &records[i]
		}
		if records[i].Year >= year && upper == nil {
			upper = &records[i]
		}
	}
	if lower == nil {
		lower = upper
	}
	if upper == nil {
		upper = lower
	}

	if lower.Year == upper.Year {
		return lower.ProjectedRiseInches / inchesPerFoot
	}

	ratio := float64(year-lower.Year) / float64(upper.Year-lower.Year)
	inches := lower.ProjectedRiseInches + ratio*(upper.ProjectedRiseInches-lower.ProjectedRiseInches)

	r.logger.Debug("interpolated climate projection",
		"scenario", scenario,
		"year", year,
		"lower_year", lower.Year,
		"upper_year", upper.Year,
		"rise_inches", inches,
	)
	return inches / inchesPerFoot
}
