// Package catalog holds the immutable reference data shared by every
// simulation: climate projections, resilience feature scores, and intervention
// costs. A Catalog is built once at startup and only read afterwards, so it is
// safe for concurrent use without locking.
package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Feature categories.
const (
	CategoryFoundation   = "Foundation"
	CategoryMaterials    = "Materials"
	CategoryMitigation   = "Mitigation"
	CategorySiteDrainage = "Site Drainage"
)

// ClimateProjection is one projected sea-level-rise record.
type ClimateProjection struct {
	Year                     int     `yaml:"year" json:"year"`
	Scenario                 string  `yaml:"scenario" json:"scenario"`
	ProjectedRiseInches      float64 `yaml:"projectedRelativeSeaLevelRiseInches" json:"projectedRelativeSeaLevelRiseInches"`
	FloodFrequencyMultiplier float64 `yaml:"floodFrequencyMultiplier" json:"floodFrequencyMultiplier"`
	Notes                    string  `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// ResilienceFeature maps a named design choice to score points.
type ResilienceFeature struct {
	FeatureName string `yaml:"featureName" json:"featureName"`
	Category    string `yaml:"category" json:"category"`
	ScoreImpact int    `yaml:"scoreImpact" json:"scoreImpact"`
}

// CostItem maps a named intervention to cost and savings ranges. The insurance
// and avoided-damage ranges are optional; nil means the item carries none.
type CostItem struct {
	Item                           string   `yaml:"item" json:"item"`
	UpfrontCostMin                 float64  `yaml:"upfrontCostMin" json:"upfrontCostMin"`
	UpfrontCostMax                 float64  `yaml:"upfrontCostMax" json:"upfrontCostMax"`
	AnnualInsuranceReductionPctMin *float64 `yaml:"annualInsuranceReductionPctMin,omitempty" json:"annualInsuranceReductionPctMin,omitempty"`
	AnnualInsuranceReductionPctMax *float64 `yaml:"annualInsuranceReductionPctMax,omitempty" json:"annualInsuranceReductionPctMax,omitempty"`
	AvoidedDamagePerEventMin       *float64 `yaml:"avoidedDamagePerEventMin,omitempty" json:"avoidedDamagePerEventMin,omitempty"`
	AvoidedDamagePerEventMax       *float64 `yaml:"avoidedDamagePerEventMax,omitempty" json:"avoidedDamagePerEventMax,omitempty"`
}

// UpfrontMidpoint is the midpoint of the upfront cost range.
func (c CostItem) UpfrontMidpoint() float64 {
	return (c.UpfrontCostMin + c.UpfrontCostMax) / 2
}

// InsuranceMidpoint returns the midpoint of the annual insurance reduction
// range, or false if the item carries no insurance range.
func (c CostItem) InsuranceMidpoint() (float64, bool) {
	if c.AnnualInsuranceReductionPctMin == nil || c.AnnualInsuranceReductionPctMax == nil {
		return 0, false
	}
	return (*c.AnnualInsuranceReductionPctMin + *c.AnnualInsuranceReductionPctMax) / 2, true
}

// AvoidedDamageMidpoint returns the midpoint of the avoided-damage-per-event
// range, or false if the item carries none.
func (c CostItem) AvoidedDamageMidpoint() (float64, bool) {
	if c.AvoidedDamagePerEventMin == nil || c.AvoidedDamagePerEventMax == nil {
		return 0, false
	}
	return (*c.AvoidedDamagePerEventMin + *c.AvoidedDamagePerEventMax) / 2, true
}

// Catalog is the read-only set of reference tables.
type Catalog struct {
	projections []ClimateProjection
	byScenario  map[string][]ClimateProjection // sorted by year
	features    []ResilienceFeature
	costs       []CostItem
	costIndex   map[string]int
}

// Snapshot is the serializable form of a Catalog.
type Snapshot struct {
	ClimateProjections []ClimateProjection `json:"climateProjections"`
	ResilienceFeatures []ResilienceFeature `json:"resilienceFeatures"`
	CostData           []CostItem          `json:"costData"`
}

// New validates the tables and builds a Catalog. Input slices are copied.
func New(projections []ClimateProjection, features []ResilienceFeature, costs []CostItem) (*Catalog, error) {
	c := &Catalog{
		projections: slices.Clone(projections),
		byScenario:  make(map[string][]ClimateProjection),
		features:    slices.Clone(features),
		costs:       slices.Clone(costs),
		costIndex:   make(map[string]int, len(costs)),
	}

	for _, p := range c.projections {
		if p.Scenario == "" {
			return nil, fmt.Errorf("climate projection for year %d has no scenario", p.Year)
		}
		for _, existing := range c.byScenario[p.Scenario] {
			if existing.Year == p.Year {
				return nil, fmt.Errorf("duplicate climate projection for scenario %q year %d", p.Scenario, p.Year)
			}
		}
		c.byScenario[p.Scenario] = append(c.byScenario[p.Scenario], p)
	}
	for scenario := range c.byScenario {
		slices.SortFunc(c.byScenario[scenario], func(a, b ClimateProjection) int {
			return cmp.Compare(a.Year, b.Year)
		})
	}

	for _, f := range c.features {
		if f.FeatureName == "" {
			return nil, fmt.Errorf("resilience feature with empty name in category %q", f.Category)
		}
		switch f.Category {
		case CategoryFoundation, CategoryMaterials, CategoryMitigation, CategorySiteDrainage:
		default:
			return nil, fmt.Errorf("resilience feature %q: unknown category %q", f.FeatureName, f.Category)
		}
	}

	for i, item := range c.costs {
		if err := item.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.costIndex[item.Item]; dup {
			return nil, fmt.Errorf("duplicate cost item %q", item.Item)
		}
		c.costIndex[item.Item] = i
	}

	return c, nil
}

func (c CostItem) validate() error {
	if c.Item == "" {
		return errors.New("cost item with empty name")
	}
	if c.UpfrontCostMin > c.UpfrontCostMax {
		return fmt.Errorf("cost item %q: upfrontCostMin %.2f > upfrontCostMax %.2f", c.Item, c.UpfrontCostMin, c.UpfrontCostMax)
	}
	if err := validateRange(c.Item, "annualInsuranceReductionPct", c.AnnualInsuranceReductionPctMin, c.AnnualInsuranceReductionPctMax); err != nil {
		return err
	}
	return validateRange(c.Item, "avoidedDamagePerEvent", c.AvoidedDamagePerEventMin, c.AvoidedDamagePerEventMax)
}

func validateRange(item, field string, lo, hi *float64) error {
	if (lo == nil) != (hi == nil) {
		return fmt.Errorf("cost item %q: %sMin and %sMax must be set together", item, field, field)
	}
	if lo != nil && *lo > *hi {
		return fmt.Errorf("cost item %q: %sMin %.2f > %sMax %.2f", item, field, *lo, field, *hi)
	}
	return nil
}

// Projection returns the record for an exact (year, scenario) pair.
func (c *Catalog) Projection(year int, scenario string) (ClimateProjection, bool) {
	for _, p := range c.byScenario[scenario] {
		if p.Year == year {
			return p, true
		}
	}
	return ClimateProjection{}, false
}

// ProjectionsFor returns the records of one scenario sorted by year.
func (c *Catalog) ProjectionsFor(scenario string) []ClimateProjection {
	return slices.Clone(c.byScenario[scenario])
}

// Scenarios lists the scenario names present in the projection table.
func (c *Catalog) Scenarios() []string {
	out := make([]string, 0, len(c.byScenario))
	for s := range c.byScenario {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Feature returns the first feature with the given category and name.
func (c *Catalog) Feature(category, name string) (ResilienceFeature, bool) {
	for _, f := range c.features {
		if f.Category == category && f.FeatureName == name {
			return f, true
		}
	}
	return ResilienceFeature{}, false
}

// FeaturesIn returns the features of one category in catalog order.
func (c *Catalog) FeaturesIn(category string) []ResilienceFeature {
	var out []ResilienceFeature
	for _, f := range c.features {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

// CostItem returns the cost entry with the given item name.
func (c *Catalog) CostItem(name string) (CostItem, bool) {
	i, ok := c.costIndex[name]
	if !ok {
		return CostItem{}, false
	}
	return c.costs[i], true
}

// Empty reports whether any of the three tables has no rows.
func (c *Catalog) Empty() bool {
	return len(c.projections) == 0 || len(c.features) == 0 || len(c.costs) == 0
}

// Snapshot returns a copy of all tables for serialization.
func (c *Catalog) Snapshot() Snapshot {
	return Snapshot{
		ClimateProjections: slices.Clone(c.projections),
		ResilienceFeatures: slices.Clone(c.features),
		CostData:           slices.Clone(c.costs),
	}
}
