package domain

import "time"

// BuildingDesign is the user-supplied description of a building plus the
// process-wide defaults merged in by the orchestrator.
type BuildingDesign struct {
	FoundationType  string  `json:"foundationType"`
	ElevationHeight float64 `json:"elevationHeight"` // feet above datum

	// Feature catalog keys.
	Materials          []string `json:"materials"`
	MitigationFeatures []string `json:"floodMitigationFeatures"`

	// Set by the orchestrator, never by the caller.
	TargetYear      int    `json:"targetFutureYear,omitempty"`
	ClimateScenario string `json:"climateScenario,omitempty"`
	BuildingType    string `json:"buildingType,omitempty"`
}

// Clone returns a deep copy so an augmented snapshot never aliases caller slices.
func (d BuildingDesign) Clone() BuildingDesign {
	out := d
	out.Materials = append([]string(nil), d.Materials...)
	out.MitigationFeatures = append([]string(nil), d.MitigationFeatures...)
	return out
}

// TimelineEntry is the simulated state of a design in one year.
type TimelineEntry struct {
	Year                    int     `json:"year"`
	ProjectedFloodLevelFeet float64 `json:"projectedFloodLevel"`
	ResilienceScore         int     `json:"resilienceScoreAtYear"`
	FloodDepthInches        float64 `json:"floodDepthInches"`
}

// CostBenefitReport summarizes the monetary effect of a recommendation list.
type CostBenefitReport struct {
	UpfrontCostEstimate        float64  `json:"upfrontCostEstimate"`
	LongTermSavingsEstimate    float64  `json:"longTermSavingsEstimate"`
	ROIDescription             string   `json:"roiDescription"`
	UpfrontCostBreakdown       []string `json:"upfrontCostBreakdown"`
	LongTermSavingsBreakdown   []string `json:"longTermSavingsBreakdown"`
	FloodEventCount            int      `json:"floodEventCount"`
	InsuranceReductionFraction float64  `json:"insuranceReductionFraction"`
}

// SimulationResult is the complete output of one simulation run.
type SimulationResult struct {
	ID                      string            `json:"id"`
	BuildingDesign          BuildingDesign    `json:"buildingDesign"`
	OverallResilienceScore  int               `json:"overallResilienceScore"`
	PerformanceTimeline     []TimelineEntry   `json:"performanceTimeline"`
	AdaptiveRecommendations []string          `json:"adaptiveRecommendations"`
	CostBenefitAnalysis     CostBenefitReport `json:"costBenefitAnalysis"`
	Timestamp               time.Time         `json:"timestamp"`
}
