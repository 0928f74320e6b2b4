// Package domain models building designs, flood-resilience timelines, and the
// cost-benefit reports produced by a simulation run.
//
// # Units and Datum
//
// All heights are feet above a fixed datum. A design's ElevationHeight is the
// height of its lowest floor; projected flood levels use the same datum, so the
// elevation difference is a plain subtraction:
//
//	elevationDifference = ElevationHeight - floodLevelFeet
//
// A negative difference means the lowest floor is under water. Flood depth is
// reported in inches (|difference| * 12) and is zero for dry floors.
//
// # Timeline
//
// A timeline samples the design every five years from the current year up to
// the target year. Projected flood levels and flood depths are rounded to two
// decimals. The overall resilience score is the score of the entry whose year
// equals the target year; 0 means no such entry was produced.
//
// # Recommendations
//
// Recommendations are opaque free-text strings produced by an external
// generator (an LLM in production). They are sanitized before classification:
//
//	"- Install flood vents"   ->  "Install flood vents"
//	"2. Elevate HVAC to 13ft" ->  "Elevate HVAC to 13ft"
//	"   "                     ->  dropped
//
// When the generator fails, a single placeholder string describing the failure
// stands in for the list so the cost-benefit analysis still runs.
//
// # JSON
//
// Field names follow the browser UI contract (camelCase, e.g.
// "floodMitigationFeatures", "resilienceScoreAtYear").
package domain
