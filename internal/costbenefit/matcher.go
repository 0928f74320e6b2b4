package costbenefit

import (
	"fmt"
	"math"

	"github.com/couchcryptid/flood-resilience-service/internal/catalog"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

// Savings assumptions.
const (
	MaxAvoidedDamageEvents = 5
	MaxInsuranceReduction  = 0.50
	BaselineAnnualPremium  = 3000.0 // USD per year
)

// NoCostROI is the ROI description used when nothing adds upfront cost.
const NoCostROI = "No significant additional upfront costs estimated for current design with these recommendations."

// Analysis is a cost-benefit report together with the per-recommendation
// pricing that produced it.
type Analysis struct {
	Report   domain.CostBenefitReport
	Outcomes []Outcome
}

// Matcher prices recommendations with an ordered rule table. It holds no
// mutable state and is safe for concurrent use.
type Matcher struct {
	catalog *catalog.Catalog
	rules   []Rule
}

// NewMatcher creates a Matcher. A nil rules slice selects DefaultRules.
func NewMatcher(c *catalog.Catalog, rules []Rule) *Matcher {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Matcher{catalog: c, rules: rules}
}

// Classify prices a single recommendation with the first matching rule.
func (m *Matcher) Classify(recommendation string) Outcome {
	text := normalize(recommendation)
	for _, r := range m.rules {
		if !r.Match(text) {
			continue
		}
		out := r.Handle(text, m.catalog)
		out.Recommendation = recommendation
		out.Rule = r.Name
		return out
	}
	return Outcome{Recommendation: recommendation, Rule: RuleUnmatched, Kind: KindUnmatched}
}

// Analyze estimates upfront cost and long-term savings for the recommendations
// against a simulated timeline.
func (m *Matcher) Analyze(recommendations []string, timeline []domain.TimelineEntry, currentYear, targetYear int) Analysis {
	outcomes := make([]Outcome, 0, len(recommendations))
	upfrontLines := make([]string, 0, len(recommendations))
	var upfront float64
	for _, rec := range recommendations {
		out := m.Classify(rec)
		outcomes = append(outcomes, out)
		upfrontLines = append(upfrontLines, describeUpfront(out))
		upfront += out.Cost
	}

	events := FloodEventCount(timeline)
	damage, damageLines := m.avoidedDamage(events)
	fraction, insurance, insuranceLines := m.insuranceSavings(recommendations, currentYear, targetYear)

	upfrontTotal := math.Round(upfront)
	savingsTotal := math.Round(damage + insurance)

	return Analysis{
		Report: domain.CostBenefitReport{
			UpfrontCostEstimate:        upfrontTotal,
			LongTermSavingsEstimate:    savingsTotal,
			ROIDescription:             DescribeROI(upfrontTotal, savingsTotal, targetYear),
			UpfrontCostBreakdown:       upfrontLines,
			LongTermSavingsBreakdown:   append(damageLines, insuranceLines...),
			FloodEventCount:            events,
			InsuranceReductionFraction: fraction,
		},
		Outcomes: outcomes,
	}
}

// FloodEventCount is the number of timeline entries with water above the
// floor.
func FloodEventCount(timeline []domain.TimelineEntry) int {
	n := 0
	for _, e := range timeline {
		if e.FloodDepthInches > 0 {
			n++
		}
	}
	return n
}

func (m *Matcher) avoidedDamage(events int) (float64, []string) {
	if events == 0 {
		return 0, []string{"Avoided damage: no simulated flood events: $0"}
	}

	item, ok := m.catalog.CostItem(ItemBaselineDamage)
	if !ok {
		return 0, []string{fmt.Sprintf("Avoided damage: %q not in cost catalog: $0", ItemBaselineDamage)}
	}
	perEvent, ok := item.AvoidedDamageMidpoint()
	if !ok {
		return 0, []string{fmt.Sprintf("Avoided damage: %q has no avoided-damage range: $0", ItemBaselineDamage)}
	}

	counted := min(events, MaxAvoidedDamageEvents)
	total := perEvent * float64(counted)
	eventsText := fmt.Sprintf("%d flood events", counted)
	if counted < events {
		eventsText = fmt.Sprintf("%d of %d flood events (capped)", counted, events)
	}
	return total, []string{fmt.Sprintf("Avoided damage: %s x $%s per event: $%s", eventsText, money(perEvent), money(total))}
}

// insuranceSavings re-classifies each recommendation and credits the insurance
// reduction of any matched catalog item that carries one. Every recommendation
// gets a line, followed by one totals line.
func (m *Matcher) insuranceSavings(recommendations []string, currentYear, targetYear int) (float64, float64, []string) {
	lines := make([]string, 0, len(recommendations)+1)
	var fraction float64
	for _, rec := range recommendations {
		pct, line := m.insuranceCredit(rec)
		fraction += pct
		lines = append(lines, line)
	}

	if fraction == 0 {
		return 0, 0, append(lines, "Insurance: no qualifying measures: $0")
	}

	capped := math.Min(fraction, MaxInsuranceReduction)
	years := max(targetYear-currentYear, 0)
	total := BaselineAnnualPremium * capped * float64(years)

	share := percent(capped)
	if capped < fraction {
		share = fmt.Sprintf("%s (capped from %s)", percent(capped), percent(fraction))
	}
	lines = append(lines, fmt.Sprintf("Insurance: $%s/yr premium x %s x %d years: $%s",
		money(BaselineAnnualPremium), share, years, money(total)))
	return capped, total, lines
}

// insuranceCredit returns the insurance reduction for one recommendation and
// its breakdown line. Anything without a catalog percentage credits 0.
func (m *Matcher) insuranceCredit(rec string) (float64, string) {
	out := m.Classify(rec)
	switch out.Kind {
	case KindCatalog:
	case KindUnmatched:
		return 0, fmt.Sprintf("%q -> no cost rule matched, no insurance reduction: $0", rec)
	default:
		return 0, fmt.Sprintf("%q -> %s: no insurance reduction: $0", rec, out.Item)
	}

	item, ok := m.catalog.CostItem(out.Item)
	if !ok {
		return 0, fmt.Sprintf("%q -> %s not in cost catalog, no insurance reduction: $0", rec, out.Item)
	}
	pct, ok := item.InsuranceMidpoint()
	if !ok {
		return 0, fmt.Sprintf("%q -> %s: no insurance reduction: $0", rec, out.Item)
	}
	return pct, fmt.Sprintf("%q -> %s: insurance reduction %s", rec, out.Item, percent(pct))
}

func describeUpfront(out Outcome) string {
	switch out.Kind {
	case KindCatalog:
		if out.Quantity != 1 {
			return fmt.Sprintf("%q -> %s (%s x $%s): $%s",
				out.Recommendation, out.Item, money(out.Quantity), money(out.UnitCost), money(out.Cost))
		}
		return fmt.Sprintf("%q -> %s: $%s", out.Recommendation, out.Item, money(out.Cost))
	case KindFlatEstimate:
		return fmt.Sprintf("%q -> %s (manual estimate): $%s", out.Recommendation, out.Item, money(out.Cost))
	case KindCatalogMiss:
		return fmt.Sprintf("%q -> %s not in cost catalog: $0", out.Recommendation, out.Item)
	case KindAcknowledged:
		return fmt.Sprintf("%q -> planning or maintenance, no direct cost: $0", out.Recommendation)
	default:
		return fmt.Sprintf("%q -> no cost rule matched: $0", out.Recommendation)
	}
}
