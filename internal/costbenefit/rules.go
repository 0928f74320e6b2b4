// Package costbenefit prices free-text recommendations against the cost catalog
// and estimates the long-term savings they unlock.
//
// Recommendations are classified by an ordered rule table. Each rule pairs a
// keyword predicate with a pricing handler and the first matching rule wins, so
// a recommendation is priced at most once even when several keyword sets apply.
package costbenefit

import (
	"slices"
	"strings"

	"github.com/couchcryptid/flood-resilience-service/internal/catalog"
)

// Cost catalog item names referenced by the rules.
const (
	ItemElevationPiers     = "House Elevation (Slab to Piers/Columns, 8-12 ft)"
	ItemElevationAdd       = "House Elevation (Adding 2-4 ft to Existing Elevated Home)"
	ItemPilings            = "Pilings Foundation (Deep Anchorage Retrofit)"
	ItemAmphibious         = "Amphibious Foundation"
	ItemFloodVent          = "Add Flood Vents (per vent)"
	ItemBreakawayWalls     = "Install Breakaway Walls"
	ItemMechanicals        = "Elevated Electrical Panel/HVAC"
	ItemDrywall            = "Use Flood-Resistant Drywall (per sq ft)"
	ItemInsulation         = "Use Closed-Cell Spray Foam Insulation (per sq ft)"
	ItemBackflowValve      = "Backflow Valve Installation"
	ItemSumpPump           = "Sump Pump with Battery Backup"
	ItemCorrosionResistant = "Stainless Steel/Hot-Dip Galvanized Connectors"
	ItemLandscapeDrainage  = "Landscape Drainage (French Drains, Swales, Rain Gardens)"
	ItemDeployableBarrier  = "Deployable Flood Barriers"
	ItemWindowDoorSeal     = "Watertight Window and Door Seals"
	ItemRoofReinforcement  = "Roof Reinforcement"
	ItemSmartMonitoring    = "Smart Flood Sensors and Alerts"
	ItemBackupPower        = "Backup Power System"
	ItemBaselineDamage     = "Standard Slab-on-Grade (Baseline Damage)"
)

// Assumed quantities for per-unit catalog prices.
const (
	FloodVentQuantity  = 6   // vents
	MaterialSquareFeet = 500 // sq ft of drywall or insulation
)

// Manual estimates (USD) used when the catalog has no entry for the item.
const (
	FlatCorrosionResistant = 2500.0
	FlatLandscapeDrainage  = 8000.0
	FlatDeployableBarrier  = 6000.0
	FlatWindowDoorSeal     = 1500.0
	FlatRoofReinforcement  = 12000.0
	FlatSmartMonitoring    = 800.0
	FlatBackupPower        = 9000.0
)

// Rule names, also used as metric labels.
const (
	RuleElevation          = "elevation"
	RuleFloodVents         = "flood-vents"
	RuleBreakawayWalls     = "breakaway-walls"
	RuleMechanical         = "mechanical-elevation"
	RuleBackflowValve      = "backflow-valve"
	RuleSumpPump           = "sump-pump"
	RuleDrywall            = "drywall"
	RuleInsulation         = "insulation"
	RuleCorrosionResistant = "corrosion-resistant"
	RuleLandscapeDrainage  = "landscape-drainage"
	RuleDeployableBarrier  = "deployable-barrier"
	RuleWindowDoorSeal     = "window-door-seal"
	RuleRoofReinforcement  = "roof-reinforcement"
	RuleSmartMonitoring    = "smart-monitoring"
	RuleBackupPower        = "backup-power"
	RulePlanning           = "planning"
	RuleUnmatched          = "unmatched"
)

// Kind describes how a recommendation was priced.
type Kind int

const (
	KindUnmatched    Kind = iota // no rule applied
	KindCatalog                  // priced from a cost catalog entry
	KindFlatEstimate             // priced from a manual estimate
	KindAcknowledged             // planning or maintenance, no cost
	KindCatalogMiss              // rule applied but its catalog entry is missing
)

func (k Kind) String() string {
	switch k {
	case KindCatalog:
		return "catalog"
	case KindFlatEstimate:
		return "flat-estimate"
	case KindAcknowledged:
		return "acknowledged"
	case KindCatalogMiss:
		return "catalog-miss"
	default:
		return "unmatched"
	}
}

// Outcome is the pricing of one recommendation.
type Outcome struct {
	Recommendation string
	Rule           string
	Kind           Kind
	Item           string  // catalog item or estimate label
	Quantity       float64 // units priced, 1 for single items
	UnitCost       float64
	Cost           float64
}

// Predicate reports whether a rule applies to normalized text.
type Predicate func(text string) bool

// Handler prices a recommendation that its rule's predicate accepted.
type Handler func(text string, c *catalog.Catalog) Outcome

// Rule is one row of the classification table.
type Rule struct {
	Name   string
	Match  Predicate
	Handle Handler
}

// DefaultRules returns the classification table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   RuleElevation,
			Match:  matchElevation,
			Handle: elevationHandler,
		},
		{
			Name:   RuleFloodVents,
			Match:  anyWord(ventKeywords...),
			Handle: catalogItem(ItemFloodVent, FloodVentQuantity),
		},
		{
			Name:   RuleBreakawayWalls,
			Match:  anyWord("breakaway"),
			Handle: catalogItem(ItemBreakawayWalls, 1),
		},
		{
			Name:   RuleMechanical,
			Match:  anyWord(mechanicalKeywords...),
			Handle: catalogItem(ItemMechanicals, 1),
		},
		{
			Name:   RuleBackflowValve,
			Match:  anyWord("backflow", "check valve", "backwater valve"),
			Handle: catalogItem(ItemBackflowValve, 1),
		},
		{
			Name:   RuleSumpPump,
			Match:  anyWord("sump"),
			Handle: catalogItem(ItemSumpPump, 1),
		},
		{
			Name:   RuleDrywall,
			Match:  anyWord("drywall", "cladding", "gypsum", "wallboard", "wall finish"),
			Handle: catalogItem(ItemDrywall, MaterialSquareFeet),
		},
		{
			Name:   RuleInsulation,
			Match:  anyWord("insulation", "spray foam", "closed cell"),
			Handle: catalogItem(ItemInsulation, MaterialSquareFeet),
		},
		{
			Name:   RuleCorrosionResistant,
			Match:  anyWord("stainless", "galvanized", "hot dip", "corrosion", "rust"),
			Handle: catalogOrFlat(ItemCorrosionResistant, FlatCorrosionResistant),
		},
		{
			Name: RuleLandscapeDrainage,
			Match: anyWord(
				"french drain", "swale", "bioswale", "rain garden", "permeable", "pervious",
				"grading", "regrade", "landscap", "drainage", "retention pond", "green roof",
			),
			Handle: catalogOrFlat(ItemLandscapeDrainage, FlatLandscapeDrainage),
		},
		{
			Name: RuleDeployableBarrier,
			Match: anyWord(
				"barrier", "flood panel", "flood shield", "flood gate", "floodgate",
				"sandbag", "flood wall", "floodwall", "dry floodproof",
			),
			Handle: catalogOrFlat(ItemDeployableBarrier, FlatDeployableBarrier),
		},
		{
			Name:   RuleWindowDoorSeal,
			Match:  anyWord("window", "door", "seal", "gasket", "weatherstrip", "caulk"),
			Handle: catalogOrFlat(ItemWindowDoorSeal, FlatWindowDoorSeal),
		},
		{
			Name:   RuleRoofReinforcement,
			Match:  anyWord("roof", "hurricane strap", "hurricane clip", "rafter", "truss"),
			Handle: catalogOrFlat(ItemRoofReinforcement, FlatRoofReinforcement),
		},
		{
			Name: RuleSmartMonitoring,
			Match: anyWord(
				"smart", "sensor", "leak detect", "water alarm", "flood alarm",
				"water detector", "automatic shutoff", "automatic shut off",
			),
			Handle: catalogOrFlat(ItemSmartMonitoring, FlatSmartMonitoring),
		},
		{
			Name: RuleBackupPower,
			Match: anyWord(
				"backup power", "power backup", "generator", "battery storage",
				"battery backup system", "solar",
			),
			Handle: catalogOrFlat(ItemBackupPower, FlatBackupPower),
		},
		{
			Name: RulePlanning,
			Match: anyWord(
				"inspect", "monitor", "seasonal", "community", "coordinat", "maintenance",
				"maintain", "review", "evacuation", "emergency plan", "planning", "plan for",
				"insurance", "reassess", "assess", "audit", "schedule", "periodic", "annual",
				"educat", "train", "drill", "document",
			),
			Handle: acknowledged,
		},
	}
}

var (
	// Whole-building elevation phrasings. These win even when a mechanical or
	// vent keyword is also present.
	elevationPhrases = anyWord(
		"piling", "amphibious", "pier", "columns",
		"elevate the home", "elevate the house", "elevate the building", "elevate the structure",
		"elevate your home", "elevate your house", "elevating your foundation", "elevate your foundation",
		"raise the home", "raise the house", "raise the building", "raise the structure",
		"raise the foundation", "raise your home", "raise your house", "lift the house",
		"elevation height", "building's elevation", "house elevation", "home elevation",
	)

	ventKeywords       = []string{"flood vent", "vents", "engineered vent", "automatic vent"}
	mechanicalKeywords = []string{
		"hvac", "mechanical", "electrical", "water heater", "utilities",
		"air conditioning", "condenser", "furnace", "meter",
	}

	// elevationExcluded keeps "elevate the HVAC" and "elevated vents" with
	// their own rules.
	elevationExcluded = anyWord(append(slices.Clone(mechanicalKeywords), ventKeywords...)...)
)

// matchElevation accepts the explicit phrasings, then any "elevat" word
// (elevate, elevated, elevation, elevating) that is not about equipment or
// vents.
func matchElevation(text string) bool {
	if elevationPhrases(text) {
		return true
	}
	return containsWord(text, "elevat") && !elevationExcluded(text)
}

// elevationHandler narrows the generic elevation rule to a specific foundation
// retrofit.
func elevationHandler(text string, c *catalog.Catalog) Outcome {
	switch {
	case containsWord(text, "piling"):
		return catalogItem(ItemPilings, 1)(text, c)
	case containsWord(text, "amphibious"):
		return catalogItem(ItemAmphibious, 1)(text, c)
	case containsWord(text, "pier"), containsWord(text, "columns"):
		return catalogItem(ItemElevationPiers, 1)(text, c)
	default:
		return catalogItem(ItemElevationAdd, 1)(text, c)
	}
}

// catalogItem prices quantity units at the midpoint of a catalog entry.
func catalogItem(item string, quantity float64) Handler {
	return func(_ string, c *catalog.Catalog) Outcome {
		entry, ok := c.CostItem(item)
		if !ok {
			return Outcome{Kind: KindCatalogMiss, Item: item, Quantity: quantity}
		}
		unit := entry.UpfrontMidpoint()
		return Outcome{
			Kind:     KindCatalog,
			Item:     item,
			Quantity: quantity,
			UnitCost: unit,
			Cost:     unit * quantity,
		}
	}
}

// catalogOrFlat prices a single item from the catalog when present and falls
// back to a manual estimate otherwise.
func catalogOrFlat(item string, flat float64) Handler {
	priced := catalogItem(item, 1)
	return func(text string, c *catalog.Catalog) Outcome {
		out := priced(text, c)
		if out.Kind == KindCatalog {
			return out
		}
		return Outcome{
			Kind:     KindFlatEstimate,
			Item:     item,
			Quantity: 1,
			UnitCost: flat,
			Cost:     flat,
		}
	}
}

func acknowledged(_ string, _ *catalog.Catalog) Outcome {
	return Outcome{Kind: KindAcknowledged, Item: "planning and maintenance"}
}

// anyWord matches when any keyword starts at a word boundary in the text.
func anyWord(keywords ...string) Predicate {
	return func(text string) bool {
		for _, kw := range keywords {
			if containsWord(text, kw) {
				return true
			}
		}
		return false
	}
}

// containsWord reports whether kw occurs in text starting at a word boundary,
// so "roof" matches "roof straps" but not "floodproofing".
func containsWord(text, kw string) bool {
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		pos := start + i
		if pos == 0 || !isWordByte(text[pos-1]) {
			return true
		}
		start = pos + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// normalize lower-cases text and turns hyphens, slashes, and runs of
// whitespace into single spaces.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", " ", "/", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
