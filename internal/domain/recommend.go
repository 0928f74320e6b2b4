package domain

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"
)

// Placeholder recommendations used when the generator cannot provide a list.
// They deliberately avoid every cost-rule keyword so they classify as unmatched.
const (
	PlaceholderNotConfigured = "Adaptive recommendations are unavailable: no AI recommendation service is configured."
	PlaceholderTimedOut      = "Adaptive recommendations are unavailable: the AI recommendation service timed out."
	PlaceholderFailed        = "Adaptive recommendations are unavailable: the AI recommendation service returned an error."
)

// GenerationOutcome labels how a recommendation request ended.
type GenerationOutcome string

const (
	OutcomeSuccess  GenerationOutcome = "success"
	OutcomeEmpty    GenerationOutcome = "empty"
	OutcomeDisabled GenerationOutcome = "disabled"
	OutcomeTimeout  GenerationOutcome = "timeout"
	OutcomeError    GenerationOutcome = "error"
)

// GenerateRecommendations asks the generator for recommendations and sanitizes
// the result. If generator is nil or fails, a single placeholder string is
// returned instead (graceful degradation). A successful but empty response
// yields an empty, non-nil list.
func GenerateRecommendations(
	ctx context.Context,
	generator RecommendationGenerator,
	design BuildingDesign,
	timeline []TimelineEntry,
	logger *slog.Logger,
) ([]string, GenerationOutcome) {
	if generator == nil {
		return []string{PlaceholderNotConfigured}, OutcomeDisabled
	}

	raw, err := generator.Generate(ctx, design, timeline, design.TargetYear, design.ClimateScenario)
	if err != nil {
		logger.Warn("recommendation generation failed",
			"scenario", design.ClimateScenario,
			"target_year", design.TargetYear,
			"error", err,
		)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return []string{PlaceholderTimedOut}, OutcomeTimeout
		}
		return []string{PlaceholderFailed}, OutcomeError
	}

	recs := SanitizeRecommendations(raw)
	if len(recs) == 0 {
		return recs, OutcomeEmpty
	}
	return recs, OutcomeSuccess
}

// SanitizeRecommendations trims whitespace and list markers ("-", "*", "•",
// "1.", "2)") from each line and drops lines that end up empty.
func SanitizeRecommendations(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = stripListMarker(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func stripListMarker(line string) string {
	for _, prefix := range []string{"-", "*", "•"} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}

	// Numbered item: one or more digits followed by "." or ")".
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		rest := line[i+1:]
		if rest == "" || unicode.IsSpace(rune(rest[0])) {
			return strings.TrimSpace(rest)
		}
	}
	return line
}
