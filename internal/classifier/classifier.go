// Package classifier assigns the final Recommendation to a scored
// opportunity and records the reason, including whether a confidence
// cap downgraded the branch-assigned recommendation (spec §4.7, C8).
package classifier

import (
	"fmt"

	"github.com/axisdeal/deal-engine/pkg/dealengine/confidence"
	"github.com/axisdeal/deal-engine/pkg/dealengine/opportunity"
)

// Result is the classifier's output: the final recommendation and a
// human-readable reason describing which branch fired and whether a cap
// downgraded it.
type Result struct {
	Recommendation opportunity.Recommendation
	Reason         string
}

// Classify applies the branch-then-cap rule (spec §4.7). compsUsed == 0
// is terminal: INSUFFICIENT_DATA regardless of score or cap. bmvPercent
// < 0 is terminal: OVERPRICED. Otherwise the base recommendation is
// branch-assigned on bmvPercent/overall and then capped to
// final = min(base, cap).
func Classify(compsUsed int, bmvPercent, overall float64, cap confidence.RecommendationRank, capReason string) Result {
	if compsUsed == 0 {
		return Result{Recommendation: opportunity.InsufficientData, Reason: "0 comps: INSUFFICIENT_DATA"}
	}
	if bmvPercent < 0 {
		return Result{Recommendation: opportunity.Overpriced, Reason: fmt.Sprintf("bmv%% %.2f < 0: OVERPRICED", bmvPercent)}
	}

	base, baseName := baseRecommendation(bmvPercent, overall)

	final := confidence.Min(base, cap)
	if final == base {
		return Result{Recommendation: opportunity.FromRank(final), Reason: baseName}
	}
	return Result{
		Recommendation: opportunity.FromRank(final),
		Reason:         fmt.Sprintf("%s→%s: %s", opportunity.FromRank(base), opportunity.FromRank(final), capReason),
	}
}

func baseRecommendation(bmvPercent, overall float64) (confidence.RecommendationRank, string) {
	switch {
	case bmvPercent >= 15 && overall >= 70:
		return confidence.RankStrong, fmt.Sprintf("bmv%% %.2f >= 15 and overall %.2f >= 70: STRONG", bmvPercent, overall)
	case bmvPercent >= 8 && overall >= 50:
		return confidence.RankModerate, fmt.Sprintf("bmv%% %.2f >= 8 and overall %.2f >= 50: MODERATE", bmvPercent, overall)
	case bmvPercent >= 3 && overall >= 30:
		return confidence.RankWeak, fmt.Sprintf("bmv%% %.2f >= 3 and overall %.2f >= 30: WEAK", bmvPercent, overall)
	default:
		return confidence.RankAvoid, fmt.Sprintf("bmv%% %.2f, overall %.2f: AVOID", bmvPercent, overall)
	}
}
