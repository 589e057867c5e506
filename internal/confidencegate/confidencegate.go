// Package confidencegate assigns a confidence level to a
// comparable.Analysis and computes the downgrade-only cap that the
// classifier (C8) must apply (spec §4.5, C6).
package confidencegate

import (
	"fmt"

	"github.com/axisdeal/deal-engine/internal/config"
	"github.com/axisdeal/deal-engine/pkg/dealengine/comparable"
	"github.com/axisdeal/deal-engine/pkg/dealengine/confidence"
)

// Gate assigns a confidence.Level to analysis per cfg's thresholds.
func Gate(analysis comparable.Analysis, cfg *config.EngineConfig) (confidence.Level, string) {
	if analysis.CompsUsed >= cfg.ConfidenceHighMinComps &&
		analysis.CompDateRangeMonths <= cfg.ConfidenceHighMaxMonths &&
		analysis.CompRadiusMiles <= cfg.ConfidenceHighMaxRadius {
		return confidence.High, fmt.Sprintf("%d comps within %d months, %.1f mi", analysis.CompsUsed, analysis.CompDateRangeMonths, analysis.CompRadiusMiles)
	}
	if analysis.CompsUsed >= cfg.ConfidenceMediumMinComps &&
		analysis.CompDateRangeMonths <= cfg.ConfidenceMediumMaxMonths &&
		analysis.CompRadiusMiles <= cfg.ConfidenceMediumMaxRadius {
		return confidence.Medium, fmt.Sprintf("%d comps within %d months, %.1f mi", analysis.CompsUsed, analysis.CompDateRangeMonths, analysis.CompRadiusMiles)
	}
	return confidence.Low, fmt.Sprintf("%d comps within %d months, %.1f mi falls short of MEDIUM thresholds", analysis.CompsUsed, analysis.CompDateRangeMonths, analysis.CompRadiusMiles)
}

// Cap computes the recommendation-rank ceiling for analysis and level.
// insufficientData is true when comps_used == 0 — the classifier must
// treat that as a terminal INSUFFICIENT_DATA outcome rather than
// consulting the rank cap at all.
func Cap(level confidence.Level, analysis comparable.Analysis, cfg *config.EngineConfig) (cap confidence.RecommendationRank, reason string, insufficientData bool) {
	if analysis.CompsUsed == 0 {
		return 0, "0 comps: INSUFFICIENT_DATA", true
	}

	cap = confidence.RankStrong // no cap by default: the highest rank
	reason = ""

	if analysis.CompsUsed < cfg.CapThinComps {
		thinCap := rankFromName(cfg.CapThinCompsLevel)
		if thinCap < cap {
			cap = thinCap
			reason = fmt.Sprintf("comps_used %d < %d: cap at %s", analysis.CompsUsed, cfg.CapThinComps, cfg.CapThinCompsLevel)
		}
	}

	if level == confidence.Low {
		lowCap := rankFromName(cfg.CapLowConfidence)
		if lowCap < cap {
			cap = lowCap
			reason = fmt.Sprintf("LOW confidence: cap at %s", cfg.CapLowConfidence)
		}
	}

	return cap, reason, false
}

func rankFromName(name string) confidence.RecommendationRank {
	switch name {
	case "STRONG":
		return confidence.RankStrong
	case "MODERATE":
		return confidence.RankModerate
	case "WEAK":
		return confidence.RankWeak
	default:
		return confidence.RankAvoid
	}
}
