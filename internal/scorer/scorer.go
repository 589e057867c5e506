// Package scorer computes the four component scores and the overall
// weighted composite for a gated analysis, then ranks a batch of scored
// opportunities (spec §4.6, C7).
//
// Score computes strictly from scoring.Input, which has no field of
// type asset.SourceMetadata — guardrail G-001 is enforced by that
// type's shape, not by convention in this package.
package scorer

import (
	"sort"

	"github.com/axisdeal/deal-engine/internal/config"
	"github.com/axisdeal/deal-engine/pkg/dealengine/confidence"
	"github.com/axisdeal/deal-engine/pkg/dealengine/scoring"
)

// Score computes scoring.Scores for in, using cfg's weights and target
// BMV tier.
func Score(in scoring.Input, cfg *config.EngineConfig) scoring.Scores {
	bmv := bmvScore(in.BMVPercent) * confidenceModifier(in.Confidence)
	urgency := urgencyScore(in.DaysOnMarket)
	location := 50.0
	value := valueScore(in.BMVPercent, in.TargetBMVTier)

	overall := cfg.WeightBMV*bmv + cfg.WeightUrgency*urgency + cfg.WeightLocation*location + cfg.WeightValue*value

	return scoring.Scores{
		BMV:      bmv,
		Urgency:  urgency,
		Location: location,
		Value:    value,
		Overall:  overall,
	}
}

func bmvScore(bmvPercent float64) float64 {
	switch {
	case bmvPercent <= 0:
		return 0
	case bmvPercent < 5:
		return bmvPercent * 5
	case bmvPercent < 10:
		return 25 + (bmvPercent-5)*5
	case bmvPercent < 20:
		return 50 + (bmvPercent-10)*3
	default:
		score := 80 + (bmvPercent-20)*2
		if score > 100 {
			return 100
		}
		return score
	}
}

func confidenceModifier(level confidence.Level) float64 {
	switch level {
	case confidence.High:
		return 1.0
	case confidence.Medium:
		return 0.85
	default:
		return 0.70
	}
}

func urgencyScore(daysOnMarket int) float64 {
	days := float64(daysOnMarket)
	switch {
	case days < 30:
		return days * 20 / 30
	case days < 60:
		return 20 + (days-30)*20/30
	case days < 90:
		return 40 + (days - 60)
	default:
		score := 70 + (days-90)/3
		if score > 100 {
			return 100
		}
		return score
	}
}

// valueScore reflects how close bmvPercent is to targetTier: it peaks at
// 100 when bmv% meets or exceeds the target and falls off linearly to 0
// at bmv% == 0, deterministic and bounded to [0, 100].
func valueScore(bmvPercent, targetTier float64) float64 {
	if targetTier <= 0 {
		return 0
	}
	if bmvPercent <= 0 {
		return 0
	}
	score := (bmvPercent / targetTier) * 100
	if score > 100 {
		return 100
	}
	return score
}

// Rank sorts scored in place by overall DESC, then bmv% DESC, then
// asking_price ASC, stable so ties preserve input order, and assigns
// each a 1-indexed Rank.
func Rank(items []scoring.Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Overall != b.Overall {
			return a.Overall > b.Overall
		}
		if a.BMVPercent != b.BMVPercent {
			return a.BMVPercent > b.BMVPercent
		}
		return a.AskingPrice < b.AskingPrice
	})
	for i := range items {
		items[i].Rank = i + 1
	}
}
