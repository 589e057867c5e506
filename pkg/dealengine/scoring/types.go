// Package scoring defines the scorer's input and output shapes.
//
// Input is deliberately narrow: it carries only the fields the scoring
// formulas in spec §4.6 need (BMV%, days on market, confidence, and the
// configured target BMV tier). It has no field of type
// asset.SourceMetadata — the same trick the teacher's
// read.Capabilities{Read bool} uses to make a forbidden capability
// structurally absent rather than merely unused. A scoring function
// closure built over Input cannot read SourceMetadata because there is
// nowhere on Input for it to live.
package scoring

import "github.com/axisdeal/deal-engine/pkg/dealengine/confidence"

// Input is everything the scorer needs, and nothing else.
type Input struct {
	BMVPercent    float64
	DaysOnMarket  int
	Confidence    confidence.Level
	TargetBMVTier float64 // configured target BMV%, used by the value score
}

// Scores holds the four component scores plus the composite.
type Scores struct {
	BMV      float64
	Urgency  float64
	Location float64
	Value    float64
	Overall  float64
}

// Scored pairs a confidence.GatedAnalysis with its Scores and rank. Rank
// is 1-indexed and assigned by the ranking pass across a batch, so a
// single Scored value in isolation carries Rank == 0 until ranked.
// AssetID and AskingPrice travel alongside the analysis so the ranking
// pass can apply its asking_price ASC tiebreaker without reaching back
// into the asset package.
type Scored struct {
	confidence.GatedAnalysis
	Scores
	AssetID     string
	AskingPrice int64
	Rank        int
}
