// Package audittrail assembles the opportunity.AuditTrail attached to
// every classified opportunity (spec §4.8, C9), including a SHA-256
// self-hash over the trail's canonical encoding — a cheap, direct check
// of the determinism invariant in spec §8: two trails built from
// identical inputs must hash identically.
//
// This reuses the teacher's audit.Entry{PreviousHash,Hash} hash-chain
// idea, collapsed to a single self-hash: opportunities are independent
// records, not a sequential ledger, so there is no previous-hash to
// chain against.
package audittrail

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/axisdeal/deal-engine/pkg/dealengine/confidence"
	"github.com/axisdeal/deal-engine/pkg/dealengine/opportunity"
)

// Input is everything the assembler needs to build one AuditTrail.
type Input struct {
	IngestionStamp time.Time

	ValidationPassed bool
	ValidationErrors []string

	CompsUsed           int
	CompIDs             []string
	CompPrices          []int64
	CompRadiusMiles     float64
	CompDateRangeMonths int
	EMV                 int64

	Confidence       confidence.Level
	ConfidenceReason string
	CapApplied       string

	BMVScore      float64
	UrgencyScore  float64
	LocationScore float64
	ValueScore    float64
	OverallScore  float64

	Recommendation       opportunity.Recommendation
	ClassificationReason string

	ProcessingTimestamp time.Time
}

// Assemble builds an opportunity.AuditTrail from in, computing its
// self-hash over a canonical, field-delimited encoding of every value
// that participates in the trail.
func Assemble(in Input) opportunity.AuditTrail {
	trail := opportunity.AuditTrail{
		IngestionStamp:       in.IngestionStamp,
		ValidationPassed:     in.ValidationPassed,
		ValidationErrors:     in.ValidationErrors,
		CompsUsed:            in.CompsUsed,
		CompIDs:              in.CompIDs,
		CompPrices:           in.CompPrices,
		CompRadiusMiles:      in.CompRadiusMiles,
		CompDateRangeMonths:  in.CompDateRangeMonths,
		EMV:                  in.EMV,
		Confidence:           in.Confidence,
		ConfidenceReason:     in.ConfidenceReason,
		CapApplied:           in.CapApplied,
		BMVScore:             in.BMVScore,
		UrgencyScore:         in.UrgencyScore,
		LocationScore:        in.LocationScore,
		ValueScore:           in.ValueScore,
		OverallScore:         in.OverallScore,
		Recommendation:       in.Recommendation,
		ClassificationReason: in.ClassificationReason,
		EngineVersion:        opportunity.EngineVersion,
		ProcessingTimestamp:  in.ProcessingTimestamp,
	}
	trail.Hash = canonicalHash(trail)
	return trail
}

// canonicalHash hashes a fixed, ordered encoding of trail's fields. The
// hash itself is excluded by construction (it is computed before being
// assigned to trail.Hash above).
func canonicalHash(trail opportunity.AuditTrail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ingestion_stamp=%s|", trail.IngestionStamp.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "validation_passed=%t|", trail.ValidationPassed)
	fmt.Fprintf(&b, "validation_errors=%s|", strings.Join(trail.ValidationErrors, ","))
	fmt.Fprintf(&b, "comps_used=%d|", trail.CompsUsed)
	fmt.Fprintf(&b, "comp_ids=%s|", strings.Join(trail.CompIDs, ","))
	fmt.Fprintf(&b, "comp_prices=%s|", joinInt64s(trail.CompPrices))
	fmt.Fprintf(&b, "comp_radius_miles=%g|", trail.CompRadiusMiles)
	fmt.Fprintf(&b, "comp_date_range_months=%d|", trail.CompDateRangeMonths)
	fmt.Fprintf(&b, "emv=%d|", trail.EMV)
	fmt.Fprintf(&b, "confidence=%s|", trail.Confidence)
	fmt.Fprintf(&b, "confidence_reason=%s|", trail.ConfidenceReason)
	fmt.Fprintf(&b, "cap_applied=%s|", trail.CapApplied)
	fmt.Fprintf(&b, "bmv_score=%g|", trail.BMVScore)
	fmt.Fprintf(&b, "urgency_score=%g|", trail.UrgencyScore)
	fmt.Fprintf(&b, "location_score=%g|", trail.LocationScore)
	fmt.Fprintf(&b, "value_score=%g|", trail.ValueScore)
	fmt.Fprintf(&b, "overall_score=%g|", trail.OverallScore)
	fmt.Fprintf(&b, "recommendation=%s|", trail.Recommendation)
	fmt.Fprintf(&b, "classification_reason=%s|", trail.ClassificationReason)
	fmt.Fprintf(&b, "engine_version=%s|", trail.EngineVersion)
	fmt.Fprintf(&b, "processing_timestamp=%s", trail.ProcessingTimestamp.UTC().Format(time.RFC3339Nano))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func joinInt64s(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}
