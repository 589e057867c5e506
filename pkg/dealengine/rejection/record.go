// Package rejection defines the out-of-band rejection record emitted
// whenever a raw listing fails normalisation or structural validation.
// Rejection records never appear in pipeline output — they travel on a
// side channel so admin tooling can review them without polluting the
// Deal Engine's deterministic result stream.
package rejection

import (
	"time"

	"github.com/axisdeal/deal-engine/pkg/dealerrors"
)

// Record is a structured report of one rejected listing.
type Record struct {
	SourceID        string
	SourceListingID string
	Code            dealerrors.Code
	Reason          string
	RawDataHash     string
	RejectedAt      time.Time
}

// FromError builds a Record from a *dealerrors.RejectionError produced by
// the structural validator or a source adapter.
func FromError(sourceID, sourceListingID string, err *dealerrors.RejectionError, rejectedAt time.Time) Record {
	return Record{
		SourceID:        sourceID,
		SourceListingID: sourceListingID,
		Code:            err.Code,
		Reason:          err.Reason,
		RawDataHash:     err.RawDataHash,
		RejectedAt:      rejectedAt,
	}
}
