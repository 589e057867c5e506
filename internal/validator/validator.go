// Package validator implements the structural validator (spec §4.2):
// stage-2 of the Deal Engine pipeline. Rules run in the fixed order
// V-001..V-008; the first rule that fails rejects the listing and no
// later rule runs.
package validator

import (
	"fmt"
	"regexp"
	"time"

	playground "github.com/go-playground/validator/v10"

	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
	"github.com/axisdeal/deal-engine/pkg/dealerrors"
)

const (
	minAskingPrice     int64 = 10_000
	maxAskingPrice     int64 = 50_000_000
	staleListingMaxAge       = 365 * 24 * time.Hour
	schemaVersion            = "1.0"
)

// presenceFields mirrors the subset of RawListing that go-playground's
// struct tags can validate directly: presence (non-zero) of the required
// strings and the asking price. The asking price range, postcode format,
// enum lookups, and date-relative rules are checked by hand below, in
// strict V-001..V-008 order.
type presenceFields struct {
	SourceID     string `validate:"required"`
	Address      string `validate:"required"`
	Postcode     string `validate:"required"`
	PropertyType string `validate:"required"`
	Tenure       string `validate:"required"`
	AskingPrice  int64  `validate:"required"`
}

// ukPostcodePattern is a standard, permissive UK postcode grammar:
// one or two letters, a digit optionally followed by a second digit or
// a letter, optional whitespace, one digit, and two letters.
var ukPostcodePattern = regexp.MustCompile(`(?i)^[A-Z]{1,2}[0-9][A-Z0-9]?\s*[0-9][A-Z]{2}$`)

// Validator applies the V-001..V-008 rule chain.
type Validator struct {
	clock  clock.Clock
	tagVal *playground.Validate
}

// New builds a Validator. clock is used to evaluate V-007/V-008 and to
// stamp ValidatedAt.
func New(c clock.Clock) *Validator {
	return &Validator{clock: c, tagVal: playground.New()}
}

// Validate runs the structural rules against raw in order, returning a
// ValidatedAsset on success or a *dealerrors.RejectionError identifying
// the first rule that failed.
func (v *Validator) Validate(raw asset.RawListing) (*asset.ValidatedAsset, *dealerrors.RejectionError) {
	// V-001: missing required field.
	fields := presenceFields{
		SourceID:     raw.SourceID,
		Address:      raw.Address,
		Postcode:     raw.Postcode,
		PropertyType: raw.PropertyType,
		Tenure:       raw.Tenure,
		AskingPrice:  raw.AskingPrice,
	}
	if err := v.tagVal.Struct(fields); err != nil {
		return nil, dealerrors.NewRejection(dealerrors.CodeMissingRequiredField, err.Error())
	}
	if raw.ListingDate.IsZero() {
		return nil, dealerrors.NewRejection(dealerrors.CodeMissingRequiredField, "listing_date is required")
	}

	// V-002: postcode fails UK format.
	if !ukPostcodePattern.MatchString(raw.Postcode) {
		return nil, dealerrors.NewRejection(dealerrors.CodeInvalidPostcode, fmt.Sprintf("postcode %q is not a valid UK postcode", raw.Postcode))
	}

	// V-003: property_type not in the five-value set.
	pt, ok := asset.NormalisePropertyType(raw.PropertyType)
	if !ok {
		return nil, dealerrors.NewRejection(dealerrors.CodeUnmappedPropertyType, fmt.Sprintf("property_type %q has no mapping", raw.PropertyType))
	}

	// V-004: tenure not in the two-value set.
	tenure, ok := asset.NormaliseTenure(raw.Tenure)
	if !ok {
		return nil, dealerrors.NewRejection(dealerrors.CodeUnmappedTenure, fmt.Sprintf("tenure %q has no mapping", raw.Tenure))
	}

	// V-005: asking_price < 10,000.
	if raw.AskingPrice < minAskingPrice {
		return nil, dealerrors.NewRejection(dealerrors.CodePriceBelowThreshold, fmt.Sprintf("asking_price %d below minimum %d", raw.AskingPrice, minAskingPrice))
	}

	// V-006: asking_price > 50,000,000.
	if raw.AskingPrice > maxAskingPrice {
		return nil, dealerrors.NewRejection(dealerrors.CodePriceAboveThreshold, fmt.Sprintf("asking_price %d above maximum %d", raw.AskingPrice, maxAskingPrice))
	}

	now := v.clock.Now()

	// V-007: listing_date in future.
	if raw.ListingDate.After(now) {
		return nil, dealerrors.NewRejection(dealerrors.CodeFutureListingDate, "listing_date is in the future")
	}

	// V-008: listing_date older than 365 days.
	if now.Sub(raw.ListingDate) > staleListingMaxAge {
		return nil, dealerrors.NewRejection(dealerrors.CodeStaleListing, "listing_date is more than 365 days old")
	}

	daysOnMarket := int(now.Sub(raw.ListingDate).Hours() / 24)

	validated := &asset.ValidatedAsset{
		AssetID:      "", // assigned by the caller (asset_id generator), never here
		Address:      raw.Address,
		Postcode:     raw.Postcode,
		PropertyType: pt,
		Tenure:       tenure,
		Bedrooms:     raw.Bedrooms,
		Bathrooms:    raw.Bathrooms,
		AskingPrice:  raw.AskingPrice,
		ListingStatus: asset.StatusActive,
		ListingDate:  raw.ListingDate,
		DaysOnMarket: daysOnMarket,
		Source: asset.SourceMetadata{
			SourceID:   raw.SourceID,
			SourceName: raw.SourceName,
			FetchedAt:  now,
		},
		ValidatedAt:   now,
		SchemaVersion: schemaVersion,
	}

	return validated, nil
}
