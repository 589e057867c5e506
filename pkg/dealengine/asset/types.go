// Package asset defines the canonical listing schema: the raw shape a
// source adapter produces, and the validated shape every later pipeline
// stage consumes.
//
// No-fabrication invariant: ValidatedAsset never carries an estimated
// value, a BMV%, a score, or a recommendation. Those are computed fresh
// by later stages and travel in their own types, never bolted onto the
// asset.
package asset

import "time"

// PropertyType is a closed-set tagged variant. Any comparison between two
// PropertyType values is total — there is no "other" bucket, and an
// unmapped raw string is a rejection, never a silent default.
type PropertyType string

// The five normalised property types.
const (
	Flat         PropertyType = "FLAT"
	Maisonette   PropertyType = "MAISONETTE"
	Terraced     PropertyType = "TERRACED"
	SemiDetached PropertyType = "SEMI_DETACHED"
	Detached     PropertyType = "DETACHED"
)

// Valid reports whether p is one of the five normalised values.
func (p PropertyType) Valid() bool {
	switch p {
	case Flat, Maisonette, Terraced, SemiDetached, Detached:
		return true
	}
	return false
}

// Tenure is a closed-set tagged variant.
type Tenure string

const (
	Freehold  Tenure = "FREEHOLD"
	Leasehold Tenure = "LEASEHOLD"
)

// Valid reports whether t is one of the two normalised values.
func (t Tenure) Valid() bool {
	return t == Freehold || t == Leasehold
}

// ListingStatus tracks a listing's current market state.
type ListingStatus string

const (
	StatusActive     ListingStatus = "ACTIVE"
	StatusUnderOffer ListingStatus = "UNDER_OFFER"
	StatusSold       ListingStatus = "SOLD"
	StatusWithdrawn  ListingStatus = "WITHDRAWN"
)

// PriceQualifier annotates an asking price with market convention, e.g.
// "offers over", "guide price". Optional, free-form but bounded.
type PriceQualifier string

// propertyTypeSynonyms maps lower-cased raw source strings onto the
// normalised enum. Centralised here so both the structural validator
// (C3) and any future submission-portal-side mapping share one source
// of truth — spec.md §9 Open Question #4.
var propertyTypeSynonyms = map[string]PropertyType{
	"flat":          Flat,
	"apartment":     Flat,
	"studio":        Flat,
	"maisonette":    Maisonette,
	"terraced":      Terraced,
	"terrace":       Terraced,
	"townhouse":     Terraced,
	"town house":    Terraced,
	"end terrace":   Terraced,
	"end-terrace":   Terraced,
	"semi-detached": SemiDetached,
	"semi detached": SemiDetached,
	"semi":          SemiDetached,
	"detached":      Detached,
	"bungalow":      Detached,
	"cottage":       Detached,
}

// tenureSynonyms maps lower-cased raw source strings onto the normalised
// tenure enum.
var tenureSynonyms = map[string]Tenure{
	"freehold":          Freehold,
	"leasehold":         Leasehold,
	"share of freehold": Freehold,
}

// NormalisePropertyType looks up raw (case-insensitively, after
// lower-casing and trimming) in the synonym table. ok is false when raw
// has no mapping — callers must reject, never substitute a default.
func NormalisePropertyType(raw string) (pt PropertyType, ok bool) {
	pt, ok = propertyTypeSynonyms[normaliseKey(raw)]
	return pt, ok
}

// NormaliseTenure looks up raw the same way NormalisePropertyType does.
func NormaliseTenure(raw string) (t Tenure, ok bool) {
	t, ok = tenureSynonyms[normaliseKey(raw)]
	return t, ok
}

// SourceMetadata travels with a ValidatedAsset for provenance but is
// never read by scoring (guardrail G-001, enforced structurally by
// scoring.Input in pkg/dealengine/scoring, which has no field of this
// type).
type SourceMetadata struct {
	SourceID        string
	SourceName      string
	SourceListingID string
	FetchedAt       time.Time
	FetchAttempt    int
}

// RawListing is the stage-1 input a source adapter produces. No
// estimated values are ever accepted here; if a source supplies one, the
// adapter discards it before this struct is even built.
type RawListing struct {
	SourceID     string
	SourceName   string
	Address      string
	Postcode     string
	PropertyType string // raw, unnormalised
	Tenure       string // raw, unnormalised
	AskingPrice  int64  // integer GBP
	Bedrooms     *int
	Bathrooms    *int
	ListingDate  time.Time
	ListingURL   string
}

// Coordinates is a WGS84 lat/lon pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// ValidatedAsset is the immutable, post-stage-2 canonical record. Every
// field on this type is either required or an explicit optional
// (pointer) — there is no field that silently defaults to a fabricated
// value.
type ValidatedAsset struct {
	AssetID  string // globally unique, immutable once assigned
	Address  string
	Postcode string
	City     string
	Area     string // optional; empty string means absent

	PropertyType PropertyType
	Tenure       Tenure

	Bedrooms    *int
	Bathrooms   *int
	SquareFeet  *int
	PlotAcres   *float64
	Coordinates *Coordinates

	AskingPrice    int64
	PriceQualifier PriceQualifier

	ListingStatus ListingStatus
	ListingDate   time.Time
	DaysOnMarket  int // derived: validated_at - listing_date, in days

	Source SourceMetadata

	ValidatedAt   time.Time
	SchemaVersion string
}

func normaliseKey(raw string) string {
	return trimAndLower(raw)
}
