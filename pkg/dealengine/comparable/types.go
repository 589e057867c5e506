// Package comparable defines completed-sale records and the result of
// running the market-reality engine against a set of them, plus the
// haversine distance helper the selector uses to apply the radius
// filters in spec §4.3.
package comparable

import (
	"math"
	"time"

	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
)

// Sale is a Land Registry completed-sale record. Sales are never
// fabricated or inferred — every Sale must trace back to a real
// transaction id.
type Sale struct {
	TransactionID string
	Postcode      string
	Coordinates   asset.Coordinates
	SalePrice     int64 // integer GBP
	SaleDate      time.Time
	PropertyType  asset.PropertyType // exact match required, never fuzzy
	Tenure        asset.Tenure       // exact match required, never fuzzy
}

// Analysis is the output of the market-reality engine (C5): the
// estimated market value derived from a selected comp set, plus enough
// provenance to reconstruct exactly how it was produced.
type Analysis struct {
	EMV                 int64 // 0 when no comps were used
	BMVPercent          float64
	CompsUsed           int
	CompIDs             []string
	CompPrices          []int64
	CompRadiusMiles     float64
	CompDateRangeMonths int
	FallbackLevel       int // 1..6
}

// HaversineMiles returns the great-circle distance between two
// coordinates in statute miles.
func HaversineMiles(a, b asset.Coordinates) float64 {
	const earthRadiusMiles = 3958.8

	lat1 := degToRad(a.Latitude)
	lat2 := degToRad(b.Latitude)
	dLat := degToRad(b.Latitude - a.Latitude)
	dLon := degToRad(b.Longitude - a.Longitude)

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
