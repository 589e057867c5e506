// Package mock provides a deterministic sourceadapter.Adapter for tests
// and demos: every listing is derived from a seed and a clock, so two
// runs against the same seed produce byte-identical RawListings.
package mock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/axisdeal/deal-engine/internal/sourceadapter"
	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
)

// Config configures the mock adapter.
type Config struct {
	SourceID   string
	SourceName string
	Clock      clock.Clock
	Seed       string
	// Listings, when non-nil, is returned verbatim by FetchListings
	// instead of generated data — used by tests that need exact
	// control over the fixture.
	Listings []asset.RawListing
}

// Adapter implements sourceadapter.Adapter with deterministic mock data.
type Adapter struct {
	sourceID   string
	sourceName string
	clock      clock.Clock
	seed       string
	fixed      []asset.RawListing
}

// New builds a mock adapter from cfg.
func New(cfg Config) *Adapter {
	id := cfg.SourceID
	if id == "" {
		id = "mock-source"
	}
	name := cfg.SourceName
	if name == "" {
		name = "Mock Listing Feed"
	}
	c := cfg.Clock
	if c == nil {
		c = clock.NewReal()
	}
	seed := cfg.Seed
	if seed == "" {
		seed = "default-seed"
	}
	return &Adapter{sourceID: id, sourceName: name, clock: c, seed: seed, fixed: cfg.Listings}
}

// FetchListings returns the configured fixture, or a small deterministic
// generated set of listings seeded from the adapter's seed.
func (a *Adapter) FetchListings(ctx context.Context) ([]asset.RawListing, error) {
	if a.fixed != nil {
		return a.fixed, nil
	}

	now := a.clock.Now()
	listings := make([]asset.RawListing, 0, len(mockStreets))
	for i, street := range mockStreets {
		bedrooms := 1 + (i % 4)
		listings = append(listings, asset.RawListing{
			SourceID:     a.sourceID,
			SourceName:   a.sourceName,
			Address:      fmt.Sprintf("%d %s", 10+i, street.name),
			Postcode:     street.postcode,
			PropertyType: street.propertyType,
			Tenure:       street.tenure,
			AskingPrice:  street.basePriceGBP + a.deterministicVariance(street.postcode, i),
			Bedrooms:     &bedrooms,
			ListingDate:  now.AddDate(0, 0, -a.deterministicAge(street.postcode, i)),
			ListingURL:   fmt.Sprintf("https://mock-source.invalid/listing/%s", a.deterministicID(street.postcode, i)),
		})
	}
	return listings, nil
}

// SourceInfo reports this adapter's identity.
func (a *Adapter) SourceInfo() sourceadapter.SourceInfo {
	return sourceadapter.SourceInfo{ID: a.sourceID, Name: a.sourceName, Kind: "mock"}
}

func (a *Adapter) deterministicVariance(postcode string, index int) int64 {
	h := a.hash(postcode, index)
	return int64(h[0]) * 1000
}

func (a *Adapter) deterministicAge(postcode string, index int) int {
	h := a.hash(postcode, index)
	return int(h[1]) % 60
}

func (a *Adapter) deterministicID(postcode string, index int) string {
	h := a.hash(postcode, index)
	return hex.EncodeToString(h[:8])
}

func (a *Adapter) hash(postcode string, index int) []byte {
	data := fmt.Sprintf("%s:%s:%d", a.seed, postcode, index)
	sum := sha256.Sum256([]byte(data))
	return sum[:]
}

var _ sourceadapter.Adapter = (*Adapter)(nil)

type mockStreet struct {
	name         string
	postcode     string
	propertyType string
	tenure       string
	basePriceGBP int64
}

var mockStreets = []mockStreet{
	{name: "Orchard Road", postcode: "SW1A 1AA", propertyType: "flat", tenure: "leasehold", basePriceGBP: 425000},
	{name: "Mill Lane", postcode: "M1 1AE", propertyType: "terraced", tenure: "freehold", basePriceGBP: 185000},
	{name: "Kings Avenue", postcode: "B1 1AA", propertyType: "semi-detached", tenure: "freehold", basePriceGBP: 245000},
	{name: "Victoria Street", postcode: "LS1 1AA", propertyType: "detached", tenure: "freehold", basePriceGBP: 395000},
	{name: "Church Close", postcode: "BS1 1AA", propertyType: "maisonette", tenure: "leasehold", basePriceGBP: 210000},
	{name: "Station Road", postcode: "L1 1AA", propertyType: "terraced", tenure: "freehold", basePriceGBP: 155000},
	{name: "Park View", postcode: "G1 1AA", propertyType: "flat", tenure: "leasehold", basePriceGBP: 165000},
	{name: "High Street", postcode: "EH1 1AA", propertyType: "detached", tenure: "freehold", basePriceGBP: 450000},
}
