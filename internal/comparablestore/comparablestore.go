// Package comparablestore holds completed Land Registry sales in memory
// and implements the six-level fallback selector (spec §4.3, C4).
//
// The store itself is a mutex-protected map keyed by transaction ID, with
// no secondary index: each selection scans every held sale. It has the
// same shape as the teacher's in-memory circle runtime — many readers
// (the pipeline) concurrent with a single loader/writer at startup.
package comparablestore

import (
	"sort"
	"sync"
	"time"

	"github.com/axisdeal/deal-engine/internal/config"
	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
	"github.com/axisdeal/deal-engine/pkg/dealengine/comparable"
)

// postcodeCentroids is a small static lookup from postcode district (the
// part before the space) to an approximate WGS84 centroid, used only
// when a sale or asset carries no explicit coordinates. It is seeded
// with the same districts the mock source adapter emits; a production
// deployment would replace this with a geocoding table, not stdlib
// math — see DESIGN.md.
var postcodeCentroids = map[string]asset.Coordinates{
	"SW1A": {Latitude: 51.5010, Longitude: -0.1416},
	"M1":   {Latitude: 53.4808, Longitude: -2.2426},
	"B1":   {Latitude: 52.4796, Longitude: -1.9026},
	"LS1":  {Latitude: 53.7997, Longitude: -1.5492},
	"BS1":  {Latitude: 51.4536, Longitude: -2.5975},
	"L1":   {Latitude: 53.4058, Longitude: -2.9790},
	"G1":   {Latitude: 55.8609, Longitude: -4.2514},
	"EH1":  {Latitude: 55.9510, Longitude: -3.1887},
}

// Store is an in-memory index of comparable sales.
type Store struct {
	mu    sync.RWMutex
	sales map[string]comparable.Sale
}

// New builds an empty Store.
func New() *Store {
	return &Store{sales: make(map[string]comparable.Sale)}
}

// Load replaces the store's contents with sales. Intended for a single
// startup bulk-load; concurrent Load calls serialise on the store's lock.
func (s *Store) Load(sales []comparable.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = make(map[string]comparable.Sale, len(sales))
	for _, sale := range sales {
		s.sales[sale.TransactionID] = sale
	}
}

// Add inserts or replaces a single sale.
func (s *Store) Add(sale comparable.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales[sale.TransactionID] = sale
}

// Count returns the number of sales currently held.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sales)
}

// Selector runs the six-level fallback search (spec §4.3) against a Store.
type Selector struct {
	store *Store
	cfg   *config.EngineConfig
	now   func() time.Time
}

// NewSelector builds a Selector. now is called once per Select to
// evaluate each level's date window against "today".
func NewSelector(store *Store, cfg *config.EngineConfig, now func() time.Time) *Selector {
	return &Selector{store: store, cfg: cfg, now: now}
}

// Select returns the comps found for target, the radius/window that
// produced them, and the 1-based fallback level. If no level produces a
// comp, it returns an empty slice, the level-6 radius/window, and level 6
// — callers proceed to INSUFFICIENT_DATA, they never retry.
func (sel *Selector) Select(target asset.ValidatedAsset) (comps []comparable.Sale, radiusMiles float64, windowMonths int, fallbackLevel int) {
	sel.store.mu.RLock()
	defer sel.store.mu.RUnlock()

	centre, haveCentre := centroidFor(target)
	now := sel.now()
	maxAge := now.AddDate(0, -sel.cfg.HardFilterMaxAgeMonths, 0)

	// Hard filters applied once, up front: exact property type, exact
	// tenure, and the 24-month hard age ceiling regardless of level.
	candidates := make([]comparable.Sale, 0, len(sel.store.sales))
	for _, sale := range sel.store.sales {
		if sale.PropertyType != target.PropertyType {
			continue
		}
		if sale.Tenure != target.Tenure {
			continue
		}
		if sale.SaleDate.Before(maxAge) {
			continue
		}
		candidates = append(candidates, sale)
	}

	for i, level := range sel.cfg.FallbackLevels {
		windowStart := now.AddDate(0, -level.WindowMonths, 0)
		var matched []comparable.Sale
		for _, sale := range candidates {
			if sale.SaleDate.Before(windowStart) {
				continue
			}
			dist, ok := distanceTo(sale, centre, haveCentre)
			if !ok || dist > level.RadiusMiles {
				continue
			}
			matched = append(matched, sale)
		}
		if len(matched) > 0 {
			sortSalesDeterministic(matched)
			return matched, level.RadiusMiles, level.WindowMonths, i + 1
		}
	}

	last := sel.cfg.FallbackLevels[len(sel.cfg.FallbackLevels)-1]
	return nil, last.RadiusMiles, last.WindowMonths, len(sel.cfg.FallbackLevels)
}

// sortSalesDeterministic orders matches by transaction ID so that two
// selector runs over identical data return comps in the same order
// regardless of map iteration order.
func sortSalesDeterministic(sales []comparable.Sale) {
	sort.Slice(sales, func(i, j int) bool { return sales[i].TransactionID < sales[j].TransactionID })
}

func centroidFor(a asset.ValidatedAsset) (asset.Coordinates, bool) {
	if a.Coordinates != nil {
		return *a.Coordinates, true
	}
	if c, ok := postcodeCentroids[postcodeDistrict(a.Postcode)]; ok {
		return c, true
	}
	return asset.Coordinates{}, false
}

func distanceTo(sale comparable.Sale, centre asset.Coordinates, haveCentre bool) (float64, bool) {
	if !haveCentre {
		return 0, false
	}
	saleCoords := sale.Coordinates
	if saleCoords == (asset.Coordinates{}) {
		c, ok := postcodeCentroids[postcodeDistrict(sale.Postcode)]
		if !ok {
			return 0, false
		}
		saleCoords = c
	}
	return comparable.HaversineMiles(centre, saleCoords), true
}

// postcodeDistrict returns the outward code (the part before the space),
// e.g. "SW1A 1AA" -> "SW1A".
func postcodeDistrict(postcode string) string {
	for i, r := range postcode {
		if r == ' ' {
			return postcode[:i]
		}
	}
	return postcode
}
