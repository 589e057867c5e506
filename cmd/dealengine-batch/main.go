// Command dealengine-batch performs a single synchronous Deal Engine
// run against a deterministic mock listing feed and a deterministic
// comparable-sale set, then prints a ranked opportunity report.
//
// This command runs once and exits. It does NOT poll or spawn
// background workers; for continuous ingestion, invoke it on a
// schedule (cron, systemd timer).
//
// Usage:
//
//	go run ./cmd/dealengine-batch
//	go run ./cmd/dealengine-batch -config ./dealengine.conf
package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/axisdeal/deal-engine/internal/comparablestore"
	"github.com/axisdeal/deal-engine/internal/config"
	"github.com/axisdeal/deal-engine/internal/pipeline"
	"github.com/axisdeal/deal-engine/internal/sourceadapter"
	mockadapter "github.com/axisdeal/deal-engine/internal/sourceadapter/providers/mock"
	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
	"github.com/axisdeal/deal-engine/pkg/dealengine/comparable"
	"github.com/axisdeal/deal-engine/pkg/dealengine/opportunity"
	"github.com/axisdeal/deal-engine/pkg/dealengine/rejection"
)

func main() {
	configPath := flag.String("config", "", "path to a .dealconf file (defaults to spec.md's hardcoded defaults)")
	seed := flag.String("seed", "batch-run", "seed for the deterministic mock listing feed")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.DefaultEngineConfig()
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	clk := clock.NewReal()

	adapter := mockadapter.New(mockadapter.Config{
		SourceID:   "mock-batch",
		SourceName: "Deterministic Mock Feed",
		Clock:      clk,
		Seed:       *seed,
	})

	listings, err := adapter.FetchListings(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetching listings: %v\n", err)
		os.Exit(1)
	}

	store := comparablestore.New()
	store.Load(mockSales(clk.Now(), *seed))
	selector := comparablestore.NewSelector(store, cfg, clk.Now)

	p := pipeline.New(cfg, selector, clk, logger, 8)
	opportunities, rejections := p.RunAndRank(context.Background(), listings)

	printReport(adapter.SourceInfo(), opportunities, rejections)
}

func printReport(source sourceadapter.SourceInfo, opportunities []opportunity.Opportunity, rejections []rejection.Record) {
	fmt.Printf("Deal Engine batch run — source %s (%s)\n", source.Name, source.ID)
	fmt.Println("================================================")
	fmt.Printf("Opportunities: %d   Rejections: %d\n\n", len(opportunities), len(rejections))

	for _, opp := range opportunities {
		fmt.Printf("#%-2d %-20s  emv=£%-10d bmv%%=%6.2f  confidence=%-6s  overall=%5.1f  %s\n",
			opp.Rank, opp.AssetID, opp.Audit.EMV, opp.BMVPercent, opp.Confidence, opp.Overall, opp.Recommendation)
		fmt.Printf("      %s\n", opp.ClassificationReason)
	}

	if len(rejections) > 0 {
		fmt.Println()
		fmt.Println("Rejections:")
		for _, rej := range rejections {
			fmt.Printf("  %s: %s (%s)\n", rej.Code, rej.Reason, rej.SourceID)
		}
	}
}

// mockSales builds a small deterministic comparable-sale set: a
// handful of completed transactions per mock street, priced near that
// street's base asking price with a seeded variance, so the market
// engine has real comps to work against.
func mockSales(now time.Time, seed string) []comparable.Sale {
	type street struct {
		postcode     string
		propertyType string
		tenure       string
		basePrice    int64
		lat, lon     float64
	}
	streets := []street{
		{"SW1A 1AA", "flat", "leasehold", 420_000, 51.5010, -0.1415},
		{"M1 1AE", "terraced", "freehold", 182_000, 53.4810, -2.2375},
		{"B1 1AA", "semi-detached", "freehold", 240_000, 52.4790, -1.9025},
		{"LS1 1AA", "detached", "freehold", 390_000, 53.7990, -1.5480},
		{"BS1 1AA", "maisonette", "leasehold", 205_000, 51.4530, -2.5960},
		{"L1 1AA", "terraced", "freehold", 150_000, 53.4060, -2.9780},
		{"G1 1AA", "flat", "leasehold", 160_000, 55.8590, -4.2500},
		{"EH1 1AA", "detached", "freehold", 455_000, 55.9510, -3.1900},
	}

	sales := make([]comparable.Sale, 0, len(streets)*6)
	for _, st := range streets {
		pt, ok := asset.NormalisePropertyType(st.propertyType)
		if !ok {
			continue
		}
		tenure, ok := asset.NormaliseTenure(st.tenure)
		if !ok {
			continue
		}
		for i := 0; i < 6; i++ {
			h := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:sale:%d", seed, st.postcode, i)))
			variance := int64(h[0])*500 - 64_000
			ageMonths := int(h[1] % 18)
			sales = append(sales, comparable.Sale{
				TransactionID: fmt.Sprintf("%x", h[:8]),
				Postcode:      st.postcode,
				Coordinates:   asset.Coordinates{Latitude: st.lat, Longitude: st.lon},
				SalePrice:     st.basePrice + variance,
				SaleDate:      now.AddDate(0, -ageMonths, 0),
				PropertyType:  pt,
				Tenure:        tenure,
			})
		}
	}
	return sales
}
