// Package marketengine computes the estimated market value and
// below-market-value percentage from a selected comp set (spec §4.4,
// C5). Median and percentile arithmetic is delegated to
// montanaflynn/stats rather than hand-rolled, matching how the rest of
// this codebase reaches for an ecosystem library over a stdlib-only
// implementation wherever one fits.
package marketengine

import (
	"github.com/montanaflynn/stats"

	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
	"github.com/axisdeal/deal-engine/pkg/dealengine/comparable"
)

// Compute derives a comparable.Analysis from the comps the selector
// found for target. radiusMiles, windowMonths, and fallbackLevel are
// passed through verbatim from the selector's result.
func Compute(target asset.ValidatedAsset, comps []comparable.Sale, radiusMiles float64, windowMonths, fallbackLevel int) comparable.Analysis {
	analysis := comparable.Analysis{
		CompsUsed:           len(comps),
		CompRadiusMiles:     radiusMiles,
		CompDateRangeMonths: windowMonths,
		FallbackLevel:       fallbackLevel,
	}

	ids := make([]string, len(comps))
	prices := make(stats.Float64Data, len(comps))
	for i, c := range comps {
		ids[i] = c.TransactionID
		prices[i] = float64(c.SalePrice)
	}
	// Comp ids and prices travel index-paired with comps, sorted by id
	// upstream in the selector — preserved here for the audit trail.
	analysis.CompIDs = ids
	analysis.CompPrices = intPrices(comps)

	n := len(comps)
	switch {
	case n == 0:
		analysis.EMV = 0
		analysis.BMVPercent = 0
		return analysis

	case n >= 5:
		trimmed := trimToPercentileRange(prices, 10, 90)
		median, err := stats.Median(trimmed)
		if err != nil {
			analysis.EMV = 0
		} else {
			analysis.EMV = int64(median)
		}

	default: // 1 <= n < 5
		median, err := stats.Median(prices)
		if err != nil {
			analysis.EMV = 0
		} else {
			analysis.EMV = int64(median)
		}
	}

	if analysis.EMV > 0 {
		analysis.BMVPercent = (float64(analysis.EMV-target.AskingPrice) / float64(analysis.EMV)) * 100
	}

	return analysis
}

// trimToPercentileRange strictly excludes values below the p10 and
// above the p90 percentile of data, returning the remaining values in
// their original relative order.
func trimToPercentileRange(data stats.Float64Data, p10, p90 float64) stats.Float64Data {
	lower, errLow := stats.Percentile(data, p10)
	upper, errHigh := stats.Percentile(data, p90)
	if errLow != nil || errHigh != nil {
		// stats.Percentile has no p10 rank for fewer than ten values;
		// strict exclusion of the tails then drops the single lowest and
		// the single highest value.
		lo, hi := 0, 0
		for i, v := range data {
			if v < data[lo] {
				lo = i
			}
			if v > data[hi] {
				hi = i
			}
		}
		out := make(stats.Float64Data, 0, len(data))
		for i, v := range data {
			if i != lo && i != hi {
				out = append(out, v)
			}
		}
		return out
	}

	out := make(stats.Float64Data, 0, len(data))
	for _, v := range data {
		if v < lower || v > upper {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		// Every value sat exactly on a tail boundary and got excluded by
		// strict comparison; fall back to the untrimmed set rather than
		// computing a median of nothing.
		return data
	}
	return out
}

// intPrices returns comps' sale prices in comps' own order (the
// selector already sorted comps deterministically by transaction id).
func intPrices(comps []comparable.Sale) []int64 {
	prices := make([]int64, len(comps))
	for i, c := range comps {
		prices[i] = c.SalePrice
	}
	return prices
}
