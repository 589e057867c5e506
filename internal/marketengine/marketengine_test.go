package marketengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
	"github.com/axisdeal/deal-engine/pkg/dealengine/comparable"
)

func saleWithPrice(id string, price int64) comparable.Sale {
	return comparable.Sale{TransactionID: id, SalePrice: price, SaleDate: time.Now(), PropertyType: asset.Flat, Tenure: asset.Leasehold}
}

func TestCompute_ZeroComps(t *testing.T) {
	target := asset.ValidatedAsset{AskingPrice: 250_000}
	got := Compute(target, nil, 1.5, 24, 6)
	assert.Equal(t, int64(0), got.EMV)
	assert.Equal(t, 0.0, got.BMVPercent)
	assert.Equal(t, 0, got.CompsUsed)
}

func TestCompute_UntrimmedMedianUnderFiveComps(t *testing.T) {
	target := asset.ValidatedAsset{AskingPrice: 250_000}
	comps := []comparable.Sale{
		saleWithPrice("t1", 240_000),
		saleWithPrice("t2", 260_000),
		saleWithPrice("t3", 300_000),
	}
	got := Compute(target, comps, 0.5, 12, 1)
	assert.Equal(t, int64(260_000), got.EMV)
	assert.InDelta(t, (260_000.0-250_000.0)/260_000.0*100, got.BMVPercent, 1e-9)
}

func TestCompute_TrimmedMedianAtFiveOrMoreComps(t *testing.T) {
	target := asset.ValidatedAsset{AskingPrice: 200_000}
	// 10 comps: one extreme low, one extreme high, rest clustered.
	comps := []comparable.Sale{
		saleWithPrice("t1", 50_000),
		saleWithPrice("t2", 240_000),
		saleWithPrice("t3", 245_000),
		saleWithPrice("t4", 250_000),
		saleWithPrice("t5", 255_000),
		saleWithPrice("t6", 260_000),
		saleWithPrice("t7", 250_000),
		saleWithPrice("t8", 248_000),
		saleWithPrice("t9", 252_000),
		saleWithPrice("t10", 900_000),
	}
	got := Compute(target, comps, 1.0, 24, 5)
	assert.Equal(t, 10, got.CompsUsed)
	assert.Greater(t, got.EMV, int64(200_000))
	assert.Less(t, got.EMV, int64(300_000))
}

func TestCompute_BMVPercentZeroWhenEMVZero(t *testing.T) {
	target := asset.ValidatedAsset{AskingPrice: 250_000}
	got := Compute(target, nil, 0, 0, 6)
	assert.Equal(t, 0.0, got.BMVPercent)
}

func TestCompute_PreservesCompIDsAndPrices(t *testing.T) {
	target := asset.ValidatedAsset{AskingPrice: 250_000}
	comps := []comparable.Sale{saleWithPrice("t1", 240_000), saleWithPrice("t2", 260_000)}
	got := Compute(target, comps, 0.5, 12, 1)
	assert.Equal(t, []string{"t1", "t2"}, got.CompIDs)
	assert.Equal(t, []int64{240_000, 260_000}, got.CompPrices)
}
