package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
)

func TestAdapter_FetchListings_IsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := New(Config{SourceID: "mock-1", Seed: "seed-a", Clock: clock.NewFixed(now)})
	b := New(Config{SourceID: "mock-1", Seed: "seed-a", Clock: clock.NewFixed(now)})

	got, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	want, err := b.FetchListings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.NotEmpty(t, got)
}

func TestAdapter_FetchListings_DifferentSeedsDiffer(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := New(Config{SourceID: "mock-1", Seed: "seed-a", Clock: clock.NewFixed(now)})
	b := New(Config{SourceID: "mock-1", Seed: "seed-b", Clock: clock.NewFixed(now)})

	got, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	other, err := b.FetchListings(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, got, other)
}

func TestAdapter_FetchListings_UsesFixtureWhenProvided(t *testing.T) {
	beds := 3
	fixture := []asset.RawListing{{SourceID: "mock-1", Address: "1 Fixture Way", Bedrooms: &beds}}
	a := New(Config{SourceID: "mock-1", Listings: fixture})

	got, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixture, got)
}

func TestAdapter_SourceInfo(t *testing.T) {
	a := New(Config{SourceID: "mock-1", SourceName: "Mock Feed"})
	info := a.SourceInfo()
	assert.Equal(t, "mock-1", info.ID)
	assert.Equal(t, "mock", info.Kind)
}
