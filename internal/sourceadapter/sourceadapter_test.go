package sourceadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
)

type stubAdapter struct{ id string }

func (s stubAdapter) FetchListings(ctx context.Context) ([]asset.RawListing, error) {
	return nil, nil
}

func (s stubAdapter) SourceInfo() SourceInfo {
	return SourceInfo{ID: s.id, Name: s.id, Kind: "stub"}
}

func TestRegistry_RequireAllowed_NotRegistered(t *testing.T) {
	r := NewRegistry()
	_, err := r.RequireAllowed("ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceNotRegistered)
}

func TestRegistry_RequireAllowed_NotAllowed(t *testing.T) {
	r := NewRegistryWithEntries([]Entry{
		{ID: "blocked-source", Adapter: stubAdapter{id: "blocked-source"}, Allowed: false, BlockReason: "pending review"},
	})
	_, err := r.RequireAllowed("blocked-source")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceNotAllowed)
}

func TestRegistry_RequireAllowed_Allowed(t *testing.T) {
	adapter := stubAdapter{id: "ok-source"}
	r := NewRegistryWithEntries([]Entry{
		{ID: "ok-source", Adapter: adapter, Allowed: true},
	})
	got, err := r.RequireAllowed("ok-source")
	require.NoError(t, err)
	assert.Equal(t, adapter, got)
}

func TestRegistry_List_IsSortedByID(t *testing.T) {
	r := NewRegistryWithEntries([]Entry{
		{ID: "zzz", Adapter: stubAdapter{id: "zzz"}, Allowed: true},
		{ID: "aaa", Adapter: stubAdapter{id: "aaa"}, Allowed: true},
	})
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "aaa", list[0].ID)
	assert.Equal(t, "zzz", list[1].ID)
}
