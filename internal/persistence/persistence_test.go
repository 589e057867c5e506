package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisdeal/deal-engine/internal/docstore"
	"github.com/axisdeal/deal-engine/internal/logbook"
	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/submission"
)

func completeFields() submission.Fields {
	return submission.Fields{
		FullAddress:  "12 Orchard Road",
		Postcode:     "SW1A 1AA",
		PropertyType: "flat",
		Tenure:       "freehold",
		FloorAreaSqm: 65.0,
		GuidePrice:   220_000,
		SaleRoute:    submission.PrivateTreaty,
		AgentFirm:    "Acme Estates",
		AgentName:    "Jane Agent",
		AgentEmail:   "jane@acme-estates.example",
		Documents: []submission.DocumentRecord{
			{DocumentType: submission.TitleRegister},
			{DocumentType: submission.EPC},
			{DocumentType: submission.FloorPlan},
		},
	}
}

func TestSnapshotAndLoadLogbooks_RoundTrips(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := clock.NewFixed(now)

	store := logbook.New(c)
	book := store.Submit(completeFields(), "agent-1")
	store.TransitionStatus(book.PropertyID, submission.UnderReview, "reviewer-1")

	path := filepath.Join(t.TempDir(), "logbooks.json")
	require.NoError(t, SnapshotLogbooks(path, store))

	reloaded, err := LoadLogbooks(path, c)
	require.NoError(t, err)

	got, rej := reloaded.Get(book.PropertyID)
	require.Nil(t, rej)
	assert.Equal(t, submission.UnderReview, got.CurrentStatus)
	assert.Len(t, got.Versions, 2)
}

func TestLoadLogbooks_MissingFileYieldsEmptyStore(t *testing.T) {
	c := clock.NewFixed(time.Now())
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	store, err := LoadLogbooks(path, c)
	require.NoError(t, err)
	assert.Empty(t, store.All())
}

func TestRebuildDocumentIndex_ReflectsStoredDocuments(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s, err := docstore.New(dir, clock.NewFixed(now))
	require.NoError(t, err)

	pngBytes := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}
	record, rej := s.Put("PROP-aaaaaaaaaaaa", submission.EPC, pngBytes, "epc.png")
	require.Nil(t, rej)

	records, err := RebuildDocumentIndex(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "PROP-aaaaaaaaaaaa", records[0].PropertyID)
	assert.Equal(t, record.SHA256Hex, records[0].SHA256Hex)
	// The rebuilt index must key documents by the same id minted at Put
	// time, not a content-derived substitute, or a reload would orphan
	// any document_id already embedded in a logbook snapshot.
	assert.Equal(t, record.DocumentID, records[0].DocumentID)
}

func TestRebuildDocumentIndex_DerivesIDWhenSidecarPredatesDocumentID(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s, err := docstore.New(dir, clock.NewFixed(now))
	require.NoError(t, err)

	pngBytes := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}
	record, rej := s.Put("PROP-aaaaaaaaaaaa", submission.EPC, pngBytes, "epc.png")
	require.Nil(t, rej)

	manifestPath := filepath.Join(dir, "documents", "PROP-aaaaaaaaaaaa", string(submission.EPC), "epc.png.manifest.json")
	legacy := fmt.Sprintf(`{"sha256_hex":%q,"size_bytes":%d,"uploaded_at":%q}`, record.SHA256Hex, record.SizeBytes, now.Format(time.RFC3339Nano))
	require.NoError(t, os.WriteFile(manifestPath, []byte(legacy), 0o644))

	records, err := RebuildDocumentIndex(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, deriveDocumentID(record.SHA256Hex), records[0].DocumentID)
}

func TestRebuildDocumentIndex_EmptyWhenNoDocumentsDir(t *testing.T) {
	records, err := RebuildDocumentIndex(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, records)
}
