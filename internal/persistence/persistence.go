// Package persistence is the durable snapshot layer for the submission
// logbook and document store (spec §4.11, C12). Logbooks snapshot to a
// single self-describing file; documents already live on disk one file
// per upload (internal/docstore), so persistence's job there is
// rebuilding the in-memory manifest index by walking the directory
// tree. Both paths are grounded directly on the teacher's FileLog:
// write to a temp file in the same directory, fsync, rename.
package persistence

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/axisdeal/deal-engine/internal/logbook"
	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/submission"
)

// logbookSnapshotVersion is the schema version stamped into every
// logbook snapshot file.
const logbookSnapshotVersion = "1.0"

// logbookSnapshot is the on-disk shape of a full logbook snapshot.
type logbookSnapshot struct {
	SchemaVersion string                `json:"schema_version"`
	Logbooks      []*submission.Logbook `json:"logbooks"`
}

// SnapshotLogbooks writes every logbook in store to path as a single
// portable JSON document, replacing any prior snapshot atomically.
func SnapshotLogbooks(path string, store *logbook.Store) error {
	snapshot := logbookSnapshot{
		SchemaVersion: logbookSnapshotVersion,
		Logbooks:      store.All(),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling logbook snapshot: %w", err)
	}
	return atomicWrite(path, data)
}

// LoadLogbooks reconstructs a logbook.Store from a snapshot file
// previously written by SnapshotLogbooks. A missing file yields an
// empty store, not an error — there is nothing to reconstruct on
// first run.
func LoadLogbooks(path string, c clock.Clock) (*logbook.Store, error) {
	store := logbook.New(c)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading logbook snapshot: %w", err)
	}

	var snapshot logbookSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing logbook snapshot: %w", err)
	}

	store.Restore(snapshot.Logbooks)
	return store, nil
}

// manifestSidecar mirrors the shape docstore writes alongside every
// document; declared again here (not imported) because the snapshot
// format is a persistence-layer concern, independent of docstore's
// in-process representation.
type manifestSidecar struct {
	DocumentID string `json:"document_id"`
	SHA256Hex  string `json:"sha256_hex"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedAt string `json:"uploaded_at"`
}

// RebuildDocumentIndex walks baseDir/documents, reading every
// *.manifest.json sidecar, and returns the DocumentRecord set the
// docstore index should be restored to. A manifest whose sidecar
// cannot be parsed is skipped rather than failing the whole rebuild —
// matching the teacher's replay discipline of skipping corrupted
// records rather than refusing to start.
func RebuildDocumentIndex(baseDir string) ([]submission.DocumentRecord, error) {
	root := filepath.Join(baseDir, "documents")
	records := make([]submission.DocumentRecord, 0)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return records, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		record, ok := parseManifestPath(root, path)
		if !ok {
			return nil
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking document store: %w", err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].DocumentID < records[j].DocumentID })
	return records, nil
}

func parseManifestPath(root, manifestPath string) (submission.DocumentRecord, bool) {
	const suffix = ".manifest.json"
	if len(manifestPath) <= len(suffix) || manifestPath[len(manifestPath)-len(suffix):] != suffix {
		return submission.DocumentRecord{}, false
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return submission.DocumentRecord{}, false
	}
	var sidecar manifestSidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return submission.DocumentRecord{}, false
	}

	docPath := manifestPath[:len(manifestPath)-len(".manifest.json")]
	rel, err := filepath.Rel(root, docPath)
	if err != nil {
		return submission.DocumentRecord{}, false
	}
	parts := splitPath(rel)
	if len(parts) != 3 {
		return submission.DocumentRecord{}, false
	}
	propertyID, docType, filename := parts[0], parts[1], parts[2]

	uploadedAt, err := parseTimeRFC3339(sidecar.UploadedAt)
	if err != nil {
		return submission.DocumentRecord{}, false
	}

	documentID := sidecar.DocumentID
	if documentID == "" {
		// Sidecar predates document_id being persisted; fall back to a
		// content-derived id rather than losing the record outright.
		documentID = deriveDocumentID(sidecar.SHA256Hex)
	}

	return submission.DocumentRecord{
		DocumentID:   documentID,
		PropertyID:   propertyID,
		DocumentType: submission.DocumentType(docType),
		Filename:     filename,
		SHA256Hex:    sidecar.SHA256Hex,
		SizeBytes:    sidecar.SizeBytes,
		Extension:    extensionOf(filename),
		UploadedAt:   uploadedAt,
	}, true
}

// deriveDocumentID re-derives a document_id from the content hash
// alone, used only when restoring a sidecar written before document_id
// was persisted directly.
func deriveDocumentID(sha256Hex string) string {
	if len(sha256Hex) < 12 {
		return "DOC-" + sha256Hex
	}
	return "DOC-" + sha256Hex[:12]
}

func extensionOf(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return ext[1:]
	}
	return ""
}

// atomicWrite writes data to path via a temp file in the same
// directory, fsync, then rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// splitPath splits a relative path into its components, independent
// of OS separator conventions.
func splitPath(rel string) []string {
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseTimeRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
