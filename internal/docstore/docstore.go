// Package docstore is the content-addressed document store (spec §4.9,
// C10). Every document is written under a per-property, per-type
// directory tree keyed by property_id, alongside a sidecar manifest
// recording its SHA-256 and size, then written atomically the same way
// the teacher's FileLog persists its append-only log: temp file, fsync,
// rename.
package docstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/submission"
	"github.com/axisdeal/deal-engine/pkg/dealerrors"
)

const maxDocumentSize = 10 * 1024 * 1024 // 10 MiB

// allowedExtensions maps an accepted file extension to the MIME types
// mimetype.Detect may report for it — both the extension and the
// sniffed content must agree before a document is accepted. TIFF has
// no signature entry in net/http's sniff table, which is why this
// store reaches for mimetype rather than stdlib — see DESIGN.md.
var allowedExtensions = map[string][]string{
	"pdf":  {"application/pdf"},
	"jpg":  {"image/jpeg"},
	"jpeg": {"image/jpeg"},
	"png":  {"image/png"},
	"tiff": {"image/tiff"},
}

// Store is a content-addressed document store rooted at a base
// directory. Concurrent puts to different properties proceed in
// parallel; a per-store mutex serialises the manifest index update that
// follows each write.
type Store struct {
	mu      sync.Mutex
	baseDir string
	clock   clock.Clock
	index   map[string]submission.DocumentRecord // document_id -> record
}

// New builds a Store rooted at baseDir, creating it if necessary.
func New(baseDir string, c clock.Clock) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating document store root: %w", err)
	}
	if c == nil {
		c = clock.NewReal()
	}
	return &Store{baseDir: baseDir, clock: c, index: make(map[string]submission.DocumentRecord)}, nil
}

// Put validates and stores content under propertyID/documentType/filename,
// returning the resulting DocumentRecord. Two puts with identical bytes
// produce identical sha256_hex; a replacement keeps the prior record
// reachable by its own document_id — Put never deletes.
func (s *Store) Put(propertyID string, docType submission.DocumentType, content []byte, filename string) (submission.DocumentRecord, *dealerrors.RejectionError) {
	if len(content) == 0 {
		return submission.DocumentRecord{}, dealerrors.NewRejection(dealerrors.CodeEmptyFile, "document content is empty")
	}
	if len(content) > maxDocumentSize {
		return submission.DocumentRecord{}, dealerrors.NewRejection(dealerrors.CodeFileTooLarge, fmt.Sprintf("document is %d bytes, exceeds %d byte limit", len(content), maxDocumentSize))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	wantMIMEs, extOK := allowedExtensions[ext]
	if !extOK {
		return submission.DocumentRecord{}, dealerrors.NewRejection(dealerrors.CodeUnsupportedFormat, fmt.Sprintf("extension %q is not in the allowed set", ext))
	}
	sniffed := mimetype.Detect(content).String()
	if !mimeMatches(sniffed, wantMIMEs) {
		return submission.DocumentRecord{}, dealerrors.NewRejection(dealerrors.CodeUnsupportedFormat, fmt.Sprintf("sniffed content type %q does not match extension %q", sniffed, ext))
	}

	sum := sha256.Sum256(content)
	hashHex := hex.EncodeToString(sum[:])

	dir := filepath.Join(s.baseDir, "documents", propertyID, string(docType))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return submission.DocumentRecord{}, dealerrors.NewRejection(dealerrors.CodeUnsupportedFormat, fmt.Sprintf("creating document directory: %v", err))
	}

	docPath := filepath.Join(dir, filename)
	if err := atomicWrite(docPath, content); err != nil {
		return submission.DocumentRecord{}, dealerrors.NewRejection(dealerrors.CodeUnsupportedFormat, fmt.Sprintf("writing document: %v", err))
	}

	record := submission.DocumentRecord{
		DocumentID:   s.allocateDocumentID(),
		PropertyID:   propertyID,
		DocumentType: docType,
		Filename:     filename,
		SHA256Hex:    hashHex,
		SizeBytes:    int64(len(content)),
		Extension:    ext,
		UploadedAt:   s.clock.Now(),
	}

	if err := writeManifest(docPath, record); err != nil {
		return submission.DocumentRecord{}, dealerrors.NewRejection(dealerrors.CodeUnsupportedFormat, fmt.Sprintf("writing manifest: %v", err))
	}

	s.mu.Lock()
	s.index[record.DocumentID] = record
	s.mu.Unlock()

	return record, nil
}

// allocateDocumentID mints a "DOC-" id unique among every document
// currently indexed, retrying on the rare collision rather than
// silently overwriting an existing record.
func (s *Store) allocateDocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id := "DOC-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		if _, exists := s.index[id]; !exists {
			return id
		}
	}
}

// Get returns the raw bytes for a previously stored document, verifying
// the bytes on disk still hash to the recorded sha256_hex.
func (s *Store) Get(documentID string) ([]byte, *dealerrors.RejectionError) {
	s.mu.Lock()
	record, ok := s.index[documentID]
	s.mu.Unlock()
	if !ok {
		return nil, dealerrors.NewRejection(dealerrors.CodeHashMismatchOnRead, "document not found")
	}

	path := filepath.Join(s.baseDir, "documents", record.PropertyID, string(record.DocumentType), record.Filename)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, dealerrors.NewRejection(dealerrors.CodeHashMismatchOnRead, fmt.Sprintf("reading document: %v", err))
	}

	sum := sha256.Sum256(content)
	if hex.EncodeToString(sum[:]) != record.SHA256Hex {
		return nil, dealerrors.NewRejection(dealerrors.CodeHashMismatchOnRead, "stored content no longer matches recorded sha256_hex")
	}
	return content, nil
}

// Manifest returns the DocumentRecord for documentID without reading the
// underlying bytes.
func (s *Store) Manifest(documentID string) (submission.DocumentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.index[documentID]
	return record, ok
}

// RestoreIndex replaces the store's in-memory index with records,
// keyed by their own DocumentID. Used by the persistence layer to
// rebuild the index from on-disk manifests at startup.
func (s *Store) RestoreIndex(records []submission.DocumentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = make(map[string]submission.DocumentRecord, len(records))
	for _, r := range records {
		s.index[r.DocumentID] = r
	}
}

// ListForProperty returns every document record stored for propertyID,
// sorted by document_id for determinism.
func (s *Store) ListForProperty(propertyID string) []submission.DocumentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]submission.DocumentRecord, 0)
	for _, r := range s.index {
		if r.PropertyID == propertyID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out
}

func mimeMatches(sniffed string, allowed []string) bool {
	// mimetype.Detect may append a charset parameter; compare only the
	// base media type.
	base := sniffed
	if idx := strings.Index(sniffed, ";"); idx >= 0 {
		base = sniffed[:idx]
	}
	base = strings.TrimSpace(base)
	for _, a := range allowed {
		if base == a {
			return true
		}
	}
	return false
}

// atomicWrite writes content to path via a temp file in the same
// directory, fsync, then rename — never a partial file visible at path.
func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
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

// manifestSidecar is the JSON shape written alongside each document.
// document_id is persisted so a reload can restore the exact id a
// client (or a logbook snapshot) already holds, rather than deriving a
// different one from the content hash.
type manifestSidecar struct {
	DocumentID string    `json:"document_id"`
	SHA256Hex  string    `json:"sha256_hex"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func writeManifest(docPath string, record submission.DocumentRecord) error {
	sidecar := manifestSidecar{DocumentID: record.DocumentID, SHA256Hex: record.SHA256Hex, SizeBytes: record.SizeBytes, UploadedAt: record.UploadedAt}
	data, err := json.Marshal(sidecar)
	if err != nil {
		return err
	}
	return atomicWrite(docPath+".manifest.json", data)
}
