// Package logbook is the append-only submission logbook (spec §4.10,
// C11). Every state change is expressed as a new SubmissionVersion; no
// version is ever rewritten, and status changes are gated by the
// state machine declared in allowedTransitions, grounded on the
// teacher's ApprovalLedger (append-only log of state-changing events)
// and its in-memory ID-minting Runtime.
package logbook

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/submission"
	"github.com/axisdeal/deal-engine/pkg/dealerrors"
)

// allowedTransitions is the status state machine from spec §4.10. A
// status absent from this map, or present with an empty slice, is
// terminal: only WITHDRAWN transitions reach further (and WITHDRAWN
// itself has none).
var allowedTransitions = map[submission.Status][]submission.Status{
	submission.Draft:       {submission.Incomplete, submission.Withdrawn},
	submission.Incomplete:  {submission.Submitted, submission.Withdrawn},
	submission.Submitted:   {submission.UnderReview, submission.Withdrawn},
	submission.UnderReview: {submission.Evaluated, submission.Unevaluated, submission.Withdrawn},
	submission.Unevaluated: {submission.Withdrawn},
	submission.Evaluated:   {submission.Approved, submission.Rejected, submission.Archived, submission.Withdrawn},
}

// mandatoryDocuments always required, independent of tenure or
// planning-application facts.
var mandatoryDocuments = []submission.DocumentType{
	submission.TitleRegister,
	submission.EPC,
	submission.FloorPlan,
}

// Store is the in-memory logbook store, keyed by property_id. A Store
// is safe for concurrent use; every append takes the single store-wide
// mutex guarding the map and the append itself, so appends are
// serialised across all properties.
type Store struct {
	mu         sync.RWMutex
	clock      clock.Clock
	books      map[string]*submission.Logbook
	versionIDs map[string]bool // every version_id ever minted, for collision detection
}

// New builds an empty Store.
func New(c clock.Clock) *Store {
	if c == nil {
		c = clock.NewReal()
	}
	return &Store{clock: c, books: make(map[string]*submission.Logbook), versionIDs: make(map[string]bool)}
}

// Submit creates a new logbook, allocating a property_id and an
// initial version. current_status is SUBMITTED if every mandatory
// field and document is present, else INCOMPLETE.
func (s *Store) Submit(fields submission.Fields, actionBy string) *submission.Logbook {
	now := s.clock.Now()
	status := submission.Incomplete
	if isComplete(fields) {
		status = submission.Submitted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book := &submission.Logbook{
		PropertyID:    s.allocatePropertyID(),
		CreatedAt:     now,
		CurrentStatus: status,
		Versions: []submission.SubmissionVersion{
			{
				VersionID:       s.allocateVersionID(),
				VersionNumber:   1,
				Timestamp:       now,
				Action:          submission.InitialSubmission,
				ActionBy:        actionBy,
				Snapshot:        fields.DeepCopy(),
				StatusAtVersion: status,
			},
		},
	}

	s.books[book.PropertyID] = book
	return book
}

// LogbookReader is the read-only surface an outer layer (an HTTP API,
// a report generator) should depend on instead of the full Store, so
// it can never reach the append/transition methods below.
type LogbookReader interface {
	GetCurrent(propertyID string) (*submission.Logbook, *dealerrors.RejectionError)
	GetHistory(propertyID string) ([]submission.SubmissionVersion, *dealerrors.RejectionError)
	GetVersion(propertyID string, n int) (submission.SubmissionVersion, *dealerrors.RejectionError)
}

var _ LogbookReader = (*Store)(nil)

// GetCurrent is an alias of Get, named to satisfy LogbookReader.
func (s *Store) GetCurrent(propertyID string) (*submission.Logbook, *dealerrors.RejectionError) {
	return s.Get(propertyID)
}

// GetHistory is an alias of History, named to satisfy LogbookReader.
func (s *Store) GetHistory(propertyID string) ([]submission.SubmissionVersion, *dealerrors.RejectionError) {
	return s.History(propertyID)
}

// GetVersion is an alias of Version, named to satisfy LogbookReader.
func (s *Store) GetVersion(propertyID string, n int) (submission.SubmissionVersion, *dealerrors.RejectionError) {
	return s.Version(propertyID, n)
}

// Get returns the current logbook for propertyID.
func (s *Store) Get(propertyID string) (*submission.Logbook, *dealerrors.RejectionError) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[propertyID]
	if !ok {
		return nil, dealerrors.NewRejection(dealerrors.CodeUnknownProperty, "no logbook for property_id "+propertyID)
	}
	return book, nil
}

// History returns every version of propertyID's logbook, oldest first.
func (s *Store) History(propertyID string) ([]submission.SubmissionVersion, *dealerrors.RejectionError) {
	book, rej := s.Get(propertyID)
	if rej != nil {
		return nil, rej
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]submission.SubmissionVersion, len(book.Versions))
	copy(out, book.Versions)
	return out, nil
}

// Version returns the nth version (1-indexed) of propertyID's logbook.
func (s *Store) Version(propertyID string, n int) (submission.SubmissionVersion, *dealerrors.RejectionError) {
	book, rej := s.Get(propertyID)
	if rej != nil {
		return submission.SubmissionVersion{}, rej
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 1 || n > len(book.Versions) {
		return submission.SubmissionVersion{}, dealerrors.NewRejection(dealerrors.CodeVersionNotFound, "no such version")
	}
	return book.Versions[n-1], nil
}

// UpdateFields appends a field_updated version with an updated
// snapshot. current_status is unchanged.
func (s *Store) UpdateFields(propertyID string, fields submission.Fields, actionBy string) (*submission.Logbook, *dealerrors.RejectionError) {
	return s.appendVersion(propertyID, submission.FieldUpdated, actionBy, fields, nil)
}

// AddDocument appends a document_added version whose snapshot carries
// the new document alongside the prior ones. current_status is
// unchanged.
func (s *Store) AddDocument(propertyID string, doc submission.DocumentRecord, actionBy string) (*submission.Logbook, *dealerrors.RejectionError) {
	return s.mutateDocuments(propertyID, submission.DocumentAdded, actionBy, func(docs []submission.DocumentRecord) []submission.DocumentRecord {
		return append(docs, doc)
	})
}

// ReplaceDocument appends a document_replaced version, swapping out
// every existing document of the same DocumentType for doc.
// current_status is unchanged.
func (s *Store) ReplaceDocument(propertyID string, doc submission.DocumentRecord, actionBy string) (*submission.Logbook, *dealerrors.RejectionError) {
	return s.mutateDocuments(propertyID, submission.DocumentReplaced, actionBy, func(docs []submission.DocumentRecord) []submission.DocumentRecord {
		out := make([]submission.DocumentRecord, 0, len(docs)+1)
		for _, d := range docs {
			if d.DocumentType != doc.DocumentType {
				out = append(out, d)
			}
		}
		return append(out, doc)
	})
}

func (s *Store) mutateDocuments(propertyID string, action submission.Action, actionBy string, mutate func([]submission.DocumentRecord) []submission.DocumentRecord) (*submission.Logbook, *dealerrors.RejectionError) {
	book, rej := s.Get(propertyID)
	if rej != nil {
		return nil, rej
	}
	current := book.Current().Snapshot.DeepCopy()
	current.Documents = mutate(current.Documents)
	return s.appendVersion(propertyID, action, actionBy, current, nil)
}

// TransitionStatus appends a status_changed version moving
// current_status to next, if the state machine permits it.
func (s *Store) TransitionStatus(propertyID string, next submission.Status, actionBy string) (*submission.Logbook, *dealerrors.RejectionError) {
	book, rej := s.Get(propertyID)
	if rej != nil {
		return nil, rej
	}
	current := book.CurrentStatus
	if !isAllowed(current, next) {
		return nil, dealerrors.NewRejection(dealerrors.CodeIllegalStatusTransition, string(current)+" -> "+string(next)+" is not a permitted transition")
	}
	snapshot := book.Current().Snapshot.DeepCopy()
	return s.appendVersion(propertyID, submission.StatusChanged, actionBy, snapshot, &next)
}

func (s *Store) appendVersion(propertyID string, action submission.Action, actionBy string, fields submission.Fields, forcedStatus *submission.Status) (*submission.Logbook, *dealerrors.RejectionError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[propertyID]
	if !ok {
		return nil, dealerrors.NewRejection(dealerrors.CodeUnknownProperty, "no logbook for property_id "+propertyID)
	}

	status := book.CurrentStatus
	if forcedStatus != nil {
		status = *forcedStatus
	}

	version := submission.SubmissionVersion{
		VersionID:       s.allocateVersionID(),
		VersionNumber:   len(book.Versions) + 1,
		Timestamp:       s.clock.Now(),
		Action:          action,
		ActionBy:        actionBy,
		Snapshot:        fields.DeepCopy(),
		StatusAtVersion: status,
	}
	book.Versions = append(book.Versions, version)
	book.CurrentStatus = status

	return book, nil
}

// isAllowed reports whether next is a permitted transition from
// current under allowedTransitions.
func isAllowed(current, next submission.Status) bool {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// isComplete reports whether fields satisfies the ten mandatory
// fields (spec §6.2) and the conditional mandatory-document set
// (spec §4.10).
func isComplete(fields submission.Fields) bool {
	if fields.FullAddress == "" || fields.Postcode == "" || fields.PropertyType == "" ||
		fields.Tenure == "" || fields.FloorAreaSqm <= 0 || fields.GuidePrice <= 0 ||
		fields.SaleRoute == "" || fields.AgentFirm == "" || fields.AgentName == "" ||
		fields.AgentEmail == "" {
		return false
	}

	required := make([]submission.DocumentType, len(mandatoryDocuments))
	copy(required, mandatoryDocuments)
	if strings.EqualFold(fields.Tenure, "leasehold") {
		required = append(required, submission.Lease)
	}
	if fields.HasPlanningApplication {
		required = append(required, submission.PlanningApproval)
	}

	present := make(map[submission.DocumentType]bool, len(fields.Documents))
	for _, d := range fields.Documents {
		present[d.DocumentType] = true
	}
	for _, dt := range required {
		if !present[dt] {
			return false
		}
	}
	return true
}

// allocatePropertyID mints a "PROP-" id unique among every logbook
// currently held, retrying on the rare collision rather than silently
// overwriting an existing logbook. Callers must hold s.mu for writing.
func (s *Store) allocatePropertyID() string {
	for {
		id := "PROP-" + hex12()
		if _, exists := s.books[id]; !exists {
			return id
		}
	}
}

// allocateVersionID mints a "SUB-" id unique across every version ever
// appended to this store, retrying on collision. Callers must hold s.mu
// for writing.
func (s *Store) allocateVersionID() string {
	for {
		id := "SUB-" + hex12()
		if !s.versionIDs[id] {
			s.versionIDs[id] = true
			return id
		}
	}
}

func hex12() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// sortedPropertyIDs is a deterministic iteration helper for callers
// (e.g. the persistence snapshotter) that need to walk every logbook
// in a stable order.
func (s *Store) sortedPropertyIDs() []string {
	ids := make([]string, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every logbook in the store, sorted by property_id, for
// snapshotting.
func (s *Store) All() []*submission.Logbook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.sortedPropertyIDs()
	out := make([]*submission.Logbook, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.books[id])
	}
	return out
}

// Restore replaces the store's contents with books, keyed by their
// own PropertyID. Used by the persistence layer to reconstruct state
// from a durable snapshot.
func (s *Store) Restore(books []*submission.Logbook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = make(map[string]*submission.Logbook, len(books))
	s.versionIDs = make(map[string]bool)
	for _, b := range books {
		s.books[b.PropertyID] = b
		for _, v := range b.Versions {
			s.versionIDs[v.VersionID] = true
		}
	}
}
