// Package submission defines the submission portal's data model: the
// documents an agent uploads, the versioned logbook that results, and the
// status state machine governing it. The logbook is append-only — no
// type in this package exposes a way to rewrite or delete a version.
package submission

import "time"

// DocumentType is the closed set of document kinds the portal accepts.
type DocumentType string

const (
	TitleRegister    DocumentType = "TITLE_REGISTER"
	EPC              DocumentType = "EPC"
	FloorPlan        DocumentType = "FLOOR_PLAN"
	Lease            DocumentType = "LEASE"
	PlanningApproval DocumentType = "PLANNING_APPROVAL"
	Other            DocumentType = "OTHER"
)

// DocumentRecord describes one stored, content-addressed document.
type DocumentRecord struct {
	DocumentID   string
	PropertyID   string
	DocumentType DocumentType
	Filename     string
	SHA256Hex    string
	SizeBytes    int64
	Extension    string // one of pdf, jpg, jpeg, png, tiff
	UploadedAt   time.Time
}

// Action is the closed set of events that can produce a new
// SubmissionVersion.
type Action string

const (
	InitialSubmission Action = "initial_submission"
	DocumentAdded     Action = "document_added"
	DocumentReplaced  Action = "document_replaced"
	FieldUpdated      Action = "field_updated"
	StatusChanged     Action = "status_changed"
	AxisReview        Action = "axis_review"
	Resubmission      Action = "resubmission"
)

// Status is the closed set of lifecycle states a logbook can be in.
type Status string

const (
	Draft       Status = "DRAFT"
	Incomplete  Status = "INCOMPLETE"
	Submitted   Status = "SUBMITTED"
	UnderReview Status = "UNDER_REVIEW"
	Unevaluated Status = "UNEVALUATED"
	Evaluated   Status = "EVALUATED"
	Approved    Status = "APPROVED"
	Rejected    Status = "REJECTED"
	Archived    Status = "ARCHIVED"
	Withdrawn   Status = "WITHDRAWN"
)

// SaleRoute is the closed set of routes to sale a submission can declare.
type SaleRoute string

const (
	Auction       SaleRoute = "auction"
	PrivateTreaty SaleRoute = "private_treaty"
	OffMarket     SaleRoute = "off_market"
)

// CouncilTaxBand is the closed set A..H.
type CouncilTaxBand string

// EPCRating is the closed set A..G.
type EPCRating string

// Fields is the deep-copyable snapshot of everything an agent submitted
// or later updated about a property. It is the payload every
// SubmissionVersion.Snapshot carries — captured by value, never by a
// shared pointer, so earlier versions can never be mutated by a later
// one.
type Fields struct {
	FullAddress  string
	Postcode     string
	PropertyType string
	Tenure       string
	FloorAreaSqm float64
	GuidePrice   int64
	SaleRoute    SaleRoute
	AgentFirm    string
	AgentName    string
	AgentEmail   string

	Bedrooms       *int
	Bathrooms      *int
	YearBuilt      *int
	CouncilTaxBand CouncilTaxBand
	EPCRating      EPCRating

	HasPlanningApplication bool

	LeaseYearsRemaining *int
	GroundRentAnnual    *int64
	ServiceChargeAnnual *int64

	Documents []DocumentRecord
}

// DeepCopy returns a snapshot of f with no shared mutable state — slices
// and pointer fields are copied, never aliased.
func (f Fields) DeepCopy() Fields {
	cp := f
	cp.Bedrooms = copyIntPtr(f.Bedrooms)
	cp.Bathrooms = copyIntPtr(f.Bathrooms)
	cp.YearBuilt = copyIntPtr(f.YearBuilt)
	cp.LeaseYearsRemaining = copyIntPtr(f.LeaseYearsRemaining)
	cp.GroundRentAnnual = copyInt64Ptr(f.GroundRentAnnual)
	cp.ServiceChargeAnnual = copyInt64Ptr(f.ServiceChargeAnnual)
	if f.Documents != nil {
		cp.Documents = make([]DocumentRecord, len(f.Documents))
		copy(cp.Documents, f.Documents)
	}
	return cp
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInt64Ptr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SubmissionVersion is one immutable entry in a logbook's append-only
// history.
type SubmissionVersion struct {
	VersionID       string
	VersionNumber   int // strictly increasing, starts at 1
	Timestamp       time.Time
	Action          Action
	ActionBy        string
	Snapshot        Fields // deep copy captured at this version
	StatusAtVersion Status
}

// Logbook is the append-only versioned record for one submitted property.
type Logbook struct {
	PropertyID    string // "PROP-" + 12 hex chars
	CreatedAt     time.Time
	CurrentStatus Status
	Versions      []SubmissionVersion // ordered, non-empty, never rewritten
}

// Current returns the latest version.
func (l *Logbook) Current() SubmissionVersion {
	return l.Versions[len(l.Versions)-1]
}
