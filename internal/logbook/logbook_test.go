package logbook

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/submission"
)

func newStore() *Store {
	return New(clock.NewFixed(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
}

func completeFreeholdFields() submission.Fields {
	return submission.Fields{
		FullAddress: "12 Orchard Road",
		Postcode:    "SW1A 1AA",
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

func TestSubmit_CompleteFreeholdSubmissionIsSubmitted(t *testing.T) {
	s := newStore()
	book := s.Submit(completeFreeholdFields(), "agent-1")

	assert.True(t, strings.HasPrefix(book.PropertyID, "PROP-"))
	assert.Len(t, book.PropertyID, len("PROP-")+12)
	assert.Equal(t, submission.Submitted, book.CurrentStatus)
	require.Len(t, book.Versions, 1)
	assert.Equal(t, 1, book.Versions[0].VersionNumber)
	assert.Equal(t, submission.InitialSubmission, book.Versions[0].Action)
}

func TestSubmit_LeaseholdWithoutLeaseIsIncomplete(t *testing.T) {
	s := newStore()
	fields := completeFreeholdFields()
	fields.Tenure = "leasehold"
	// no LEASE document supplied

	book := s.Submit(fields, "agent-1")
	assert.Equal(t, submission.Incomplete, book.CurrentStatus)
	assert.Equal(t, submission.Incomplete, book.Versions[0].StatusAtVersion)
}

func TestSubmit_MissingMandatoryFieldIsIncomplete(t *testing.T) {
	s := newStore()
	fields := completeFreeholdFields()
	fields.AgentEmail = ""

	book := s.Submit(fields, "agent-1")
	assert.Equal(t, submission.Incomplete, book.CurrentStatus)
}

func TestReplaceDocument_AppendsVersionWithoutChangingStatus(t *testing.T) {
	s := newStore()
	book := s.Submit(completeFreeholdFields(), "agent-1")
	require.Equal(t, submission.Submitted, book.CurrentStatus)

	replacement := submission.DocumentRecord{DocumentType: submission.FloorPlan, DocumentID: "DOC-newfloorplan0"}
	updated, rej := s.ReplaceDocument(book.PropertyID, replacement, "agent-1")
	require.Nil(t, rej)

	require.Len(t, updated.Versions, 2)
	v1, v2 := updated.Versions[0], updated.Versions[1]
	assert.Equal(t, 1, v1.VersionNumber)
	assert.Equal(t, 2, v2.VersionNumber)
	assert.Equal(t, submission.DocumentReplaced, v2.Action)
	assert.Equal(t, submission.Submitted, updated.CurrentStatus)
	assert.Equal(t, v1.StatusAtVersion, v2.StatusAtVersion)

	// v1's own snapshot must be untouched by the replacement.
	var v1FloorPlanID, v2FloorPlanID string
	for _, d := range v1.Snapshot.Documents {
		if d.DocumentType == submission.FloorPlan {
			v1FloorPlanID = d.DocumentID
		}
	}
	for _, d := range v2.Snapshot.Documents {
		if d.DocumentType == submission.FloorPlan {
			v2FloorPlanID = d.DocumentID
		}
	}
	assert.NotEqual(t, v1FloorPlanID, v2FloorPlanID)
	assert.Equal(t, "DOC-newfloorplan0", v2FloorPlanID)
}

func TestTransitionStatus_FollowsAllowedStateMachine(t *testing.T) {
	s := newStore()
	book := s.Submit(completeFreeholdFields(), "agent-1")

	updated, rej := s.TransitionStatus(book.PropertyID, submission.UnderReview, "reviewer-1")
	require.Nil(t, rej)
	assert.Equal(t, submission.UnderReview, updated.CurrentStatus)

	updated, rej = s.TransitionStatus(book.PropertyID, submission.Evaluated, "reviewer-1")
	require.Nil(t, rej)
	assert.Equal(t, submission.Evaluated, updated.CurrentStatus)

	updated, rej = s.TransitionStatus(book.PropertyID, submission.Approved, "reviewer-1")
	require.Nil(t, rej)
	assert.Equal(t, submission.Approved, updated.CurrentStatus)
}

func TestTransitionStatus_RejectsIllegalTransition(t *testing.T) {
	s := newStore()
	book := s.Submit(completeFreeholdFields(), "agent-1")

	_, rej := s.TransitionStatus(book.PropertyID, submission.Approved, "reviewer-1")
	require.NotNil(t, rej)
	assert.Equal(t, "ILLEGAL_STATUS_TRANSITION", string(rej.Code))
}

func TestTransitionStatus_WithdrawnReachableFromAnyNonTerminalState(t *testing.T) {
	s := newStore()
	book := s.Submit(completeFreeholdFields(), "agent-1")

	updated, rej := s.TransitionStatus(book.PropertyID, submission.Withdrawn, "agent-1")
	require.Nil(t, rej)
	assert.Equal(t, submission.Withdrawn, updated.CurrentStatus)
}

func TestTransitionStatus_TerminalStateAcceptsNoFurtherTransitions(t *testing.T) {
	s := newStore()
	book := s.Submit(completeFreeholdFields(), "agent-1")
	_, rej := s.TransitionStatus(book.PropertyID, submission.Withdrawn, "agent-1")
	require.Nil(t, rej)

	_, rej = s.TransitionStatus(book.PropertyID, submission.UnderReview, "agent-1")
	require.NotNil(t, rej)
	assert.Equal(t, "ILLEGAL_STATUS_TRANSITION", string(rej.Code))
}

func TestGet_UnknownPropertyIDFails(t *testing.T) {
	s := newStore()
	_, rej := s.Get("PROP-000000000000")
	require.NotNil(t, rej)
	assert.Equal(t, "UNKNOWN_PROPERTY", string(rej.Code))
}

func TestVersion_OutOfRangeFails(t *testing.T) {
	s := newStore()
	book := s.Submit(completeFreeholdFields(), "agent-1")

	_, rej := s.Version(book.PropertyID, 99)
	require.NotNil(t, rej)
	assert.Equal(t, "VERSION_NOT_FOUND", string(rej.Code))
}

func TestVersionNumbers_StrictlyIncreaseByOne(t *testing.T) {
	s := newStore()
	book := s.Submit(completeFreeholdFields(), "agent-1")
	s.TransitionStatus(book.PropertyID, submission.UnderReview, "reviewer-1")
	s.TransitionStatus(book.PropertyID, submission.Evaluated, "reviewer-1")

	history, rej := s.History(book.PropertyID)
	require.Nil(t, rej)
	for i, v := range history {
		assert.Equal(t, i+1, v.VersionNumber)
		if i > 0 {
			assert.True(t, !v.Timestamp.Before(history[i-1].Timestamp))
		}
	}
}

func TestStore_SatisfiesLogbookReaderViaAliasMethods(t *testing.T) {
	s := newStore()
	book := s.Submit(completeFreeholdFields(), "agent-1")

	var reader LogbookReader = s

	got, rej := reader.GetCurrent(book.PropertyID)
	require.Nil(t, rej)
	assert.Equal(t, book.PropertyID, got.PropertyID)

	history, rej := reader.GetHistory(book.PropertyID)
	require.Nil(t, rej)
	assert.Len(t, history, 1)

	version, rej := reader.GetVersion(book.PropertyID, 1)
	require.Nil(t, rej)
	assert.Equal(t, 1, version.VersionNumber)
}
