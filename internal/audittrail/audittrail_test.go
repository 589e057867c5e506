package audittrail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisdeal/deal-engine/pkg/dealengine/confidence"
	"github.com/axisdeal/deal-engine/pkg/dealengine/opportunity"
)

func sampleInput() Input {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	return Input{
		IngestionStamp:       now,
		ValidationPassed:     true,
		CompsUsed:            5,
		CompIDs:              []string{"t1", "t2"},
		CompPrices:           []int64{240_000, 260_000},
		CompRadiusMiles:      0.5,
		CompDateRangeMonths:  12,
		EMV:                  250_000,
		Confidence:           confidence.High,
		ConfidenceReason:     "5 comps within 12 months, 0.5 mi",
		BMVScore:             60,
		UrgencyScore:         40,
		LocationScore:        50,
		ValueScore:           70,
		OverallScore:         55,
		Recommendation:       opportunity.Strong,
		ClassificationReason: "bmv% 16.00 >= 15 and overall 70.00 >= 70: STRONG",
		ProcessingTimestamp:  now,
	}
}

func TestAssemble_SetsEngineVersion(t *testing.T) {
	trail := Assemble(sampleInput())
	assert.Equal(t, opportunity.EngineVersion, trail.EngineVersion)
}

func TestAssemble_IsDeterministic(t *testing.T) {
	a := Assemble(sampleInput())
	b := Assemble(sampleInput())
	require.NotEmpty(t, a.Hash)
	assert.Equal(t, a.Hash, b.Hash)
}

func TestAssemble_HashChangesWithInput(t *testing.T) {
	a := Assemble(sampleInput())
	in := sampleInput()
	in.EMV = 251_000
	b := Assemble(in)
	assert.NotEqual(t, a.Hash, b.Hash)
}
