// Package pipeline orchestrates stages 1-8 of the Deal Engine (spec §5):
// ingestion, structural validation, comparable selection, market-reality
// computation, confidence gating, scoring, classification, and audit
// assembly. Assets are independent of one another, so the pipeline runs
// them on a bounded worker pool — the one place this module
// deliberately diverges from the teacher's synchronous, single-writer
// style, because spec.md §5 calls for embarrassingly-parallel per-asset
// execution where the teacher's FileLog calls for none.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/axisdeal/deal-engine/internal/audittrail"
	"github.com/axisdeal/deal-engine/internal/classifier"
	"github.com/axisdeal/deal-engine/internal/comparablestore"
	"github.com/axisdeal/deal-engine/internal/config"
	"github.com/axisdeal/deal-engine/internal/confidencegate"
	"github.com/axisdeal/deal-engine/internal/marketengine"
	"github.com/axisdeal/deal-engine/internal/scorer"
	"github.com/axisdeal/deal-engine/internal/validator"
	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/asset"
	"github.com/axisdeal/deal-engine/pkg/dealengine/comparable"
	"github.com/axisdeal/deal-engine/pkg/dealengine/confidence"
	"github.com/axisdeal/deal-engine/pkg/dealengine/opportunity"
	"github.com/axisdeal/deal-engine/pkg/dealengine/rejection"
	"github.com/axisdeal/deal-engine/pkg/dealengine/scoring"
)

// Pipeline wires stages 2-8 together over a shared comparable Selector
// and EngineConfig. A Pipeline is safe for concurrent use by multiple
// goroutines: every stage function it calls is either pure or operates
// under the Selector's own lock.
type Pipeline struct {
	cfg         *config.EngineConfig
	validator   *validator.Validator
	selector    *comparablestore.Selector
	clock       clock.Clock
	logger      *zap.Logger
	concurrency int
}

// New builds a Pipeline. concurrency <= 0 means "run everything
// sequentially" (concurrency of 1).
func New(cfg *config.EngineConfig, selector *comparablestore.Selector, c clock.Clock, logger *zap.Logger, concurrency int) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:         cfg,
		validator:   validator.New(c),
		selector:    selector,
		clock:       c,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Result is the outcome of running one raw listing through the pipeline.
type Result struct {
	Opportunity *opportunity.Opportunity // nil on rejection
	Rejection   *rejection.Record        // nil on success
}

// Run processes every raw listing in listings concurrently (bounded by
// the Pipeline's configured concurrency) and returns one Result per
// input listing, in the same order listings was given in — concurrency
// affects wall-clock time, never output ordering or content.
func (p *Pipeline) Run(ctx context.Context, listings []asset.RawListing) []Result {
	results := make([]Result, len(listings))

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i, raw := range listings {
		i, raw := i, raw
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				return
			default:
			}

			results[i] = p.processOne(raw)
		}()
	}

	wg.Wait()
	return results
}

// RunAndRank is Run followed by stable ranking across every successful
// opportunity (spec §4.6's ranking pass operates on the whole batch, not
// per-asset) and returns the opportunities and rejections separately.
//
// scorer.Rank sorts its argument in place, so ranking is done on a copy
// of each opportunity's Scored and the resulting Rank transplanted back
// by AssetID — never by index, since the copy and meta can end up in
// different orders once sorted.
func (p *Pipeline) RunAndRank(ctx context.Context, listings []asset.RawListing) (opportunities []opportunity.Opportunity, rejections []rejection.Record) {
	results := p.Run(ctx, listings)

	meta := make([]opportunity.Opportunity, 0, len(results))
	for _, r := range results {
		if r.Rejection != nil {
			rejections = append(rejections, *r.Rejection)
			continue
		}
		if r.Opportunity == nil {
			// Cancelled before processing began: no result to report.
			continue
		}
		meta = append(meta, *r.Opportunity)
	}

	scored := make([]scoring.Scored, len(meta))
	for i := range meta {
		scored[i] = meta[i].Scored
	}
	scorer.Rank(scored)

	rankByAsset := make(map[string]int, len(scored))
	for _, sc := range scored {
		rankByAsset[sc.AssetID] = sc.Rank
	}
	for i := range meta {
		meta[i].Rank = rankByAsset[meta[i].AssetID]
	}
	sort.SliceStable(meta, func(i, j int) bool { return meta[i].Rank < meta[j].Rank })

	return meta, rejections
}

func (p *Pipeline) processOne(raw asset.RawListing) Result {
	ingestionStamp := p.clock.Now()

	validated, rej := p.validator.Validate(raw)
	if rej != nil {
		p.logger.Debug("listing rejected by structural validator", zap.String("code", string(rej.Code)), zap.String("reason", rej.Reason))
		record := rejection.FromError(raw.SourceID, "", rej, ingestionStamp)
		return Result{Rejection: &record}
	}
	validated.AssetID = uuid.NewString()

	comps, radius, months, fallbackLevel := p.selector.Select(*validated)
	analysis := marketengine.Compute(*validated, comps, radius, months, fallbackLevel)

	level, confidenceReason := confidencegate.Gate(analysis, p.cfg)
	cap, capReason, insufficientData := confidencegate.Cap(level, analysis, p.cfg)

	scoreInput := scoring.Input{
		BMVPercent:    analysis.BMVPercent,
		DaysOnMarket:  validated.DaysOnMarket,
		Confidence:    level,
		TargetBMVTier: p.cfg.TargetBMVTier,
	}
	scores := scorer.Score(scoreInput, p.cfg)

	var class classifier.Result
	if insufficientData {
		class = classifier.Classify(0, analysis.BMVPercent, scores.Overall, cap, capReason)
	} else {
		class = classifier.Classify(analysis.CompsUsed, analysis.BMVPercent, scores.Overall, cap, capReason)
	}

	processingTimestamp := p.clock.Now()

	gated := confidence.GatedAnalysis{
		Analysis:   analysis,
		Confidence: level,
	}
	if capReason != "" {
		c := cap
		gated.RecommendationCap = &c
	}

	scored := scoring.Scored{
		GatedAnalysis: gated,
		Scores:        scores,
		AssetID:       validated.AssetID,
		AskingPrice:   validated.AskingPrice,
	}

	trail := buildAuditTrail(ingestionStamp, processingTimestamp, analysis, level, confidenceReason, capReason, scores, class)

	opp := opportunity.Opportunity{
		Scored:               scored,
		Recommendation:       class.Recommendation,
		ClassificationReason: class.Reason,
		Audit:                trail,
	}

	return Result{Opportunity: &opp}
}

func buildAuditTrail(
	ingestionStamp, processingTimestamp time.Time,
	analysis comparable.Analysis,
	level confidence.Level,
	confidenceReason, capReason string,
	scores scoring.Scores,
	class classifier.Result,
) opportunity.AuditTrail {
	return audittrail.Assemble(audittrail.Input{
		IngestionStamp:       ingestionStamp,
		ValidationPassed:     true,
		CompsUsed:            analysis.CompsUsed,
		CompIDs:              analysis.CompIDs,
		CompPrices:           analysis.CompPrices,
		CompRadiusMiles:      analysis.CompRadiusMiles,
		CompDateRangeMonths:  analysis.CompDateRangeMonths,
		EMV:                  analysis.EMV,
		Confidence:           level,
		ConfidenceReason:     confidenceReason,
		CapApplied:           capReason,
		BMVScore:             scores.BMV,
		UrgencyScore:         scores.Urgency,
		LocationScore:        scores.Location,
		ValueScore:           scores.Value,
		OverallScore:         scores.Overall,
		Recommendation:       class.Recommendation,
		ClassificationReason: class.Reason,
		ProcessingTimestamp:  processingTimestamp,
	})
}
